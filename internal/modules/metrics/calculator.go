// Package metrics converts holdings to the base currency and computes
// P&L, income and weight figures. The computation is two-pass by design:
// weights need every holding's base value first, and computing them in a
// separate pass keeps the weight-sum invariant independent of input order.
package metrics

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"github.com/statementworks/folio/internal/domain"
)

// Yields outside this closed interval are data-quality outliers and are
// discarded (null), never propagated.
const (
	yieldFloor = 0.0
	yieldCap   = 0.5
)

// reviewThreshold flags classifications for manual follow-up.
const reviewThreshold = 0.9

// Calculator computes base-currency financial metrics.
type Calculator struct {
	log zerolog.Logger
}

// New creates a calculator.
func New(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("service", "metrics").Logger(),
	}
}

// fxKey looks up the per-(account, currency) rate supplied by the account
// summaries. Missing pairs convert at 1 (already base currency).
type fxKey struct {
	accountID string
	currency  string
}

// Compute runs both passes and returns the holdings with every financial
// field populated. Inputs are not mutated.
func (c *Calculator) Compute(holdings []domain.EnrichedHolding, summaries []domain.AccountSummary) []domain.EnrichedHolding {
	rates := make(map[fxKey]decimal.Decimal, len(summaries))
	accountTotals := make(map[string]decimal.Decimal, len(summaries))
	for _, s := range summaries {
		rates[fxKey{s.AccountID, s.Currency}] = s.FXRate
		// Summary totals are in the summary's currency; the account
		// denominator is their base-currency sum.
		accountTotals[s.AccountID] = accountTotals[s.AccountID].Add(s.Total.Mul(s.FXRate))
	}

	out := make([]domain.EnrichedHolding, len(holdings))
	for i, h := range holdings {
		out[i] = c.computeHolding(h, rates)
	}

	c.computeWeights(out, accountTotals)
	return out
}

// computeHolding is pass 1: base-currency conversion, P&L and income.
func (c *Calculator) computeHolding(h domain.EnrichedHolding, rates map[fxKey]decimal.Decimal) domain.EnrichedHolding {
	fx, ok := rates[fxKey{h.AccountID, h.Currency}]
	if !ok || !fx.IsPositive() {
		fx = decimal.NewFromInt(1)
	}
	h.FXRate = fx

	marketValue := h.MarketValue
	if marketValue.IsZero() && h.LastPrice.IsPositive() && h.Quantity.IsPositive() {
		marketValue = h.LastPrice.Mul(h.Quantity)
	}

	h.MarketValueBase = marketValue.Mul(fx)
	h.BookValueBase = h.BookValue.Mul(fx)
	h.DayChangeBase = h.DayChange.Mul(fx)
	h.UnrealizedPnLBase = h.MarketValueBase.Sub(h.BookValueBase)

	h.IncludeInExposure = h.Classification.AssetType != domain.AssetTypeAccountPlanPlaceholder
	h.NeedsManualReview = h.Classification.Confidence < reviewThreshold ||
		h.Classification.IssuerRegion == domain.RegionUnknown ||
		h.Classification.Sector == domain.SectorUnknown

	// Income only exists when both dividend data and quantity are present
	// and positive; otherwise the fields stay null. Null means "no income
	// data", which is not the same statement as "confirmed zero income".
	if h.DividendPerShare.Valid && h.DividendPerShare.Decimal.IsPositive() && h.Quantity.IsPositive() {
		income := h.DividendPerShare.Decimal.Mul(h.Quantity).Mul(fx)
		h.IndicatedAnnualIncome = decimal.NewNullDecimal(income)
		h.IndicatedYieldOnMarket = cappedYield(income, h.MarketValueBase)
		h.YieldOnCost = cappedYield(income, h.BookValueBase)
	}

	return h
}

// cappedYield returns income/denominator clamped to the accepted range,
// or nil when the denominator is not positive or the result is an outlier.
func cappedYield(income, denominator decimal.Decimal) *float64 {
	if !denominator.IsPositive() {
		return nil
	}
	y, _ := income.Div(denominator).Float64()
	if y < yieldFloor || y > yieldCap {
		return nil
	}
	return &y
}

// computeWeights is pass 2. The portfolio denominator sums only holdings
// included in exposure; excluded holdings get explicit zero weights.
func (c *Calculator) computeWeights(holdings []domain.EnrichedHolding, accountTotals map[string]decimal.Decimal) {
	values := make([]float64, 0, len(holdings))
	holdingsSum := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if !h.IncludeInExposure {
			continue
		}
		v, _ := h.MarketValueBase.Float64()
		values = append(values, v)
		holdingsSum[h.AccountID] = holdingsSum[h.AccountID].Add(h.MarketValueBase)
	}
	portfolioTotal := floats.Sum(values)

	for i := range holdings {
		h := &holdings[i]
		if !h.IncludeInExposure {
			h.WeightInAccount = 0
			h.WeightInPortfolio = 0
			continue
		}

		// The statement summary total is authoritative for the account
		// denominator; fall back to the holdings sum when no summary
		// covered the account.
		accountTotal := accountTotals[h.AccountID]
		if !accountTotal.IsPositive() {
			accountTotal = holdingsSum[h.AccountID]
		}
		if accountTotal.IsPositive() {
			w, _ := h.MarketValueBase.Div(accountTotal).Float64()
			h.WeightInAccount = w
		}

		if portfolioTotal > 0 {
			v, _ := h.MarketValueBase.Float64()
			h.WeightInPortfolio = v / portfolioTotal
		}
	}
}

// PortfolioTotal sums the base market value of exposure holdings. Rollups
// use the same denominator as the weight pass.
func PortfolioTotal(holdings []domain.EnrichedHolding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		if h.IncludeInExposure {
			total = total.Add(h.MarketValueBase)
		}
	}
	return total
}
