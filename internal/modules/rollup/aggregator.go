// Package rollup aggregates enriched holdings by account, asset type,
// sector and region, reconciles account sums against statement summaries,
// and builds the exception report.
package rollup

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"github.com/statementworks/folio/internal/domain"
)

// reconcileTolerance is the largest absolute delta, in base-currency
// units, still considered reconciled. Anything bigger is reported and
// left for manual review, never auto-corrected.
var reconcileTolerance = decimal.NewFromFloat(0.01)

// lowConfidenceThreshold mirrors the metrics review threshold.
const lowConfidenceThreshold = 0.9

// Aggregator builds rollups and exceptions from a completed pipeline pass.
type Aggregator struct {
	log zerolog.Logger
}

// New creates an aggregator.
func New(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log: log.With().Str("service", "rollup").Logger(),
	}
}

// Aggregate groups holdings, computes percentages against the same
// portfolio denominator the weight pass used, reconciles per-account
// totals and emits exceptions. Holdings are read-only here.
func (a *Aggregator) Aggregate(holdings []domain.EnrichedHolding, summaries []domain.AccountSummary) domain.Rollups {
	portfolioTotal := exposureTotal(holdings)

	r := domain.Rollups{
		GeneratedAt: time.Now().UTC(),
		ByAccount:   a.reconcileAccounts(holdings, summaries),
		ByAssetType: groupBy(holdings, portfolioTotal, func(h domain.EnrichedHolding) string { return string(h.Classification.AssetType) }),
		BySector:    groupBy(holdings, portfolioTotal, func(h domain.EnrichedHolding) string { return string(h.Classification.Sector) }),
		ByRegion:    groupBy(holdings, portfolioTotal, func(h domain.EnrichedHolding) string { return string(h.Classification.IssuerRegion) }),
		Exceptions:  a.collectExceptions(holdings),
	}
	return r
}

func exposureTotal(holdings []domain.EnrichedHolding) float64 {
	values := make([]float64, 0, len(holdings))
	for _, h := range holdings {
		if h.IncludeInExposure {
			v, _ := h.MarketValueBase.Float64()
			values = append(values, v)
		}
	}
	return floats.Sum(values)
}

// groupBy sums base market value per key over exposure holdings. Buckets
// come back sorted by total, largest first, for stable output.
func groupBy(holdings []domain.EnrichedHolding, portfolioTotal float64, key func(domain.EnrichedHolding) string) []domain.RollupBucket {
	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, h := range holdings {
		if !h.IncludeInExposure {
			continue
		}
		k := key(h)
		totals[k] = totals[k].Add(h.MarketValueBase)
		counts[k]++
	}

	buckets := make([]domain.RollupBucket, 0, len(totals))
	for k, total := range totals {
		b := domain.RollupBucket{
			Key:       k,
			TotalBase: total,
			Count:     counts[k],
		}
		if portfolioTotal > 0 {
			v, _ := total.Float64()
			b.Percentage = v / portfolioTotal * 100
		}
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].TotalBase.Equal(buckets[j].TotalBase) {
			return buckets[i].Key < buckets[j].Key
		}
		return buckets[i].TotalBase.GreaterThan(buckets[j].TotalBase)
	})
	return buckets
}

// reconcileAccounts compares each (account, currency) sleeve's exposure
// holdings sum against the statement summary total, both in base currency.
// A delta is a signal (missing cash lines or a placeholder-exclusion
// artifact), so it is surfaced, not corrected.
func (a *Aggregator) reconcileAccounts(holdings []domain.EnrichedHolding, summaries []domain.AccountSummary) []domain.AccountRollup {
	type sleeve struct {
		accountID string
		currency  string
	}
	sums := make(map[sleeve]decimal.Decimal)
	for _, h := range holdings {
		if h.IncludeInExposure {
			k := sleeve{h.AccountID, h.Currency}
			sums[k] = sums[k].Add(h.MarketValueBase)
		}
	}

	rollups := make([]domain.AccountRollup, 0, len(summaries))
	for _, s := range summaries {
		holdingsSum := sums[sleeve{s.AccountID, s.Currency}]
		totalBase := s.Total.Mul(s.FXRate)
		delta := totalBase.Sub(holdingsSum)
		reconciled := delta.Abs().LessThanOrEqual(reconcileTolerance)
		if !reconciled {
			a.log.Warn().
				Str("account", s.AccountID).
				Str("currency", s.Currency).
				Str("summary_total", totalBase.StringFixed(2)).
				Str("holdings_sum", holdingsSum.StringFixed(2)).
				Str("delta", delta.StringFixed(2)).
				Msg("Account does not reconcile against statement summary")
		}
		rollups = append(rollups, domain.AccountRollup{
			AccountID:       s.AccountID,
			Currency:        s.Currency,
			FXRate:          s.FXRate,
			CashBase:        s.Cash.Mul(s.FXRate),
			InvestmentsBase: s.Investments.Mul(s.FXRate),
			TotalBase:       totalBase,
			HoldingsSumBase: holdingsSum,
			Delta:           delta,
			Reconciled:      reconciled,
		})
	}
	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].AccountID == rollups[j].AccountID {
			return rollups[i].Currency < rollups[j].Currency
		}
		return rollups[i].AccountID < rollups[j].AccountID
	})
	return rollups
}

// collectExceptions flags holdings with unresolved axes or low confidence.
// A holding can carry several reasons; all of them are named.
func (a *Aggregator) collectExceptions(holdings []domain.EnrichedHolding) []domain.ExceptionRecord {
	var exceptions []domain.ExceptionRecord
	for _, h := range holdings {
		// Placeholders are excluded deliberately, not unresolved.
		if h.Classification.AssetType == domain.AssetTypeAccountPlanPlaceholder {
			continue
		}
		var reasons []domain.ReasonCode
		if h.Classification.IssuerRegion == domain.RegionUnknown {
			reasons = append(reasons, domain.ReasonRegionUnknown)
		}
		if h.Classification.Sector == domain.SectorUnknown {
			reasons = append(reasons, domain.ReasonSectorUnknown)
		}
		if h.Classification.Confidence < lowConfidenceThreshold {
			reasons = append(reasons, domain.ReasonLowConfidence)
		}
		if len(reasons) == 0 {
			continue
		}
		exceptions = append(exceptions, domain.ExceptionRecord{
			AccountID:  h.AccountID,
			Symbol:     h.Symbol,
			Reasons:    reasons,
			Confidence: h.Classification.Confidence,
		})
	}
	return exceptions
}
