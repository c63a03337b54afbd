package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedHolding is a RawHoldingRecord with cleaned identity fields and
// amounts coerced to decimals. The raw record rides along untouched.
type NormalizedHolding struct {
	Raw RawHoldingRecord `json:"raw"`

	AccountID    string      `json:"account_id"`
	AccountKind  AccountKind `json:"account_kind"`
	Symbol       string      `json:"symbol"`
	Name         string      `json:"name"`
	Product      ProductKind `json:"product_normalized"`
	ProductLabel string      `json:"product_label"`
	Currency     string      `json:"currency"`

	Quantity    decimal.Decimal `json:"quantity"`
	LastPrice   decimal.Decimal `json:"last_price"`
	MarketValue decimal.Decimal `json:"market_value"`
	BookValue   decimal.Decimal `json:"book_value"`
	DayChange   decimal.Decimal `json:"day_change"`

	DayChangePct      float64 `json:"day_change_pct"`
	UnrealizedGainPct float64 `json:"unrealized_gain_pct"`

	// DividendPerShare distinguishes "no income data" (invalid) from a
	// confirmed zero dividend.
	DividendPerShare decimal.NullDecimal `json:"dividend_per_share"`

	ETFTypeHint   string `json:"etf_type_hint,omitempty"`
	ETFRegionHint string `json:"etf_region_hint,omitempty"`

	// ParseWarnings records fields that failed coercion and were defaulted.
	ParseWarnings []string `json:"parse_warnings,omitempty"`
}

// IsCash reports whether the row is an uninvested cash balance.
func (h NormalizedHolding) IsCash() bool { return h.Symbol == "" }

// AccountSummary is a RawAccountSummary with amounts coerced to decimals.
type AccountSummary struct {
	AccountID   string          `json:"account_id"`
	Currency    string          `json:"currency"`
	Cash        decimal.Decimal `json:"cash"`
	Investments decimal.Decimal `json:"investments"`
	Total       decimal.Decimal `json:"total"`
	FXRate      decimal.Decimal `json:"fx_rate_to_base"`
}

// Classification is the result of the rule cascade: one value per axis,
// always populated, with Unknown sentinels standing in where no rule fired.
type Classification struct {
	AssetType      AssetType      `json:"asset_type"`
	AssetStructure AssetStructure `json:"asset_structure"`
	IssuerRegion   Region         `json:"issuer_region"`
	ListingCountry Country        `json:"listing_country"`
	Sector         Sector         `json:"sector"`
	FXHedged       FXHedged       `json:"fx_hedged"`
	IncomeType     IncomeType     `json:"income_type"`
	Confidence     float64        `json:"confidence"`
	Notes          []string       `json:"notes,omitempty"`
}

// EnrichedHolding is the pipeline's unit of output: the normalized record
// plus classification and base-currency financial metrics. Owned by the
// run that created it; nothing mutates it once the rollup stage reads it.
type EnrichedHolding struct {
	NormalizedHolding
	Classification Classification `json:"classification"`

	IncludeInExposure bool `json:"include_in_exposure"`
	NeedsManualReview bool `json:"needs_manual_review"`

	FXRate            decimal.Decimal `json:"fx_rate"`
	MarketValueBase   decimal.Decimal `json:"market_value_base"`
	BookValueBase     decimal.Decimal `json:"book_value_base"`
	UnrealizedPnLBase decimal.Decimal `json:"unrealized_pnl_base"`
	DayChangeBase     decimal.Decimal `json:"day_change_base"`

	WeightInAccount   float64 `json:"weight_in_account"`
	WeightInPortfolio float64 `json:"weight_in_portfolio"`

	// Income fields are null (not zero) when there is no income data or
	// when a computed yield fell outside the accepted range.
	IndicatedAnnualIncome  decimal.NullDecimal `json:"indicated_annual_income"`
	IndicatedYieldOnMarket *float64            `json:"indicated_yield_on_market"`
	YieldOnCost            *float64            `json:"yield_on_cost"`
}

// ReasonCode names why a holding landed on the exception report.
type ReasonCode string

const (
	ReasonRegionUnknown ReasonCode = "issuer_region_unknown"
	ReasonSectorUnknown ReasonCode = "sector_unknown"
	ReasonLowConfidence ReasonCode = "low_confidence"
)

// ExceptionRecord flags a holding for manual review. Exceptions are
// surfaced in the rollups, never silently dropped.
type ExceptionRecord struct {
	AccountID  string       `json:"account_id"`
	Symbol     string       `json:"symbol"`
	Reasons    []ReasonCode `json:"reasons"`
	Confidence float64      `json:"confidence"`
}

// RollupBucket is a pre-aggregated total for one grouping key.
type RollupBucket struct {
	Key        string          `json:"key"`
	TotalBase  decimal.Decimal `json:"total_base"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// AccountRollup reconciles an account's holdings against its statement
// summary. A delta beyond tolerance is reported, not corrected.
type AccountRollup struct {
	AccountID       string          `json:"account_id"`
	Currency        string          `json:"currency"`
	FXRate          decimal.Decimal `json:"fx_rate_to_base"`
	CashBase        decimal.Decimal `json:"cash_base"`
	InvestmentsBase decimal.Decimal `json:"investments_base"`
	TotalBase       decimal.Decimal `json:"total_base"`
	HoldingsSumBase decimal.Decimal `json:"holdings_sum_base"`
	Delta           decimal.Decimal `json:"delta"`
	Reconciled      bool            `json:"reconciled"`
}

// Rollups is the aggregated view emitted alongside the enriched holdings.
type Rollups struct {
	GeneratedAt time.Time         `json:"generated_at"`
	ByAccount   []AccountRollup   `json:"by_account"`
	ByAssetType []RollupBucket    `json:"by_asset_type"`
	BySector    []RollupBucket    `json:"by_sector"`
	ByRegion    []RollupBucket    `json:"by_region"`
	Exceptions  []ExceptionRecord `json:"exceptions"`
}
