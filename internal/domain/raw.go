package domain

import "encoding/json"

// RawValue captures a JSON scalar exactly as the ingestion layer produced
// it. Statement exports deliver numbers as locale-formatted strings
// ("1,234.56", "$500", "-1.58%") or as plain numbers depending on the
// source column, so the raw text is kept verbatim for the output artifact
// and the normalizer works on a coerced copy.
type RawValue struct {
	Raw string
	Set bool
}

// UnmarshalJSON accepts strings, numbers, booleans and null. It never
// fails on scalar input; null and absent fields leave the value unset.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = RawValue{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = RawValue{Raw: s, Set: true}
		return nil
	}
	*v = RawValue{Raw: string(data), Set: true}
	return nil
}

// MarshalJSON writes the original text back out, null when unset.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Raw)
}

func (v RawValue) String() string { return v.Raw }

// RawHoldingRecord is a single statement row as delivered by the ingestion
// layer. Immutable input; the pipeline never mutates it and echoes it
// verbatim into the output artifact.
type RawHoldingRecord struct {
	AccountID              string   `json:"account_id" validate:"required"`
	Product                RawValue `json:"product"`
	Symbol                 RawValue `json:"symbol"` // empty or null marks a cash row
	Name                   RawValue `json:"name"`
	Description            RawValue `json:"description"`
	Quantity               RawValue `json:"quantity"`
	LastPrice              RawValue `json:"last_price"`
	Currency               RawValue `json:"currency"`
	BookCost               RawValue `json:"total_book_cost"`
	MarketValue            RawValue `json:"total_market_value"`
	UnrealizedGain         RawValue `json:"unrealized_gain_loss"`
	UnrealizedGainPct      RawValue `json:"unrealized_gain_loss_pct"`
	DayChange              RawValue `json:"day_change"`
	DayChangePct           RawValue `json:"day_change_pct"`
	AnnualDividendPerShare RawValue `json:"annual_dividend_per_share"`
	CouponRate             RawValue `json:"coupon_rate,omitempty"`
	MaturityDate           RawValue `json:"maturity_date,omitempty"`
	ExpirationDate         RawValue `json:"expiration_date,omitempty"`
	OpenInterest           RawValue `json:"open_interest,omitempty"`
	ETFType                RawValue `json:"etf_type,omitempty"`
	ETFRegion              RawValue `json:"etf_region,omitempty"`
}

// RawAccountSummary is the statement-level account summary, one per
// (account, currency) pair. It is the authoritative source of account
// totals for reconciliation and of the FX rate to the base currency.
type RawAccountSummary struct {
	AccountID   string   `json:"account_id" validate:"required"`
	Currency    string   `json:"currency" validate:"required"`
	Cash        RawValue `json:"cash"`
	Investments RawValue `json:"investments"`
	Total       RawValue `json:"total"`
	FXRate      RawValue `json:"fx_rate_to_base"`
}

// Input is the full batch handed to the pipeline by the ingestion layer.
type Input struct {
	Holdings  []RawHoldingRecord  `json:"holdings" validate:"required,min=1,dive"`
	Summaries []RawAccountSummary `json:"account_summaries" validate:"dive"`
}
