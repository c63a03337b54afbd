// Package normalizer coerces raw statement rows into their canonical shape.
// Normalization is total: malformed numeric fields default to zero with a
// recorded warning, and the raw record is preserved untouched for audit.
package normalizer

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/statementworks/folio/internal/domain"
)

// Normalizer cleans and type-coerces raw holding records.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a normalizer.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{
		log: log.With().Str("service", "normalizer").Logger(),
	}
}

// Normalize converts a raw record into its canonical shape. It never fails:
// every field has a defined default and parse failures are recorded on the
// holding instead of raised.
func (n *Normalizer) Normalize(raw domain.RawHoldingRecord) domain.NormalizedHolding {
	h := domain.NormalizedHolding{
		Raw:           raw,
		AccountID:     strings.TrimSpace(raw.AccountID),
		Symbol:        NormalizeSymbol(raw.Symbol.Raw),
		Name:          normalizeName(raw.Name.Raw, raw.Description.Raw, raw.Product.Raw),
		ProductLabel:  strings.TrimSpace(raw.Product.Raw),
		Currency:      strings.ToUpper(strings.TrimSpace(raw.Currency.Raw)),
		ETFTypeHint:   strings.TrimSpace(raw.ETFType.Raw),
		ETFRegionHint: strings.TrimSpace(raw.ETFRegion.Raw),
	}
	h.Product = NormalizeProduct(raw.Product.Raw)
	h.AccountKind = DetectAccountKind(h.AccountID, h.Symbol)

	warn := func(field string) {
		h.ParseWarnings = append(h.ParseWarnings, field)
		n.log.Debug().
			Str("account", h.AccountID).
			Str("symbol", h.Symbol).
			Str("field", field).
			Msg("Unparsable field defaulted")
	}

	h.Quantity = parseAmountOr(raw.Quantity, "quantity", warn)
	h.LastPrice = parseAmountOr(raw.LastPrice, "last_price", warn)
	h.MarketValue = parseAmountOr(raw.MarketValue, "total_market_value", warn)
	h.BookValue = parseAmountOr(raw.BookCost, "total_book_cost", warn)
	h.DayChange = parseAmountOr(raw.DayChange, "day_change", warn)
	h.DayChangePct = parsePercentOr(raw.DayChangePct, "day_change_pct", warn)
	h.UnrealizedGainPct = parsePercentOr(raw.UnrealizedGainPct, "unrealized_gain_loss_pct", warn)

	// Dividend income keeps the unparsable/absent case distinct from a
	// confirmed zero so downstream yield math can emit null, not 0.
	if raw.AnnualDividendPerShare.Set {
		if d, ok := ParseAmount(raw.AnnualDividendPerShare.Raw); ok {
			h.DividendPerShare = decimal.NewNullDecimal(d)
		} else {
			warn("annual_dividend_per_share")
		}
	}

	return h
}

// NormalizeSummary coerces an account summary's amounts. An absent or
// unparsable FX rate defaults to 1 (currency already base).
func (n *Normalizer) NormalizeSummary(raw domain.RawAccountSummary) domain.AccountSummary {
	s := domain.AccountSummary{
		AccountID: strings.TrimSpace(raw.AccountID),
		Currency:  strings.ToUpper(strings.TrimSpace(raw.Currency)),
	}
	s.Cash, _ = ParseAmount(raw.Cash.Raw)
	s.Investments, _ = ParseAmount(raw.Investments.Raw)
	s.Total, _ = ParseAmount(raw.Total.Raw)

	if fx, ok := ParseAmount(raw.FXRate.Raw); ok && fx.IsPositive() {
		s.FXRate = fx
	} else {
		s.FXRate = decimal.NewFromInt(1)
	}
	return s
}

// NormalizeSymbol trims and uppercases a ticker. Embedded separators such
// as the ".UN" / ".B" suffixes are significant classification signals and
// are preserved.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func normalizeName(name, description, product string) string {
	if v := strings.TrimSpace(name); v != "" {
		return v
	}
	if v := strings.TrimSpace(description); v != "" {
		return v
	}
	return strings.TrimSpace(product)
}

// amountCleaner strips the decoration statement exports put on numbers.
var amountCleaner = strings.NewReplacer(
	",", "",
	"$", "",
	"CAD", "",
	"USD", "",
	" ", "",
)

// ParseAmount converts a locale-formatted amount to a decimal. The second
// return is false when the text carried no parsable number.
func ParseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(amountCleaner.Replace(s))
	if cleaned == "" {
		return decimal.Zero, false
	}
	// Accounting-style negatives: (123.45)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePercent converts "-1.58%" style text to a fraction (-0.0158).
func ParsePercent(s string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	d, ok := ParseAmount(cleaned)
	if !ok {
		return 0, false
	}
	f, _ := d.Div(decimal.NewFromInt(100)).Float64()
	return f, true
}

func parseAmountOr(v domain.RawValue, field string, warn func(string)) decimal.Decimal {
	if !v.Set || strings.TrimSpace(v.Raw) == "" {
		return decimal.Zero
	}
	d, ok := ParseAmount(v.Raw)
	if !ok {
		warn(field)
	}
	return d
}

func parsePercentOr(v domain.RawValue, field string, warn func(string)) float64 {
	if !v.Set || strings.TrimSpace(v.Raw) == "" {
		return 0
	}
	f, ok := ParsePercent(v.Raw)
	if !ok {
		warn(field)
	}
	return f
}

// NormalizeProduct maps a statement product label onto the closed product
// set by keyword containment.
func NormalizeProduct(product string) domain.ProductKind {
	p := strings.ToLower(strings.TrimSpace(product))
	switch {
	case p == "":
		return domain.ProductOther
	case strings.Contains(p, "common share"):
		return domain.ProductCommonShares
	case strings.Contains(p, "etf") || strings.Contains(p, "etn"):
		return domain.ProductETFsETNs
	case strings.Contains(p, "cash"):
		return domain.ProductCash
	case strings.Contains(p, "fixed income") || strings.Contains(p, "bond"):
		return domain.ProductFixedIncome
	case strings.Contains(p, "trust unit"):
		return domain.ProductTrustUnits
	case strings.Contains(p, "pension"):
		return domain.ProductPensionPlan
	default:
		return domain.ProductOther
	}
}

// DetectAccountKind infers the account's tax treatment from keywords in
// the symbol or account id. Defaults to Taxable.
func DetectAccountKind(accountID, symbol string) domain.AccountKind {
	id := strings.ToUpper(accountID)
	sym := strings.ToUpper(symbol)
	switch {
	case strings.Contains(sym, "PENSION") || strings.Contains(id, "PENSION"):
		return domain.AccountPension
	case strings.Contains(sym, "RRSP") || strings.Contains(id, "RRSP"):
		return domain.AccountRegistered
	default:
		return domain.AccountTaxable
	}
}
