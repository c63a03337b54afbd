package classifier

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/statementworks/folio/internal/domain"
)

func newTestClassifier() *Classifier {
	return New(DefaultRules(), zerolog.Nop())
}

func holding(symbol, name, product string) domain.NormalizedHolding {
	return domain.NormalizedHolding{
		AccountID:    "ACC-1",
		Symbol:       symbol,
		Name:         name,
		ProductLabel: product,
		Product:      productKind(product),
	}
}

// productKind mirrors what the normalizer would have assigned; classifier
// tests construct holdings directly.
func productKind(product string) domain.ProductKind {
	switch product {
	case "ETF", "ETFs and ETNs":
		return domain.ProductETFsETNs
	case "Cash":
		return domain.ProductCash
	case "Common Shares":
		return domain.ProductCommonShares
	case "Pension Plan":
		return domain.ProductPensionPlan
	case "Trust Units":
		return domain.ProductTrustUnits
	default:
		return domain.ProductOther
	}
}

func TestClassify_KnownREITETF(t *testing.T) {
	c := newTestClassifier()

	cl := c.Classify(holding("ZRE", "BMO Equal Weight REITs Index ETF", "ETF"))

	assert.Equal(t, domain.AssetTypeETFREIT, cl.AssetType)
	assert.Equal(t, domain.SectorRealEstate, cl.Sector)
	assert.Equal(t, domain.RegionCanada, cl.IssuerRegion)
	assert.Equal(t, domain.StructureETFETN, cl.AssetStructure)
}

func TestClassify_CashRows(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name    string
		holding domain.NormalizedHolding
	}{
		{"no symbol", holding("", "Cash Balance", "")},
		{"cash product", holding("", "USD Balance", "Cash")},
		{"cash name prefix", holding("CASHX", "Cash - Canadian Dollar", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := c.Classify(tt.holding)
			assert.Equal(t, domain.AssetTypeCashEquivalents, cl.AssetType)
			assert.Equal(t, domain.SectorCashEquivalent, cl.Sector)
		})
	}
}

func TestClassify_PlanPlaceholderSeparatorInsensitive(t *testing.T) {
	c := newTestClassifier()

	for _, symbol := range []string{"DC_PENSION", "DC-PENSION", "RRSP", "RRSP_BELL", "RRSP-BELL"} {
		cl := c.Classify(holding(symbol, "Defined Contribution Pension", "Pension Plan"))
		assert.Equal(t, domain.AssetTypeAccountPlanPlaceholder, cl.AssetType, "symbol %s", symbol)
		assert.Equal(t, domain.StructurePlanPlaceholder, cl.AssetStructure, "symbol %s", symbol)
	}
}

func TestClassify_ETFSubtypes(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		symbol string
		name   string
		want   domain.AssetType
	}{
		{"CMR", "iShares Premium Money Market ETF", domain.AssetTypeETFCashUltraShort},
		{"HYG", "iShares High Yield Corporate Bond ETF", domain.AssetTypeETFBond},
		{"CDZ", "iShares Canadian Dividend Aristocrats ETF", domain.AssetTypeETFDividendEquity},
		{"SMH", "VanEck Semiconductor ETF", domain.AssetTypeETFThematicEquity},
		{"XEH", "iShares MSCI Europe IMI Index ETF CAD-Hedged", domain.AssetTypeETFRegionalEquity},
		{"VTI", "Vanguard Total Stock Market ETF", domain.AssetTypeETFEquity},
	}
	for _, tt := range tests {
		cl := c.Classify(holding(tt.symbol, tt.name, "ETF"))
		assert.Equal(t, tt.want, cl.AssetType, "symbol %s", tt.symbol)
	}
}

func TestClassify_ETFHintsDriveSubtype(t *testing.T) {
	c := newTestClassifier()

	h := holding("XYZ", "Some Fund", "ETF")
	h.ETFTypeHint = "Fixed Income"
	cl := c.Classify(h)
	assert.Equal(t, domain.AssetTypeETFBond, cl.AssetType)

	h = holding("XYZ", "Some Fund", "ETF")
	h.ETFRegionHint = "Europe"
	cl = c.Classify(h)
	assert.Equal(t, domain.AssetTypeETFRegionalEquity, cl.AssetType)
	assert.Equal(t, domain.RegionEurope, cl.IssuerRegion)
}

func TestClassify_TrustSuffixAndREITAllowList(t *testing.T) {
	c := newTestClassifier()

	cl := c.Classify(holding("NWH.UN", "NorthWest Healthcare Properties REIT", "Trust Units"))
	assert.Equal(t, domain.AssetTypeREITEquity, cl.AssetType)
	assert.Equal(t, domain.StructureTrustUnit, cl.AssetStructure)
	assert.Equal(t, domain.SectorRealEstate, cl.Sector)
	assert.Equal(t, domain.CountryCanada, cl.ListingCountry)

	// US REITs without a trust suffix come from the allow-list.
	cl = c.Classify(holding("O", "Realty Income Corp", "Common Shares"))
	assert.Equal(t, domain.AssetTypeREITEquity, cl.AssetType)
	assert.Equal(t, domain.RegionUnitedStates, cl.IssuerRegion)
}

func TestClassify_SymbolTables(t *testing.T) {
	c := newTestClassifier()

	cl := c.Classify(holding("ENB", "Enbridge Inc", "Common Shares"))
	assert.Equal(t, domain.SectorEnergyMidstream, cl.Sector)
	assert.Equal(t, domain.RegionCanada, cl.IssuerRegion)
	assert.Equal(t, domain.CountryCanada, cl.ListingCountry)

	cl = c.Classify(holding("TSM", "Taiwan Semiconductor Mfg ADR", "Common Shares"))
	assert.Equal(t, domain.RegionTaiwan, cl.IssuerRegion)
	assert.Equal(t, domain.StructureADRGDR, cl.AssetStructure)
	assert.Equal(t, domain.HedgedNo, cl.FXHedged, "ADRs are unhedged by construction")
}

func TestClassify_WordBoundaryGuards(t *testing.T) {
	c := newTestClassifier()

	// "lp" inside "tulip" and "adr" inside "madrid" must not match.
	cl := c.Classify(holding("TLP", "Tulip Growers Inc", "Common Shares"))
	assert.Equal(t, domain.StructureCommonStock, cl.AssetStructure)

	cl = c.Classify(holding("MAD", "Madrid Holdings", "Common Shares"))
	assert.Equal(t, domain.StructureCommonStock, cl.AssetStructure)

	// A real LP still matches.
	cl = c.Classify(holding("EPD", "Enterprise Products Partners LP", "Common Shares"))
	assert.Equal(t, domain.StructureLPMLPUnit, cl.AssetStructure)
}

func TestClassify_ConfidencePenalties(t *testing.T) {
	c := newTestClassifier()

	// Everything unknown: region and sector cost 0.2 each, hedging 0.1.
	cl := c.Classify(holding("ZZZZ", "Mystery Corp", "Common Shares"))
	assert.Equal(t, domain.RegionUnknown, cl.IssuerRegion)
	assert.Equal(t, domain.SectorUnknown, cl.Sector)
	assert.Equal(t, domain.HedgedUnknown, cl.FXHedged)
	assert.InDelta(t, 0.5, cl.Confidence, 1e-9)

	// Fully resolved including hedging: no penalty.
	cl = c.Classify(holding("XEH", "iShares MSCI Europe IMI Index ETF CAD-Hedged", "ETF"))
	assert.InDelta(t, 1.0, cl.Confidence, 1e-9)

	// Resolved region and sector, unknown hedging: 0.9.
	cl = c.Classify(holding("ENB", "Enbridge Inc", "Common Shares"))
	assert.InDelta(t, 0.9, cl.Confidence, 1e-9)
}

func TestClassify_IncomeType(t *testing.T) {
	c := newTestClassifier()

	// No dividend data at all: Unknown, not None.
	cl := c.Classify(holding("GOOGL", "Alphabet Inc", "Common Shares"))
	assert.Equal(t, domain.IncomeUnknown, cl.IncomeType)

	// Confirmed zero: None.
	h := holding("GOOGL", "Alphabet Inc", "Common Shares")
	h.DividendPerShare = decimal.NewNullDecimal(decimal.Zero)
	cl = c.Classify(h)
	assert.Equal(t, domain.IncomeNone, cl.IncomeType)

	// REITs distribute, bonds pay interest, the rest pay dividends.
	h = holding("NWH.UN", "NorthWest Healthcare Properties REIT", "Trust Units")
	h.DividendPerShare = decimal.NewNullDecimal(decimal.RequireFromString("0.80"))
	cl = c.Classify(h)
	assert.Equal(t, domain.IncomeDistribution, cl.IncomeType)

	h = holding("HYG", "iShares High Yield Corporate Bond ETF", "ETF")
	h.DividendPerShare = decimal.NewNullDecimal(decimal.RequireFromString("4.00"))
	cl = c.Classify(h)
	assert.Equal(t, domain.IncomeInterest, cl.IncomeType)

	h = holding("ENB", "Enbridge Inc", "Common Shares")
	h.DividendPerShare = decimal.NewNullDecimal(decimal.RequireFromString("3.55"))
	cl = c.Classify(h)
	assert.Equal(t, domain.IncomeDividend, cl.IncomeType)
}

func TestClassify_Idempotent(t *testing.T) {
	c := newTestClassifier()

	inputs := []domain.NormalizedHolding{
		holding("ZRE", "BMO Equal Weight REITs Index ETF", "ETF"),
		holding("", "Cash Balance", ""),
		holding("ZZZZ", "Mystery Corp", "Common Shares"),
	}
	for _, h := range inputs {
		first := c.Classify(h)
		second := c.Classify(h)
		assert.Equal(t, first, second, "classification must be a pure function of the holding")
	}
}
