package metrics

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statementworks/folio/internal/domain"
)

func newTestCalculator() *Calculator {
	return New(zerolog.Nop())
}

func testHolding(accountID, symbol, currency string, marketValue string, assetType domain.AssetType) domain.EnrichedHolding {
	return domain.EnrichedHolding{
		NormalizedHolding: domain.NormalizedHolding{
			AccountID:   accountID,
			Symbol:      symbol,
			Currency:    currency,
			MarketValue: decimal.RequireFromString(marketValue),
		},
		Classification: domain.Classification{
			AssetType:    assetType,
			IssuerRegion: domain.RegionCanada,
			Sector:       domain.SectorMultiSectorEquity,
			Confidence:   1.0,
		},
	}
}

func summary(accountID, currency, total, fx string) domain.AccountSummary {
	return domain.AccountSummary{
		AccountID: accountID,
		Currency:  currency,
		Total:     decimal.RequireFromString(total),
		FXRate:    decimal.RequireFromString(fx),
	}
}

func TestCompute_USDCashConvertsAtAccountRate(t *testing.T) {
	c := newTestCalculator()

	holdings := []domain.EnrichedHolding{
		testHolding("ACC-1", "", "USD", "500", domain.AssetTypeCashEquivalents),
	}
	summaries := []domain.AccountSummary{
		summary("ACC-1", "USD", "500", "1.35"),
	}

	out := c.Compute(holdings, summaries)

	require.Len(t, out, 1)
	assert.True(t, out[0].MarketValueBase.Equal(decimal.RequireFromString("675")),
		"got %s", out[0].MarketValueBase)
	assert.True(t, out[0].IncludeInExposure)
}

func TestCompute_FXRoundTripAtRateOneIsExact(t *testing.T) {
	c := newTestCalculator()

	holdings := []domain.EnrichedHolding{
		testHolding("ACC-1", "ENB", "CAD", "12345.67", domain.AssetTypeCommonEquity),
	}
	summaries := []domain.AccountSummary{
		summary("ACC-1", "CAD", "12345.67", "1"),
	}

	out := c.Compute(holdings, summaries)

	assert.True(t, out[0].MarketValueBase.Equal(out[0].MarketValue),
		"rate 1 must be exact: %s vs %s", out[0].MarketValueBase, out[0].MarketValue)
}

func TestCompute_MarketValueFallsBackToPriceTimesQuantity(t *testing.T) {
	c := newTestCalculator()

	h := testHolding("ACC-1", "ENB", "CAD", "0", domain.AssetTypeCommonEquity)
	h.Quantity = decimal.RequireFromString("100")
	h.LastPrice = decimal.RequireFromString("48.50")

	out := c.Compute([]domain.EnrichedHolding{h}, nil)

	assert.True(t, out[0].MarketValueBase.Equal(decimal.RequireFromString("4850")),
		"got %s", out[0].MarketValueBase)
}

func TestCompute_MissingFXRateDefaultsToOne(t *testing.T) {
	c := newTestCalculator()

	out := c.Compute([]domain.EnrichedHolding{
		testHolding("ACC-9", "ENB", "CAD", "1000", domain.AssetTypeCommonEquity),
	}, nil)

	assert.True(t, out[0].FXRate.Equal(decimal.NewFromInt(1)))
	assert.True(t, out[0].MarketValueBase.Equal(decimal.RequireFromString("1000")))
}

func TestCompute_PortfolioWeightsSumToOne(t *testing.T) {
	c := newTestCalculator()

	holdings := []domain.EnrichedHolding{
		testHolding("ACC-1", "ENB", "CAD", "3333.33", domain.AssetTypeCommonEquity),
		testHolding("ACC-1", "ZRE", "CAD", "6666.67", domain.AssetTypeETFREIT),
		testHolding("ACC-2", "AAPL", "USD", "10000", domain.AssetTypeCommonEquity),
		testHolding("ACC-2", "O", "USD", "123.45", domain.AssetTypeREITEquity),
	}
	summaries := []domain.AccountSummary{
		summary("ACC-1", "CAD", "10000", "1"),
		summary("ACC-2", "USD", "10123.45", "1.35"),
	}

	out := c.Compute(holdings, summaries)

	sum := 0.0
	for _, h := range out {
		sum += h.WeightInPortfolio
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "portfolio weights must sum to 1")
}

func TestCompute_PlaceholderExcludedFromExposureAndWeights(t *testing.T) {
	c := newTestCalculator()

	holdings := []domain.EnrichedHolding{
		testHolding("ACC-1", "DC-PENSION", "CAD", "674025.96", domain.AssetTypeAccountPlanPlaceholder),
		testHolding("ACC-1", "ENB", "CAD", "5000", domain.AssetTypeCommonEquity),
	}
	summaries := []domain.AccountSummary{
		summary("ACC-1", "CAD", "5000", "1"),
	}

	out := c.Compute(holdings, summaries)

	placeholder, enb := out[0], out[1]
	assert.False(t, placeholder.IncludeInExposure)
	assert.Zero(t, placeholder.WeightInPortfolio)
	assert.Zero(t, placeholder.WeightInAccount)

	// The placeholder must not dilute the denominator either.
	assert.InDelta(t, 1.0, enb.WeightInPortfolio, 1e-9)
	assert.InDelta(t, 1.0, enb.WeightInAccount, 1e-9)
}

func TestCompute_AccountWeightUsesSummaryTotal(t *testing.T) {
	c := newTestCalculator()

	holdings := []domain.EnrichedHolding{
		testHolding("ACC-1", "ENB", "CAD", "2500", domain.AssetTypeCommonEquity),
	}
	// Summary says the account is worth 10000 (holdings export was partial).
	summaries := []domain.AccountSummary{
		summary("ACC-1", "CAD", "10000", "1"),
	}

	out := c.Compute(holdings, summaries)
	assert.InDelta(t, 0.25, out[0].WeightInAccount, 1e-9)
}

func TestCompute_IncomeAndYields(t *testing.T) {
	c := newTestCalculator()

	h := testHolding("ACC-1", "ENB", "CAD", "4850", domain.AssetTypeCommonEquity)
	h.Quantity = decimal.RequireFromString("100")
	h.BookValue = decimal.RequireFromString("4000")
	h.DividendPerShare = decimal.NewNullDecimal(decimal.RequireFromString("3.55"))

	out := c.Compute([]domain.EnrichedHolding{h}, []domain.AccountSummary{
		summary("ACC-1", "CAD", "4850", "1"),
	})

	require.True(t, out[0].IndicatedAnnualIncome.Valid)
	assert.True(t, out[0].IndicatedAnnualIncome.Decimal.Equal(decimal.RequireFromString("355")))
	require.NotNil(t, out[0].IndicatedYieldOnMarket)
	assert.InDelta(t, 355.0/4850.0, *out[0].IndicatedYieldOnMarket, 1e-9)
	require.NotNil(t, out[0].YieldOnCost)
	assert.InDelta(t, 355.0/4000.0, *out[0].YieldOnCost, 1e-9)
}

func TestCompute_NoDividendDataMeansNullIncome(t *testing.T) {
	c := newTestCalculator()

	h := testHolding("ACC-1", "GOOGL", "USD", "10000", domain.AssetTypeCommonEquity)
	h.Quantity = decimal.RequireFromString("50")

	out := c.Compute([]domain.EnrichedHolding{h}, nil)

	assert.False(t, out[0].IndicatedAnnualIncome.Valid, "no data is null, not zero")
	assert.Nil(t, out[0].IndicatedYieldOnMarket)
	assert.Nil(t, out[0].YieldOnCost)
}

func TestCompute_OutlierYieldsAreDiscarded(t *testing.T) {
	c := newTestCalculator()

	// 60% indicated yield: data error, discard.
	h := testHolding("ACC-1", "TRAP", "CAD", "1000", domain.AssetTypeCommonEquity)
	h.Quantity = decimal.RequireFromString("100")
	h.DividendPerShare = decimal.NewNullDecimal(decimal.RequireFromString("6"))

	out := c.Compute([]domain.EnrichedHolding{h}, nil)

	require.True(t, out[0].IndicatedAnnualIncome.Valid, "income itself is kept")
	assert.Nil(t, out[0].IndicatedYieldOnMarket, "yield above cap must be null")

	// Exactly at the cap stays.
	h.DividendPerShare = decimal.NewNullDecimal(decimal.RequireFromString("5"))
	out = c.Compute([]domain.EnrichedHolding{h}, nil)
	require.NotNil(t, out[0].IndicatedYieldOnMarket)
	assert.InDelta(t, 0.5, *out[0].IndicatedYieldOnMarket, 1e-9)
}

func TestCompute_ReviewFlag(t *testing.T) {
	c := newTestCalculator()

	h := testHolding("ACC-1", "ZZZZ", "CAD", "1000", domain.AssetTypeCommonEquity)
	h.Classification.Sector = domain.SectorUnknown
	h.Classification.Confidence = 0.7

	out := c.Compute([]domain.EnrichedHolding{h}, nil)
	assert.True(t, out[0].NeedsManualReview)

	h.Classification.Sector = domain.SectorMultiSectorEquity
	h.Classification.Confidence = 0.95
	out = c.Compute([]domain.EnrichedHolding{h}, nil)
	assert.False(t, out[0].NeedsManualReview)
}
