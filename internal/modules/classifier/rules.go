package classifier

import (
	"strings"

	"github.com/statementworks/folio/internal/domain"
)

// ETFOverride pins the classification of a known ETF whose name alone
// would land it in the wrong bucket.
type ETFOverride struct {
	Type     domain.AssetType
	Region   domain.Region
	Sector   domain.Sector
	FXHedged domain.FXHedged // empty means no opinion
}

// Rules is the static lookup data the cascade consults before any keyword
// heuristic. It is plain data so the cascade can be unit-tested against
// alternative tables and so corrections ship as data changes.
type Rules struct {
	// SectorBySymbol maps known tickers straight to a sector.
	SectorBySymbol map[string]domain.Sector
	// RegionBySymbol maps known tickers straight to an issuer region.
	RegionBySymbol map[string]domain.Region
	// CountryBySymbol is the listing-country allow-list consulted after
	// the exchange-suffix conventions.
	CountryBySymbol map[string]domain.Country
	// ETFOverrides are known ETFs with non-obvious classification,
	// checked before any name-keyword sub-typing.
	ETFOverrides map[string]ETFOverride
	// REITSymbols are individual REIT stocks without a trust suffix.
	REITSymbols map[string]bool
	// PlanPlaceholders are synthetic wrapper entries (whole pension or
	// registered-plan balances) excluded from exposure. Matched with
	// "-" and "_" treated as equal.
	PlanPlaceholders map[string]bool
}

// Confidence penalties per unresolved axis. Confidence never drops below 0.
const (
	penaltyRegionUnknown = 0.2
	penaltySectorUnknown = 0.2
	penaltyHedgedUnknown = 0.1
)

// DefaultRules returns the consolidated rule tables. Where historical rule
// copies disagreed on a symbol the most specific assignment won.
func DefaultRules() Rules {
	return Rules{
		SectorBySymbol: map[string]domain.Sector{
			// Energy
			"ENB": domain.SectorEnergyMidstream,
			"PPL": domain.SectorEnergyMidstream,
			"EPD": domain.SectorEnergyMidstream,
			"ET":  domain.SectorEnergyMidstream,

			// Financials
			"BN":  domain.SectorFinancialsAltAM,
			"KKR": domain.SectorFinancialsAltAM,

			// Utilities
			"NEE":  domain.SectorUtilities,
			"BEPC": domain.SectorUtilitiesClean,

			// REITs
			"O":      domain.SectorRealEstate,
			"REXR":   domain.SectorRealEstate,
			"STAG":   domain.SectorRealEstate,
			"NWH.UN": domain.SectorRealEstate,
			"PMZ.UN": domain.SectorRealEstate,

			// Telecom
			"RCI.B": domain.SectorCommunications,

			// Semis
			"TSM": domain.SectorInfoTech,
		},
		RegionBySymbol: map[string]domain.Region{
			// US large caps and payment/financial names
			"AAPL": domain.RegionUnitedStates, "MSFT": domain.RegionUnitedStates,
			"GOOGL": domain.RegionUnitedStates, "AMZN": domain.RegionUnitedStates,
			"TSLA": domain.RegionUnitedStates, "META": domain.RegionUnitedStates,
			"NVDA": domain.RegionUnitedStates, "NFLX": domain.RegionUnitedStates,
			"AMD": domain.RegionUnitedStates, "QCOM": domain.RegionUnitedStates,
			"AVGO": domain.RegionUnitedStates, "TXN": domain.RegionUnitedStates,
			"V": domain.RegionUnitedStates, "MA": domain.RegionUnitedStates,
			"JPM": domain.RegionUnitedStates, "BAC": domain.RegionUnitedStates,
			"GS": domain.RegionUnitedStates, "BLK": domain.RegionUnitedStates,
			"O": domain.RegionUnitedStates, "REXR": domain.RegionUnitedStates,
			"STAG": domain.RegionUnitedStates, "NEE": domain.RegionUnitedStates,
			"EPD": domain.RegionUnitedStates, "ET": domain.RegionUnitedStates,
			"KKR": domain.RegionUnitedStates,

			// Canadian names
			"SHOP": domain.RegionCanada, "BN": domain.RegionCanada,
			"ENB": domain.RegionCanada, "CNR": domain.RegionCanada,
			"CP": domain.RegionCanada, "TRP": domain.RegionCanada,
			"PPL": domain.RegionCanada, "SU": domain.RegionCanada,
			"CNQ": domain.RegionCanada, "BEPC": domain.RegionCanada,
			"RCI.B": domain.RegionCanada, "NWH.UN": domain.RegionCanada,
			"PMZ.UN": domain.RegionCanada,

			// International
			"TSM": domain.RegionTaiwan,
			"BABA": domain.RegionChina, "PDD": domain.RegionChina,
			"JD": domain.RegionChina, "BIDU": domain.RegionChina,
			"NIO": domain.RegionChina, "BILI": domain.RegionChina,
			"MC": domain.RegionFrance,
		},
		CountryBySymbol: map[string]domain.Country{
			"AAPL": domain.CountryUnitedStates, "MSFT": domain.CountryUnitedStates,
			"GOOGL": domain.CountryUnitedStates, "AMZN": domain.CountryUnitedStates,
			"TSLA": domain.CountryUnitedStates, "META": domain.CountryUnitedStates,
			"NVDA": domain.CountryUnitedStates, "O": domain.CountryUnitedStates,
			"REXR": domain.CountryUnitedStates, "STAG": domain.CountryUnitedStates,
			"EPD": domain.CountryUnitedStates, "ET": domain.CountryUnitedStates,
			"KKR": domain.CountryUnitedStates, "NEE": domain.CountryUnitedStates,
			"TSM": domain.CountryTaiwan, "PDD": domain.CountryChina,

			"SHOP": domain.CountryCanada, "BN": domain.CountryCanada,
			"ENB": domain.CountryCanada, "CNR": domain.CountryCanada,
			"CP": domain.CountryCanada, "TRP": domain.CountryCanada,
			"PPL": domain.CountryCanada, "SU": domain.CountryCanada,
			"CNQ": domain.CountryCanada, "BEPC": domain.CountryCanada,
		},
		ETFOverrides: map[string]ETFOverride{
			// Cash / ultra-short
			"CMR":    {Type: domain.AssetTypeETFCashUltraShort, Region: domain.RegionCanada, Sector: domain.SectorCashEquivalent},
			"MNY":    {Type: domain.AssetTypeETFCashUltraShort, Region: domain.RegionCanada, Sector: domain.SectorCashEquivalent},
			"ICSH":   {Type: domain.AssetTypeETFCashUltraShort, Region: domain.RegionUnitedStates, Sector: domain.SectorCashEquivalent},
			"HISU.U": {Type: domain.AssetTypeETFCashUltraShort, Region: domain.RegionUnitedStates, Sector: domain.SectorCashEquivalent},

			// Dividend
			"CDZ": {Type: domain.AssetTypeETFDividendEquity, Region: domain.RegionCanada, Sector: domain.SectorMultiSectorEquity},
			"XDV": {Type: domain.AssetTypeETFDividendEquity, Region: domain.RegionCanada, Sector: domain.SectorMultiSectorEquity},

			// REIT
			"ZRE": {Type: domain.AssetTypeETFREIT, Region: domain.RegionCanada, Sector: domain.SectorRealEstate},

			// Regional
			"XEH": {Type: domain.AssetTypeETFRegionalEquity, Region: domain.RegionEurope, Sector: domain.SectorMultiSectorEquity, FXHedged: domain.HedgedYes},
			"IEV": {Type: domain.AssetTypeETFRegionalEquity, Region: domain.RegionEurope, Sector: domain.SectorMultiSectorEquity},

			// Thematic
			"SMH": {Type: domain.AssetTypeETFThematicEquity, Region: domain.RegionUnitedStates, Sector: domain.SectorInfoTech},
			"TAN": {Type: domain.AssetTypeETFThematicEquity, Region: domain.RegionUnitedStates, Sector: domain.SectorUtilitiesClean},

			// Bond
			"HYG": {Type: domain.AssetTypeETFBond, Region: domain.RegionUnitedStates, Sector: domain.SectorFixedIncome},
		},
		REITSymbols: map[string]bool{
			"O":      true,
			"REXR":   true,
			"STAG":   true,
			"NWH.UN": true,
			"PMZ.UN": true,
		},
		PlanPlaceholders: map[string]bool{
			"DC_PENSION": true,
			"RRSP":       true,
			"RRSP_BELL":  true,
		},
	}
}

// IsPlanPlaceholder matches wrapper symbols with "-" and "_" treated as
// equal; statement exports are inconsistent about the separator.
func (r Rules) IsPlanPlaceholder(symbol string) bool {
	return r.PlanPlaceholders[strings.ReplaceAll(symbol, "-", "_")]
}
