package domain

import "strings"

// AssetType classifies what a holding is. Closed set; every holding gets
// exactly one value, with Unclassified as the terminal fallback.
type AssetType string

const (
	AssetTypeCashEquivalents        AssetType = "Cash & Equivalents"
	AssetTypeBondFixedIncome        AssetType = "Bond / Fixed Income"
	AssetTypeCommonEquity           AssetType = "Common Equity"
	AssetTypePreferredShare         AssetType = "Preferred Share"
	AssetTypeREITEquity             AssetType = "REIT - Equity"
	AssetTypeETFEquity              AssetType = "ETF - Equity"
	AssetTypeETFDividendEquity      AssetType = "ETF - Dividend Equity"
	AssetTypeETFREIT                AssetType = "ETF - REIT"
	AssetTypeETFRegionalEquity      AssetType = "ETF - Regional Equity"
	AssetTypeETFThematicEquity      AssetType = "ETF - Thematic Equity"
	AssetTypeETFBond                AssetType = "ETF - Bond"
	AssetTypeETFCashUltraShort      AssetType = "ETF - Cash / Ultra-Short"
	AssetTypeAccountPlanPlaceholder AssetType = "Account / Plan Placeholder"
	AssetTypeUnclassified           AssetType = "Unclassified"
)

// IsETF reports whether the asset type is one of the ETF sub-types.
func (t AssetType) IsETF() bool {
	return strings.HasPrefix(string(t), "ETF")
}

// AssetStructure classifies the legal wrapper of a holding.
type AssetStructure string

const (
	StructureCommonStock       AssetStructure = "Common Stock"
	StructureADRGDR            AssetStructure = "ADR/GDR"
	StructureTrustUnit         AssetStructure = "Trust Unit"
	StructureLPMLPUnit         AssetStructure = "LP/MLP Unit"
	StructureETFETN            AssetStructure = "ETF/ETN"
	StructureNoteDebentureBond AssetStructure = "Note/Debenture/Bond"
	StructureMoneyMarketFund   AssetStructure = "Money Market Fund"
	StructurePlanPlaceholder   AssetStructure = "Plan Placeholder"
	StructureOther             AssetStructure = "Other"
)

// AccountKind classifies the tax treatment of an account.
type AccountKind string

const (
	AccountTaxable    AccountKind = "Taxable"
	AccountRegistered AccountKind = "Registered"
	AccountPension    AccountKind = "Pension"
	AccountUnknown    AccountKind = "Unknown"
)

// FXHedged states whether a fund neutralizes foreign-currency exposure.
type FXHedged string

const (
	HedgedYes     FXHedged = "Yes"
	HedgedNo      FXHedged = "No"
	HedgedUnknown FXHedged = "Unknown"
)

// IncomeType classifies the kind of income a holding pays.
type IncomeType string

const (
	IncomeDividend     IncomeType = "Dividend"
	IncomeDistribution IncomeType = "Distribution"
	IncomeInterest     IncomeType = "Interest"
	IncomeNone         IncomeType = "None"
	IncomeUnknown      IncomeType = "Unknown"
)

// ProductKind is the normalized statement product label.
type ProductKind string

const (
	ProductCommonShares ProductKind = "Common Shares"
	ProductETFsETNs     ProductKind = "ETFs and ETNs"
	ProductCash         ProductKind = "Cash"
	ProductFixedIncome  ProductKind = "Fixed Income"
	ProductTrustUnits   ProductKind = "Trust Units"
	ProductPensionPlan  ProductKind = "Pension Plan"
	ProductOther        ProductKind = "Other"
)

// Region is the issuer's operating region.
type Region string

const (
	RegionUnitedStates    Region = "United States"
	RegionCanada          Region = "Canada"
	RegionEurope          Region = "Europe"
	RegionGlobal          Region = "Global"
	RegionAsia            Region = "Asia"
	RegionEmergingMarkets Region = "Emerging Markets"
	RegionChina           Region = "China"
	RegionTaiwan          Region = "Taiwan"
	RegionFrance          Region = "France"
	RegionUnknown         Region = "Unknown"
)

// Country is where the security trades.
type Country string

const (
	CountryCanada       Country = "Canada"
	CountryUnitedStates Country = "United States"
	CountryTaiwan       Country = "Taiwan"
	CountryChina        Country = "China"
	CountryUnknown      Country = "Unknown"
)

// Sector buckets. Sub-sector qualifiers from the rule tables are kept as
// distinct values so rollups stay stable across runs.
type Sector string

const (
	SectorEnergyMidstream   Sector = "Energy (Midstream)"
	SectorFinancialsAltAM   Sector = "Financials (Alternative Asset Manager)"
	SectorUtilities         Sector = "Utilities"
	SectorUtilitiesClean    Sector = "Utilities (Clean Energy)"
	SectorRealEstate        Sector = "Real Estate"
	SectorInfoTech          Sector = "Information Technology"
	SectorFixedIncome       Sector = "Fixed Income (High Yield)"
	SectorMultiSectorEquity Sector = "Multi-Sector Equity"
	SectorCashEquivalent    Sector = "Cash Equivalent"
	SectorCommunications    Sector = "Communications"
	SectorConsumerDiscr     Sector = "Consumer Discretionary"
	SectorHealthcare        Sector = "Healthcare"
	SectorFinancials        Sector = "Financials"
	SectorConsumerStaples   Sector = "Consumer Staples"
	SectorEnergy            Sector = "Energy"
	SectorIndustrials       Sector = "Industrials"
	SectorMaterials         Sector = "Materials"
	SectorUnknown           Sector = "Unknown"
)
