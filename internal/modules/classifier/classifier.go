// Package classifier assigns each normalized holding one value per
// taxonomy axis via an ordered, first-match-wins rule cascade. The cascade
// is a pure function of (symbol, name, product, hints): no rule path fails,
// unmatched inputs fall through to the Unknown sentinel of each axis.
package classifier

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/statementworks/folio/internal/domain"
)

// Classifier applies the taxonomy rule cascade.
type Classifier struct {
	rules Rules
	log   zerolog.Logger
}

// New creates a classifier over the given rule tables.
func New(rules Rules, log zerolog.Logger) *Classifier {
	return &Classifier{
		rules: rules,
		log:   log.With().Str("service", "classifier").Logger(),
	}
}

// Classify runs the full cascade. Evaluation order matters: categories are
// not mutually exclusive by keyword alone, so specific rules (symbol
// tables, trust suffixes) run before generic keyword buckets.
func (c *Classifier) Classify(h domain.NormalizedHolding) domain.Classification {
	structure := c.classifyStructure(h)
	assetType := c.classifyAssetType(h)
	region := c.classifyRegion(h, assetType)
	country := c.classifyCountry(h)
	sector := c.classifySector(h, assetType)
	hedged := c.classifyFXHedged(h, structure, assetType)
	income := c.classifyIncomeType(h, assetType)

	cl := domain.Classification{
		AssetType:      assetType,
		AssetStructure: structure,
		IssuerRegion:   region,
		ListingCountry: country,
		Sector:         sector,
		FXHedged:       hedged,
		IncomeType:     income,
	}
	cl.Confidence = scoreConfidence(cl)
	cl.Notes = append(cl.Notes, fmt.Sprintf("rules: asset_type=%s structure=%s", assetType, structure))
	if cl.Confidence < 0.8 {
		cl.Notes = append(cl.Notes, fmt.Sprintf("confidence %.1f", cl.Confidence))
	}
	return cl
}

func scoreConfidence(cl domain.Classification) float64 {
	confidence := 1.0
	if cl.IssuerRegion == domain.RegionUnknown {
		confidence -= penaltyRegionUnknown
	}
	if cl.Sector == domain.SectorUnknown {
		confidence -= penaltySectorUnknown
	}
	if cl.FXHedged == domain.HedgedUnknown {
		confidence -= penaltyHedgedUnknown
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

func (c *Classifier) classifyStructure(h domain.NormalizedHolding) domain.AssetStructure {
	product := strings.ToLower(h.ProductLabel)
	name := strings.ToLower(h.Name)

	switch {
	case strings.Contains(product, "etf") || strings.Contains(product, "etn"):
		return domain.StructureETFETN
	case containsAny(product, "note", "debenture", "bond", "mtn"):
		return domain.StructureNoteDebentureBond
	case strings.HasSuffix(h.Symbol, ".UN") || strings.Contains(product, "trust") || strings.Contains(name, "trust"):
		return domain.StructureTrustUnit
	case hasWord(name, "lp", "mlp", "l.p.") || strings.Contains(name, "partnership"):
		return domain.StructureLPMLPUnit
	case hasWord(name, "adr", "gdr"):
		return domain.StructureADRGDR
	case strings.Contains(name, "money market") || hasWord(name, "mmf"):
		return domain.StructureMoneyMarketFund
	case c.rules.IsPlanPlaceholder(h.Symbol):
		return domain.StructurePlanPlaceholder
	case h.IsCash():
		return domain.StructureOther
	default:
		return domain.StructureCommonStock
	}
}

func (c *Classifier) classifyAssetType(h domain.NormalizedHolding) domain.AssetType {
	product := strings.ToLower(h.ProductLabel)
	name := strings.ToLower(h.Name)

	// Plan placeholders short-circuit everything else.
	if c.rules.IsPlanPlaceholder(h.Symbol) {
		return domain.AssetTypeAccountPlanPlaceholder
	}

	// Cash rows: no symbol, a cash product, or a "Cash -" prefixed name.
	if h.IsCash() || h.Product == domain.ProductCash ||
		strings.HasPrefix(name, "cash -") || strings.HasPrefix(name, "cash –") {
		return domain.AssetTypeCashEquivalents
	}

	// Known ETFs with non-obvious classification beat keyword rules.
	if o, ok := c.rules.ETFOverrides[h.Symbol]; ok {
		return o.Type
	}

	if h.Product == domain.ProductETFsETNs {
		etfType := strings.ToLower(h.ETFTypeHint)
		etfRegion := strings.ToLower(h.ETFRegionHint)
		switch {
		case containsAny(name, "money market", "hisa", "ultra short", "cash"):
			return domain.AssetTypeETFCashUltraShort
		case containsAny(etfType, "bond", "fixed income"):
			return domain.AssetTypeETFBond
		case strings.Contains(etfType, "reit") || strings.Contains(name, "reit"):
			return domain.AssetTypeETFREIT
		case containsAny(name, "dividend", "aristocrat", "select dividend"):
			return domain.AssetTypeETFDividendEquity
		case containsAny(name, "semiconductor", "clean energy", "solar", "wind"):
			return domain.AssetTypeETFThematicEquity
		case containsAny(etfRegion, "europe", "us", "canada", "eafe", "em"):
			return domain.AssetTypeETFRegionalEquity
		default:
			return domain.AssetTypeETFEquity
		}
	}

	if containsAny(product, "bond", "note", "debenture", "mtn") {
		return domain.AssetTypeBondFixedIncome
	}

	if strings.HasSuffix(h.Symbol, ".UN") || strings.Contains(product, "trust") || c.rules.REITSymbols[h.Symbol] {
		return domain.AssetTypeREITEquity
	}

	if strings.Contains(product, "preferred") {
		return domain.AssetTypePreferredShare
	}

	return domain.AssetTypeCommonEquity
}

func (c *Classifier) classifyRegion(h domain.NormalizedHolding, assetType domain.AssetType) domain.Region {
	if region, ok := c.rules.RegionBySymbol[h.Symbol]; ok {
		return region
	}
	if o, ok := c.rules.ETFOverrides[h.Symbol]; ok && o.Region != "" {
		return o.Region
	}

	if assetType.IsETF() {
		hint := strings.ToLower(h.ETFRegionHint)
		switch {
		case hint == "":
			// fall through to Unknown
		case strings.Contains(hint, "canada"):
			return domain.RegionCanada
		case strings.Contains(hint, "united states") || strings.Contains(hint, "us"):
			return domain.RegionUnitedStates
		case strings.Contains(hint, "europe"):
			return domain.RegionEurope
		case strings.Contains(hint, "global"):
			return domain.RegionGlobal
		case strings.Contains(hint, "asia"):
			return domain.RegionAsia
		case strings.Contains(hint, "emerging"):
			return domain.RegionEmergingMarkets
		}
	}

	return domain.RegionUnknown
}

func (c *Classifier) classifyCountry(h domain.NormalizedHolding) domain.Country {
	// TSX-style suffixes trade in Canada. The ".UN"/".B" class-share
	// suffixes are Canadian conventions in this data set.
	for _, suffix := range []string{".TO", ".UN", ".B", ".U", ".V"} {
		if strings.HasSuffix(h.Symbol, suffix) {
			return domain.CountryCanada
		}
	}
	if country, ok := c.rules.CountryBySymbol[h.Symbol]; ok {
		return country
	}
	return domain.CountryUnknown
}

func (c *Classifier) classifySector(h domain.NormalizedHolding, assetType domain.AssetType) domain.Sector {
	if sector, ok := c.rules.SectorBySymbol[h.Symbol]; ok {
		return sector
	}

	name := strings.ToLower(h.Name)

	if assetType.IsETF() {
		if o, ok := c.rules.ETFOverrides[h.Symbol]; ok {
			return o.Sector
		}
		switch {
		case containsAny(name, "semiconductor", "chip"):
			return domain.SectorInfoTech
		case containsAny(name, "clean energy", "solar", "wind", "renewable"):
			return domain.SectorUtilitiesClean
		case containsAny(name, "reit", "real estate"):
			return domain.SectorRealEstate
		case containsAny(name, "bond", "fixed income", "treasury"):
			return domain.SectorFixedIncome
		case containsAny(name, "dividend", "aristocrat"):
			return domain.SectorMultiSectorEquity
		case containsAny(name, "money market", "cash", "hisa"):
			return domain.SectorCashEquivalent
		default:
			return domain.SectorMultiSectorEquity
		}
	}

	switch assetType {
	case domain.AssetTypeCashEquivalents:
		return domain.SectorCashEquivalent
	case domain.AssetTypeBondFixedIncome:
		return domain.SectorFixedIncome
	case domain.AssetTypeREITEquity:
		return domain.SectorRealEstate
	}

	return domain.SectorUnknown
}

func (c *Classifier) classifyFXHedged(h domain.NormalizedHolding, structure domain.AssetStructure, assetType domain.AssetType) domain.FXHedged {
	// ADRs trade unhedged by construction.
	if structure == domain.StructureADRGDR {
		return domain.HedgedNo
	}
	if o, ok := c.rules.ETFOverrides[h.Symbol]; ok && o.FXHedged != "" {
		return o.FXHedged
	}
	name := strings.ToLower(h.Name)
	if containsAny(name, "hedged", "cad-hedged", "currency hedged") {
		return domain.HedgedYes
	}
	return domain.HedgedUnknown
}

func (c *Classifier) classifyIncomeType(h domain.NormalizedHolding, assetType domain.AssetType) domain.IncomeType {
	if !h.DividendPerShare.Valid {
		return domain.IncomeUnknown
	}
	if !h.DividendPerShare.Decimal.IsPositive() {
		return domain.IncomeNone
	}
	switch assetType {
	case domain.AssetTypeREITEquity, domain.AssetTypeETFREIT:
		return domain.IncomeDistribution
	case domain.AssetTypeBondFixedIncome, domain.AssetTypeETFBond:
		return domain.IncomeInterest
	default:
		return domain.IncomeDividend
	}
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// hasWord matches whole whitespace-delimited tokens; plain substring
// matching would claim "lp" inside "tulip" or "adr" inside "madrid".
func hasWord(s string, words ...string) bool {
	for _, field := range strings.Fields(s) {
		field = strings.Trim(field, ".,()")
		for _, w := range words {
			if field == w {
				return true
			}
		}
	}
	return false
}
