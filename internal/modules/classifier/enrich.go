package classifier

import (
	"fmt"
	"strings"

	"github.com/statementworks/folio/internal/domain"
)

// sectorAliases maps external vendor sector vocabulary onto the closed
// sector set. Unrecognized sectors stay Unknown rather than minting a new
// bucket.
var sectorAliases = map[string]domain.Sector{
	"healthcare":             domain.SectorHealthcare,
	"technology":             domain.SectorInfoTech,
	"information technology": domain.SectorInfoTech,
	"semiconductors":         domain.SectorInfoTech,
	"financial services":     domain.SectorFinancials,
	"financials":             domain.SectorFinancials,
	"communication services": domain.SectorCommunications,
	"communications":         domain.SectorCommunications,
	"consumer cyclical":      domain.SectorConsumerDiscr,
	"consumer discretionary": domain.SectorConsumerDiscr,
	"consumer defensive":     domain.SectorConsumerStaples,
	"consumer goods":         domain.SectorConsumerStaples,
	"consumer staples":       domain.SectorConsumerStaples,
	"energy":                 domain.SectorEnergy,
	"energy (midstream)":     domain.SectorEnergyMidstream,
	"industrials":            domain.SectorIndustrials,
	"materials":              domain.SectorMaterials,
	"basic materials":        domain.SectorMaterials,
	"real estate":            domain.SectorRealEstate,
	"utilities":              domain.SectorUtilities,
	"clean energy":           domain.SectorUtilitiesClean,
	"fixed income":           domain.SectorFixedIncome,
	"multi-sector equity":    domain.SectorMultiSectorEquity,
	"cash equivalent":        domain.SectorCashEquivalent,
}

// regionAliases maps vendor countries and regions to issuer regions.
var regionAliases = map[string]domain.Region{
	"united states":  domain.RegionUnitedStates,
	"usa":            domain.RegionUnitedStates,
	"canada":         domain.RegionCanada,
	"united kingdom": domain.RegionEurope,
	"germany":        domain.RegionEurope,
	"france":         domain.RegionFrance,
	"netherlands":    domain.RegionEurope,
	"switzerland":    domain.RegionEurope,
	"italy":          domain.RegionEurope,
	"spain":          domain.RegionEurope,
	"europe":         domain.RegionEurope,
	"japan":          domain.RegionAsia,
	"china":          domain.RegionChina,
	"hong kong":      domain.RegionAsia,
	"south korea":    domain.RegionAsia,
	"taiwan":         domain.RegionTaiwan,
	"india":          domain.RegionAsia,
	"australia":      domain.RegionAsia,
	"asia":           domain.RegionAsia,
	"global":         domain.RegionGlobal,
	"emerging":       domain.RegionEmergingMarkets,
}

var countryAliases = map[string]domain.Country{
	"canada":        domain.CountryCanada,
	"united states": domain.CountryUnitedStates,
	"usa":           domain.CountryUnitedStates,
	"taiwan":        domain.CountryTaiwan,
	"china":         domain.CountryChina,
}

// ApplyEnrichment fills the Unknown axes of a classification from an
// external answer and rescores confidence. Axes the local rules already
// resolved are never overwritten; enrichment fills gaps, it does not
// second-guess.
func ApplyEnrichment(cl domain.Classification, enr domain.Enrichment) domain.Classification {
	applied := false

	if cl.Sector == domain.SectorUnknown {
		if sector, ok := sectorAliases[strings.ToLower(strings.TrimSpace(enr.Sector))]; ok {
			cl.Sector = sector
			applied = true
		}
	}
	if cl.IssuerRegion == domain.RegionUnknown {
		// Quote vendors usually answer with a country, not a region; the
		// alias table folds countries into their region.
		region, ok := regionAliases[strings.ToLower(strings.TrimSpace(enr.Region))]
		if !ok {
			region, ok = regionAliases[strings.ToLower(strings.TrimSpace(enr.Country))]
		}
		if ok {
			cl.IssuerRegion = region
			applied = true
		}
	}
	if cl.ListingCountry == domain.CountryUnknown {
		if country, ok := countryAliases[strings.ToLower(strings.TrimSpace(enr.Country))]; ok {
			cl.ListingCountry = country
			applied = true
		}
	}

	if !applied {
		return cl
	}

	// Rescore with the filled axes, but an enriched answer is only as
	// good as its source: the source confidence caps the result.
	confidence := scoreConfidence(cl)
	if enr.Confidence < confidence {
		confidence = enr.Confidence
	}
	cl.Confidence = confidence
	cl.Notes = append(cl.Notes, fmt.Sprintf("enriched via %s (%.2f)", enr.Source, enr.Confidence))
	return cl
}
