package domain

// Enrichment is the answer an external data source gives for a symbol the
// local rules could not fully classify. Fields are the source's raw
// vocabulary; the classifier owns mapping them onto the closed taxonomies.
type Enrichment struct {
	Sector     string  `json:"sector"`
	Industry   string  `json:"industry"`
	Region     string  `json:"issuer_region"`
	Country    string  `json:"listing_country"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}
