// Package ranking provides field similarity scoring and relevance ranking
// for recall records.
package ranking

// Config holds all tunable constants for the ranking system.
type Config struct {
	// Weights for the searched fields
	ProductNameWeight  float64 `yaml:"product_name_weight"`  // default: 1.0
	BrandWeight        float64 `yaml:"brand_weight"`         // default: 0.9
	ManufacturerWeight float64 `yaml:"manufacturer_weight"`  // default: 0.6
	DescriptionWeight  float64 `yaml:"description_weight"`   // default: 0.4
	HazardWeight       float64 `yaml:"hazard_weight"`        // default: 0.4
	ReasonWeight       float64 `yaml:"recall_reason_weight"` // default: 0.3

	// FullMatchBoost multiplies the score of the full-string token so that
	// an exact full match dominates any partial keyword match.
	FullMatchBoost float64 `yaml:"full_match_boost"` // default: 3.0

	// SimilarityThreshold floors trigram scores below it to 0.
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // default: 0.15

	// Recency bonus settings. The bonus decays exponentially with age and is
	// capped at RecencyMaxBonus. The default caps keep RecencyMaxBonus plus
	// AgencyBonus below the smallest field weight, so bonuses break ties
	// among comparably relevant records but never outrank a field match.
	RecencyEnabled   bool    `yaml:"recency_enabled"`    // default: true
	RecencyMaxBonus  float64 `yaml:"recency_max_bonus"`  // default: 0.15
	RecencyScaleDays float64 `yaml:"recency_scale_days"` // default: 365

	// Agency priority bonus for the most authoritative sources.
	AgencyBonus      float64  `yaml:"agency_bonus"` // default: 0.05
	PriorityAgencies []string `yaml:"priority_agencies"`
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		ProductNameWeight:  1.0,
		BrandWeight:        0.9,
		ManufacturerWeight: 0.6,
		DescriptionWeight:  0.4,
		HazardWeight:       0.4,
		ReasonWeight:       0.3,

		FullMatchBoost:      3.0,
		SimilarityThreshold: 0.15,

		RecencyEnabled:   true,
		RecencyMaxBonus:  0.15,
		RecencyScaleDays: 365,

		AgencyBonus:      0.05,
		PriorityAgencies: []string{"FDA", "CPSC"},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.ProductNameWeight == 0 {
		c.ProductNameWeight = defaults.ProductNameWeight
	}
	if c.BrandWeight == 0 {
		c.BrandWeight = defaults.BrandWeight
	}
	if c.ManufacturerWeight == 0 {
		c.ManufacturerWeight = defaults.ManufacturerWeight
	}
	if c.DescriptionWeight == 0 {
		c.DescriptionWeight = defaults.DescriptionWeight
	}
	if c.HazardWeight == 0 {
		c.HazardWeight = defaults.HazardWeight
	}
	if c.ReasonWeight == 0 {
		c.ReasonWeight = defaults.ReasonWeight
	}
	if c.FullMatchBoost == 0 {
		c.FullMatchBoost = defaults.FullMatchBoost
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if c.RecencyMaxBonus == 0 {
		c.RecencyMaxBonus = defaults.RecencyMaxBonus
	}
	if c.RecencyScaleDays == 0 {
		c.RecencyScaleDays = defaults.RecencyScaleDays
	}
	if c.AgencyBonus == 0 {
		c.AgencyBonus = defaults.AgencyBonus
	}
	if c.PriorityAgencies == nil {
		c.PriorityAgencies = defaults.PriorityAgencies
	}
}
