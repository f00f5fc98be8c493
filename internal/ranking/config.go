package ranking

// RankingConfig holds the weights and defaults of the heuristic score.
type RankingConfig struct {
	// TopN is the number of results returned when the caller passes topN <= 0.
	TopN int `yaml:"top_n"` // default: 10

	// Resolved values for records missing data
	DefaultRating float64 `yaml:"default_rating"` // default: 3.5 (neutral prior)

	// Base score: rating*RatingWeight + reviews*ReviewWeight
	RatingWeight float64 `yaml:"rating_weight"` // default: 0.75
	ReviewWeight float64 `yaml:"review_weight"` // default: 0.002

	// Additive boosts
	InfoWeight          float64 `yaml:"info_weight"`           // default: 0.5
	RelevanceWeight     float64 `yaml:"relevance_weight"`      // default: 0.3
	FreshnessBoost      float64 `yaml:"freshness_boost"`       // default: 0.1
	FreshnessWindowDays int     `yaml:"freshness_window_days"` // default: 180
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		TopN:                10,
		DefaultRating:       3.5,
		RatingWeight:        0.75,
		ReviewWeight:        0.002,
		InfoWeight:          0.5,
		RelevanceWeight:     0.3,
		FreshnessBoost:      0.1,
		FreshnessWindowDays: 180,
	}
}

// ApplyDefaults fills TopN and the freshness window when unset. The score
// weights are filled only when all of them are zero, so a configuration that
// sets any weight may switch individual terms off with an explicit 0.
func (c *RankingConfig) ApplyDefaults() {
	d := DefaultRankingConfig()
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	if c.FreshnessWindowDays <= 0 {
		c.FreshnessWindowDays = d.FreshnessWindowDays
	}
	if c.weightsUnset() {
		c.DefaultRating = d.DefaultRating
		c.RatingWeight = d.RatingWeight
		c.ReviewWeight = d.ReviewWeight
		c.InfoWeight = d.InfoWeight
		c.RelevanceWeight = d.RelevanceWeight
		c.FreshnessBoost = d.FreshnessBoost
	}
}

func (c *RankingConfig) weightsUnset() bool {
	return c.DefaultRating == 0 && c.RatingWeight == 0 && c.ReviewWeight == 0 &&
		c.InfoWeight == 0 && c.RelevanceWeight == 0 && c.FreshnessBoost == 0
}
