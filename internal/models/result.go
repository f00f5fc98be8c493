package models

// ScoredCandidate is a BusinessRecord plus the fields derived by the ranking engine.
// It only lives for the duration of one request.
type ScoredCandidate struct {
	BusinessRecord

	// Features is the fixed-order vector [base_score, info_ratio, relevance, popularity].
	Features []float64 `json:"features"`
	// Rating is the resolved rating (defaulted when the record has none).
	Rating float64 `json:"rating"`
	// Reviews is the resolved review count.
	Reviews int `json:"reviews"`
	// InfoScore is the info completeness ratio rounded to 3 decimals.
	InfoScore float64 `json:"info_score"`
	// InfoRatio is the unrounded completeness ratio.
	InfoRatio float64 `json:"-"`
	Freshness float64 `json:"freshness"`
	Relevance float64 `json:"relevance"`
	// HeuristicScore is the deterministic weighted-sum score.
	HeuristicScore float64 `json:"heuristic_score"`
	// Score is the final ranking scalar (model output when a model scored the batch).
	Score       float64 `json:"score"`
	ModelScored bool    `json:"model_scored,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	Rank        int     `json:"rank"`
}

// ExternalRecord is a candidate returned by the external search provider.
// Its schema is intentionally not reconciled with BusinessRecord.
type ExternalRecord struct {
	Title   string   `json:"title"`
	Address string   `json:"address,omitempty"`
	Rating  *float64 `json:"rating,omitempty"`
	Reviews *int     `json:"reviews,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Website string   `json:"website,omitempty"`
}

// SearchMode tells the caller which path produced a response.
type SearchMode string

const (
	// ModeCatalog means results came from the local catalog.
	ModeCatalog SearchMode = "catalog"
	// ModeExternal means the catalog was empty and the external provider was used.
	ModeExternal SearchMode = "external"
	// ModeChat means the query was routed to the dialogue assistant.
	ModeChat SearchMode = "chat"
	// ModeRejected means the input guard refused the query.
	ModeRejected SearchMode = "rejected"
)

// PredicateView is the JSON form of the structured predicate built for a query.
type PredicateView struct {
	Keywords        []string `json:"keywords"`
	Locality        string   `json:"locality,omitempty"`
	RawFallbackTerm string   `json:"raw_fallback_term,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string             `json:"query"`
	Mode      SearchMode         `json:"mode"`
	Predicate *PredicateView     `json:"predicate,omitempty"`
	Results   []*ScoredCandidate `json:"results"`
	External  []*ExternalRecord  `json:"external,omitempty"`
	Answer    string             `json:"answer,omitempty"`
	Message   string             `json:"message,omitempty"`
	QueryTime int64              `json:"query_time_ms"`
}
