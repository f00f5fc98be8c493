package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a search query has no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

const (
	defaultLimit = 10
	maxLimit     = 50
)

// SearchQuery represents a free-text search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// NoExplain suppresses per-result explanations.
	NoExplain bool `json:"no_explain,omitempty"`
}

// Validate trims the query, rejects empty input and clamps the limit.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
