// Package models defines core data structures for business records, queries, and search results.
package models

import (
	"math"
	"strconv"
	"strings"
)

// MaxRating is the upper bound of the review scale used by the catalog.
const MaxRating = 5.0

// BusinessRecord is a catalog entity as returned by the catalog lookup.
type BusinessRecord struct {
	ID             int64    `json:"id" db:"id"`
	Name           string   `json:"name" db:"name"`
	Address        string   `json:"address,omitempty" db:"address"`
	Area           string   `json:"area,omitempty" db:"area"`
	City           string   `json:"city,omitempty" db:"city"`
	State          string   `json:"state,omitempty" db:"state"`
	PhoneNumber    string   `json:"phone_number,omitempty" db:"phone_number"`
	Website        string   `json:"website,omitempty" db:"website"`
	Category       string   `json:"category,omitempty" db:"category"`
	Subcategory    string   `json:"subcategory,omitempty" db:"subcategory"`
	ReviewsCount   int      `json:"reviews_count" db:"reviews_count"`
	ReviewsAverage *float64 `json:"reviews_average,omitempty" db:"reviews_average"`
	// CreatedAt is kept as the stored text; the ranker decides whether it parses.
	CreatedAt string `json:"created_at,omitempty" db:"created_at"`
}

// DedupKey returns the identity used to collapse duplicate listings:
// the lower-cased, trimmed (name, address) pair.
func (b *BusinessRecord) DedupKey() [2]string {
	return [2]string{
		strings.ToLower(strings.TrimSpace(b.Name)),
		strings.ToLower(strings.TrimSpace(b.Address)),
	}
}

// DisplayAddress joins address, area, city and state, skipping empty parts.
func (b *BusinessRecord) DisplayAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{b.Address, b.Area, b.City, b.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseRating converts a raw column value into a rating.
// nil, unparsable, NaN and out-of-range values yield nil (unknown).
func ParseRating(v interface{}) *float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > MaxRating {
		return nil
	}
	return &f
}

// ParseReviewCount converts a raw column value into a review count.
// Missing, malformed or negative values yield 0.
func ParseReviewCount(v interface{}) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	case []byte:
		return parseNumber(string(t))
	case string:
		return parseNumber(t)
	default:
		return 0, false
	}
}

// parseNumber accepts plain numbers plus thousands separators ("1,204").
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
