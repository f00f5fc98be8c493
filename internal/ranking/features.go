package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
)

// FeatureCount is the length of the feature vector fed to a learned model.
const FeatureCount = 4

const closedMarker = "permanently closed"

// createdAtLayouts are the timestamp formats accepted for created_at.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// IsPermanentlyClosed reports whether the listing's name or address marks it closed.
func IsPermanentlyClosed(b *models.BusinessRecord) bool {
	text := strings.ToLower(b.Name + " " + b.Address)
	return strings.Contains(text, closedMarker)
}

// InfoCompleteness returns the fraction of tracked descriptive fields that
// are present and non-blank: website, phone, address, category, subcategory, city, state.
func InfoCompleteness(b *models.BusinessRecord) float64 {
	fields := [...]string{b.Website, b.PhoneNumber, b.Address, b.Category, b.Subcategory, b.City, b.State}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// ParseCreatedAt parses a stored created_at value. ok is false for empty or unparsable text.
func ParseCreatedAt(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// IsFresh reports whether created_at parses and lies within window of now.
func IsFresh(createdAt string, now time.Time, window time.Duration) bool {
	created, ok := ParseCreatedAt(createdAt)
	if !ok {
		return false
	}
	return now.Sub(created) <= window
}

// Relevance is the share of query tokens that occur in the record's name,
// category, subcategory or area. It is 0 when the query has no tokens.
func Relevance(b *models.BusinessRecord, queryTokens map[string]struct{}) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	searchable := query.Tokenize(strings.Join([]string{b.Name, b.Category, b.Subcategory, b.Area}, " "))
	return float64(query.Overlap(searchable, queryTokens)) / float64(len(queryTokens))
}

// Popularity is the log-scaled review count.
func Popularity(reviews int) float64 {
	return math.Log1p(float64(reviews))
}

// Round rounds x to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
