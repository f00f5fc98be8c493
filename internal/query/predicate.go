package query

import (
	"strings"
	"unicode/utf8"
)

// localitySeparator introduces the locality part of a query ("dentist in pune").
const localitySeparator = " in "

// minKeywordLen is the shortest token kept as a service keyword.
const minKeywordLen = 3

var stopWords = map[string]struct{}{
	"best": {}, "top": {}, "near": {}, "in": {}, "for": {},
	"the": {}, "of": {}, "business": {}, "businesses": {},
	"service": {}, "services": {},
}

// Predicate is a bounded structured-search condition derived from free text.
// It carries data only; the catalog compiles it into a parameter-bound query.
type Predicate struct {
	// Keywords are service/category words matched against name, category and subcategory.
	Keywords []string
	// Locality is matched for equality against the city column; empty means no filter.
	Locality string
	// RawFallbackTerm is the whole lower-cased query, set only when no keyword survived filtering.
	RawFallbackTerm string
}

// Terms returns the match terms: the keywords, or the raw fallback term when there are none.
// The result is never empty for a predicate produced by BuildPredicate.
func (p Predicate) Terms() []string {
	if len(p.Keywords) > 0 {
		return p.Keywords
	}
	if p.RawFallbackTerm != "" {
		return []string{p.RawFallbackTerm}
	}
	return nil
}

// HasLocality reports whether the predicate filters by city.
func (p Predicate) HasLocality() bool {
	return p.Locality != ""
}

// ExtractLocality returns the trimmed text after the last " in " of the
// lower-cased query, or "" when the separator is absent.
func ExtractLocality(q string) string {
	q = strings.ToLower(q)
	idx := strings.LastIndex(q, localitySeparator)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(q[idx+len(localitySeparator):])
}

// BuildPredicate translates a free-text query into a Predicate.
func BuildPredicate(q string) Predicate {
	lowered := strings.ToLower(q)
	locality := ExtractLocality(lowered)

	keywords := make([]string, 0, 4)
	for _, w := range strings.Fields(lowered) {
		if utf8.RuneCountInString(w) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if locality != "" && w == locality {
			continue
		}
		keywords = append(keywords, w)
	}

	p := Predicate{Keywords: keywords, Locality: locality}
	if len(keywords) == 0 {
		p.RawFallbackTerm = lowered
	}
	return p
}
