package query

import "strings"

// DefaultIntentTerms are the substrings that signal a structured catalog lookup.
var DefaultIntentTerms = []string{
	"best", "top", "near", "shop", "restaurant",
	"company", "companies", "service", "services",
	"hospital", "clinic", "seo", "digital",
}

// Classifier decides whether a query should be answered from the catalog
// or routed to the dialogue assistant. It is a recall-biased substring test:
// false positives fall through to an empty lookup and the external fallback.
type Classifier struct {
	terms []string
}

// NewClassifier returns a classifier using DefaultIntentTerms plus any extra terms.
func NewClassifier(extra ...string) *Classifier {
	terms := make([]string, 0, len(DefaultIntentTerms)+len(extra))
	terms = append(terms, DefaultIntentTerms...)
	for _, t := range extra {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return &Classifier{terms: terms}
}

// NeedsStructuredLookup reports whether any intent term occurs in the query.
func (c *Classifier) NeedsStructuredLookup(q string) bool {
	q = strings.ToLower(q)
	for _, t := range c.terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// Terms returns a copy of the classifier vocabulary.
func (c *Classifier) Terms() []string {
	return append([]string(nil), c.terms...)
}

var defaultClassifier = NewClassifier()

// NeedsStructuredLookup classifies q with the default vocabulary.
func NeedsStructuredLookup(q string) bool {
	return defaultClassifier.NeedsStructuredLookup(q)
}
