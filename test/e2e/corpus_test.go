package e2e

import (
	"strings"
	"testing"
)

func TestBuildCorpus(t *testing.T) {
	c := BuildCorpus()
	wantQueries := len(corpusCategories) * len(corpusCities)
	if c.TotalQueries != wantQueries || len(c.TestCases) != wantQueries {
		t.Errorf("queries = %d, want %d", c.TotalQueries, wantQueries)
	}
	if want := wantQueries*3 + len(corpusCategories); len(c.Businesses) != want {
		t.Errorf("businesses = %d, want %d", len(c.Businesses), want)
	}

	names := make(map[string]bool, len(c.Businesses))
	for _, b := range c.Businesses {
		if names[b.Name] {
			t.Errorf("duplicate business name %q", b.Name)
		}
		names[b.Name] = true
	}
	for _, tc := range c.TestCases {
		if !names[tc.ExpectedName] {
			t.Errorf("expected business %q not in corpus", tc.ExpectedName)
		}
		if !strings.HasSuffix(tc.Query, " in "+strings.ToLower(tc.ExpectedCity)) {
			t.Errorf("query %q should end with the city", tc.Query)
		}
	}
}
