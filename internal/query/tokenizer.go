// Package query interprets free-text search input: tokenization, abuse
// detection, intent classification and structured predicate building.
package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxRepeat is the run length of one character at which input is treated as spam.
const maxRepeat = 7

// Tokenize lower-cases text and returns the set of its word tokens
// (maximal runs of letters, digits and underscore). Empty input yields an empty set.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if strings.TrimSpace(text) == "" {
		return tokens
	}
	text = strings.ToLower(norm.NFKC.String(text))

	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens[b.String()] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range text {
		if isWordRune(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// Overlap returns how many tokens of a are also in b.
func Overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}

// IsAbusive reports whether text is unfit for processing: fewer than two
// whitespace-separated segments, or a single character repeated 7+ times in a row.
func IsAbusive(text string) bool {
	if len(strings.Fields(text)) < 2 {
		return true
	}
	return hasRepeatedRun(text, maxRepeat)
}

func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for i, r := range text {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
