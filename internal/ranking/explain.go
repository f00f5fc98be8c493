package ranking

import (
	"strings"

	"github.com/hyperjump/bizsearch/internal/models"
)

const defaultExplanation = "relevant match"

// Explain derives a short justification from a candidate's score components.
func Explain(sc *models.ScoredCandidate) string {
	var reasons []string
	if sc.Rating >= 4.5 {
		reasons = append(reasons, "excellent ratings")
	}
	if sc.Reviews >= 300 {
		reasons = append(reasons, "high popularity")
	}
	if sc.InfoRatio >= 0.8 {
		reasons = append(reasons, "complete profile")
	}
	if sc.Reviews < 50 {
		reasons = append(reasons, "new/local business")
	}
	if len(reasons) == 0 {
		return defaultExplanation
	}
	return strings.Join(reasons, ", ")
}

// ExplainAll fills the Explanation field of every candidate.
func ExplainAll(ranked []*models.ScoredCandidate) {
	for _, sc := range ranked {
		sc.Explanation = Explain(sc)
	}
}
