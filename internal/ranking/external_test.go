package ranking

import (
	"testing"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestRankExternal(t *testing.T) {
	input := []models.ExternalRecord{
		{Title: "no data"},
		{Title: "well rated", Rating: rating(4.8), Reviews: intPtr(10)},
		{Title: "popular", Rating: rating(4.0), Reviews: intPtr(5000)},
		{Title: "rating only", Rating: rating(3.0)},
	}

	got := RankExternal(input)
	titles := make([]string, len(got))
	for i, r := range got {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"popular", "well rated", "rating only", "no data"}, titles)
	assert.Equal(t, "no data", input[0].Title, "input must not be reordered")
}

func TestRankExternal_Empty(t *testing.T) {
	assert.Empty(t, RankExternal(nil))
}

func TestExternalScore(t *testing.T) {
	assert.Equal(t, 0.0, ExternalScore(models.ExternalRecord{}))
	assert.InDelta(t, 3.0, ExternalScore(models.ExternalRecord{Rating: rating(5)}), 1e-9)
	assert.Equal(t, 0.0, ExternalScore(models.ExternalRecord{Reviews: intPtr(-3)}))
}
