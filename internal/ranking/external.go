package ranking

import (
	"math"
	"sort"

	"github.com/hyperjump/bizsearch/internal/models"
)

const (
	externalRatingWeight  = 0.6
	externalReviewsWeight = 0.4
)

// ExternalScore is rating*0.6 + ln(1+reviews)*0.4, with 0 for missing values.
func ExternalScore(r models.ExternalRecord) float64 {
	rating, reviews := 0.0, 0
	if r.Rating != nil && !math.IsNaN(*r.Rating) && !math.IsInf(*r.Rating, 0) {
		rating = *r.Rating
	}
	if r.Reviews != nil && *r.Reviews > 0 {
		reviews = *r.Reviews
	}
	return rating*externalRatingWeight + math.Log1p(float64(reviews))*externalReviewsWeight
}

// RankExternal returns a new slice of records from a third-party source sorted
// by ExternalScore descending. Ties keep input order; the input is not modified.
func RankExternal(records []models.ExternalRecord) []models.ExternalRecord {
	out := make([]models.ExternalRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return ExternalScore(out[i]) > ExternalScore(out[j])
	})
	return out
}
