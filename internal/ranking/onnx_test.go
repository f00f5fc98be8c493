//go:build cgo
// +build cgo

package ranking

import (
	"errors"
	"testing"

	"github.com/hyperjump/bizsearch/internal/models"
)

func TestONNXScorer_ClosedSessionIsUnavailable(t *testing.T) {
	s := &ONNXScorer{features: FeatureCount, outputRank: 2}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() on an empty scorer: %v", err)
	}
	_, err := s.Score([][]float64{{1, 2, 3, 4}})
	if !errors.Is(err, ErrScorerUnavailable) {
		t.Errorf("Score() after Close = %v, want ErrScorerUnavailable", err)
	}

	r := newTestRanker(NewModelHandle(s, "closed"))
	got := r.Rank([]models.BusinessRecord{completeRecord(1, "Smile Care")}, "", 10)
	if len(got) != 1 || got[0].ModelScored {
		t.Fatalf("Expected one heuristic result, got %+v", got)
	}
}

func TestOutputShape(t *testing.T) {
	tests := []struct {
		rank int
		want []int64
	}{
		{rank: 1, want: []int64{3}},
		{rank: 2, want: []int64{3, 1}},
	}
	for _, tt := range tests {
		got := outputShape(3, tt.rank)
		if len(got) != len(tt.want) {
			t.Fatalf("rank %d: shape %v, want %v", tt.rank, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("rank %d: shape %v, want %v", tt.rank, got, tt.want)
			}
		}
	}
}
