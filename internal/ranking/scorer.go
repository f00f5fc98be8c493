package ranking

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

var (
	// ErrScorerUnavailable is returned by a scorer that has no model behind it.
	ErrScorerUnavailable = errors.New("ranker model unavailable")
	// ErrFeatureMismatch is returned when the feature vector width does not match the model.
	ErrFeatureMismatch = errors.New("feature count mismatch")
)

// Scorer is a learned ranking model. Implementations must be safe for concurrent use.
type Scorer interface {
	// Score returns one score per feature vector in batch.
	Score(batch [][]float64) ([]float64, error)
	// ExpectedFeatureCount reports the input width the model was trained on, when known.
	ExpectedFeatureCount() (int, bool)
	// Name identifies the model for logging and status output.
	Name() string
}

// NullScorer stands in for an absent model; it always reports ErrScorerUnavailable.
type NullScorer struct{}

// Score always fails with ErrScorerUnavailable.
func (NullScorer) Score([][]float64) ([]float64, error) { return nil, ErrScorerUnavailable }

// ExpectedFeatureCount is unknown for the null scorer.
func (NullScorer) ExpectedFeatureCount() (int, bool) { return 0, false }

// Name returns "none".
func (NullScorer) Name() string { return "none" }

// ModelInfo describes the scorer currently published in a ModelHandle.
type ModelInfo struct {
	Name     string    `json:"name"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
	Features int       `json:"features,omitempty"`
}

type modelSnapshot struct {
	scorer Scorer
	info   ModelInfo
}

// ModelHandle publishes the process-wide ranker model as an immutable snapshot.
// Readers never lock; Swap replaces the whole snapshot atomically.
type ModelHandle struct {
	current atomic.Pointer[modelSnapshot]
}

// NewModelHandle returns a handle holding s (NullScorer when s is nil).
func NewModelHandle(s Scorer, source string) *ModelHandle {
	h := &ModelHandle{}
	h.Swap(s, source)
	return h
}

// Load returns the current scorer. A nil handle yields NullScorer.
func (h *ModelHandle) Load() Scorer {
	if h == nil {
		return NullScorer{}
	}
	snap := h.current.Load()
	if snap == nil {
		return NullScorer{}
	}
	return snap.scorer
}

// Info returns metadata about the current scorer.
func (h *ModelHandle) Info() ModelInfo {
	if h == nil {
		return ModelInfo{Name: NullScorer{}.Name()}
	}
	snap := h.current.Load()
	if snap == nil {
		return ModelInfo{Name: NullScorer{}.Name()}
	}
	return snap.info
}

// Swap publishes s as the current scorer and returns the previous one.
func (h *ModelHandle) Swap(s Scorer, source string) Scorer {
	if s == nil {
		s = NullScorer{}
	}
	info := ModelInfo{Name: s.Name(), Source: source, LoadedAt: time.Now()}
	if n, ok := s.ExpectedFeatureCount(); ok {
		info.Features = n
	}
	prev := h.current.Swap(&modelSnapshot{scorer: s, info: info})
	if prev == nil {
		return NullScorer{}
	}
	return prev.scorer
}

// predict runs s over batch and validates the output shape and values.
func predict(s Scorer, batch [][]float64) ([]float64, error) {
	scores, err := s.Score(batch)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(batch) {
		return nil, fmt.Errorf("model returned %d scores for %d candidates", len(scores), len(batch))
	}
	for i, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("model returned non-finite score at %d", i)
		}
	}
	return scores, nil
}

// truncateFeatures returns a copy of batch keeping the first n entries of each vector.
func truncateFeatures(batch [][]float64, n int) [][]float64 {
	out := make([][]float64, len(batch))
	for i, row := range batch {
		if n > len(row) {
			n = len(row)
		}
		out[i] = append([]float64(nil), row[:n]...)
	}
	return out
}
