//go:build !cgo
// +build !cgo

package ranking

import (
	"errors"
)

// ONNXScorer stub type when built without CGO (see onnx.go for real implementation).
type ONNXScorer struct{}

// NewONNXScorer returns an error when built without CGO (ONNX not available).
func NewONNXScorer(_ string) (*ONNXScorer, error) {
	return nil, errors.New("ONNX scorer requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Score always fails; the stub is never returned by NewONNXScorer.
func (s *ONNXScorer) Score([][]float64) ([]float64, error) { return nil, ErrScorerUnavailable }

// ExpectedFeatureCount is unknown for the stub.
func (s *ONNXScorer) ExpectedFeatureCount() (int, bool) { return 0, false }

// Name returns "onnx".
func (s *ONNXScorer) Name() string { return "onnx" }

// Close is a no-op.
func (s *ONNXScorer) Close() error { return nil }
