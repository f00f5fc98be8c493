//go:build cgo
// +build cgo

package ranking

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXScorer runs a regression model exported to ONNX (for example from
// scikit-learn via skl2onnx). It requires CGO and the onnxruntime shared library.
// The model must take one float32 input of shape [N, F] and produce [N, 1] or [N].
type ONNXScorer struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	features   int
	outputRank int
	mu         sync.Mutex
}

// NewONNXScorer loads the model at modelPath. InitializeEnvironment is called if not already done.
func NewONNXScorer(modelPath string) (*ONNXScorer, error) {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect ONNX model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("unexpected ONNX signature: %d inputs, %d outputs", len(inputs), len(outputs))
	}

	features := 0
	if dims := inputs[0].Dimensions; len(dims) == 2 && dims[1] > 0 {
		features = int(dims[1])
	}
	outputRank := len(outputs[0].Dimensions)
	if outputRank != 1 && outputRank != 2 {
		return nil, fmt.Errorf("unexpected ONNX output rank %d", outputRank)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXScorer{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		features:   features,
		outputRank: outputRank,
	}, nil
}

// Score runs inference over the whole batch in one call. A closed scorer
// reports ErrScorerUnavailable.
func (s *ONNXScorer) Score(batch [][]float64) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, ErrScorerUnavailable
	}
	if len(batch) == 0 {
		return []float64{}, nil
	}
	width := len(batch[0])
	if s.features > 0 && width != s.features {
		return nil, fmt.Errorf("%w: model expects %d features, got %d", ErrFeatureMismatch, s.features, width)
	}

	data := make([]float32, 0, len(batch)*width)
	for _, row := range batch {
		if len(row) != width {
			return nil, fmt.Errorf("%w: ragged batch", ErrFeatureMismatch)
		}
		for _, v := range row {
			data = append(data, float32(v))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(batch)), int64(width)), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](outputShape(len(batch), s.outputRank))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := output.GetData()
	scores := make([]float64, len(batch))
	for i := range scores {
		scores[i] = float64(out[i])
	}
	return scores, nil
}

func outputShape(n, rank int) ort.Shape {
	if rank == 1 {
		return ort.NewShape(int64(n))
	}
	return ort.NewShape(int64(n), 1)
}

// ExpectedFeatureCount returns the input width declared by the model, when fixed.
func (s *ONNXScorer) ExpectedFeatureCount() (int, bool) {
	return s.features, s.features > 0
}

// Name returns "onnx".
func (s *ONNXScorer) Name() string {
	return "onnx"
}

// Close destroys the session.
func (s *ONNXScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
