package ranking

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LinearScorer is a linear regression model exported as YAML:
//
//	kind: linear
//	intercept: 0.12
//	weights: [0.9, 0.4, 0.3, 0.05]
type LinearScorer struct {
	Kind      string    `yaml:"kind"`
	Intercept float64   `yaml:"intercept"`
	Weights   []float64 `yaml:"weights"`
}

// LoadLinearScorer reads a linear model artifact from path.
func LoadLinearScorer(path string) (*LinearScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m LinearScorer
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if m.Kind != "" && m.Kind != "linear" {
		return nil, fmt.Errorf("unsupported model kind %q", m.Kind)
	}
	if len(m.Weights) == 0 {
		return nil, errors.New("model has no weights")
	}
	return &m, nil
}

// Score computes intercept + w·x for each row. Every row must have exactly len(Weights) entries.
func (m *LinearScorer) Score(batch [][]float64) ([]float64, error) {
	scores := make([]float64, len(batch))
	for i, row := range batch {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("%w: model expects %d features, got %d", ErrFeatureMismatch, len(m.Weights), len(row))
		}
		s := m.Intercept
		for j, w := range m.Weights {
			s += w * row[j]
		}
		scores[i] = s
	}
	return scores, nil
}

// ExpectedFeatureCount returns the number of weights.
func (m *LinearScorer) ExpectedFeatureCount() (int, bool) {
	return len(m.Weights), true
}

// Name returns "linear".
func (m *LinearScorer) Name() string {
	return "linear"
}
