package ranking

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadScorer loads the model artifact at path, choosing the format by extension
// (.yaml/.yml linear model, .onnx ONNX model). An empty path or a missing file
// is a supported configuration and yields NullScorer without error.
func LoadScorer(path string) (Scorer, error) {
	if path == "" {
		return NullScorer{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return NullScorer{}, nil
		}
		return nil, fmt.Errorf("failed to stat model: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err := LoadLinearScorer(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	case ".onnx":
		m, err := NewONNXScorer(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", filepath.Ext(path))
	}
}

// CloseScorer releases resources held by s, if it holds any.
func CloseScorer(s Scorer) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
