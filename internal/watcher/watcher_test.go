package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/ranking"
)

func TestModelReloader_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.yaml")
	handle := ranking.NewModelHandle(nil, "")

	reloaded := make(chan ranking.ModelInfo, 4)
	r := NewModelReloader(path, handle,
		WithDebounce(50*time.Millisecond),
		WithReloadHook(func(info ranking.ModelInfo, err error) {
			if err == nil {
				reloaded <- info
			}
		}),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	// Write a model into the watched directory
	if err := writeFile(path, "kind: linear\nweights: [1, 1]\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case info := <-reloaded:
		if info.Name != "linear" || info.Features != 2 {
			t.Errorf("unexpected model info %+v", info)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("model was not reloaded")
	}
	if handle.Load().Name() != "linear" {
		t.Errorf("handle holds %s, want linear", handle.Load().Name())
	}
}

func TestModelReloader_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	calls := 0
	r := NewModelReloader(filepath.Join(dir, "ranker.yaml"), ranking.NewModelHandle(nil, ""),
		WithDebounce(20*time.Millisecond),
		WithLoader(func(string) (ranking.Scorer, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return ranking.NullScorer{}, nil
		}),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	if err := writeFile(filepath.Join(dir, "notes.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("expected no reloads, got %d", calls)
	}
}

func TestModelReloader_FailedReloadKeepsModel(t *testing.T) {
	current := &ranking.LinearScorer{Weights: []float64{1, 2, 3, 4}}
	handle := ranking.NewModelHandle(current, "initial")
	boom := errors.New("corrupt artifact")

	var hookErr error
	r := NewModelReloader(filepath.Join(t.TempDir(), "ranker.onnx"), handle,
		WithLoader(func(string) (ranking.Scorer, error) { return nil, boom }),
		WithReloadHook(func(_ ranking.ModelInfo, err error) { hookErr = err }),
	)

	if err := r.Reload(); !errors.Is(err, boom) {
		t.Fatalf("Reload() error = %v, want %v", err, boom)
	}
	if !errors.Is(hookErr, boom) {
		t.Errorf("hook error = %v", hookErr)
	}
	if handle.Load() != ranking.Scorer(current) {
		t.Error("failed reload must keep the current model")
	}
	if handle.Info().Source != "initial" {
		t.Errorf("source = %q, want initial", handle.Info().Source)
	}
}

func TestModelReloader_RemovedFileFallsBackToHeuristic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.yaml")
	if err := writeFile(path, "weights: [1, 1, 1, 1]\n"); err != nil {
		t.Fatal(err)
	}
	handle := ranking.NewModelHandle(nil, "")
	r := NewModelReloader(path, handle)

	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	if handle.Load().Name() != "linear" {
		t.Fatalf("expected linear model, got %s", handle.Load().Name())
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	if handle.Load().Name() != "none" {
		t.Errorf("expected null scorer after removal, got %s", handle.Load().Name())
	}
}

func TestModelReloader_StartRequiresPath(t *testing.T) {
	r := NewModelReloader("", ranking.NewModelHandle(nil, ""))
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestModelReloader_StopIsIdempotent(t *testing.T) {
	r := NewModelReloader(filepath.Join(t.TempDir(), "m.yaml"), ranking.NewModelHandle(nil, ""))
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.Stop()
	r.Stop()
}

// sessionScorer releases its weights on Close; scoring afterwards dereferences nil.
type sessionScorer struct {
	mu      sync.Mutex
	weights *[]float64
	closed  chan struct{}
}

func newSessionScorer(w ...float64) *sessionScorer {
	return &sessionScorer{weights: &w, closed: make(chan struct{})}
}

func (s *sessionScorer) Score(batch [][]float64) ([]float64, error) {
	s.mu.Lock()
	w := *s.weights
	s.mu.Unlock()
	out := make([]float64, len(batch))
	for i, row := range batch {
		for j, v := range w {
			out[i] += v * row[j]
		}
	}
	return out, nil
}

func (s *sessionScorer) ExpectedFeatureCount() (int, bool) { return ranking.FeatureCount, true }
func (s *sessionScorer) Name() string                      { return "session" }

func (s *sessionScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.weights != nil {
		s.weights = nil
		close(s.closed)
	}
	return nil
}

func rankWith(s ranking.Scorer) []*models.ScoredCandidate {
	records := []models.BusinessRecord{
		{ID: 1, Name: "Smile Care", ReviewsCount: 10},
		{ID: 2, Name: "Bright Teeth", ReviewsCount: 40},
	}
	return ranking.NewRanker(nil, ranking.NewModelHandle(s, "held")).Rank(records, "", 10)
}

func TestModelReloader_InFlightScorerOutlivesSwap(t *testing.T) {
	old := newSessionScorer(1, 0, 0, 0)
	handle := ranking.NewModelHandle(old, "v1")
	r := NewModelReloader(filepath.Join(t.TempDir(), "ranker.yaml"), handle,
		WithRetireDelay(100*time.Millisecond),
		WithLoader(func(string) (ranking.Scorer, error) {
			return &ranking.LinearScorer{Weights: []float64{0, 1, 0, 0}}, nil
		}),
	)
	defer r.Stop()

	held := handle.Load()
	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	if handle.Load().Name() != "linear" {
		t.Fatalf("handle holds %s, want linear", handle.Load().Name())
	}

	got := rankWith(held)
	if len(got) != 2 || !got[0].ModelScored {
		t.Fatalf("held model must still score right after the swap, got %+v", got)
	}

	select {
	case <-old.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("previous model was not closed after the retire delay")
	}

	got = rankWith(held)
	if len(got) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got))
	}
	for _, sc := range got {
		if sc.ModelScored {
			t.Errorf("id %d: closed model must fall back to heuristic", sc.ID)
		}
	}
}

func TestModelReloader_StopClosesRetiredModels(t *testing.T) {
	old := newSessionScorer(1, 0, 0, 0)
	handle := ranking.NewModelHandle(old, "v1")
	r := NewModelReloader(filepath.Join(t.TempDir(), "ranker.yaml"), handle,
		WithRetireDelay(time.Hour),
		WithLoader(func(string) (ranking.Scorer, error) { return ranking.NullScorer{}, nil }),
	)

	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-old.closed:
		t.Fatal("previous model closed before the retire delay")
	default:
	}

	r.Stop()
	select {
	case <-old.closed:
	default:
		t.Error("Stop must close retired models")
	}
}

func TestModelReloader_ZeroRetireDelayClosesImmediately(t *testing.T) {
	old := newSessionScorer(1, 0, 0, 0)
	r := NewModelReloader(filepath.Join(t.TempDir(), "ranker.yaml"), ranking.NewModelHandle(old, "v1"),
		WithRetireDelay(0),
		WithLoader(func(string) (ranking.Scorer, error) { return ranking.NullScorer{}, nil }),
	)
	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-old.closed:
	default:
		t.Error("expected the previous model to be closed")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
