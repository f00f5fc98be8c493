// Package watcher reloads the ranker model when its artifact changes on disk.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/bizsearch/internal/ranking"
	"go.uber.org/zap"
)

const (
	defaultDebounce    = 400 * time.Millisecond
	defaultRetireDelay = 30 * time.Second
)

// LoadFunc loads a scorer from path.
type LoadFunc func(path string) (ranking.Scorer, error)

// ModelReloader watches a model file and publishes a freshly loaded scorer
// into a ModelHandle after each change. A failed load keeps the current model.
type ModelReloader struct {
	path        string
	handle      *ranking.ModelHandle
	load        LoadFunc
	debounce    time.Duration
	retireDelay time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	timer       *time.Timer
	retiring    []*retiredModel
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
	onReload    func(info ranking.ModelInfo, err error)
}

// retiredModel is a replaced scorer waiting for in-flight requests to finish.
type retiredModel struct {
	scorer ranking.Scorer
	timer  *time.Timer
}

// ReloaderOption configures a ModelReloader.
type ReloaderOption func(*ModelReloader)

// WithLogger sets a logger for reload events.
func WithLogger(l *zap.Logger) ReloaderOption {
	return func(r *ModelReloader) { r.logger = l }
}

// WithDebounce sets how long the file must be quiet before reloading.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *ModelReloader) { r.debounce = d }
}

// WithRetireDelay sets how long a replaced model stays open for requests
// that loaded it before the swap. Zero closes it immediately.
func WithRetireDelay(d time.Duration) ReloaderOption {
	return func(r *ModelReloader) { r.retireDelay = d }
}

// WithLoader replaces ranking.LoadScorer.
func WithLoader(load LoadFunc) ReloaderOption {
	return func(r *ModelReloader) { r.load = load }
}

// WithReloadHook is called after every reload attempt.
func WithReloadHook(fn func(info ranking.ModelInfo, err error)) ReloaderOption {
	return func(r *ModelReloader) { r.onReload = fn }
}

// NewModelReloader creates a reloader for the model at path.
func NewModelReloader(path string, handle *ranking.ModelHandle, opts ...ReloaderOption) *ModelReloader {
	r := &ModelReloader{
		path:        filepath.Clean(path),
		handle:      handle,
		load:        ranking.LoadScorer,
		debounce:    defaultDebounce,
		retireDelay: defaultRetireDelay,
		done:        make(chan struct{}),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start watches the model's directory. The directory is watched rather than
// the file so that atomic replace-by-rename is seen. It runs until ctx is
// cancelled or Stop is called.
func (r *ModelReloader) Start(ctx context.Context) error {
	if r.path == "" || r.path == "." {
		return errors.New("model path is required")
	}
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		_ = watcher.Close()
		r.mu.Unlock()
		return err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		r.mu.Unlock()
		return err
	}
	r.watcher = watcher
	r.started = true
	r.mu.Unlock()

	r.logger.Debug("model watcher starting", zap.String("path", r.path))
	go r.run(ctx, watcher)
	return nil
}

func (r *ModelReloader) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case <-r.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			r.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				r.logger.Debug("model watcher error", zap.Error(err))
			}
		}
	}
}

func (r *ModelReloader) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != r.path {
		return
	}
	r.logger.Debug("model watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
		r.scheduleReload()
	}
}

func (r *ModelReloader) scheduleReload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		r.timer = nil
		r.mu.Unlock()
		_ = r.Reload()
	})
}

// Reload loads the model now and swaps it in on success. A removed file
// yields the null scorer, so ranking falls back to the heuristic.
func (r *ModelReloader) Reload() error {
	scorer, err := r.load(r.path)
	if err != nil {
		r.logger.Warn("model reload failed, keeping current model",
			zap.String("path", r.path),
			zap.String("current", r.handle.Info().Name),
			zap.Error(err))
		if r.onReload != nil {
			r.onReload(r.handle.Info(), err)
		}
		return err
	}
	prev := r.handle.Swap(scorer, r.path)
	r.retire(prev)
	info := r.handle.Info()
	r.logger.Info("model reloaded", zap.String("model", info.Name), zap.Int("features", info.Features))
	if r.onReload != nil {
		r.onReload(info, nil)
	}
	return nil
}

// retire closes prev once the retire delay has passed.
func (r *ModelReloader) retire(prev ranking.Scorer) {
	if prev == nil {
		return
	}
	if r.retireDelay <= 0 {
		r.closeScorer(prev)
		return
	}
	m := &retiredModel{scorer: prev}
	r.mu.Lock()
	r.retiring = append(r.retiring, m)
	m.timer = time.AfterFunc(r.retireDelay, func() {
		if r.release(m) {
			r.closeScorer(m.scorer)
		}
	})
	r.mu.Unlock()
}

// release removes m from the retiring list and reports whether it was still there.
func (r *ModelReloader) release(m *retiredModel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.retiring {
		if x == m {
			r.retiring = append(r.retiring[:i], r.retiring[i+1:]...)
			return true
		}
	}
	return false
}

func (r *ModelReloader) closeScorer(s ranking.Scorer) {
	if err := ranking.CloseScorer(s); err != nil {
		r.logger.Debug("failed to close previous model", zap.String("model", s.Name()), zap.Error(err))
	}
}

// Stop stops watching, cancels a pending reload and closes retired models.
func (r *ModelReloader) Stop() {
	r.mu.Lock()
	retiring := r.retiring
	r.retiring = nil
	r.mu.Unlock()
	for _, m := range retiring {
		m.timer.Stop()
		r.closeScorer(m.scorer)
	}

	r.mu.Lock()
	if !r.started || r.watcher == nil {
		r.mu.Unlock()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	_ = r.watcher.Close()
	r.watcher = nil
	r.started = false
	r.mu.Unlock()
	r.stopOnce.Do(func() { close(r.done) })
}
