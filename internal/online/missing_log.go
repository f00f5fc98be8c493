package online

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/panjf2000/ants/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	missingSheet    = "missing_queries"
	snapshotSize    = 3
	maxPendingWrite = 64
)

var missingHeader = []interface{}{"id", "query", "timestamp", "snapshot"}

// MissingEntry is one row of the missing-query workbook.
type MissingEntry struct {
	ID        string                  `json:"id"`
	Query     string                  `json:"query"`
	Timestamp string                  `json:"timestamp"`
	Snapshot  []models.ExternalRecord `json:"snapshot"`
}

// MissingLog appends queries the catalog could not answer to an xlsx workbook.
// Record hands entries to a bounded queue drained by a single worker, so rows
// never interleave and callers never wait on a workbook write.
type MissingLog struct {
	path    string
	pool    *ants.Pool
	logger  *zap.Logger
	mu      sync.RWMutex
	queue   chan MissingEntry
	drained chan struct{}
	closed  bool
	now     func() time.Time
	write   func(MissingEntry) error
}

// NewMissingLog creates a log writing to path. The workbook is created on first write.
func NewMissingLog(path string, logger *zap.Logger) (*MissingLog, error) {
	if path == "" {
		return nil, errors.New("missing-query log path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create write pool: %w", err)
	}
	l := &MissingLog{
		path:    path,
		pool:    pool,
		logger:  logger,
		queue:   make(chan MissingEntry, maxPendingWrite),
		drained: make(chan struct{}),
		now:     time.Now,
	}
	l.write = l.append
	if err := pool.Submit(l.drain); err != nil {
		pool.Release()
		return nil, fmt.Errorf("failed to start writer: %w", err)
	}
	return l, nil
}

// Path returns the workbook location.
func (l *MissingLog) Path() string {
	return l.path
}

// Record queues query with a snapshot of its top external results. It never
// blocks and never returns an error; a full queue drops the entry with a warning.
func (l *MissingLog) Record(query string, results []models.ExternalRecord) {
	n := len(results)
	if n > snapshotSize {
		n = snapshotSize
	}
	entry := MissingEntry{
		ID:        uuid.NewString(),
		Query:     query,
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Snapshot:  append([]models.ExternalRecord(nil), results[:n]...),
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- entry:
	default:
		l.logger.Warn("dropped missing query, write queue full", zap.String("query", query))
	}
}

// drain writes queued entries until the queue is closed.
func (l *MissingLog) drain() {
	defer close(l.drained)
	for e := range l.queue {
		if err := l.write(e); err != nil {
			l.logger.Error("failed to record missing query", zap.String("query", e.Query), zap.Error(err))
		}
	}
}

func (l *MissingLog) append(e MissingEntry) error {
	snapshot, err := json.Marshal(e.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	f, err := l.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(missingSheet)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	row := []interface{}{e.ID, e.Query, e.Timestamp, string(snapshot)}
	if err := f.SetSheetRow(missingSheet, cell, &row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// open returns the existing workbook or a new one with the header row.
func (l *MissingLog) open() (*excelize.File, error) {
	if _, err := os.Stat(l.path); err == nil {
		f, err := excelize.OpenFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		if idx, _ := f.GetSheetIndex(missingSheet); idx < 0 {
			_ = f.Close()
			return nil, fmt.Errorf("workbook %s has no %q sheet", l.path, missingSheet)
		}
		return f, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", missingSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(missingSheet, "A1", &missingHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Close waits for queued writes and releases the worker.
func (l *MissingLog) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.drained
	l.pool.Release()
	return nil
}

// ReadMissingLog returns every entry in the workbook at path, oldest first.
// A missing file yields no entries.
func ReadMissingLog(path string) ([]MissingEntry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(missingSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	var entries []MissingEntry
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		e := MissingEntry{ID: row[0], Query: row[1], Timestamp: row[2]}
		if len(row) > 3 && row[3] != "" {
			if err := json.Unmarshal([]byte(row[3]), &e.Snapshot); err != nil {
				return nil, fmt.Errorf("row %d: bad snapshot: %w", i+1, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
