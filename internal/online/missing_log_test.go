package online

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingLog_RecordAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "missing.xlsx")
	log, err := NewMissingLog(path, nil)
	require.NoError(t, err)
	log.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("IST", 19800)) }

	rating := 4.2
	results := []models.ExternalRecord{
		{Title: "one", Rating: &rating},
		{Title: "two"},
		{Title: "three"},
		{Title: "four"},
	}
	log.Record("vegan bakery", results)
	log.Record("late night vet", nil)
	require.NoError(t, log.Close())

	entries, err := ReadMissingLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "vegan bakery", entries[0].Query)
	assert.Equal(t, "2025-03-03T23:36:07Z", entries[0].Timestamp)
	assert.NotEmpty(t, entries[0].ID)
	require.Len(t, entries[0].Snapshot, 3)
	assert.Equal(t, "one", entries[0].Snapshot[0].Title)
	assert.Equal(t, 4.2, *entries[0].Snapshot[0].Rating)

	assert.Equal(t, "late night vet", entries[1].Query)
	assert.Empty(t, entries[1].Snapshot)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestMissingLog_AppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.xlsx")
	for _, q := range []string{"a query", "b query"} {
		log, err := NewMissingLog(path, nil)
		require.NoError(t, err)
		log.Record(q, nil)
		require.NoError(t, log.Close())
	}

	entries, err := ReadMissingLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b query", entries[1].Query)
}

func TestMissingLog_RecordAfterCloseIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.xlsx")
	log, err := NewMissingLog(path, nil)
	require.NoError(t, err)
	require.NoError(t, log.Close())
	log.Record("ignored", nil)
	require.NoError(t, log.Close())

	entries, err := ReadMissingLog(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewMissingLog_RequiresPath(t *testing.T) {
	_, err := NewMissingLog("", nil)
	assert.Error(t, err)
}

func TestMissingLog_RecordDoesNotWaitForWrites(t *testing.T) {
	log, err := NewMissingLog(filepath.Join(t.TempDir(), "missing.xlsx"), nil)
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var written atomic.Int32
	log.write = func(MissingEntry) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		written.Add(1)
		return nil
	}

	log.Record("first", nil)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not pick up the first entry")
	}

	begin := time.Now()
	for i := 0; i < maxPendingWrite+10; i++ {
		log.Record(fmt.Sprintf("query %d", i), nil)
	}
	assert.Less(t, time.Since(begin), 500*time.Millisecond, "Record waited on the in-flight write")

	close(release)
	require.NoError(t, log.Close())
	assert.Equal(t, int32(1+maxPendingWrite), written.Load(), "overflow beyond the queue is dropped")
}

func TestMissingLog_ConcurrentRecordAndClose(t *testing.T) {
	log, err := NewMissingLog(filepath.Join(t.TempDir(), "missing.xlsx"), nil)
	require.NoError(t, err)
	var written atomic.Int32
	log.write = func(MissingEntry) error {
		written.Add(1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				log.Record(fmt.Sprintf("q%d-%d", i, j), nil)
			}
		}(i)
	}
	require.NoError(t, log.Close())
	wg.Wait()

	n := written.Load()
	log.Record("after close", nil)
	assert.Equal(t, n, written.Load())
}
