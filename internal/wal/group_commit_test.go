package wal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/ivfgo/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAL_GroupCommit_Concurrency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	opts := Options{Durability: DurabilitySync}
	w, err := Open(nil, path, opts)
	require.NoError(t, err)
	defer w.Close()

	concurrency := 50
	recordsPerGoroutine := 100
	totalRecords := concurrency * recordsPerGoroutine

	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				rec := &Record{
					Type:   RecordTypeAppend,
					Vector: []float32{float32(id), float32(j), 3.0},
				}
				if err := w.Append(rec); err != nil {
					panic(err)
				}
			}
		}(i)
	}

	wg.Wait()
	assert.Equal(t, uint64(totalRecords), w.LastLSN())

	require.NoError(t, w.Close())

	w2, err := Open(nil, path, opts)
	require.NoError(t, err)
	defer w2.Close()

	count := 0
	seen := make(map[[2]float32]bool)
	var lastLSN uint64
	_, err = w2.Replay(func(rec *Record) error {
		count++
		assert.Greater(t, rec.LSN, lastLSN, "LSNs increase in file order")
		lastLSN = rec.LSN
		seen[[2]float32{rec.Vector[0], rec.Vector[1]}] = true
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, totalRecords, count)
	assert.Equal(t, totalRecords, len(seen))
	assert.Equal(t, uint64(totalRecords), w2.LastLSN())
}

func TestWAL_GroupCommit_Sync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal_sync.log")

	w, err := Open(nil, path, Options{Durability: DurabilitySync})
	require.NoError(t, err)
	defer w.Close()

	assert.NoError(t, w.Sync())

	require.NoError(t, w.Append(&Record{Type: RecordTypeAppend, Vector: []float32{1.0}}))
	assert.NoError(t, w.Sync())

	// AppendAsync + WaitFor is the split form of Append.
	pos, err := w.AppendAsync(&Record{Type: RecordTypeAppend, Vector: []float32{2.0}})
	require.NoError(t, err)
	assert.Equal(t, w.Size(), pos.Offset)
	assert.NoError(t, w.WaitFor(pos))
}

// syncGate blocks the first File.Sync issued after arm until release is
// closed.
type syncGate struct {
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *syncGate) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *syncGate) wait() {
	g.mu.Lock()
	armed := g.armed
	g.armed = false
	entered, release := g.entered, g.release
	g.mu.Unlock()
	if armed {
		close(entered)
		<-release
	}
}

type gatedFS struct {
	fs.FileSystem
	gate *syncGate
}

func (g gatedFS) OpenFile(name string, flag int, perm os.FileMode) (fs.File, error) {
	f, err := g.FileSystem.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &gatedFile{File: f, gate: g.gate}, nil
}

type gatedFile struct {
	fs.File
	gate *syncGate
}

func (f *gatedFile) Sync() error {
	f.gate.wait()
	return f.File.Sync()
}

func TestWAL_GroupCommit_TruncateReleasesWaiters(t *testing.T) {
	gate := &syncGate{}
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := Open(gatedFS{FileSystem: fs.Default, gate: gate}, path, Options{Durability: DurabilitySync})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 8; i++ {
		require.NoError(t, w.Append(&Record{Type: RecordTypeAppend, Vector: make([]float32, 32)}))
	}

	// Hold the syncer inside fsync for the next record.
	gate.arm()
	pos, err := w.AppendAsync(&Record{Type: RecordTypeAppend, Vector: make([]float32, 32)})
	require.NoError(t, err)
	<-gate.entered

	done := make(chan error, 1)
	go func() { done <- w.WaitFor(pos) }()

	require.NoError(t, w.Truncate(w.LastLSN()))
	assert.Less(t, w.Size(), pos.Offset)
	close(gate.release)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitFor blocked after Truncate")
	}

	// Sync on the short post-checkpoint file still completes.
	assert.NoError(t, w.Sync())
}
