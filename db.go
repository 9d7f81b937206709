package ivfgo

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/ivfgo/index/ivf"
	"github.com/hupe1980/ivfgo/internal/wal"
	"github.com/hupe1980/ivfgo/model"
	"github.com/hupe1980/ivfgo/vectorstore"
)

// ID is the dense identifier of a stored vector: its insertion index.
type ID = model.ID

// Result is a single search hit.
type Result = model.SearchResult

// DB is an in-memory IVF vector database with optional durability.
//
// Inserts and builds are exclusive; searches, Get and Stats run
// concurrently. Vectors inserted after the last Build are stored and
// durable but not searchable until the next Build.
type DB struct {
	mu   sync.RWMutex
	cpMu sync.Mutex // serialises checkpoints

	opts    options
	logger  *Logger
	metrics MetricsCollector

	dim    int
	nLists int
	store  *vectorstore.Store
	index  *ivf.Index
	wal    *wal.WAL

	lsn         uint64 // last LSN applied to the store
	snapshotLSN atomic.Uint64
	closed      bool
}

// Open creates a database for vectors of length dim partitioned into nLists
// lists.
//
// With snapshots configured, the newest snapshot is restored first. With a
// WAL configured, every logged insert after the snapshot is replayed in
// order. Afterwards a single Build runs if at least nLists vectors are
// stored (see WithoutAutoBuild).
func Open(ctx context.Context, dim, nLists int, optFns ...Option) (*DB, error) {
	if dim <= 0 {
		return nil, model.NewInvalidParameter("dim", dim)
	}
	if nLists <= 0 {
		return nil, model.NewInvalidParameter("n_lists", nLists)
	}

	o := applyOptions(optFns)
	idxOpts := o.index
	idxOpts.Logger = o.logger.Logger
	index, err := ivf.New(dim, nLists, func(dst *ivf.Options) { *dst = idxOpts })
	if err != nil {
		return nil, err
	}
	store, err := vectorstore.New(dim)
	if err != nil {
		return nil, err
	}

	db := &DB{
		opts:    o,
		logger:  o.logger.WithDimension(dim),
		metrics: o.metricsCollector,
		dim:     dim,
		nLists:  nLists,
		store:   store,
		index:   index,
	}

	if err := db.recover(ctx); err != nil {
		if db.wal != nil {
			_ = db.wal.Close()
		}
		db.opts.rc.ReleaseMemory(db.store.Bytes())
		return nil, err
	}
	return db, nil
}

// Dimension returns the vector length.
func (db *DB) Dimension() int { return db.dim }

// NLists returns the number of IVF lists.
func (db *DB) NLists() int { return db.nLists }

// Len returns the number of stored vectors, indexed or not.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.store.Count()
}

// Insert appends one vector and returns its id.
//
// The vector is logged before it is applied. With DurabilitySync, Insert
// returns after the log record is fsynced; concurrent inserts share fsyncs.
func (db *DB) Insert(ctx context.Context, v []float32) (ID, error) {
	start := time.Now()
	ids, err := db.insert(ctx, [][]float32{v})
	var id ID
	if len(ids) == 1 {
		id = ids[0]
	}
	db.metrics.RecordInsert(time.Since(start), err)
	db.logger.LogInsert(ctx, uint32(id), err)
	return id, err
}

// BatchInsert appends vectors in order and returns their ids.
//
// Every vector is validated before anything is written, so a dimension
// mismatch rejects the whole batch. On a later failure (log or memory
// budget) the ids of the vectors already applied are returned with the
// error.
func (db *DB) BatchInsert(ctx context.Context, vectors [][]float32) ([]ID, error) {
	start := time.Now()
	ids, err := db.insert(ctx, vectors)
	db.metrics.RecordBatchInsert(len(vectors), len(vectors)-len(ids), time.Since(start))
	db.logger.LogBatchInsert(ctx, len(ids), err)
	return ids, err
}

func (db *DB) insert(ctx context.Context, vectors [][]float32) ([]ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, v := range vectors {
		if len(v) != db.dim {
			return nil, model.NewDimensionMismatch(db.dim, len(v))
		}
	}

	ids, pos, err := db.appendAll(vectors)
	if err != nil {
		return ids, err
	}
	if db.wal != nil && pos.Offset > 0 && db.wal.Durability() == wal.DurabilitySync {
		if err := db.wal.WaitFor(pos); err != nil {
			return ids, fmt.Errorf("wal sync: %w", err)
		}
	}
	return ids, nil
}

// appendAll logs and applies vectors under the write lock and returns the
// log position to wait for.
func (db *DB) appendAll(vectors [][]float32) ([]ID, wal.Position, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var pos wal.Position
	if db.closed {
		return nil, pos, ErrClosed
	}

	ids := make([]ID, 0, len(vectors))
	for _, v := range vectors {
		size := int64(len(v)) * 4
		if err := db.opts.rc.AcquireMemory(size); err != nil {
			return ids, pos, err
		}

		lsn := db.lsn + 1
		if db.wal != nil {
			rec := &wal.Record{Type: wal.RecordTypeAppend, Vector: v}
			end, err := db.wal.AppendAsync(rec)
			if err != nil {
				db.opts.rc.ReleaseMemory(size)
				return ids, pos, fmt.Errorf("wal append: %w", err)
			}
			lsn, pos = rec.LSN, end
		}

		id, err := db.store.Append(v)
		if err != nil {
			db.opts.rc.ReleaseMemory(size)
			return ids, pos, err
		}
		db.lsn = lsn
		ids = append(ids, id)
	}
	return ids, pos, nil
}

// Build trains the partitioner on every stored vector and rebuilds the
// lists. Searches issued meanwhile wait for it to finish. On error the
// previous build keeps serving.
func (db *DB) Build(ctx context.Context) error {
	if err := db.opts.rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer db.opts.rc.ReleaseBackground()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return ErrClosed
	}
	return db.buildLocked(ctx)
}

func (db *DB) buildLocked(ctx context.Context) error {
	start := time.Now()
	n := db.store.Count()
	err := db.index.BuildContext(ctx, db.store)
	d := time.Since(start)
	db.metrics.RecordBuild(n, d, err)
	db.logger.LogBuild(ctx, n, d, err)
	return err
}

// Get returns a copy of the vector stored under id.
func (db *DB) Get(id ID) ([]float32, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	v, err := db.store.Get(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v), nil
}

// Close syncs and closes the log. The database is unusable afterwards.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	db.closed = true
	db.opts.rc.ReleaseMemory(db.store.Bytes())

	if db.wal == nil {
		return nil
	}
	if err := db.wal.Sync(); err != nil {
		_ = db.wal.Close()
		return err
	}
	return db.wal.Close()
}
