package ivfgo

import (
	"github.com/hupe1980/ivfgo/index/ivf"
	"github.com/hupe1980/ivfgo/resource"
)

// Stats is a point-in-time view of the database.
type Stats struct {
	Dimension   int    `json:"dimension"`
	NLists      int    `json:"n_lists"`
	Vectors     int    `json:"vectors"`
	Indexed     int    `json:"indexed"`
	Pending     int    `json:"pending"` // stored but not yet built
	LastLSN     uint64 `json:"last_lsn"`
	SnapshotLSN uint64 `json:"snapshot_lsn"`
	WALBytes    int64  `json:"wal_bytes"`
	MemoryBytes int64  `json:"memory_bytes"`

	Index     ivf.Stats      `json:"index"`
	Resources resource.Stats `json:"resources"`
}

// Stats returns storage, index and resource figures.
func (db *DB) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	idx := db.index.Stats()
	st := Stats{
		Dimension:   db.dim,
		NLists:      db.nLists,
		Vectors:     db.store.Count(),
		Indexed:     idx.Vectors,
		LastLSN:     db.lsn,
		SnapshotLSN: db.snapshotLSN.Load(),
		MemoryBytes: db.store.Bytes(),
		Index:       idx,
		Resources:   db.opts.rc.Stats(),
	}
	st.Pending = st.Vectors - st.Indexed
	if db.wal != nil && !db.closed {
		st.WALBytes = db.wal.Size()
	}
	return st
}
