package ivfgo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/ivfgo/snapshot"
)

// Checkpoint writes a snapshot of every stored vector, truncates the log
// and prunes snapshots beyond the retention count.
//
// Inserts wait while the snapshot is written; searches continue. A crash
// at any point leaves either the previous snapshot plus the full log or
// the new snapshot, so no insert is lost.
func (db *DB) Checkpoint(ctx context.Context) error {
	if db.opts.blobs == nil {
		return ErrSnapshotsDisabled
	}
	if err := db.opts.rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer db.opts.rc.ReleaseBackground()

	db.cpMu.Lock()
	defer db.cpMu.Unlock()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return ErrClosed
	}

	start := time.Now()
	name, size, err := db.checkpointLocked(ctx)
	db.metrics.RecordCheckpoint(size, time.Since(start), err)
	db.logger.LogCheckpoint(ctx, name, size, err)
	return err
}

func (db *DB) checkpointLocked(ctx context.Context) (string, int, error) {
	lsn := db.lsn
	name := snapshot.Name(lsn)

	data, err := snapshot.Encode(ctx, db.store, lsn, db.opts.compression)
	if err != nil {
		return name, 0, err
	}
	if err := db.opts.rc.AcquireIO(ctx, len(data)); err != nil {
		return name, 0, err
	}
	if err := db.opts.blobs.Put(ctx, name, data); err != nil {
		return name, 0, fmt.Errorf("put snapshot: %w", err)
	}
	if db.wal != nil {
		if err := db.wal.Truncate(lsn); err != nil {
			return name, 0, fmt.Errorf("truncate wal: %w", err)
		}
	}
	db.snapshotLSN.Store(lsn)

	db.pruneSnapshots(ctx, lsn)
	return name, len(data), nil
}

// pruneSnapshots deletes all but the newest retained snapshots at or below
// lsn. Failures are logged; a leftover snapshot is only wasted space.
func (db *DB) pruneSnapshots(ctx context.Context, lsn uint64) {
	names, err := db.opts.blobs.List(ctx, snapshotPrefix)
	if err != nil {
		db.logger.WarnContext(ctx, "list snapshots for pruning", "error", err)
		return
	}

	type entry struct {
		name string
		lsn  uint64
	}
	var snaps []entry
	for _, name := range names {
		if l, ok := snapshot.ParseName(name); ok && l <= lsn {
			snaps = append(snaps, entry{name, l})
		}
	}
	slices.SortFunc(snaps, func(a, b entry) int {
		switch {
		case a.lsn > b.lsn:
			return -1
		case a.lsn < b.lsn:
			return 1
		}
		return 0
	})

	for _, s := range snaps[min(db.opts.keep, len(snaps)):] {
		if err := db.opts.blobs.Delete(ctx, s.name); err != nil {
			db.logger.WarnContext(ctx, "delete old snapshot", "snapshot", s.name, "error", err)
		}
	}
}
