package ivfgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/ivfgo/blobstore"
	"github.com/hupe1980/ivfgo/internal/wal"
	"github.com/hupe1980/ivfgo/model"
	"github.com/hupe1980/ivfgo/snapshot"
)

// snapshotPrefix is the blob name prefix of every snapshot.
const snapshotPrefix = "snapshot-"

// recover restores the newest snapshot, replays the log after it and runs
// one build.
func (db *DB) recover(ctx context.Context) error {
	snapVectors, err := db.loadSnapshot(ctx)
	if err != nil {
		db.logger.LogRecovery(ctx, 0, 0, err)
		return err
	}

	replayed, err := db.replayWAL(ctx)
	db.logger.LogRecovery(ctx, snapVectors, replayed, err)
	if err != nil {
		return err
	}

	if db.opts.autoBuild && db.store.Count() >= db.nLists {
		return db.buildLocked(ctx)
	}
	return nil
}

// latestSnapshot returns the name of the snapshot with the highest LSN.
func latestSnapshot(ctx context.Context, store blobstore.BlobStore) (string, bool, error) {
	names, err := store.List(ctx, snapshotPrefix)
	if err != nil {
		return "", false, err
	}
	var (
		best    string
		bestLSN uint64
		found   bool
	)
	for _, name := range names {
		lsn, ok := snapshot.ParseName(name)
		if !ok {
			continue
		}
		if !found || lsn > bestLSN {
			best, bestLSN, found = name, lsn, true
		}
	}
	return best, found, nil
}

func (db *DB) loadSnapshot(ctx context.Context) (int, error) {
	if db.opts.blobs == nil {
		return 0, nil
	}
	name, ok, err := latestSnapshot(ctx, db.opts.blobs)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}
	if !ok {
		return 0, nil
	}

	data, err := db.opts.blobs.Get(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	snap, err := snapshot.Decode(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	if snap.Dim != db.dim {
		return 0, fmt.Errorf("snapshot %s: %w", name, model.NewDimensionMismatch(db.dim, snap.Dim))
	}
	store, err := snap.Store()
	if err != nil {
		return 0, err
	}
	if err := db.opts.rc.AcquireMemory(store.Bytes()); err != nil {
		return 0, err
	}

	db.store = store
	db.lsn = snap.LSN
	db.snapshotLSN.Store(snap.LSN)
	return store.Count(), nil
}

func (db *DB) replayWAL(ctx context.Context) (int, error) {
	if db.opts.walPath == "" {
		return 0, nil
	}

	walOpts := wal.DefaultOptions()
	for _, fn := range db.opts.walOptions {
		fn(&walOpts)
	}
	w, err := wal.Open(db.opts.fs, db.opts.walPath, walOpts)
	if err != nil {
		return 0, fmt.Errorf("open wal: %w", err)
	}
	db.wal = w

	if torn := w.TornBytes(); torn > 0 {
		db.logger.WarnContext(ctx, "discarded torn wal tail", "bytes", torn)
	}

	replayed := 0
	_, err = w.Replay(func(rec *wal.Record) error {
		if rec.Type != wal.RecordTypeAppend || rec.LSN <= db.lsn {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := db.opts.rc.AcquireMemory(int64(len(rec.Vector)) * 4); err != nil {
			return err
		}
		if _, err := db.store.Append(rec.Vector); err != nil {
			return fmt.Errorf("replay lsn %d: %w", rec.LSN, err)
		}
		db.lsn = rec.LSN
		replayed++
		return nil
	})
	if err != nil {
		return replayed, err
	}

	// A log older than the snapshot (for example a deleted WAL file) must
	// not hand out LSNs the snapshot already covers.
	if w.LastLSN() < db.lsn {
		if err := w.Truncate(db.lsn); err != nil {
			return replayed, fmt.Errorf("advance wal: %w", err)
		}
	}
	db.lsn = max(db.lsn, w.LastLSN())
	return replayed, nil
}
