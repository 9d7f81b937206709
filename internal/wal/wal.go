// Package wal implements the append-only operation log that makes vector
// appends durable between snapshots.
//
// The log is a single file: a 12 byte header ("IVFGOWAL" + version) followed
// by CRC-protected records. Each record carries a log sequence number (LSN)
// assigned by the WAL, strictly increasing across checkpoints.
//
// In DurabilitySync mode a background syncer batches fsync calls for all
// writers waiting at the time (group commit).
package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hupe1980/ivfgo/internal/fs"
)

// Durability controls the durability guarantees of the WAL.
type Durability int

const (
	// DurabilityAsync relies on OS page cache. Fast but risky.
	DurabilityAsync Durability = iota
	// DurabilitySync waits for fsync before Append returns. Slow but safe.
	DurabilitySync
)

func (d Durability) String() string {
	if d == DurabilitySync {
		return "sync"
	}
	return "async"
}

const (
	walMagic      = "IVFGOWAL" // 8 bytes
	walVersion    = 1          // 4 bytes
	walHeaderSize = 12
)

var (
	ErrIncompatibleVersion = errors.New("incompatible WAL version")
	ErrInvalidHeader       = errors.New("invalid WAL header")
)

type Options struct {
	Durability Durability
}

func DefaultOptions() Options {
	return Options{Durability: DurabilitySync}
}

// Position locates the end of an appended record. Epoch counts truncations,
// so a position from before a Truncate is recognised as covered by the
// snapshot that triggered it.
type Position struct {
	Epoch  uint64
	Offset int64
}

// WAL manages the write-ahead log file.
type WAL struct {
	mu   sync.Mutex
	fs   fs.FileSystem
	file fs.File
	cw   *countingWriter
	path string
	opts Options

	lastLSN   uint64 // LSN of the last record written or recovered
	tornBytes int64  // bytes discarded from a torn tail at open

	// Group commit state
	syncedOffset int64      // Offset known to be fsync'd
	epoch        uint64     // Bumped by Truncate; stale sync results are ignored
	syncCond     *sync.Cond // Signals the syncer that there is data to sync
	doneCond     *sync.Cond // Signals waiters that a sync completed
	closed       bool
	lastErr      error // Terminal error encountered by background syncer
	wg           sync.WaitGroup
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (cw *countingWriter) Flush() error {
	return cw.w.Flush()
}

// Open opens or creates a WAL at the given path.
//
// An existing log is scanned to recover the last LSN. A torn tail (a short or
// corrupt final record left by a crash) is cut off so new records follow the
// last valid one; TornBytes reports how much was dropped.
func Open(fsys fs.FileSystem, path string, opts Options) (*WAL, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	offset := stat.Size()

	var lastLSN uint64
	var torn int64
	if offset == 0 {
		if err := writeHeader(f); err != nil {
			f.Close()
			return nil, err
		}
		offset = walHeaderSize
	} else {
		if err := checkHeader(f, offset); err != nil {
			f.Close()
			return nil, err
		}
		valid, lsn, err := scan(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		lastLSN = lsn
		if valid < offset {
			if err := f.Truncate(valid); err != nil {
				f.Close()
				return nil, err
			}
			if err := f.Sync(); err != nil {
				f.Close()
				return nil, err
			}
			torn = offset - valid
			offset = valid
		}
	}

	w := &WAL{
		fs:           fsys,
		file:         f,
		cw:           &countingWriter{w: bufio.NewWriter(f), n: offset},
		path:         path,
		opts:         opts,
		lastLSN:      lastLSN,
		tornBytes:    torn,
		syncedOffset: offset,
	}
	w.syncCond = sync.NewCond(&w.mu)
	w.doneCond = sync.NewCond(&w.mu)

	if opts.Durability == DurabilitySync {
		w.wg.Add(1)
		go w.runSyncer()
	}

	return w, nil
}

func writeHeader(f fs.File) error {
	header := make([]byte, walHeaderSize)
	copy(header[0:8], walMagic)
	binary.LittleEndian.PutUint32(header[8:12], uint32(walVersion))
	if _, err := f.Write(header); err != nil {
		return err
	}
	return f.Sync()
}

func checkHeader(f fs.File, size int64) error {
	if size < walHeaderSize {
		return fmt.Errorf("%w: file too small (%d < %d)", ErrInvalidHeader, size, walHeaderSize)
	}
	header := make([]byte, walHeaderSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		return err
	}
	if string(header[0:8]) != walMagic {
		return fmt.Errorf("%w: invalid magic %q", ErrInvalidHeader, header[0:8])
	}
	if ver := binary.LittleEndian.Uint32(header[8:12]); ver != walVersion {
		return fmt.Errorf("%w: version %d (expected %d)", ErrIncompatibleVersion, ver, walVersion)
	}
	return nil
}

// scan walks the records after the header and returns the end offset of the
// last valid one and its LSN.
func scan(f fs.File) (int64, uint64, error) {
	r := bufio.NewReader(io.NewSectionReader(f, walHeaderSize, 1<<62))
	valid := int64(walHeaderSize)
	var lsn uint64
	for {
		rec, n, err := Decode(r)
		if err != nil {
			if isTornTail(err) {
				return valid, lsn, nil
			}
			return 0, 0, err
		}
		valid += n
		lsn = rec.LSN
	}
}

// isTornTail reports whether err marks the end of the readable log rather
// than an I/O failure.
func isTornTail(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, ErrInvalidCRC) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrShortRead) ||
		errors.Is(err, ErrRecordTooLarge)
}

// Size returns the current size of the WAL in bytes.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cw.n
}

// LastLSN returns the LSN of the last record written or recovered.
func (w *WAL) LastLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastLSN
}

// TornBytes returns the number of bytes cut from a torn tail at open.
func (w *WAL) TornBytes() int64 {
	return w.tornBytes
}

// Path returns the file path of the log.
func (w *WAL) Path() string {
	return w.path
}

// Durability returns the configured durability mode.
func (w *WAL) Durability() Durability {
	return w.opts.Durability
}

func (w *WAL) runSyncer() {
	defer w.wg.Done()
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		// Wait until there is data to sync or we are closed
		for w.cw.n <= w.syncedOffset && !w.closed {
			w.syncCond.Wait()
		}

		if w.closed && w.cw.n <= w.syncedOffset {
			return
		}

		target := w.cw.n
		epoch := w.epoch

		w.mu.Unlock()
		err := w.file.Sync()
		w.mu.Lock()

		if err != nil {
			w.lastErr = fmt.Errorf("wal sync failed: %w", err)
			w.doneCond.Broadcast()
			return
		}

		if epoch == w.epoch && target > w.syncedOffset {
			w.syncedOffset = target
		}
		w.doneCond.Broadcast()
	}
}

// Append assigns the next LSN to rec and writes it to the WAL.
// It respects the configured durability mode.
func (w *WAL) Append(rec *Record) error {
	pos, err := w.AppendAsync(rec)
	if err != nil {
		return err
	}
	if w.opts.Durability == DurabilitySync {
		return w.WaitFor(pos)
	}
	return nil
}

// AppendAsync assigns the next LSN to rec and writes it to the file without
// waiting for fsync. It returns the position of the end of the record.
func (w *WAL) AppendAsync(rec *Record) (Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return Position{}, os.ErrClosed
	}
	if w.lastErr != nil {
		return Position{}, w.lastErr
	}

	rec.LSN = w.lastLSN + 1
	if err := rec.Encode(w.cw); err != nil {
		return Position{}, err
	}
	if err := w.cw.Flush(); err != nil {
		return Position{}, err
	}
	w.lastLSN = rec.LSN

	pos := Position{Epoch: w.epoch, Offset: w.cw.n}
	if w.opts.Durability == DurabilitySync {
		w.syncCond.Signal()
	}
	return pos, nil
}

// synced reports whether pos is durable: either fsync'd in the current
// epoch or discarded by a later Truncate.
func (w *WAL) synced(pos Position) bool {
	return pos.Epoch < w.epoch || w.syncedOffset >= pos.Offset
}

// WaitFor waits until the WAL is synced up to pos.
func (w *WAL) WaitFor(pos Position) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for !w.synced(pos) && !w.closed && w.lastErr == nil {
		w.doneCond.Wait()
	}
	if w.synced(pos) {
		return nil
	}
	if w.lastErr != nil {
		return w.lastErr
	}
	return os.ErrClosed
}

// Sync ensures all buffered writes are committed to stable storage.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	if w.lastErr != nil {
		return w.lastErr
	}
	if err := w.cw.Flush(); err != nil {
		return err
	}

	// The syncer only runs in DurabilitySync mode.
	if w.opts.Durability == DurabilityAsync {
		if err := w.file.Sync(); err != nil {
			return err
		}
		w.syncedOffset = w.cw.n
		return nil
	}

	target := Position{Epoch: w.epoch, Offset: w.cw.n}
	w.syncCond.Signal()
	for !w.synced(target) && !w.closed && w.lastErr == nil {
		w.doneCond.Wait()
	}
	return w.lastErr
}

// Truncate discards every record and writes a checkpoint record for
// snapshotLSN, so the LSN sequence continues after a reopen. It is called
// once the snapshot covering those records is durable. If snapshotLSN is
// ahead of the log, the sequence jumps past it.
func (w *WAL) Truncate(snapshotLSN uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	if w.lastErr != nil {
		return w.lastErr
	}
	if err := w.cw.Flush(); err != nil {
		return err
	}
	if err := w.file.Truncate(walHeaderSize); err != nil {
		return err
	}

	w.epoch++
	w.cw.n = walHeaderSize
	w.syncedOffset = walHeaderSize
	w.lastLSN = max(w.lastLSN, snapshotLSN)

	rec := &Record{Type: RecordTypeCheckpoint, LSN: w.lastLSN + 1, SnapshotLSN: snapshotLSN}
	if err := rec.Encode(w.cw); err != nil {
		return err
	}
	if err := w.cw.Flush(); err != nil {
		return err
	}
	w.lastLSN = rec.LSN

	if err := w.file.Sync(); err != nil {
		return err
	}
	w.syncedOffset = w.cw.n
	w.doneCond.Broadcast()
	return nil
}

// Close closes the WAL file.
func (w *WAL) Close() error {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()
		return os.ErrClosed
	}

	if err := w.cw.Flush(); err != nil {
		w.closed = true
		w.syncCond.Signal()
		w.mu.Unlock()
		w.wg.Wait()
		w.file.Close()
		return err
	}

	w.closed = true
	w.syncCond.Signal() // Wake up syncer to exit
	w.mu.Unlock()

	w.wg.Wait()

	return w.file.Close()
}

// Reader returns a reader for replaying the WAL.
// The caller is responsible for closing the returned reader.
func (w *WAL) Reader() (*Reader, error) {
	f, err := w.fs.OpenFile(w.path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(walHeaderSize, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, r: bufio.NewReader(f), offset: walHeaderSize}, nil
}

// Replay calls fn for every record in append order and returns the number of
// records delivered. Reading stops silently at a torn tail.
func (w *WAL) Replay(fn func(*Record) error) (int, error) {
	r, err := w.Reader()
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for {
		rec, err := r.Next()
		if err != nil {
			if isTornTail(err) {
				return n, nil
			}
			return n, err
		}
		if err := fn(rec); err != nil {
			return n, err
		}
		n++
	}
}

// Reader iterates over WAL records.
type Reader struct {
	f      fs.File
	r      *bufio.Reader
	offset int64
}

// Next reads the next record. Returns io.EOF when done.
func (r *Reader) Next() (*Record, error) {
	rec, n, err := Decode(r.r)
	if err == nil {
		r.offset += n
	}
	return rec, err
}

// Offset returns the end offset of the last record read successfully.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.f.Close()
}
