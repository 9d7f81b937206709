package ivfgo

import (
	"log/slog"

	"github.com/hupe1980/ivfgo/blobstore"
	"github.com/hupe1980/ivfgo/codec"
	"github.com/hupe1980/ivfgo/index/ivf"
	"github.com/hupe1980/ivfgo/internal/fs"
	"github.com/hupe1980/ivfgo/internal/wal"
	"github.com/hupe1980/ivfgo/resource"
)

// WALOptions configures the operation log.
type WALOptions = wal.Options

// Durability controls when Insert returns relative to fsync.
type Durability = wal.Durability

const (
	// DurabilityAsync returns once the record is in the OS page cache.
	DurabilityAsync = wal.DurabilityAsync
	// DurabilitySync returns once the record is fsynced (group commit).
	DurabilitySync = wal.DurabilitySync
)

// EmptyClusterPolicy decides what k-means does with a centroid that
// attracted no points.
type EmptyClusterPolicy = ivf.EmptyClusterPolicy

const (
	// EmptyClusterRetain keeps the previous centroid (default).
	EmptyClusterRetain = ivf.EmptyClusterRetain
	// EmptyClusterReseed replaces it with a randomly drawn vector.
	EmptyClusterReseed = ivf.EmptyClusterReseed
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	rc               *resource.Controller
	fs               fs.FileSystem

	walPath    string
	walOptions []func(*WALOptions)

	blobs       blobstore.BlobStore
	compression codec.Compression
	keep        int

	index          ivf.Options
	searchDefaults SearchParams
	autoBuild      bool
}

// Option configures Open.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := ivfgo.NewJSONLogger(slog.LevelInfo)
//	db, _ := ivfgo.Open(ctx, 128, 64, ivfgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &ivfgo.BasicMetricsCollector{}
//	db, _ := ivfgo.Open(ctx, 128, 64, ivfgo.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWAL enables the operation log at path. Every insert is logged before
// it is applied; Open replays the log.
//
// Example:
//
//	db, _ := ivfgo.Open(ctx, 128, 64,
//	    ivfgo.WithWAL("./data/ivfgo.wal", func(o *ivfgo.WALOptions) {
//	        o.Durability = ivfgo.DurabilityAsync
//	    }),
//	)
func WithWAL(path string, optFns ...func(*WALOptions)) Option {
	return func(o *options) {
		o.walPath = path
		o.walOptions = optFns
	}
}

// WithSnapshots enables Checkpoint: snapshots are written to store with the
// given block compression, and Open restores the newest one.
func WithSnapshots(store blobstore.BlobStore, compression codec.Compression) Option {
	return func(o *options) {
		o.blobs = store
		o.compression = compression
	}
}

// WithSnapshotRetention keeps the newest n snapshots after a checkpoint
// (default 1).
func WithSnapshotRetention(n int) Option {
	return func(o *options) {
		o.keep = n
	}
}

// WithResourceController bounds vector memory, concurrent builds and
// snapshot upload bandwidth.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithFileSystem replaces the file system used by the WAL.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithWorkers sets the parallelism of k-means and list assignment.
// Zero selects runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.index.Workers = n
	}
}

// WithMaxIterations bounds the number of k-means passes per build (default 20).
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.index.MaxIterations = n
	}
}

// WithSeed sets the k-means seeding generator seed (default 42).
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.index.Seed = seed
	}
}

// WithEmptyClusterPolicy selects how k-means treats clusters that lose all
// their points.
func WithEmptyClusterPolicy(p EmptyClusterPolicy) Option {
	return func(o *options) {
		o.index.EmptyClusterPolicy = p
	}
}

// WithSearchDefaults replaces the parameters Search starts from before
// applying per-call SearchOptions. K is ignored.
func WithSearchDefaults(p SearchParams) Option {
	return func(o *options) {
		o.searchDefaults = p
	}
}

// WithoutAutoBuild skips the build Open runs after recovery.
func WithoutAutoBuild() Option {
	return func(o *options) {
		o.autoBuild = false
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fs:               fs.Default,
		compression:      codec.CompressionNone,
		keep:             1,
		index:            ivf.DefaultOptions,
		searchDefaults:   ivf.DefaultSearchParams(0),
		autoBuild:        true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.keep < 1 {
		o.keep = 1
	}
	return o
}
