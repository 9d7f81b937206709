package ivf

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/ivfgo/internal/kmeans"
	"github.com/hupe1980/ivfgo/internal/pool"
	"github.com/hupe1980/ivfgo/model"
)

// ErrNotBuilt is returned by Search, SearchExplain and Assign before the
// first successful Build.
var ErrNotBuilt = model.ErrNotBuilt

// Source is the vector storage the index trains on and scans.
// *vectorstore.Store satisfies it.
type Source interface {
	Dimension() int
	Count() int
	Row(i int) []float32
}

// Index is an IVF index: nLists centroids and one id list per centroid.
type Index struct {
	mu      sync.RWMutex
	dim     int
	nLists  int
	opts    Options
	workers *pool.Workers
	logger  *slog.Logger

	built     bool
	centroids []float32    // nLists*dim, row-major
	lists     [][]model.ID // ascending ids per list
	count     int          // vectors covered by the last build
	train     kmeans.Result
}

// New creates an unbuilt index for vectors of length dim with nLists lists.
func New(dim, nLists int, optFns ...func(o *Options)) (*Index, error) {
	if dim <= 0 {
		return nil, model.NewInvalidParameter("dim", dim)
	}
	if nLists <= 0 {
		return nil, model.NewInvalidParameter("n_lists", nLists)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		return nil, model.NewInvalidParameter("max_iterations", opts.MaxIterations)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Index{
		dim:     dim,
		nLists:  nLists,
		opts:    opts,
		workers: pool.NewWorkers(opts.Workers),
		logger:  logger,
	}, nil
}

// Dimension returns the vector dimensionality.
func (x *Index) Dimension() int { return x.dim }

// NLists returns the configured number of lists.
func (x *Index) NLists() int { return x.nLists }

// Built reports whether Build has completed at least once.
func (x *Index) Built() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.built
}

// Count returns the number of vectors covered by the last build.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Build trains the centroids on every vector in store and rebuilds the lists.
// See BuildContext.
func (x *Index) Build(store Source) error {
	return x.BuildContext(context.Background(), store)
}

// BuildContext trains nLists centroids on store, assigns every vector to its
// nearest centroid and replaces the previous lists. On error the previous
// build, if any, stays in place.
func (x *Index) BuildContext(ctx context.Context, store Source) error {
	if store.Dimension() != x.dim {
		return model.NewDimensionMismatch(x.dim, store.Dimension())
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	start := time.Now()
	n := store.Count()

	p := kmeans.New(x.dim,
		kmeans.WithWorkers(x.workers),
		kmeans.WithEmptyClusterPolicy(x.opts.EmptyClusterPolicy),
		kmeans.WithLogger(x.logger),
	)
	rng := rand.New(rand.NewPCG(x.opts.Seed, x.opts.Seed))
	res, err := p.TrainContext(ctx, store, x.nLists, x.opts.MaxIterations, rng)
	if err != nil {
		return err
	}

	lists, err := x.bucket(ctx, store, res.Centroids)
	if err != nil {
		return err
	}

	x.centroids = res.Centroids
	x.lists = lists
	x.count = n
	x.train = res
	x.built = true

	x.logger.Info("ivf build complete",
		"vectors", n,
		"lists", x.nLists,
		"iterations", res.Iterations,
		"converged", res.Converged,
		"duration", time.Since(start),
	)
	return nil
}

// bucket assigns every row to its nearest centroid in parallel. Each shard
// collects its own lists; shards are merged in shard order so every list
// holds ascending ids.
func (x *Index) bucket(ctx context.Context, store Source, centroids []float32) ([][]model.ID, error) {
	n := store.Count()
	chunks := x.workers.Chunks(n)
	shards := make([][][]model.ID, len(chunks))

	err := x.workers.Run(ctx, len(chunks), func(_ context.Context, shard int) error {
		local := make([][]model.ID, x.nLists)
		for i := chunks[shard].Start; i < chunks[shard].End; i++ {
			c, _ := kmeans.Nearest(store.Row(i), centroids, x.dim)
			local[c] = append(local[c], model.ID(i))
		}
		shards[shard] = local
		return nil
	})
	if err != nil {
		return nil, err
	}

	lists := make([][]model.ID, x.nLists)
	for c := range lists {
		size := 0
		for _, s := range shards {
			size += len(s[c])
		}
		lists[c] = make([]model.ID, 0, size)
		for _, s := range shards {
			lists[c] = append(lists[c], s[c]...)
		}
	}
	return lists, nil
}

// Assign returns the list a vector would be filed under.
func (x *Index) Assign(v []float32) (int, error) {
	if len(v) != x.dim {
		return -1, model.NewDimensionMismatch(x.dim, len(v))
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.built {
		return -1, ErrNotBuilt
	}
	c, _ := kmeans.Nearest(v, x.centroids, x.dim)
	return c, nil
}

// Centroids returns a copy of the nLists*dim centroid matrix, or nil before
// the first build.
func (x *Index) Centroids() []float32 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.built {
		return nil
	}
	out := make([]float32, len(x.centroids))
	copy(out, x.centroids)
	return out
}

// List returns a copy of the ids filed under list c.
func (x *Index) List(c int) []model.ID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if c < 0 || c >= len(x.lists) {
		return nil
	}
	out := make([]model.ID, len(x.lists[c]))
	copy(out, x.lists[c])
	return out
}
