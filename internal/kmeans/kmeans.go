package kmeans

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/hupe1980/ivfgo/internal/pool"
	"github.com/hupe1980/ivfgo/internal/simd"
	"github.com/hupe1980/ivfgo/model"
)

// Source is the training data a Partitioner reads. Row(i) must return the
// i-th vector for every i in [0, Count()).
type Source interface {
	Dimension() int
	Count() int
	Row(i int) []float32
}

// RNG draws uniform integers in [0, n). *math/rand/v2.Rand satisfies it.
type RNG interface {
	IntN(n int) int
}

// State is the lifecycle stage of a training run.
type State uint8

const (
	StateUninitialized State = iota
	StateSeeded
	StateIterating
	StateConverged
	StateBudgetExhausted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSeeded:
		return "seeded"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateBudgetExhausted:
		return "budget_exhausted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// EmptyClusterPolicy decides what happens to a centroid that attracted no
// points in an iteration.
type EmptyClusterPolicy uint8

const (
	// EmptyClusterRetain keeps the previous centroid.
	EmptyClusterRetain EmptyClusterPolicy = iota
	// EmptyClusterReseed replaces it with a data point drawn from the RNG.
	EmptyClusterReseed
)

func (p EmptyClusterPolicy) String() string {
	switch p {
	case EmptyClusterRetain:
		return "retain"
	case EmptyClusterReseed:
		return "reseed"
	default:
		return fmt.Sprintf("EmptyClusterPolicy(%d)", uint8(p))
	}
}

// Result summarises a finished training run.
type Result struct {
	// Centroids is the k*dim row-major centroid matrix.
	Centroids []float32
	// Iterations is the number of assignment passes executed.
	Iterations int
	// Converged is true when a pass after the first reassigned nothing.
	Converged bool
	// Changed is the reassignment count of the last pass.
	Changed int
	// EmptyClusters counts empty-cluster events over the whole run.
	EmptyClusters int
}

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithWorkers sets the pool used for the assignment step.
func WithWorkers(w *pool.Workers) Option {
	return func(p *Partitioner) {
		if w != nil {
			p.workers = w
		}
	}
}

// WithEmptyClusterPolicy sets the empty-cluster policy. Default: EmptyClusterRetain.
func WithEmptyClusterPolicy(policy EmptyClusterPolicy) Option {
	return func(p *Partitioner) {
		p.policy = policy
	}
}

// WithLogger sets the logger for progress output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Partitioner) {
		if l != nil {
			p.logger = l
		}
	}
}

// Partitioner trains k centroids with Lloyd's algorithm.
//
// A Partitioner is not safe for concurrent use. Train may be called again to
// start a new run; the previous results are discarded.
type Partitioner struct {
	dim     int
	workers *pool.Workers
	policy  EmptyClusterPolicy
	logger  *slog.Logger

	state       State
	k           int
	centroids   []float32
	assignments []int32
}

// New creates a Partitioner for vectors of length dim.
func New(dim int, opts ...Option) *Partitioner {
	p := &Partitioner{
		dim:     dim,
		workers: pool.NewWorkers(0),
		policy:  EmptyClusterRetain,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the stage of the most recent run.
func (p *Partitioner) State() State { return p.state }

// Centroids returns the centroid matrix of the most recent run. The slice
// aliases internal memory and must not be modified.
func (p *Partitioner) Centroids() []float32 {
	return p.centroids[:len(p.centroids):len(p.centroids)]
}

// Assignments returns the cluster index of every training row as computed by
// the last assignment pass.
func (p *Partitioner) Assignments() []int32 {
	return p.assignments[:len(p.assignments):len(p.assignments)]
}

// Train runs k-means over src. See TrainContext.
func (p *Partitioner) Train(src Source, k, maxIterations int, rng RNG) (Result, error) {
	return p.TrainContext(context.Background(), src, k, maxIterations, rng)
}

// TrainContext runs k-means over src with at most maxIterations assignment
// passes. Seeds are k draws of rng.IntN(count), with replacement.
//
// Every pass assigns each row to its nearest centroid (lowest index on ties)
// and counts reassignments against the previous pass; the first pass compares
// against an all-zero assignment. A pass with no reassignment, other than
// the first, ends the run before the update step.
func (p *Partitioner) TrainContext(ctx context.Context, src Source, k, maxIterations int, rng RNG) (Result, error) {
	if k <= 0 {
		return Result{}, model.NewInvalidParameter("k", k)
	}
	if maxIterations <= 0 {
		return Result{}, model.NewInvalidParameter("max_iterations", maxIterations)
	}
	if src.Dimension() != p.dim {
		return Result{}, model.NewDimensionMismatch(p.dim, src.Dimension())
	}
	n := src.Count()
	if n < k {
		return Result{}, &model.InsufficientDataError{Have: n, Need: k}
	}

	p.state = StateUninitialized
	p.k = k
	p.seed(src, rng)
	p.state = StateSeeded

	dim := p.dim
	p.assignments = make([]int32, n)
	chunks := p.workers.Chunks(n)
	changedPerShard := make([]int, len(chunks))
	scratch := make([][]float32, len(chunks))
	for i := range scratch {
		scratch[i] = make([]float32, k)
	}
	sums := make([]float64, k*dim)
	counts := make([]int, k)

	res := Result{}
	p.state = StateIterating
	for iter := 0; iter < maxIterations; iter++ {
		err := p.workers.Run(ctx, len(chunks), func(_ context.Context, shard int) error {
			changedPerShard[shard] = p.assignRange(src, chunks[shard], scratch[shard])
			return nil
		})
		if err != nil {
			return Result{}, err
		}

		changed := 0
		for _, c := range changedPerShard {
			changed += c
		}
		res.Iterations = iter + 1
		res.Changed = changed

		if iter%2 == 0 {
			p.logger.Debug("kmeans iteration", "iter", iter, "changed", changed, "k", k)
		}

		if changed == 0 && iter > 0 {
			p.state = StateConverged
			res.Converged = true
			p.logger.Info("kmeans converged", "iterations", res.Iterations, "k", k, "n", n)
			break
		}

		res.EmptyClusters += p.update(src, sums, counts, rng)
	}

	if !res.Converged {
		p.state = StateBudgetExhausted
		p.logger.Info("kmeans iteration budget exhausted", "iterations", res.Iterations, "changed", res.Changed, "k", k)
	}

	res.Centroids = p.Centroids()
	return res, nil
}

func (p *Partitioner) seed(src Source, rng RNG) {
	dim := p.dim
	n := src.Count()
	p.centroids = make([]float32, p.k*dim)
	for c := 0; c < p.k; c++ {
		idx := rng.IntN(n)
		copy(p.centroids[c*dim:(c+1)*dim], src.Row(idx))
	}
}

// assignRange assigns rows in r and returns the number that changed cluster.
func (p *Partitioner) assignRange(src Source, r pool.Range, dists []float32) int {
	changed := 0
	for i := r.Start; i < r.End; i++ {
		best, _ := nearest(src.Row(i), p.centroids, p.dim, dists)
		if p.assignments[i] != int32(best) {
			p.assignments[i] = int32(best)
			changed++
		}
	}
	return changed
}

// update recomputes every centroid as the per-dimension mean of its members
// and returns the number of empty clusters.
func (p *Partitioner) update(src Source, sums []float64, counts []int, rng RNG) int {
	dim := p.dim
	clear(sums)
	clear(counts)

	for i, c := range p.assignments {
		row := src.Row(i)
		acc := sums[int(c)*dim : (int(c)+1)*dim]
		for d, v := range row {
			acc[d] += float64(v)
		}
		counts[c]++
	}

	next := make([]float32, len(p.centroids))
	empty := 0
	for c := 0; c < p.k; c++ {
		dst := next[c*dim : (c+1)*dim]
		if counts[c] == 0 {
			empty++
			if p.policy == EmptyClusterReseed {
				copy(dst, src.Row(rng.IntN(src.Count())))
			} else {
				copy(dst, p.centroids[c*dim:(c+1)*dim])
			}
			continue
		}
		inv := 1.0 / float64(counts[c])
		for d := range dst {
			dst[d] = float32(sums[c*dim+d] * inv)
		}
	}
	p.centroids = next
	return empty
}

// Nearest returns the index of the centroid closest to vec and its squared L2
// distance. Ties resolve to the lowest index. It returns -1 when centroids is
// empty.
func Nearest(vec, centroids []float32, dim int) (int, float32) {
	if dim <= 0 || len(centroids) < dim {
		return -1, float32(math.MaxFloat32)
	}
	return nearest(vec, centroids, dim, make([]float32, len(centroids)/dim))
}

func nearest(vec, centroids []float32, dim int, dists []float32) (int, float32) {
	simd.SquaredL2Batch(vec, centroids, dim, dists)
	best := 0
	bestDist := dists[0]
	for j := 1; j < len(dists); j++ {
		if dists[j] < bestDist {
			best = j
			bestDist = dists[j]
		}
	}
	return best, bestDist
}
