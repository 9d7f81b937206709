package ivf

import (
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ivfgo/internal/kmeans"
	"github.com/hupe1980/ivfgo/model"
)

// EmptyClusterPolicy decides what k-means does with a centroid that attracted
// no points.
type EmptyClusterPolicy = kmeans.EmptyClusterPolicy

const (
	// EmptyClusterRetain keeps the previous centroid (default).
	EmptyClusterRetain = kmeans.EmptyClusterRetain
	// EmptyClusterReseed replaces it with a randomly drawn data point.
	EmptyClusterReseed = kmeans.EmptyClusterReseed
)

// Options contains configuration options for the IVF index.
type Options struct {
	// MaxIterations bounds the number of k-means passes per build.
	MaxIterations int

	// Seed initialises the PCG generator used for k-means seeding.
	// Each build starts from a fresh generator, so builds over the same data
	// produce the same lists.
	Seed uint64

	// Workers is the parallelism of the k-means and bucketing passes.
	// Zero selects runtime.GOMAXPROCS(0).
	Workers int

	// EmptyClusterPolicy is forwarded to k-means.
	EmptyClusterPolicy EmptyClusterPolicy

	// Logger receives build progress. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the IVF index.
var DefaultOptions = Options{
	MaxIterations:      20,
	Seed:               42,
	Workers:            0,
	EmptyClusterPolicy: EmptyClusterRetain,
}

// SearchParams controls a single query.
type SearchParams struct {
	// K is the number of results to return.
	K int
	// ProbeRatio widens the probe threshold relative to the best centroid.
	ProbeRatio float32
	// MaxNProbe caps the number of lists scanned.
	MaxNProbe int
	// RefineFactor multiplies K to size the candidate heap.
	RefineFactor int
	// Filter, when non-nil, restricts results to the ids it contains.
	Filter *roaring.Bitmap
}

// DefaultSearchParams returns parameters probing up to 8 lists with a
// probe ratio of 0.5 and no refinement.
func DefaultSearchParams(k int) SearchParams {
	return SearchParams{
		K:            k,
		ProbeRatio:   0.5,
		MaxNProbe:    8,
		RefineFactor: 1,
	}
}

// Validate checks the parameters.
func (p SearchParams) Validate() error {
	if p.K <= 0 {
		return model.NewInvalidParameter("top_k", p.K)
	}
	if p.MaxNProbe <= 0 {
		return model.NewInvalidParameter("max_nprobe", p.MaxNProbe)
	}
	if p.RefineFactor < 1 {
		return model.NewInvalidParameter("refine_factor", p.RefineFactor)
	}
	if !(p.ProbeRatio >= 0) || math.IsInf(float64(p.ProbeRatio), 1) {
		return model.NewInvalidParameter("probe_ratio", p.ProbeRatio)
	}
	return nil
}
