package ivfgo

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/ivfgo/index/ivf"
)

// SearchParams controls a single query.
type SearchParams = ivf.SearchParams

// Explain traces which lists a search visited.
type Explain = ivf.Explain

// SearchOption overrides one of the default search parameters.
type SearchOption func(*SearchParams)

// WithNProbe caps the number of lists scanned.
func WithNProbe(n int) SearchOption {
	return func(p *SearchParams) { p.MaxNProbe = n }
}

// WithProbeRatio sets how far beyond the best centroid distance lists are
// still probed. Zero probes only lists tied with the closest one.
func WithProbeRatio(r float32) SearchOption {
	return func(p *SearchParams) { p.ProbeRatio = r }
}

// WithRefineFactor sizes the candidate heap at k*f.
func WithRefineFactor(f int) SearchOption {
	return func(p *SearchParams) { p.RefineFactor = f }
}

// WithFilter restricts results to ids contained in bm.
func WithFilter(bm *roaring.Bitmap) SearchOption {
	return func(p *SearchParams) { p.Filter = bm }
}

// WithFilterIDs restricts results to the given ids.
func WithFilterIDs(ids ...ID) SearchOption {
	return func(p *SearchParams) {
		bm := roaring.New()
		for _, id := range ids {
			bm.Add(uint32(id))
		}
		p.Filter = bm
	}
}

// Search returns up to k nearest neighbours of query, ordered by ascending
// squared Euclidean distance and then id.
//
// Only vectors present at the last Build are searched. ErrNotBuilt is
// returned before the first Build.
func (db *DB) Search(ctx context.Context, query []float32, k int, optFns ...SearchOption) ([]Result, error) {
	res, _, err := db.search(ctx, query, k, false, optFns)
	return res, err
}

// Explain is Search plus a trace of the probed lists.
func (db *DB) Explain(ctx context.Context, query []float32, k int, optFns ...SearchOption) ([]Result, Explain, error) {
	return db.search(ctx, query, k, true, optFns)
}

func (db *DB) search(ctx context.Context, query []float32, k int, explain bool, optFns []SearchOption) ([]Result, Explain, error) {
	start := time.Now()

	p := db.opts.searchDefaults
	p.K = k
	for _, fn := range optFns {
		fn(&p)
	}

	res, ex, err := db.searchLocked(ctx, query, p)
	db.metrics.RecordSearch(k, ex.Scanned, time.Since(start), err)
	if !explain {
		ex = Explain{}
	}
	db.logger.LogSearch(ctx, k, len(res), err)
	return res, ex, err
}

// searchLocked always traces the search; the scanned count feeds metrics.
func (db *DB) searchLocked(ctx context.Context, query []float32, p SearchParams) ([]Result, Explain, error) {
	if err := ctx.Err(); err != nil {
		return nil, Explain{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, Explain{}, ErrClosed
	}
	return db.index.SearchExplain(query, db.store, p)
}
