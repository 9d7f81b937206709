package ivf

import (
	"cmp"
	"slices"

	"github.com/hupe1980/ivfgo/internal/searcher"
	"github.com/hupe1980/ivfgo/internal/simd"
	"github.com/hupe1980/ivfgo/model"
)

// probeEpsilon absorbs rounding when the probe ratio is zero.
const probeEpsilon = 1e-6

// Explain traces which lists a search visited.
type Explain struct {
	// Probed holds list indices in probe order.
	Probed []int
	// Scanned is the number of vectors whose distance was computed.
	Scanned int
	// Threshold is the centroid-distance cut-off used for adaptive probing.
	Threshold float32
}

// Search returns up to p.K nearest neighbours of query among the vectors in
// store, sorted ascending by (distance, id).
func (x *Index) Search(query []float32, store Source, p SearchParams) ([]model.SearchResult, error) {
	res, _, err := x.search(query, store, p, false)
	return res, err
}

// SearchExplain is Search plus a trace of the probed lists.
func (x *Index) SearchExplain(query []float32, store Source, p SearchParams) ([]model.SearchResult, Explain, error) {
	return x.search(query, store, p, true)
}

func (x *Index) search(query []float32, store Source, p SearchParams, explain bool) ([]model.SearchResult, Explain, error) {
	var ex Explain
	if err := p.Validate(); err != nil {
		return nil, ex, err
	}
	if len(query) != x.dim {
		return nil, ex, model.NewDimensionMismatch(x.dim, len(query))
	}
	if store.Dimension() != x.dim {
		return nil, ex, model.NewDimensionMismatch(x.dim, store.Dimension())
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.built {
		return nil, ex, ErrNotBuilt
	}
	if store.Count() < x.count {
		return nil, ex, &model.IndexOutOfRangeError{ID: model.ID(x.count - 1), Count: store.Count()}
	}

	s := searcher.Get()
	defer searcher.Put(s)

	// Score and order every centroid.
	s.PrepareLists(x.nLists)
	simd.SquaredL2Batch(query, x.centroids, x.dim, s.Scores)
	scores := s.Scores
	slices.SortFunc(s.Order, func(a, b int) int {
		if c := cmp.Compare(scores[a], scores[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	best := scores[s.Order[0]]
	threshold := best*(1+p.ProbeRatio) + probeEpsilon
	ex.Threshold = threshold

	capacity := heapCapacity(p.K, p.RefineFactor)
	for i, c := range s.Order {
		if i >= p.MaxNProbe {
			break
		}
		if i > 0 && scores[c] > threshold {
			break
		}
		if explain {
			ex.Probed = append(ex.Probed, c)
		}
		for _, id := range x.lists[c] {
			if p.Filter != nil && !p.Filter.Contains(uint32(id)) {
				continue
			}
			d := simd.SquaredL2(query, store.Row(int(id)))
			s.OpsPerformed++
			s.Candidates.PushItemBounded(searcher.PriorityQueueItem{Node: id, Distance: d}, capacity)
		}
	}
	ex.Scanned = s.OpsPerformed

	s.Results = s.Candidates.AppendAscending(s.Results[:0])
	n := min(p.K, len(s.Results))
	out := make([]model.SearchResult, n)
	copy(out, s.Results[:n])
	return out, ex, nil
}

// heapCapacity returns k*refine, saturating instead of overflowing.
func heapCapacity(k, refine int) int {
	const maxInt = int(^uint(0) >> 1)
	if refine > maxInt/k {
		return maxInt
	}
	return k * refine
}
