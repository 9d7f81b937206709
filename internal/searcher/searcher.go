package searcher

import (
	"sync"

	"github.com/hupe1980/ivfgo/model"
)

// Searcher is a reusable execution context for IVF search operations.
// It owns all scratch memory required for search, eliminating heap allocations
// in the steady state.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single goroutine
// during a search operation.
type Searcher struct {
	// Candidates is a bounded max-heap holding the best K*refine candidates.
	Candidates *PriorityQueue

	// Scores holds the query-to-centroid distances, one per list.
	Scores []float32

	// Order holds list indices sorted by (score, list index).
	Order []int

	// Results is a reusable buffer for collecting final results before returning.
	Results []model.SearchResult

	// OpsPerformed tracks the number of distance calculations.
	OpsPerformed int
}

var searcherPool = sync.Pool{
	New: func() any {
		return NewSearcher(256, 128) // Default initial capacity
	},
}

// NewSearcher creates a new searcher with the given initial capacities.
func NewSearcher(listCap, queueCap int) *Searcher {
	return &Searcher{
		Candidates: NewPriorityQueue(true), // MaxHeap for results (keep smallest)
		Scores:     make([]float32, 0, listCap),
		Order:      make([]int, 0, listCap),
		Results:    make([]model.SearchResult, 0, queueCap),
	}
}

// Get returns a Searcher from the pool.
func Get() *Searcher {
	s := searcherPool.Get().(*Searcher)
	s.Reset()
	return s
}

// Put returns a Searcher to the pool.
func Put(s *Searcher) {
	searcherPool.Put(s)
}

// Reset clears the searcher state for reuse.
func (s *Searcher) Reset() {
	s.Candidates.Reset()
	s.Scores = s.Scores[:0]
	s.Order = s.Order[:0]
	s.Results = s.Results[:0]
	s.OpsPerformed = 0
}

// PrepareLists sizes Scores and Order for n lists and fills Order with 0..n-1.
func (s *Searcher) PrepareLists(n int) {
	if cap(s.Scores) < n {
		s.Scores = make([]float32, n)
		s.Order = make([]int, n)
	}
	s.Scores = s.Scores[:n]
	s.Order = s.Order[:n]
	for i := range s.Order {
		s.Order[i] = i
	}
}
