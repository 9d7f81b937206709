package searcher

import (
	"github.com/hupe1980/ivfgo/model"
)

// PriorityQueueItem represents an item in the priority queue.
type PriorityQueueItem struct {
	Node     model.ID // Node is the vector identifier.
	Distance float32  // Distance is the priority of the item in the queue.
}

// before reports whether a orders strictly before b by (distance, id).
func before(a, b PriorityQueueItem) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Node < b.Node
}

// PriorityQueue implements a binary heap holding PriorityQueueItems.
// Items are ordered by distance with the identifier as tie-breaker, so the
// heap order is total and independent of insertion order.
// It does NOT implement container/heap to avoid interface overhead.
type PriorityQueue struct {
	isMaxHeap bool                // true = max heap, false = min heap
	items     []PriorityQueueItem // Value-based storage
}

// NewPriorityQueue creates a new priority queue.
func NewPriorityQueue(isMaxHeap bool) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: isMaxHeap,
		items:     make([]PriorityQueueItem, 0, 16),
	}
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (PriorityQueueItem, bool) {
	if len(pq.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item PriorityQueueItem) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushItemBounded inserts an item into a bounded heap.
// If the heap is full, the top is replaced only when the new item's distance
// is strictly better than the top's; an equal distance keeps the resident
// item whatever the identifiers. It reports whether the item was retained.
func (pq *PriorityQueue) PushItemBounded(item PriorityQueueItem, capacity int) bool {
	if capacity <= 0 {
		return false
	}
	if len(pq.items) < capacity {
		pq.PushItem(item)
		return true
	}

	top := pq.items[0]
	if pq.isMaxHeap {
		// MaxHeap keeps the smallest distances; top is the worst kept.
		if item.Distance >= top.Distance {
			return false
		}
	} else {
		if item.Distance <= top.Distance {
			return false
		}
	}
	pq.items[0] = item
	pq.siftDown(0)
	return true
}

// Len returns the number of elements in the heap.
func (pq *PriorityQueue) Len() int {
	return len(pq.items)
}

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if pq.isMaxHeap {
		return before(pq.items[j], pq.items[i])
	}
	return before(pq.items[i], pq.items[j])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// PopItem removes and returns the top element from the heap.
func (pq *PriorityQueue) PopItem() (PriorityQueueItem, bool) {
	n := len(pq.items)
	if n == 0 {
		return PriorityQueueItem{}, false
	}

	item := pq.items[0]
	pq.items[0] = pq.items[n-1]
	pq.items = pq.items[:n-1]

	if len(pq.items) > 0 {
		pq.siftDown(0)
	}

	return item, true
}

// AppendAscending drains the heap and appends its items to dst in ascending
// (distance, id) order. The heap is empty afterwards.
func (pq *PriorityQueue) AppendAscending(dst []model.SearchResult) []model.SearchResult {
	n := len(pq.items)
	start := len(dst)
	dst = append(dst, make([]model.SearchResult, n)...)

	for i := 0; pq.Len() > 0; i++ {
		item, _ := pq.PopItem()
		pos := start + i
		if pq.isMaxHeap {
			pos = start + n - 1 - i
		}
		dst[pos] = model.SearchResult{ID: item.Node, Distance: item.Distance}
	}
	return dst
}

// siftUp moves the element at index i up the heap until the heap invariant is restored.
func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.Less(i, parent) {
			break
		}
		pq.Swap(i, parent)
		i = parent
	}
}

// siftDown moves the element at index i down the heap until the heap invariant is restored.
func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		right := left + 1
		if right < n && pq.Less(right, left) {
			child = right
		}
		if !pq.Less(child, i) {
			break
		}
		pq.Swap(i, child)
		i = child
	}
}
