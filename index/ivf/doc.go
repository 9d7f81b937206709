// Package ivf implements an inverted-file (IVF) approximate nearest-neighbour
// index over a vectorstore.
//
// Build trains nLists centroids with k-means and files every stored vector
// under its nearest centroid. Search scores the query against all centroids,
// probes the closest lists in order and keeps the best candidates in a
// bounded max-heap.
//
// # Adaptive probing
//
// Lists are probed in ascending (centroid distance, list index) order. After
// the first list, probing stops at the first centroid whose distance exceeds
//
//	best * (1 + ProbeRatio) + 1e-6
//
// or once MaxNProbe lists have been scanned, whichever comes first.
//
// # Distances
//
// All distances are squared L2. Results are sorted ascending by
// (distance, id) and hold at most K entries; fewer is not an error.
//
// # Concurrency
//
// Build takes an exclusive lock; any number of searches may run concurrently
// with each other. The store passed to Search must not be appended to while
// the search runs.
package ivf
