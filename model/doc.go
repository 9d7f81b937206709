// Package model defines the core types shared by every ivfgo package.
//
//   - ID: 0-based insertion index of a vector in its store
//   - SearchResult: (ID, squared L2 distance) pair
//
// It also owns the error kinds reported by the store, the kernels, the
// partitioner and the index, so that every layer can wrap and compare them
// with errors.Is without import cycles.
package model
