package model

import "fmt"

// ID is the dense identifier of a stored vector: its 0-based insertion index.
// IDs are never reused.
type ID uint32

// SearchResult is a single hit returned by a search.
type SearchResult struct {
	ID ID
	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// String returns a string representation of the result.
func (r SearchResult) String() string {
	return fmt.Sprintf("Hit(%d:%g)", r.ID, r.Distance)
}
