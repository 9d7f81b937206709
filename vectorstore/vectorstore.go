// Package vectorstore holds the append-only, contiguous vector storage the
// IVF index trains on and scans.
//
// Vectors live back to back in a single row-major []float32 buffer:
// vector id occupies buf[id*dim : (id+1)*dim]. Identifiers are dense and
// assigned in append order starting at zero.
//
// Store is not internally synchronised. Callers serialise Append against
// every other method; concurrent reads are safe once appends have stopped.
package vectorstore

import (
	"iter"

	"github.com/hupe1980/ivfgo/model"
)

// initialRows is the row capacity reserved by New.
const initialRows = 1024

// Store is an append-only vector store with a fixed dimension.
type Store struct {
	dim   int
	count int
	data  []float32
}

// New creates an empty store for vectors of length dim.
func New(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, model.NewInvalidParameter("dim", dim)
	}
	return &Store{
		dim:  dim,
		data: make([]float32, 0, initialRows*dim),
	}, nil
}

// FromRaw wraps a flat row-major buffer of count*dim values. The store takes
// ownership of data.
func FromRaw(dim int, data []float32) (*Store, error) {
	if dim <= 0 {
		return nil, model.NewInvalidParameter("dim", dim)
	}
	if len(data)%dim != 0 {
		return nil, model.NewDimensionMismatch(dim, len(data)%dim)
	}
	return &Store{dim: dim, count: len(data) / dim, data: data}, nil
}

// Append copies v into the store and returns its identifier.
// A vector of the wrong length is rejected and the store is left unchanged.
func (s *Store) Append(v []float32) (model.ID, error) {
	if len(v) != s.dim {
		return 0, model.NewDimensionMismatch(s.dim, len(v))
	}
	id := model.ID(s.count)
	s.data = append(s.data, v...)
	s.count++
	return id, nil
}

// Get returns the vector stored under id.
//
// The returned slice aliases internal memory and must not be modified. Its
// capacity is clipped, so appending to it never writes into the store.
func (s *Store) Get(id model.ID) ([]float32, error) {
	if int64(id) >= int64(s.count) {
		return nil, &model.IndexOutOfRangeError{ID: id, Count: s.count}
	}
	return s.row(int(id)), nil
}

// Row returns the vector at position i without bounds reporting.
// It panics if i is outside [0, Count()).
func (s *Store) Row(i int) []float32 {
	return s.row(i)
}

func (s *Store) row(i int) []float32 {
	off := i * s.dim
	end := off + s.dim
	return s.data[off:end:end]
}

// Dimension returns the vector dimensionality.
func (s *Store) Dimension() int { return s.dim }

// Count returns the number of stored vectors.
func (s *Store) Count() int { return s.count }

// All iterates over the stored vectors in identifier order.
func (s *Store) All() iter.Seq2[model.ID, []float32] {
	return func(yield func(model.ID, []float32) bool) {
		for i := 0; i < s.count; i++ {
			if !yield(model.ID(i), s.row(i)) {
				return
			}
		}
	}
}

// Raw returns the underlying contiguous buffer (count*dim values).
// The returned slice aliases internal memory; do not modify.
func (s *Store) Raw() []float32 {
	return s.data[:s.count*s.dim : s.count*s.dim]
}

// Bytes returns the payload size in bytes.
func (s *Store) Bytes() int64 {
	return int64(s.count) * int64(s.dim) * 4
}
