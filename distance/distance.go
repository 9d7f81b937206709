package distance

import (
	"fmt"

	"github.com/hupe1980/ivfgo/internal/simd"
	"github.com/hupe1980/ivfgo/model"
)

// L2Squared returns the squared Euclidean distance between a and b.
// It fails with model.ErrDimensionMismatch when the lengths differ.
func L2Squared(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, model.NewDimensionMismatch(len(a), len(b))
	}
	return simd.SquaredL2(a, b), nil
}

// InnerProduct returns the dot product of a and b.
// It fails with model.ErrDimensionMismatch when the lengths differ.
func InnerProduct(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, model.NewDimensionMismatch(len(a), len(b))
	}
	return simd.Dot(a, b), nil
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return simd.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return simd.SquaredL2(a, b)
}

// SquaredL2Batch scores query against each dim-wide row of flat and writes
// the distances into out. Only min(len(out), len(flat)/dim) rows are scored.
func SquaredL2Batch(query, flat []float32, dim int, out []float32) {
	simd.SquaredL2Batch(query, flat, dim, out)
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricDot:
		return "Dot"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricDot:
		return Dot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
