// Package distance provides vector distance calculations backed by the
// lane-unrolled kernels in internal/simd.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default, used by the IVF index)
//   - MetricDot: Dot product (inner product)
//
// # Usage
//
//	d, err := distance.L2Squared(a, b)   // checked, returns ErrDimensionMismatch
//	d := distance.SquaredL2(a, b)        // unchecked hot path
//	sim := distance.Dot(a, b)
//
// Lane width changes the summation order, so two kernels may disagree in the
// last bits. Distances are comparable within one process run only.
package distance
