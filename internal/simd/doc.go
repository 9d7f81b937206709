// Package simd provides the float32 distance kernels used on every hot path.
//
// # Kernels
//
//   - Dot, SquaredL2: one pair of vectors
//   - DotBatch, SquaredL2Batch: one query against a flat row-major matrix
//
// # Lanes
//
// The kernels are written in pure Go with a fixed number of independent
// accumulators ("lanes") followed by a scalar remainder loop, which lets the
// compiler keep the partial sums in registers and pipeline the loads. The
// lane width is selected once at init from the CPU features reported by
// golang.org/x/sys/cpu:
//
//   - AVX-512 (F+BW): 16 elements per step
//   - AVX2 + FMA:     8 elements per step
//   - NEON:           4 elements per step
//   - otherwise:      scalar
//
// The lane width changes the order in which partial sums are added, so two
// kernels may disagree in the last bits of the result. Compare results from
// different kernels with a relative epsilon, never with ==.
//
// Set IVFGO_SIMD=generic|neon|avx2|avx512 to force a kernel, or build with
// -tags noasm to disable CPU detection entirely.
package simd
