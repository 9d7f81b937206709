// Package testutil provides testing utilities for ivfgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniform(vec)                       // uniform [0, 1)
//	data := rng.ClusteredVectors(1000, 16, 8, 0.05)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(data, query, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
