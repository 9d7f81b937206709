// Package kmeans implements Lloyd's k-means clustering used to train the
// coarse quantizer of the IVF index.
//
// A Partitioner moves through a small state machine per training run:
//
//	Uninitialized -> Seeded -> Iterating -> Converged | BudgetExhausted
//
// Seeds are drawn with replacement from a caller-supplied RNG, so a run is
// fully determined by the data, k, the iteration budget and the RNG state.
// The assignment step fans out over a worker pool; the update step is serial.
package kmeans
