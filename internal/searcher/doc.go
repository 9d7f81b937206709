// Package searcher provides pooled search context for zero-allocation queries.
//
// The Searcher struct owns all reusable resources needed for one IVF query:
//   - Bounded result heap (top K * refine factor)
//   - Centroid score buffer
//   - Probe order scratch
//
// Searchers are managed by a package-level sync.Pool for reuse across queries.
package searcher
