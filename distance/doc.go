// Package distance provides vector similarity and distance calculations.
//
// All functions validate their inputs and return errors instead of producing
// NaN or silently truncating: empty vectors, length mismatches, and zero
// magnitudes (where a magnitude is required) are hard errors.
//
// Two similarity contracts exist deliberately:
//   - Cosine returns the raw cosine similarity in [-1, 1].
//   - Score returns the search-facing normalized similarity in [0, 1],
//     computed as (cosine+1)/2 and clamped.
//
// Keeping them as distinct named functions prevents threshold comparisons
// from accidentally mixing the two scales.
package distance
