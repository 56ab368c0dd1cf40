// Package testutil provides deterministic random data generation for tests
// and benchmarks.
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UnitVectors(1000, 128)
//	query := rng.UnitVector(128)
//
// Unit vectors are the realistic case for cosine similarity workloads;
// embedding providers ship L2-normalized vectors.
package testutil
