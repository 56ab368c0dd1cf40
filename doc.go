// Package memvec is an embeddable, namespace-partitioned vector store with
// cosine similarity search and metadata filtering.
//
// A Store holds embeddings per (project, namespace) pair: the project is the
// tenant boundary, the namespace an isolation partition within it. Records
// are written with Upsert, retrieved with Get, removed with Delete, and
// ranked against a query vector with Search.
//
// Search runs a fixed pipeline: the metadata filter is validated up front,
// every candidate in the namespace is scored with the normalized cosine
// similarity from the distance package, candidates below the threshold are
// dropped, survivors are sorted by score (ties keep insertion order), the
// metadata filter is applied, and finally the list is cut to TopK. Applying
// the filter before the cut means selective filters backfill from beyond the
// naive top-k instead of under-returning.
//
// The store is safe for concurrent use. Persistence is optional: Snapshot
// and Restore move a compressed image of the store through any
// blobstore.BlobStore.
package memvec
