// Package blobstore abstracts where snapshot blobs live.
//
// The core store is in-memory; durability is delegated to a pluggable
// BlobStore honoring the same contract. Implementations include an
// in-memory store for tests, a local filesystem store, and S3/MinIO
// stores in subpackages. Wrappers add read-through caching and IO
// throttling.
//
// Blobs are immutable once written: Put replaces atomically, there are
// no partial writes.
package blobstore
