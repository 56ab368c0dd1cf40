// Package s3 provides an S3-backed blobstore.BlobStore, plus a DynamoDB
// commit store giving the atomic compare-and-swap publish semantics that
// S3 alone cannot.
package s3
