// Package minio provides a blobstore.BlobStore for MinIO and other
// S3-compatible object storage without pulling in the AWS SDK.
package minio
