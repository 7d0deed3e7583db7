// Package blobstore provides byte storage for canonify's blob-backed embedding cache.
//
// Store is the interface for reading and writing small named blobs. Implementations
// must be safe for concurrent use and return an error satisfying
// errors.Is(err, ErrNotFound) for missing blobs.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and short-lived runs
//   - LocalStore: local filesystem with atomic writes
//   - s3.Store: Amazon S3 (see package blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible servers (see package blobstore/minio)
package blobstore
