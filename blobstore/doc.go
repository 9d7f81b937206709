// Package blobstore provides storage for ivfgo snapshots.
//
// A snapshot is a single immutable blob; the database writes a new one on
// every checkpoint and prunes the older ones. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, atomic temp-file + rename writes
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 (aws-sdk-go-v2) with multipart uploads for large blobs
//   - minio.Store: MinIO and other S3-compatible stores (minio-go)
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error   // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
