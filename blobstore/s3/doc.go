// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("ivfgo/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db, err := ivfgo.Open(ctx, 128, 64, ivfgo.WithSnapshots(store, codec.CompressionZSTD))
//
// # Features
//
//   - Multipart uploads for large snapshots
//   - CRC32C integrity checks on upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
