// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible stores (Ceph, SeaweedFS,
// Garage) without pulling in the AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "ivfgo/")
//	db, err := ivfgo.Open(ctx, 128, 64, ivfgo.WithSnapshots(store, codec.CompressionLZ4))
package minio
