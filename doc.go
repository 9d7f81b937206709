// Package ivfgo is an in-memory approximate nearest-neighbour index based
// on an inverted file (IVF).
//
// Vectors are appended to a dense store and receive sequential ids. Build
// trains k-means centroids on every stored vector and assigns each vector
// to its nearest centroid's list. A search scores the query against all
// centroids and scans only the lists whose centroid lies within a
// configurable ratio of the best one.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := ivfgo.Open(ctx, 128, 64)
//	defer db.Close()
//
//	ids, _ := db.BatchInsert(ctx, vectors)
//	_ = db.Build(ctx)
//
//	hits, _ := db.Search(ctx, query, 10, ivfgo.WithNProbe(16))
//
// # Durability
//
// WithWAL logs every insert before it is applied. WithSnapshots persists
// the full store on Checkpoint and truncates the log. Open restores the
// newest snapshot, replays the log and rebuilds the index once:
//
//	store, _ := blobstore.NewLocalStore("./data/snapshots")
//	db, _ := ivfgo.Open(ctx, 128, 64,
//	    ivfgo.WithWAL("./data/ivfgo.wal", func(o *ivfgo.WALOptions) {
//	        o.Durability = ivfgo.DurabilitySync
//	    }),
//	    ivfgo.WithSnapshots(store, codec.CompressionZSTD),
//	)
//
// Snapshots can live in any blobstore.BlobStore, including S3 and MinIO.
//
// # Concurrency
//
// DB is safe for concurrent use. Inserts are serialised; searches run in
// parallel with each other and with Build and Checkpoint.
package ivfgo
