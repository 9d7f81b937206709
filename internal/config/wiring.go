package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/ivfgo"
	"github.com/hupe1980/ivfgo/blobstore"
	miniostore "github.com/hupe1980/ivfgo/blobstore/minio"
	s3store "github.com/hupe1980/ivfgo/blobstore/s3"
	"github.com/hupe1980/ivfgo/codec"
	"github.com/hupe1980/ivfgo/resource"
)

// Logger builds the logger selected by the log section.
func (c *Config) Logger() *ivfgo.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	if strings.EqualFold(c.Log.Format, "json") {
		return ivfgo.NewJSONLogger(level)
	}
	return ivfgo.NewTextLogger(level)
}

// BlobStore opens the snapshot backend. It returns nil for backend "none".
func (c *Config) BlobStore(ctx context.Context) (blobstore.BlobStore, error) {
	s := c.Storage.Snapshots
	switch s.Backend {
	case "none":
		return nil, nil
	case "local":
		return blobstore.NewLocalStore(s.Path), nil
	case "s3":
		return s3store.New(ctx, s.Bucket, s3store.WithPrefix(s.Prefix), s3store.WithRegion(s.Region))
	case "minio":
		client, err := minio.New(s.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
			Secure: s.UseSSL,
			Region: s.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, s.Bucket, s.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", s.Backend)
	}
}

// SearchDefaults returns the configured default search parameters.
func (c *Config) SearchDefaults() ivfgo.SearchParams {
	return ivfgo.SearchParams{
		K:            c.Search.DefaultTopK,
		ProbeRatio:   c.Search.ProbeRatio,
		MaxNProbe:    c.Search.NProbe,
		RefineFactor: c.Search.RefineFactor,
	}
}

// Options translates the configuration into database options.
func (c *Config) Options(ctx context.Context, logger *ivfgo.Logger, mc ivfgo.MetricsCollector) ([]ivfgo.Option, error) {
	opts := []ivfgo.Option{
		ivfgo.WithLogger(logger),
		ivfgo.WithMetricsCollector(mc),
		ivfgo.WithMaxIterations(c.Index.MaxIterations),
		ivfgo.WithWorkers(c.Index.Workers),
		ivfgo.WithSearchDefaults(c.SearchDefaults()),
		ivfgo.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:     c.Resources.MemoryLimitBytes,
			MaxBackgroundWorkers: c.Resources.MaxBackgroundWorkers,
			IOLimitBytesPerSec:   c.Resources.IOLimitBytesPerSec,
		})),
	}
	if c.Index.Seed != 0 {
		opts = append(opts, ivfgo.WithSeed(c.Index.Seed))
	}
	if c.Index.EmptyClusterPolicy == "reseed" {
		opts = append(opts, ivfgo.WithEmptyClusterPolicy(ivfgo.EmptyClusterReseed))
	}

	if c.Storage.WALPath != "" {
		durability := ivfgo.DurabilitySync
		if c.Storage.Durability == "async" {
			durability = ivfgo.DurabilityAsync
		}
		opts = append(opts, ivfgo.WithWAL(c.Storage.WALPath, func(o *ivfgo.WALOptions) {
			o.Durability = durability
		}))
	}

	store, err := c.BlobStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		compression, err := codec.ParseCompression(c.Storage.Snapshots.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			ivfgo.WithSnapshots(store, compression),
			ivfgo.WithSnapshotRetention(c.Storage.Snapshots.Retain),
		)
	}
	return opts, nil
}
