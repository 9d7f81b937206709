package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/ivfgo"
	"github.com/hupe1980/ivfgo/internal/config"
	"github.com/hupe1980/ivfgo/internal/server"
	promcollector "github.com/hupe1980/ivfgo/metrics/prometheus"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM.

The configuration file is taken from --config or $IVFGO_CONFIG. On
shutdown in-flight requests are drained, a final checkpoint is written
when snapshots are configured, and the log is synced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path(serveConfigPath)
		if path == "" {
			return fmt.Errorf("no config file: pass --config or set %s", config.EnvPath)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger()
	collector := promcollector.NewCollector(prometheus.DefaultRegisterer)

	opts, err := cfg.Options(ctx, logger, collector)
	if err != nil {
		return err
	}
	db, err := ivfgo.Open(ctx, cfg.Index.Dimension, cfg.Index.NLists, opts...)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	srv := server.NewServer(db, cfg, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if cfg.Storage.CheckpointInterval > 0 {
		go checkpointLoop(ctx, db, logger, cfg.Storage.CheckpointInterval)
	}

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		err = srv.Stop(shutdownCtx)
		cancel()
	}

	if cfg.Storage.Snapshots.Backend != "none" {
		cpCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if cpErr := db.Checkpoint(cpCtx); cpErr != nil {
			logger.Error("final checkpoint failed", "error", cpErr)
		}
		cancel()
	}
	return errors.Join(err, db.Close())
}

// checkpointLoop writes a snapshot every interval until ctx is done.
func checkpointLoop(ctx context.Context, db *ivfgo.DB, logger *ivfgo.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastLSN uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if lsn := db.Stats().LastLSN; lsn == lastLSN {
			continue
		}
		if err := db.Checkpoint(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Warn("periodic checkpoint failed", "error", err)
			}
			continue
		}
		lastLSN = db.Stats().LastLSN
	}
}
