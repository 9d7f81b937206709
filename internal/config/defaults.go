package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
		if cfg.Debug {
			cfg.Log.Level = "debug"
		}
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 20
	}
	if cfg.Index.MaxIterations == 0 {
		cfg.Index.MaxIterations = 20
	}
	if cfg.Index.EmptyClusterPolicy == "" {
		cfg.Index.EmptyClusterPolicy = "retain"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 1000
	}
	if cfg.Search.NProbe == 0 {
		cfg.Search.NProbe = 8
	}
	if cfg.Search.ProbeRatio == 0 {
		cfg.Search.ProbeRatio = 0.5
	}
	if cfg.Search.RefineFactor == 0 {
		cfg.Search.RefineFactor = 1
	}
	if cfg.Storage.Durability == "" {
		cfg.Storage.Durability = "sync"
	}
	if cfg.Storage.Snapshots.Backend == "" {
		cfg.Storage.Snapshots.Backend = "none"
	}
	if cfg.Storage.Snapshots.Retain == 0 {
		cfg.Storage.Snapshots.Retain = 2
	}
	if cfg.Resources.MaxBackgroundWorkers == 0 {
		cfg.Resources.MaxBackgroundWorkers = 1
	}
}
