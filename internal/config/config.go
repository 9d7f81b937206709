// Package config provides configuration loading and structs for the ivfgo server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/ivfgo/codec"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "IVFGO_CONFIG"

// Config holds all configuration for the server.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
	Resources ResourcesConfig `yaml:"resources"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IndexConfig holds the partitioner settings.
type IndexConfig struct {
	Dimension          int    `yaml:"dimension"`
	NLists             int    `yaml:"n_lists"`
	MaxIterations      int    `yaml:"max_iterations"`
	Seed               uint64 `yaml:"seed"`
	Workers            int    `yaml:"workers"`
	EmptyClusterPolicy string `yaml:"empty_cluster_policy"` // retain or reseed
}

// SearchConfig holds default search parameters.
type SearchConfig struct {
	DefaultTopK  int     `yaml:"default_top_k"`
	MaxTopK      int     `yaml:"max_top_k"`
	NProbe       int     `yaml:"nprobe"`
	ProbeRatio   float32 `yaml:"probe_ratio"`
	RefineFactor int     `yaml:"refine_factor"`
}

// StorageConfig holds the log and snapshot settings.
type StorageConfig struct {
	WALPath            string         `yaml:"wal_path"` // empty disables the log
	Durability         string         `yaml:"durability"`
	CheckpointInterval time.Duration  `yaml:"checkpoint_interval"`
	Snapshots          SnapshotConfig `yaml:"snapshots"`
}

// SnapshotConfig selects where snapshots are stored.
type SnapshotConfig struct {
	Backend     string `yaml:"backend"` // none, local, s3 or minio
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	UseSSL      bool   `yaml:"use_ssl"`
	Compression string `yaml:"compression"`
	Retain      int    `yaml:"retain"`
}

// ResourcesConfig bounds memory, background work and checkpoint IO.
type ResourcesConfig struct {
	MemoryLimitBytes     int64 `yaml:"memory_limit_bytes"`
	MaxBackgroundWorkers int64 `yaml:"max_background_workers"`
	IOLimitBytesPerSec   int64 `yaml:"io_limit_bytes_per_sec"`
}

// Path returns explicit if set, otherwise $IVFGO_CONFIG.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvPath)
}

// Load reads and parses the config file at path, expands paths, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.WALPath = expandPath(cfg.Storage.WALPath, configDir)
	cfg.Storage.Snapshots.Path = expandPath(cfg.Storage.Snapshots.Path, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// expandPath resolves relative paths against configDir.
func expandPath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Index.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("index.dimension must be positive, got %d", c.Index.Dimension))
	}
	if c.Index.NLists <= 0 {
		errs = append(errs, fmt.Errorf("index.n_lists must be positive, got %d", c.Index.NLists))
	}
	switch c.Index.EmptyClusterPolicy {
	case "retain", "reseed":
	default:
		errs = append(errs, fmt.Errorf("index.empty_cluster_policy: unknown policy %q", c.Index.EmptyClusterPolicy))
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		errs = append(errs, fmt.Errorf("search.max_top_k %d is below default_top_k %d", c.Search.MaxTopK, c.Search.DefaultTopK))
	}
	if c.Search.ProbeRatio < 0 {
		errs = append(errs, fmt.Errorf("search.probe_ratio must not be negative, got %g", c.Search.ProbeRatio))
	}
	switch c.Storage.Durability {
	case "sync", "async":
	default:
		errs = append(errs, fmt.Errorf("storage.durability: unknown mode %q", c.Storage.Durability))
	}
	if _, err := codec.ParseCompression(c.Storage.Snapshots.Compression); err != nil {
		errs = append(errs, fmt.Errorf("storage.snapshots.compression: %w", err))
	}

	s := c.Storage.Snapshots
	switch s.Backend {
	case "none":
	case "local":
		if s.Path == "" {
			errs = append(errs, errors.New("storage.snapshots.path is required for the local backend"))
		}
	case "s3":
		if s.Bucket == "" {
			errs = append(errs, errors.New("storage.snapshots.bucket is required for the s3 backend"))
		}
	case "minio":
		if s.Bucket == "" || s.Endpoint == "" {
			errs = append(errs, errors.New("storage.snapshots.bucket and endpoint are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.snapshots.backend: unknown backend %q", s.Backend))
	}
	if c.Storage.CheckpointInterval > 0 && s.Backend == "none" {
		errs = append(errs, errors.New("storage.checkpoint_interval requires a snapshot backend"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
