package config

import (
	"path/filepath"
	"strings"

	"github.com/backupd/backupd/internal/bytesize"
	"github.com/backupd/backupd/pkg/chunk"
)

// ApplyDefaults fills in any unspecified configuration fields with
// sensible defaults. Zero values are replaced; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyStorageDefaults(&cfg.Storage)
	applyCacheDefaults(&cfg.Cache)
	applyChunkerDefaults(&cfg.Chunker)
	applyWalkerDefaults(&cfg.Walker)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "inuse_objects"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Driver == "" {
		cfg.Driver = "local"
	}
	if cfg.Driver == "local" && cfg.Local.Root == "" {
		cfg.Local.Root = defaultDataDir("repository")
	}
	if cfg.Driver == "s3" && cfg.S3.KeyPrefix == "" {
		cfg.S3.KeyPrefix = "repo/"
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Dir == "" {
		cfg.Dir = defaultDataDir("cache")
	}
}

func applyChunkerDefaults(cfg *ChunkerConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = bytesize.ByteSize(chunk.DefaultChunkSize)
	}
	if cfg.MinChunkable == 0 {
		cfg.MinChunkable = bytesize.ByteSize(chunk.DefaultMinChunkable)
	}
}

func applyWalkerDefaults(cfg *WalkerConfig) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
}

// DefaultConfig returns a complete Config with every field set to its
// default value and no backup sets configured. Callers add backup sets
// before using it.
func DefaultConfig() *Config {
	cfg := &Config{
		Crypto: CryptoConfig{
			KeyFile: filepath.Join(getConfigDir(), "keys"),
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func defaultDataDir(name string) string {
	return filepath.Join(getConfigDir(), name)
}
