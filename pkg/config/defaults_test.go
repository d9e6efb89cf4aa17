package config

import (
	"testing"

	"github.com/backupd/backupd/internal/bytesize"
	"github.com/backupd/backupd/pkg/chunk"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Logging.Output = %q, want stdout", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Telemetry.Endpoint = %q, want localhost:4317", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Telemetry.SampleRate = %v, want 1.0", cfg.Telemetry.SampleRate)
	}
	if cfg.Telemetry.Profiling.Endpoint != "http://localhost:4040" {
		t.Errorf("Telemetry.Profiling.Endpoint = %q, want http://localhost:4040", cfg.Telemetry.Profiling.Endpoint)
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		t.Error("Telemetry.Profiling.ProfileTypes should default to a non-empty list")
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want 9090", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_Storage(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.Driver != "local" {
		t.Errorf("Storage.Driver = %q, want local", cfg.Storage.Driver)
	}
	if cfg.Storage.Local.Root == "" {
		t.Error("expected a default local storage root")
	}
}

func TestApplyDefaults_Chunker(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Chunker.ChunkSize != bytesize.ByteSize(chunk.DefaultChunkSize) {
		t.Errorf("Chunker.ChunkSize = %d, want %d", cfg.Chunker.ChunkSize, chunk.DefaultChunkSize)
	}
	if cfg.Chunker.MinChunkable != bytesize.ByteSize(chunk.DefaultMinChunkable) {
		t.Errorf("Chunker.MinChunkable = %d, want %d", cfg.Chunker.MinChunkable, chunk.DefaultMinChunkable)
	}
}

func TestApplyDefaults_Walker(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Walker.Concurrency != 4 {
		t.Errorf("Walker.Concurrency = %d, want 4", cfg.Walker.Concurrency)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "DEBUG", Format: "json", Output: "/var/log/backupd.log"},
		Walker:  WalkerConfig{Concurrency: 16},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG (explicit value should survive)", cfg.Logging.Level)
	}
	if cfg.Walker.Concurrency != 16 {
		t.Errorf("Walker.Concurrency = %d, want 16 (explicit value should survive)", cfg.Walker.Concurrency)
	}
}

func TestApplyDefaults_StorageDriverS3_SetsKeyPrefix(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Driver: "s3"}}
	ApplyDefaults(cfg)

	if cfg.Storage.S3.KeyPrefix != "repo/" {
		t.Errorf("S3.KeyPrefix = %q, want repo/", cfg.Storage.S3.KeyPrefix)
	}
}

func TestDefaultConfig_PassesValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackupSets = []BackupSetConfig{{Name: "home", Root: "/home/user"}}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(DefaultConfig()) = %v, want nil", err)
	}
}
