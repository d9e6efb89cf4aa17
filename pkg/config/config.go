// Package config loads the engine's static configuration: logging,
// telemetry, crypto, storage backend, cache, and chunker settings.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (BACKUPD_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Environment variables override only keys that the configuration file
// sets. When no configuration file is found, Load returns DefaultConfig()
// and reads no environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/backupd/backupd/internal/bytesize"
)

// Config is the engine's static configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics configures the Prometheus metrics HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Crypto configures the repository's key material.
	Crypto CryptoConfig `mapstructure:"crypto" yaml:"crypto"`

	// Storage configures the remote storage backend.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Cache configures the local Object Cache and Files Cache databases.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Chunker configures fixed-size chunking thresholds.
	Chunker ChunkerConfig `mapstructure:"chunker" yaml:"chunker"`

	// Walker configures the backup walker's upload concurrency.
	Walker WalkerConfig `mapstructure:"walker" yaml:"walker"`

	// BackupSets lists the filesystem roots this repository backs up.
	BackupSets []BackupSetConfig `mapstructure:"backup_sets" validate:"dive" yaml:"backup_sets"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling controls continuous Pyroscope profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls continuous Pyroscope profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// CryptoConfig locates the repository's key material.
type CryptoConfig struct {
	// KeyFile is the path to the wrapped-private-key file, a local
	// mirror of the repository's meta/keys object so unattended runs
	// don't need network access to learn the public key and MAC key.
	KeyFile string `mapstructure:"key_file" validate:"required" yaml:"key_file"`

	// Unattended, when true, opens the key file without a password
	// prompt, for backup/prune processes that only need Seal and MAC.
	Unattended bool `mapstructure:"unattended" yaml:"unattended"`
}

// StorageConfig selects and configures the remote storage backend.
type StorageConfig struct {
	// Driver selects the backend: "local", "s3", or "memory" (test only).
	Driver string `mapstructure:"driver" validate:"required,oneof=local s3 memory" yaml:"driver"`

	Local LocalStorageConfig `mapstructure:"local" yaml:"local"`
	S3    S3StorageConfig    `mapstructure:"s3" yaml:"s3"`
}

// LocalStorageConfig configures the local-directory storage backend.
type LocalStorageConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// S3StorageConfig configures the S3-compatible storage backend.
type S3StorageConfig struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket"`
	Region         string `mapstructure:"region" yaml:"region"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeyPrefix      string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
}

// CacheConfig configures the local Object Cache and Files Cache.
type CacheConfig struct {
	// Dir is the directory holding the two SQLite database files.
	Dir string `mapstructure:"dir" validate:"required" yaml:"dir"`
}

// ChunkerConfig configures fixed-size chunking thresholds.
type ChunkerConfig struct {
	ChunkSize    bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`
	MinChunkable bytesize.ByteSize `mapstructure:"min_chunkable" yaml:"min_chunkable"`
}

// WalkerConfig configures the backup walker's upload concurrency.
type WalkerConfig struct {
	// Concurrency bounds the number of in-flight blob encode/upload
	// tasks. Default: 4.
	Concurrency int `mapstructure:"concurrency" validate:"omitempty,min=1" yaml:"concurrency"`
}

// BackupSetConfig names one filesystem root this repository backs up.
type BackupSetConfig struct {
	Name string `mapstructure:"name" validate:"required" yaml:"name"`
	Root string `mapstructure:"root" validate:"required" yaml:"root"`
}

// Load reads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BACKUPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	dir := getConfigDir()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "backupd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "backupd")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}
