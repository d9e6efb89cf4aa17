package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/backupd/backupd/internal/cliprompt"
	"github.com/backupd/backupd/internal/logger"
	"github.com/backupd/backupd/internal/metricsserver"
	"github.com/backupd/backupd/internal/telemetry"
	"github.com/backupd/backupd/pkg/config"
	"github.com/backupd/backupd/pkg/repository"
)

// openRepository loads configuration, initializes the logger and the
// observability stack (tracing, profiling, metrics exposition), then
// opens the repository, prompting for the repository password unless the
// loaded config marks crypto as unattended.
//
// The returned shutdown func tears down everything openRepository started
// and must be called once the caller is done with the repository,
// typically alongside repo.Close() in a defer.
func openRepository(ctx context.Context) (repo *repository.Repository, shutdown func(), err error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "backupctl",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "backupctl",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		telemetryShutdown(ctx)
		return nil, nil, fmt.Errorf("initialize profiling: %w", err)
	}

	var metricsSrv *metricsserver.Server
	if cfg.Metrics.Enabled {
		metricsSrv, err = metricsserver.Start(cfg.Metrics.Port)
		if err != nil {
			profilingShutdown()
			telemetryShutdown(ctx)
			return nil, nil, fmt.Errorf("start metrics server: %w", err)
		}
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	shutdownAll := func() {
		if metricsSrv != nil {
			metricsSrv.Shutdown(ctx)
		}
		profilingShutdown()
		telemetryShutdown(ctx)
	}

	password := os.Getenv("BACKUPD_PASSWORD")
	if !cfg.Crypto.Unattended && password == "" {
		password, err = cliprompt.Password("Repository password")
		if err != nil {
			shutdownAll()
			return nil, nil, fmt.Errorf("read password: %w", err)
		}
	}

	repo, err = repository.Open(ctx, cfg, password)
	if err != nil {
		shutdownAll()
		return nil, nil, err
	}

	return repo, shutdownAll, nil
}
