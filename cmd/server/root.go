package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/config"
	"github.com/hongminglow/gigdash/internal/logging"
	"github.com/hongminglow/gigdash/internal/storage"
	"github.com/hongminglow/gigdash/internal/storage/memory"
	"github.com/hongminglow/gigdash/internal/storage/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "gigdash",
	Short: "Gig worker dashboard backend",
	Long: `gigdash serves the gig worker dashboard API: job applications, vehicles, credit
monitoring and the GigBot assistant.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// runtime bundles what every subcommand needs.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

func setup() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return &runtime{cfg: cfg, logger: logger}, nil
}

// openStore connects the configured storage driver. The returned *postgres.Store is nil for
// the memory driver.
func (rt *runtime) openStore(ctx context.Context) (storage.Store, *postgres.Store, error) {
	switch rt.cfg.StorageDriver {
	case config.DriverMemory:
		rt.logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil, nil
	default:
		pg, err := postgres.NewStore(ctx, rt.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		return pg, pg, nil
	}
}

// openPostgres is for maintenance commands, which only make sense against a real database.
func (rt *runtime) openPostgres(ctx context.Context) (*postgres.Store, error) {
	if rt.cfg.StorageDriver != config.DriverPostgres {
		return nil, errors.New("this command requires STORAGE_DRIVER=postgres")
	}
	pg, err := postgres.NewStore(ctx, rt.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return pg, nil
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCompaniesCmd, grantRoleCmd)
}
