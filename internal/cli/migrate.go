package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsplug/scoring-engine/internal/config"
	"github.com/devsplug/scoring-engine/internal/infra/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg)
		},
	}
}

func runMigrations(ctx context.Context, cfg *config.Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, cfg.DB.URL, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	return postgres.RunMigrations(ctx, pool, cfg.DB.MigrationsDir)
}
