package main

import (
	"context"
	"fmt"
	"os"

	"financepro/internal/backend"
	"financepro/internal/cli"
	"financepro/internal/commands"
	"financepro/internal/config"
	applog "financepro/internal/log"
	"financepro/internal/services"
	"financepro/internal/storage/postgres"
	"financepro/internal/storage/sqlite"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := config.Load()

	app := &commands.App{
		Config: cfg,
		Logger: logger,
		Open: func(ctx context.Context, withOCR bool) (*services.FinanceService, func(), error) {
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return nil, nil, err
			}
			result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
			if err != nil {
				return nil, nil, err
			}
			c := *cfg
			c.FeatureOCR = cfg.FeatureOCR && withOCR
			finance, err := cli.NewFinance(ctx, logger, &c, result.Store, nil)
			if err != nil {
				_ = result.Cleanup()
				return nil, nil, err
			}
			return finance.FinanceService, func() { _ = finance.Close() }, nil
		},
		Migrate: migrator(cfg),
	}

	if err := commands.NewRootCommand(app).Execute(); err != nil {
		os.Exit(1)
	}
}

func migrator(cfg *config.Config) func(context.Context) error {
	switch backend.BackendType(cfg.DataBackend) {
	case backend.SQLiteBackend:
		return func(context.Context) error { return sqlite.RunMigrations(cfg.SQLiteDBPath) }
	case backend.PostgresBackend:
		return func(context.Context) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for the postgres backend")
			}
			return postgres.RunMigrations(cfg.DatabaseURL)
		}
	default:
		return nil
	}
}
