package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tenantgate/internal/config"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/store/pg"
	migrations "github.com/dropDatabas3/tenantgate/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el esquema embebido contra Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %s)", cfg.Storage.Driver)
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "tenantgate-migrate"})
			defer func() { _ = logger.Sync() }()

			st, err := pg.New(cmd.Context(), pg.Config{
				DSN:             cfg.Storage.DSN,
				MaxConns:        cfg.Storage.Postgres.MaxConns,
				ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := pg.RunMigrations(cmd.Context(), st.Pool(), migrations.FS, migrations.Dir)
			if err != nil {
				return err
			}
			logger.Named("migrate").Info("schema applied", logger.Count(n))
			return nil
		},
	}
}
