package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tenantgate/internal/auth"
	"github.com/dropDatabas3/tenantgate/internal/config"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/store"
)

func newSeedCmd() *cobra.Command {
	var (
		tenantName string
		subdomain  string
		maxUsers   int
		adminEmail string
		adminPass  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea un tenant demo con su usuario admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "tenantgate-seed"})
			defer func() { _ = logger.Sync() }()
			log := logger.Named("seed")

			ctx := cmd.Context()
			st, err := store.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			svc, err := auth.New(auth.Deps{
				Store:         st,
				SigningSecret: []byte(cfg.Auth.SigningSecret),
				SessionTTL:    cfg.SessionTTL(),
			})
			if err != nil {
				return err
			}

			t, err := svc.CreateTenant(ctx, auth.CreateTenantInput{
				Name:      tenantName,
				Subdomain: subdomain,
				MaxUsers:  maxUsers,
			})
			if err != nil {
				if repository.IsConflict(err) {
					log.Info("tenant already seeded", logger.Subdomain(subdomain))
					return nil
				}
				return err
			}

			u, err := svc.CreateUser(ctx, auth.CreateUserInput{
				TenantID: t.ID,
				Email:    adminEmail,
				Password: adminPass,
				Role:     repository.RoleAdmin,
			})
			if err != nil {
				return err
			}

			log.Info("seed complete",
				logger.TenantID(t.ID), logger.Subdomain(t.Subdomain), logger.UserID(u.ID))
			fmt.Printf("tenant=%s admin=%s\n", t.Subdomain, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantName, "tenant-name", "Demo Org", "nombre del tenant demo")
	cmd.Flags().StringVar(&subdomain, "subdomain", "demo", "subdomain del tenant demo")
	cmd.Flags().IntVar(&maxUsers, "max-users", 0, "límite de usuarios (0 = default)")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@demo.local", "email del admin")
	cmd.Flags().StringVar(&adminPass, "admin-password", "", "password del admin (requerido)")
	_ = cmd.MarkFlagRequired("admin-password")
	return cmd
}
