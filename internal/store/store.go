// Package store arma el data access layer según el driver configurado.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/tenantgate/internal/config"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/store/memory"
	"github.com/dropDatabas3/tenantgate/internal/store/pg"
)

// Store agrupa los repositorios del core sobre un mismo backend.
type Store interface {
	Tenants() repository.TenantRepository
	Users() repository.UserRepository
	Sessions() repository.SessionRepository
	APITokens() repository.APITokenRepository

	// Ping verifica la conexión al backend.
	Ping(ctx context.Context) error

	// Close libera las conexiones.
	Close()
}

// New crea el Store para el driver configurado.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return pg.New(ctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("store: driver %q not supported", cfg.Storage.Driver)
	}
}
