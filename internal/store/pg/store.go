// Package pg implementa los repositorios sobre PostgreSQL (pgxpool).
//
// Las unicidades (subdomain, (tenant_id, email), nombre activo de token) las
// garantiza la DB; acá solo se traduce la violación 23505 a ErrConflict.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// Config parámetros de conexión.
type Config struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime string
}

// Store implementa store.Store sobre un pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

// New abre el pool y verifica la conexión.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("pg: conn_max_lifetime: %w", err)
		}
		pcfg.MaxConnLifetime = d
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Tenants() repository.TenantRepository     { return &tenantRepo{pool: s.pool} }
func (s *Store) Users() repository.UserRepository         { return &userRepo{pool: s.pool} }
func (s *Store) Sessions() repository.SessionRepository   { return &sessionRepo{pool: s.pool} }
func (s *Store) APITokens() repository.APITokenRepository { return &apiTokenRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *Store) Close()                         { s.pool.Close() }

// Pool expone el pool para el runner de migraciones y el seed.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// isUniqueViolation detecta 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
