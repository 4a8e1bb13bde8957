// Package cache provee el cache chico que usa el flujo federado para los
// nonces de state de un solo uso.
//
// Drivers:
//   - memory (in-process, dev/testing)
//   - redis (distribuido, producción)
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que la key no existe o ya expiró.
var ErrNotFound = errors.New("cache: not found")

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// TakeOnce obtiene y elimina atómicamente (consumo de nonce).
	// Retorna ErrNotFound si la key no existe: un nonce no se consume dos
	// veces.
	TakeOnce(ctx context.Context, key string) (string, error)

	// Close cierra la conexión.
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind       string // "memory" | "redis"
	RedisAddr  string
	RedisDB    int
	Prefix     string
	DefaultTTL time.Duration
}

// New crea el cliente según el driver configurado.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "", "memory":
		return NewMemory(cfg.DefaultTTL), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisDB, cfg.Prefix), nil
	default:
		return nil, errors.New("cache: unknown kind " + cfg.Kind)
	}
}
