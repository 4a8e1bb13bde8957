package repository

import (
	"context"
	"time"
)

// APIToken representa un bearer token de larga vida. El valor completo se
// retorna una sola vez al crearlo; después solo queda el hash y el prefix
// de display.
type APIToken struct {
	ID          string
	UserID      string
	TenantID    string
	Name        string
	TokenPrefix string // primeros 12 chars, solo display
	TokenHash   string
	ExpiresAt   *time.Time // nil = nunca expira
	LastUsed    *time.Time
	CreatedAt   time.Time
	IsActive    bool
}

// Expired indica si el token ya venció. Sin expiración nunca vence.
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// CreateAPITokenInput contiene los datos para registrar un token.
type CreateAPITokenInput struct {
	UserID      string
	TenantID    string
	Name        string
	TokenPrefix string
	TokenHash   string
	ExpiresAt   *time.Time
}

// APITokenStats resume los tokens activos de un usuario.
type APITokenStats struct {
	TotalActive int
	NeverExpire int
	WillExpire  int
	UsedOnce    int // usados al menos una vez
}

// APITokenRepository define el ciclo de vida de los API tokens.
type APITokenRepository interface {
	// Create registra un token nuevo.
	// Retorna ErrConflict si el usuario ya tiene un token activo con ese
	// nombre (constraint parcial de DB).
	Create(ctx context.Context, input CreateAPITokenInput) (*APIToken, error)

	// GetByHash busca un token activo por su hash.
	// Retorna ErrNotFound si no existe o está revocado.
	GetByHash(ctx context.Context, tokenHash string) (*APIToken, error)

	// ListActiveByUser retorna los tokens activos de un usuario.
	ListActiveByUser(ctx context.Context, userID string) ([]APIToken, error)

	// UpdateLastUsed actualiza el timestamp de último uso (best effort).
	UpdateLastUsed(ctx context.Context, tokenID string, at time.Time) error

	// Revoke marca is_active=false si el token pertenece al usuario.
	// Retorna ErrNotFound si no existe o es de otro usuario (nunca Forbidden:
	// no se revela la existencia de tokens ajenos).
	Revoke(ctx context.Context, userID, tokenID string) error

	// RevokeAllByUser revoca todos los tokens activos del usuario.
	// Retorna el número revocado.
	RevokeAllByUser(ctx context.Context, userID string) (int, error)

	// DeleteExpired hard-deletea tokens vencidos. Retorna el número eliminado.
	DeleteExpired(ctx context.Context) (int, error)

	// StatsByUser calcula las estadísticas de tokens activos del usuario.
	StatsByUser(ctx context.Context, userID string) (*APITokenStats, error)
}
