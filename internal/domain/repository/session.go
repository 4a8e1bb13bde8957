package repository

import (
	"context"
	"time"
)

// Session representa una sesión de usuario persistida. Solo se guarda el hash
// del valor entregado al cliente; una fila expirada se trata como ausente.
type Session struct {
	SessionID string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	IPAddress *string
	UserAgent *string
}

// Expired indica si la sesión ya venció.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CreateSessionInput contiene los datos para crear una sesión.
type CreateSessionInput struct {
	SessionID string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}

// SessionRepository define operaciones para gestionar sesiones.
type SessionRepository interface {
	// Create inserta una nueva sesión.
	Create(ctx context.Context, input CreateSessionInput) (*Session, error)

	// GetByTokenHash obtiene una sesión viva por el hash del token.
	// Retorna ErrNotFound si no existe o si ya expiró.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Delete elimina una sesión por su session_id. Idempotente: borrar una
	// sesión inexistente no es error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteAllByUser elimina todas las sesiones de un usuario.
	// Retorna el número de sesiones eliminadas.
	DeleteAllByUser(ctx context.Context, userID string) (int, error)

	// DeleteExpired elimina sesiones vencidas. Retorna el número eliminado.
	DeleteExpired(ctx context.Context) (int, error)
}
