package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// sessionRepo implementa repository.SessionRepository.
type sessionRepo struct {
	pool *pgxpool.Pool
}

func (r *sessionRepo) Create(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	query := `
		INSERT INTO user_sessions (session_id, user_id, token_hash, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, NULLIF($5,'')::inet, NULLIF($6,''))
		RETURNING session_id, user_id, token_hash, expires_at, created_at, ip_address::text, user_agent`

	var s repository.Session
	err := r.pool.QueryRow(ctx, query,
		input.SessionID, input.UserID, input.TokenHash, input.ExpiresAt,
		input.IPAddress, input.UserAgent,
	).Scan(&s.SessionID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*repository.Session, error) {
	// expires_at > NOW(): una fila expirada se trata como ausente.
	query := `
		SELECT session_id, user_id, token_hash, expires_at, created_at, ip_address::text, user_agent
		  FROM user_sessions
		 WHERE token_hash = $1 AND expires_at > NOW()`

	var s repository.Session
	err := r.pool.QueryRow(ctx, query, tokenHash).
		Scan(&s.SessionID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	// Idempotente: borrar lo ya borrado no es error.
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions by user: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
