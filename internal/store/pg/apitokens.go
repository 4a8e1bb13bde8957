package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// apiTokenRepo implementa repository.APITokenRepository.
type apiTokenRepo struct {
	pool *pgxpool.Pool
}

const apiTokenCols = `id, user_id, tenant_id, name, token_prefix, token_hash,
	expires_at, last_used, created_at, is_active`

func scanAPIToken(row pgx.Row) (*repository.APIToken, error) {
	var t repository.APIToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.TenantID, &t.Name, &t.TokenPrefix, &t.TokenHash,
		&t.ExpiresAt, &t.LastUsed, &t.CreatedAt, &t.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *apiTokenRepo) Create(ctx context.Context, input repository.CreateAPITokenInput) (*repository.APIToken, error) {
	query := `
		INSERT INTO api_tokens (user_id, tenant_id, name, token_prefix, token_hash, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING ` + apiTokenCols

	t, err := scanAPIToken(r.pool.QueryRow(ctx, query,
		input.UserID, input.TenantID, input.Name,
		input.TokenPrefix, input.TokenHash, input.ExpiresAt,
	))
	if err != nil {
		// Constraint parcial (user_id, name) WHERE is_active.
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("create api token: %w", err)
	}
	return t, nil
}

func (r *apiTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.APIToken, error) {
	query := `SELECT ` + apiTokenCols + ` FROM api_tokens WHERE token_hash = $1 AND is_active`
	t, err := scanAPIToken(r.pool.QueryRow(ctx, query, tokenHash))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api token: %w", err)
	}
	return t, nil
}

func (r *apiTokenRepo) ListActiveByUser(ctx context.Context, userID string) ([]repository.APIToken, error) {
	query := `SELECT ` + apiTokenCols + ` FROM api_tokens WHERE user_id = $1 AND is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	defer rows.Close()

	var out []repository.APIToken
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api token: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *apiTokenRepo) UpdateLastUsed(ctx context.Context, tokenID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_tokens SET last_used = $2 WHERE id = $1`, tokenID, at.UTC())
	if err != nil {
		return fmt.Errorf("update last used: %w", err)
	}
	return nil
}

func (r *apiTokenRepo) Revoke(ctx context.Context, userID, tokenID string) error {
	// Scoped al dueño: un intento cross-user afecta 0 filas → ErrNotFound.
	tag, err := r.pool.Exec(ctx, `
		UPDATE api_tokens SET is_active = FALSE
		 WHERE id = $1 AND user_id = $2 AND is_active`, tokenID, userID)
	if err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *apiTokenRepo) RevokeAllByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_tokens SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all api tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *apiTokenRepo) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired api tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *apiTokenRepo) StatsByUser(ctx context.Context, userID string) (*repository.APITokenStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE expires_at IS NULL),
		       COUNT(*) FILTER (WHERE expires_at IS NOT NULL),
		       COUNT(*) FILTER (WHERE last_used IS NOT NULL)
		  FROM api_tokens
		 WHERE user_id = $1 AND is_active`

	stats := &repository.APITokenStats{}
	err := r.pool.QueryRow(ctx, query, userID).
		Scan(&stats.TotalActive, &stats.NeverExpire, &stats.WillExpire, &stats.UsedOnce)
	if err != nil {
		return nil, fmt.Errorf("api token stats: %w", err)
	}
	return stats, nil
}
