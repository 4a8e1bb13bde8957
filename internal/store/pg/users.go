package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// userRepo implementa repository.UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

const userCols = `id, tenant_id, email, password_hash, password_salt, first_name, last_name,
	role, sso_id, is_active, metadata, created_at, updated_at, last_login`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var hash, salt, ssoID *string
	var metadata []byte
	var role string
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &hash, &salt, &u.FirstName, &u.LastName,
		&role, &ssoID, &u.IsActive, &metadata, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	if salt != nil {
		u.PasswordSalt = *salt
	}
	if ssoID != nil {
		u.SSOID = *ssoID
	}
	u.Role = repository.Role(role)
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &u.Metadata)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	metadata, _ := json.Marshal(orEmpty(input.Metadata))

	query := `
		INSERT INTO users (tenant_id, email, password_hash, password_salt,
			first_name, last_name, role, sso_id, is_active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
		RETURNING ` + userCols

	u, err := scanUser(r.pool.QueryRow(ctx, query,
		input.TenantID, input.Email,
		nullIfEmpty(input.PasswordHash), nullIfEmpty(input.PasswordSalt),
		input.FirstName, input.LastName, string(input.Role),
		nullIfEmpty(input.SSOID), metadata,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tenantID, email string) (*repository.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)`
	u, err := scanUser(r.pool.QueryRow(ctx, query, tenantID, email))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetBySSOID(ctx context.Context, tenantID, ssoID string) (*repository.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE tenant_id = $1 AND sso_id = $2`
	u, err := scanUser(r.pool.QueryRow(ctx, query, tenantID, ssoID))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by sso id: %w", err)
	}
	return u, nil
}

func (r *userRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE tenant_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *userRepo) FindTenantIDsByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tenant_id FROM users WHERE lower(email) = lower($1) AND is_active ORDER BY tenant_id`, email)
	if err != nil {
		return nil, fmt.Errorf("find tenants by email: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, userID string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, hash, salt string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		   SET password_hash = $2, password_salt = $3, updated_at = NOW()
		 WHERE id = $1`, userID, hash, salt)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
