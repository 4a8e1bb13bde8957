package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// tenantRepo implementa repository.TenantRepository.
type tenantRepo struct {
	pool *pgxpool.Pool
}

const tenantCols = `id, name, subdomain, max_users, is_active, settings, metadata, created_at, updated_at`

func scanTenant(row pgx.Row) (*repository.Tenant, error) {
	var t repository.Tenant
	var settings, metadata []byte
	err := row.Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.MaxUsers, &t.IsActive,
		&settings, &metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &t.Settings)
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &t.Metadata)
	}
	return &t, nil
}

func (r *tenantRepo) Create(ctx context.Context, input repository.CreateTenantInput) (*repository.Tenant, error) {
	maxUsers := input.MaxUsers
	if maxUsers <= 0 {
		maxUsers = repository.DefaultMaxUsers
	}
	settings, _ := json.Marshal(orEmpty(input.Settings))
	metadata, _ := json.Marshal(orEmpty(input.Metadata))

	query := `
		INSERT INTO tenants (name, subdomain, max_users, is_active, settings, metadata)
		VALUES ($1, $2, $3, TRUE, $4, $5)
		RETURNING ` + tenantCols

	t, err := scanTenant(r.pool.QueryRow(ctx, query, input.Name, input.Subdomain, maxUsers, settings, metadata))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*repository.Tenant, error) {
	query := `SELECT ` + tenantCols + ` FROM tenants WHERE subdomain = $1`
	t, err := scanTenant(r.pool.QueryRow(ctx, query, subdomain))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by subdomain: %w", err)
	}
	return t, nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	query := `SELECT ` + tenantCols + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (r *tenantRepo) List(ctx context.Context) ([]repository.Tenant, error) {
	query := `SELECT ` + tenantCols + ` FROM tenants ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []repository.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *tenantRepo) Update(ctx context.Context, id string, input repository.UpdateTenantInput) error {
	var settings, metadata []byte
	if input.Settings != nil {
		settings, _ = json.Marshal(input.Settings)
	}
	if input.Metadata != nil {
		metadata, _ = json.Marshal(input.Metadata)
	}
	// COALESCE deja intacto lo que venga nil.
	query := `
		UPDATE tenants
		   SET name       = COALESCE($2, name),
		       max_users  = COALESCE($3, max_users),
		       settings   = COALESCE($4, settings),
		       metadata   = COALESCE($5, metadata),
		       updated_at = NOW()
		 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, input.Name, input.MaxUsers, settings, metadata)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tenantRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tenantRepo) CountActiveUsers(ctx context.Context, id string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND is_active`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
