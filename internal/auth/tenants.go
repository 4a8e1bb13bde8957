package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/security/password"
	"github.com/dropDatabas3/tenantgate/internal/validation"
)

// CreateTenant crea un tenant nuevo. El formato del subdomain se valida antes
// de tocar la DB; la unicidad la decide la constraint (ErrConflict), nunca un
// pre-check de aplicación.
func (s *service) CreateTenant(ctx context.Context, in CreateTenantInput) (*repository.Tenant, error) {
	log := logger.From(ctx).With(
		logger.Component("auth.tenants"),
		logger.Op("CreateTenant"),
	)

	in.Name = strings.TrimSpace(in.Name)
	in.Subdomain = validation.NormalizeSubdomain(in.Subdomain)

	if in.Name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", repository.ErrInvalidInput)
	}
	if !validation.ValidSubdomain(in.Subdomain) {
		return nil, fmt.Errorf("%w: subdomain %q must be 2-63 lowercase alphanumeric characters or hyphens, with no leading or trailing hyphen", repository.ErrInvalidInput, in.Subdomain)
	}
	if in.MaxUsers < 0 {
		return nil, fmt.Errorf("%w: max_users must not be negative", repository.ErrInvalidInput)
	}

	t, err := s.deps.Store.Tenants().Create(ctx, repository.CreateTenantInput{
		Name:      in.Name,
		Subdomain: in.Subdomain,
		MaxUsers:  in.MaxUsers,
		Settings:  in.Settings,
		Metadata:  in.Metadata,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, fmt.Errorf("%w: subdomain %q is already in use", repository.ErrConflict, in.Subdomain)
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	log.Info("tenant created", logger.TenantID(t.ID), logger.Subdomain(t.Subdomain))
	return t, nil
}

// CreateUser crea un usuario dentro de un tenant. Reglas:
//   - email normalizado y único por tenant (constraint de DB → ErrConflict)
//   - password vacío solo para usuarios federados (SSOID presente)
//   - la quota cuenta usuarios activos contra tenant.MaxUsers
func (s *service) CreateUser(ctx context.Context, in CreateUserInput) (*repository.User, error) {
	log := logger.From(ctx).With(
		logger.Component("auth.tenants"),
		logger.Op("CreateUser"),
		logger.TenantID(in.TenantID),
	)

	in.Email = validation.NormalizeEmail(in.Email)
	if !validation.ValidEmail(in.Email) {
		return nil, fmt.Errorf("%w: email %q is not valid", repository.ErrInvalidInput, in.Email)
	}
	if in.Role == "" {
		in.Role = repository.RoleUser
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q is not one of admin, user, readonly", repository.ErrInvalidInput, in.Role)
	}
	if in.Password == "" && in.SSOID == "" {
		return nil, fmt.Errorf("%w: password is required for non-federated users", repository.ErrInvalidInput)
	}

	t, err := s.deps.Store.Tenants().GetByID(ctx, in.TenantID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: tenant %s", repository.ErrNotFound, in.TenantID)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	active, err := s.deps.Store.Tenants().CountActiveUsers(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if active >= t.MaxUsers {
		return nil, fmt.Errorf("%w: tenant reached its maximum user limit (%d)", repository.ErrQuotaExceeded, t.MaxUsers)
	}

	var hash, salt string
	if in.Password != "" {
		hash, salt, err = password.Hash(s.deps.HashParams, in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	u, err := s.deps.Store.Users().Create(ctx, repository.CreateUserInput{
		TenantID:     t.ID,
		Email:        in.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		SSOID:        in.SSOID,
		Metadata:     in.Metadata,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, fmt.Errorf("%w: a user with email %q already exists in this tenant", repository.ErrConflict, in.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info("user created", logger.UserID(u.ID))
	return u, nil
}

// GetAllTenants lista todos los tenants, activos e inactivos.
func (s *service) GetAllTenants(ctx context.Context) ([]repository.Tenant, error) {
	ts, err := s.deps.Store.Tenants().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return ts, nil
}

// GetTenantUsers lista los usuarios de un tenant.
func (s *service) GetTenantUsers(ctx context.Context, tenantID string) ([]repository.User, error) {
	us, err := s.deps.Store.Users().ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	// Los hashes nunca salen del core, ni siquiera hacia un caller admin.
	for i := range us {
		us[i].PasswordHash = ""
		us[i].PasswordSalt = ""
	}
	return us, nil
}

// UpdateTenant muta los campos administrables de un tenant.
func (s *service) UpdateTenant(ctx context.Context, tenantID string, in repository.UpdateTenantInput) error {
	if in.MaxUsers != nil && *in.MaxUsers < 0 {
		return fmt.Errorf("%w: max_users must not be negative", repository.ErrInvalidInput)
	}
	if err := s.deps.Store.Tenants().Update(ctx, tenantID, in); err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	return nil
}

// DeactivateTenant marca el tenant como inactivo. No hay hard-delete de
// tenants.
func (s *service) DeactivateTenant(ctx context.Context, tenantID string) error {
	if err := s.deps.Store.Tenants().Deactivate(ctx, tenantID); err != nil {
		return fmt.Errorf("deactivate tenant: %w", err)
	}
	logger.From(ctx).Info("tenant deactivated",
		logger.Component("auth.tenants"), logger.TenantID(tenantID))
	return nil
}
