package repository

import (
	"context"
	"time"
)

// Role es el rol cerrado de un usuario dentro de su tenant.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleReadonly Role = "readonly"
)

// Valid verifica que el rol pertenezca a la enumeración.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleReadonly:
		return true
	}
	return false
}

// User representa un usuario del sistema. El par (tenant_id, email) es único;
// el tenant se fija en la creación y no cambia nunca.
type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string // vacío para usuarios federados
	PasswordSalt string
	FirstName    string
	LastName     string
	Role         Role
	SSOID        string // subject externo, vacío para usuarios locales
	IsActive     bool
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	TenantID     string
	Email        string // ya normalizado (lowercase)
	PasswordHash string // vacío solo si SSOID != ""
	PasswordSalt string
	FirstName    string
	LastName     string
	Role         Role
	SSOID        string
	Metadata     map[string]any
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// Create crea un nuevo usuario.
	// Retorna ErrConflict si (tenant_id, email) ya existe (constraint de DB).
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// GetByEmail busca un usuario por email dentro de un tenant.
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, tenantID, email string) (*User, error)

	// GetByID busca un usuario por ID.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetBySSOID busca un usuario por su subject externo dentro de un tenant.
	GetBySSOID(ctx context.Context, tenantID, ssoID string) (*User, error)

	// ListByTenant lista los usuarios de un tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]User, error)

	// FindTenantIDsByEmail retorna los tenants donde existe un usuario activo
	// con ese email. Se usa para login sin subdomain.
	FindTenantIDsByEmail(ctx context.Context, email string) ([]string, error)

	// UpdateLastLogin actualiza el timestamp de último login (best effort).
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetActive activa o desactiva un usuario (soft delete via is_active).
	SetActive(ctx context.Context, userID string, active bool) error

	// UpdatePasswordHash reemplaza hash y salt del usuario.
	UpdatePasswordHash(ctx context.Context, userID, hash, salt string) error
}
