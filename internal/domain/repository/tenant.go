package repository

import (
	"context"
	"time"
)

// Tenant representa un arrendatario del sistema. El subdomain es la clave de
// aislamiento: todos los lookups de usuarios pasan por él.
type Tenant struct {
	ID        string
	Name      string
	Subdomain string
	MaxUsers  int
	IsActive  bool
	Settings  map[string]any
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultMaxUsers es el límite de usuarios cuando no se especifica otro.
const DefaultMaxUsers = 100

// CreateTenantInput contiene los datos para crear un tenant.
type CreateTenantInput struct {
	Name      string
	Subdomain string // ya normalizado (lowercase) y validado por el caller
	MaxUsers  int    // 0 = DefaultMaxUsers
	Settings  map[string]any
	Metadata  map[string]any
}

// UpdateTenantInput contiene los campos mutables de un tenant.
// Los punteros nil se dejan sin tocar.
type UpdateTenantInput struct {
	Name     *string
	MaxUsers *int
	Settings map[string]any
	Metadata map[string]any
}

// TenantRepository define operaciones sobre tenants.
type TenantRepository interface {
	// Create crea un nuevo tenant.
	// Retorna ErrConflict si el subdomain ya existe (constraint de DB).
	Create(ctx context.Context, input CreateTenantInput) (*Tenant, error)

	// GetBySubdomain busca un tenant por su subdomain.
	// Retorna ErrNotFound si no existe.
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)

	// GetByID busca un tenant por su UUID.
	GetByID(ctx context.Context, id string) (*Tenant, error)

	// List retorna todos los tenants (activos e inactivos).
	List(ctx context.Context) ([]Tenant, error)

	// Update actualiza los campos mutables de un tenant.
	Update(ctx context.Context, id string, input UpdateTenantInput) error

	// Deactivate marca un tenant como inactivo. Nunca hay hard-delete.
	Deactivate(ctx context.Context, id string) error

	// CountActiveUsers cuenta los usuarios activos del tenant (para la quota).
	CountActiveUsers(ctx context.Context, id string) (int, error)
}
