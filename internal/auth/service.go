// Package auth implementa el core de identidad: autenticación local,
// sesiones firmadas y API tokens. La capa HTTP consume este facade y no
// conoce los repositorios directamente.
//
// Los fallos esperados de un path de autenticación (password malo, token
// vencido, sesión revocada) se representan como resultado (ok + message),
// nunca como error; los errores quedan reservados para fallas del store.
// Todos los rechazos de autenticación colapsan a un único mensaje genérico.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/security/password"
	"github.com/dropDatabas3/tenantgate/internal/store"
)

// GenericRejection es el único mensaje que ve un caller no autenticado.
// Nunca revela si el email existe, si el usuario está inactivo o si el
// password no coincide.
const GenericRejection = "Invalid email or password"

// AuthResult es el resultado de una autenticación local o federada.
type AuthResult struct {
	OK      bool
	User    *repository.User
	Message string
}

// CreateTokenResult es el resultado de crear un API token. Token lleva el
// valor completo y es la única vez que existe en claro.
type CreateTokenResult struct {
	OK      bool
	Message string
	Token   string
	Record  *repository.APIToken
}

// CreateTenantInput parámetros administrativos para crear un tenant.
type CreateTenantInput struct {
	Name      string
	Subdomain string
	MaxUsers  int // 0 = default
	Settings  map[string]any
	Metadata  map[string]any
}

// CreateUserInput parámetros administrativos para crear un usuario.
// Password puede ser vacío solo si SSOID viene seteado.
type CreateUserInput struct {
	TenantID  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      repository.Role
	SSOID     string
	Metadata  map[string]any
}

// Service es la superficie del core de identidad.
type Service interface {
	// Autenticación local y sesiones.
	AuthenticateUser(ctx context.Context, email, plainPassword, subdomain string) (*AuthResult, error)
	CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (string, error)
	ValidateSession(ctx context.Context, token string) (*repository.User, bool)
	LogoutUser(ctx context.Context, token string) error
	LogoutAllSessions(ctx context.Context, userID string) (int, error)

	// Operaciones administrativas: acá sí se devuelven razones específicas,
	// el caller ya está privilegiado.
	CreateTenant(ctx context.Context, in CreateTenantInput) (*repository.Tenant, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*repository.User, error)
	GetAllTenants(ctx context.Context) ([]repository.Tenant, error)
	GetTenantUsers(ctx context.Context, tenantID string) ([]repository.User, error)
	UpdateTenant(ctx context.Context, tenantID string, in repository.UpdateTenantInput) error
	DeactivateTenant(ctx context.Context, tenantID string) error

	// API tokens.
	CreateAPIToken(ctx context.Context, userID, tenantID, name string, expiresDays *int) (*CreateTokenResult, error)
	ValidateAPIToken(ctx context.Context, tokenValue string) (userID, tenantID string, ok bool)
	GetUserTokens(ctx context.Context, userID string) ([]repository.APIToken, error)
	GetTokenStats(ctx context.Context, userID string) (*repository.APITokenStats, error)
	RevokeToken(ctx context.Context, userID, tokenID string) error
	RevokeAllTokens(ctx context.Context, userID string) (int, error)

	// Sweep periódico.
	CleanupExpiredTokens(ctx context.Context) (int, error)
	CleanupExpiredSessions(ctx context.Context) (int, error)
}

// Deps contiene las dependencias del servicio de identidad.
type Deps struct {
	Store         store.Store
	SigningSecret []byte
	SessionTTL    time.Duration
	HashParams    password.Params // zero value = password.Default
}

type service struct {
	deps Deps
	// dummyHash/dummySalt se verifican cuando el usuario no existe, para que
	// "email inexistente" y "password malo" tarden parecido.
	dummyHash string
	dummySalt string
}

// New crea el servicio de identidad.
func New(deps Deps) (Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("auth: store is required")
	}
	if len(deps.SigningSecret) == 0 {
		return nil, fmt.Errorf("auth: signing secret is required")
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 24 * time.Hour
	}
	if deps.HashParams == (password.Params{}) {
		deps.HashParams = password.Default
	}
	dh, ds, err := password.Hash(deps.HashParams, "tenantgate-timing-pad")
	if err != nil {
		return nil, fmt.Errorf("auth: init dummy hash: %w", err)
	}
	return &service{deps: deps, dummyHash: dh, dummySalt: ds}, nil
}
