package federation

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/observability/metrics"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/validation"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenericRejection es el único mensaje que ve el caller cuando un callback
// federado falla, sin importar en qué estado falló.
const GenericRejection = "Single sign-on failed"

// callbackState modela el avance de un callback. Cada llamada externa tiene
// su estado propio para que el fallo quede atribuido a un punto concreto del
// flujo en los logs.
type callbackState int

const (
	stateAwaitingCode callbackState = iota
	stateExchangingToken
	stateFetchingProfile
	stateProvisioning
	stateDone
	stateFailed
)

func (s callbackState) String() string {
	switch s {
	case stateAwaitingCode:
		return "awaiting_code"
	case stateExchangingToken:
		return "exchanging_token"
	case stateFetchingProfile:
		return "fetching_profile"
	case stateProvisioning:
		return "provisioning"
	case stateDone:
		return "done"
	default:
		return "failed"
	}
}

// Result es el desenlace de un callback federado.
type Result struct {
	OK      bool
	User    *repository.User
	Message string
}

// stateClaims es el state firmado que viaja por el provider externo.
// Subject lleva el subdomain de origen; el nonce es de un solo uso.
type stateClaims struct {
	Nonce string `json:"nonce"`
	jwtv5.RegisteredClaims
}

// Deps contiene las dependencias del bridge.
type Deps struct {
	Registry      *Registry
	Store         store.Store
	Cache         cache.Client
	SigningSecret []byte
	StateTTL      time.Duration
}

// Bridge orquesta el flujo completo de login federado contra los providers
// del registry.
type Bridge struct {
	deps Deps
}

// NewBridge crea el bridge.
func NewBridge(deps Deps) (*Bridge, error) {
	if deps.Registry == nil || deps.Store == nil || deps.Cache == nil {
		return nil, fmt.Errorf("federation: registry, store and cache are required")
	}
	if len(deps.SigningSecret) == 0 {
		return nil, fmt.Errorf("federation: signing secret is required")
	}
	if deps.StateTTL <= 0 {
		deps.StateTTL = 10 * time.Minute
	}
	return &Bridge{deps: deps}, nil
}

// Enabled indica si el provider está configurado.
func (b *Bridge) Enabled(providerName string) bool {
	return b.deps.Registry.Enabled(providerName)
}

// LoginURL arma la URL de autorización para el provider. Retorna "" cuando el
// provider no está habilitado; el caller decide cómo mostrarlo.
//
// El state es un JWT HS256 {sub: subdomain, nonce, exp} y el nonce queda en
// cache para consumirse una sola vez en el callback.
func (b *Bridge) LoginURL(ctx context.Context, providerName, subdomain string) (string, error) {
	p := b.deps.Registry.Get(providerName)
	if p == nil {
		return "", nil
	}
	log := logger.From(ctx).With(
		logger.Component("federation.bridge"),
		logger.Op("LoginURL"),
		logger.Provider(providerName),
	)

	subdomain = validation.NormalizeSubdomain(subdomain)
	nonce := uuid.NewString()
	now := time.Now().UTC()
	state, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, stateClaims{
		Nonce: nonce,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   subdomain,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(b.deps.StateTTL)),
		},
	}).SignedString(b.deps.SigningSecret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}

	if err := b.deps.Cache.Set(ctx, nonceKey(nonce), providerName, b.deps.StateTTL); err != nil {
		return "", fmt.Errorf("store nonce: %w", err)
	}

	u, err := p.AuthURL(ctx, state, nonce)
	if err != nil {
		log.Error("auth url build failed", logger.Err(err))
		return "", fmt.Errorf("build auth url: %w", err)
	}
	return u, nil
}

// HandleCallback procesa el retorno del provider: valida state y nonce,
// canjea el code, verifica el perfil y resuelve o aprovisiona el usuario.
// Toda falla externa o de validación colapsa al mismo resultado rechazado.
func (b *Bridge) HandleCallback(ctx context.Context, providerName, code, state string) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Component("federation.bridge"),
		logger.Op("HandleCallback"),
		logger.Provider(providerName),
	)
	p := b.deps.Registry.Get(providerName)
	if p == nil {
		return b.failed(log, stateAwaitingCode, "provider not enabled", nil, providerName), nil
	}

	// awaiting_code: state firmado + nonce de un solo uso
	st := stateAwaitingCode
	var claims stateClaims
	tk, err := jwtv5.ParseWithClaims(state, &claims, func(t *jwtv5.Token) (any, error) {
		return b.deps.SigningSecret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tk.Valid || claims.Nonce == "" {
		return b.failed(log, st, "invalid state", err, providerName), nil
	}
	boundProvider, err := b.deps.Cache.TakeOnce(ctx, nonceKey(claims.Nonce))
	if err != nil || boundProvider != providerName {
		return b.failed(log, st, "nonce not consumable", err, providerName), nil
	}
	subdomain := claims.Subject

	// exchanging_token
	st = stateExchangingToken
	ts, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return b.failed(log, st, "code exchange failed", err, providerName), nil
	}

	// fetching_profile
	st = stateFetchingProfile
	profile, err := p.FetchProfile(ctx, ts, claims.Nonce)
	if err != nil {
		return b.failed(log, st, "profile fetch failed", err, providerName), nil
	}
	email := validation.NormalizeEmail(profile.Email)
	if !validation.ValidEmail(email) {
		return b.failed(log, st, "profile has no usable email", nil, providerName), nil
	}

	// provisioning
	st = stateProvisioning
	user, err := b.resolveUser(ctx, subdomain, profile.Subject, email, profile)
	if err != nil {
		if repository.IsConflict(err) || repository.IsQuotaExceeded(err) ||
			repository.IsNotFound(err) || repository.IsInvalidInput(err) ||
			repository.IsUnauthorized(err) {
			return b.failed(log, st, "user resolution rejected", err, providerName), nil
		}
		metrics.SSOCallbacks.WithLabelValues(providerName, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("resolve federated user: %w", err)
	}
	if user == nil || !user.IsActive {
		return b.failed(log, st, "user inactive", nil, providerName), nil
	}

	_ = b.deps.Store.Users().UpdateLastLogin(ctx, user.ID, time.Now().UTC())

	st = stateDone
	metrics.SSOCallbacks.WithLabelValues(providerName, metrics.OutcomeSuccess).Inc()
	log.Info("federated login successful",
		logger.String("state", st.String()),
		logger.TenantID(user.TenantID), logger.UserID(user.ID))
	return &Result{OK: true, User: user}, nil
}

// resolveUser resuelve o crea el tenant por subdomain y el usuario por
// (sso_id, email), aprovisionando si hace falta.
func (b *Bridge) resolveUser(ctx context.Context, subdomain, subject, email string, profile *UserProfile) (*repository.User, error) {
	if !validation.ValidSubdomain(subdomain) {
		return nil, fmt.Errorf("%w: state subdomain", repository.ErrInvalidInput)
	}

	tenants := b.deps.Store.Tenants()
	t, err := tenants.GetBySubdomain(ctx, subdomain)
	if repository.IsNotFound(err) {
		t, err = tenants.Create(ctx, repository.CreateTenantInput{
			Name:      subdomain,
			Subdomain: subdomain,
		})
		if repository.IsConflict(err) {
			// otro callback lo creó primero
			t, err = tenants.GetBySubdomain(ctx, subdomain)
		}
	}
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, fmt.Errorf("%w: tenant inactive", repository.ErrUnauthorized)
	}

	users := b.deps.Store.Users()
	u, err := users.GetBySSOID(ctx, t.ID, subject)
	if err == nil {
		return u, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	u, err = users.GetByEmail(ctx, t.ID, email)
	if err == nil {
		return u, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	// auto-provision: sin password, identidad marcada por sso_id
	active, err := tenants.CountActiveUsers(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if active >= t.MaxUsers {
		return nil, fmt.Errorf("%w: tenant user limit", repository.ErrQuotaExceeded)
	}
	return users.Create(ctx, repository.CreateUserInput{
		TenantID:  t.ID,
		Email:     email,
		FirstName: profile.GivenName,
		LastName:  profile.FamilyName,
		Role:      repository.RoleUser,
		SSOID:     subject,
	})
}

func (b *Bridge) failed(log *zap.Logger, st callbackState, reason string, err error, providerName string) *Result {
	metrics.SSOCallbacks.WithLabelValues(providerName, metrics.OutcomeRejected).Inc()
	fields := []zap.Field{
		logger.String("state", st.String()),
		logger.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, logger.Err(err))
	}
	log.Debug("federated login rejected", fields...)
	return &Result{OK: false, Message: GenericRejection}
}

func nonceKey(nonce string) string {
	return "sso:nonce:" + nonce
}
