package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/observability/metrics"
	"github.com/dropDatabas3/tenantgate/internal/security/password"
	"github.com/dropDatabas3/tenantgate/internal/validation"
)

// rejected arma el resultado genérico de rechazo y registra la métrica.
func rejected() *AuthResult {
	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeRejected).Inc()
	return &AuthResult{OK: false, Message: GenericRejection}
}

// AuthenticateUser verifica email+password, opcionalmente acotado a un
// subdomain. Sin subdomain se buscan los tenants donde exista el email y se
// intenta contra cada uno.
//
// Todos los rechazos comparten mensaje y corren una verificación de hash
// (real o dummy) para emparejar la latencia de "no existe" y "password malo".
func (s *service) AuthenticateUser(ctx context.Context, email, plainPassword, subdomain string) (*AuthResult, error) {
	log := logger.From(ctx).With(
		logger.Component("auth.authenticator"),
		logger.Op("AuthenticateUser"),
	)

	email = validation.NormalizeEmail(email)
	subdomain = validation.NormalizeSubdomain(subdomain)

	if !validation.ValidEmail(email) || plainPassword == "" {
		password.Verify(plainPassword, s.dummyHash, s.dummySalt)
		log.Debug("malformed credentials")
		return rejected(), nil
	}

	var tenantIDs []string
	if subdomain != "" {
		t, err := s.deps.Store.Tenants().GetBySubdomain(ctx, subdomain)
		if err != nil {
			if repository.IsNotFound(err) {
				password.Verify(plainPassword, s.dummyHash, s.dummySalt)
				log.Debug("tenant not found", logger.Subdomain(subdomain))
				return rejected(), nil
			}
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("resolve tenant: %w", err)
		}
		if !t.IsActive {
			password.Verify(plainPassword, s.dummyHash, s.dummySalt)
			log.Debug("tenant inactive", logger.Subdomain(subdomain))
			return rejected(), nil
		}
		tenantIDs = []string{t.ID}
	} else {
		ids, err := s.deps.Store.Users().FindTenantIDsByEmail(ctx, email)
		if err != nil {
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("find tenants by email: %w", err)
		}
		tenantIDs = ids
	}

	for _, tid := range tenantIDs {
		u, err := s.deps.Store.Users().GetByEmail(ctx, tid, email)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("get user: %w", err)
		}
		if !u.IsActive || u.PasswordHash == "" {
			continue
		}
		if password.Verify(plainPassword, u.PasswordHash, u.PasswordSalt) {
			// best effort: perder este update bajo una carrera solo afecta
			// un timestamp de display
			_ = s.deps.Store.Users().UpdateLastLogin(ctx, u.ID, time.Now().UTC())
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
			log.Info("authentication successful",
				logger.TenantID(tid), logger.UserID(u.ID))
			return &AuthResult{OK: true, User: u}, nil
		}
		// Hash real ya corrió: la latencia de este path queda cubierta.
		log.Debug("password check failed", logger.TenantID(tid))
		return rejected(), nil
	}

	// Ningún candidato: correr el dummy para no delatar la ausencia.
	password.Verify(plainPassword, s.dummyHash, s.dummySalt)
	log.Debug("no matching user")
	return rejected(), nil
}
