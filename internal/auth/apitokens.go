package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/observability/metrics"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
)

// CreateAPIToken genera un bearer token nuevo para el usuario. El valor
// completo viaja en el resultado y no vuelve a existir: en DB quedan el
// digest y los primeros caracteres para display.
//
// Nombre en blanco y nombre duplicado entre tokens activos son fallos
// esperados (OK=false + message), no errores.
func (s *service) CreateAPIToken(ctx context.Context, userID, tenantID, name string, expiresDays *int) (*CreateTokenResult, error) {
	log := logger.From(ctx).With(
		logger.Component("auth.apitokens"),
		logger.Op("CreateAPIToken"),
		logger.UserID(userID),
	)

	name = strings.TrimSpace(name)
	if name == "" {
		return &CreateTokenResult{OK: false, Message: "Token name must not be blank"}, nil
	}
	if expiresDays != nil && *expiresDays <= 0 {
		return &CreateTokenResult{OK: false, Message: "Expiration must be a positive number of days"}, nil
	}

	full, prefix, hash, err := tokens.GenerateAPIToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	var expiresAt *time.Time
	if expiresDays != nil {
		t := time.Now().UTC().AddDate(0, 0, *expiresDays)
		expiresAt = &t
	}

	rec, err := s.deps.Store.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID:      userID,
		TenantID:    tenantID,
		Name:        name,
		TokenPrefix: prefix,
		TokenHash:   hash,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return &CreateTokenResult{
				OK:      false,
				Message: fmt.Sprintf("An active token named %q already exists", name),
			}, nil
		}
		return nil, fmt.Errorf("persist token: %w", err)
	}

	log.Info("api token created", logger.TokenID(rec.ID))
	rec.TokenHash = ""
	return &CreateTokenResult{OK: true, Token: full, Record: rec}, nil
}

// ValidateAPIToken resuelve un bearer token a (user_id, tenant_id).
// Falla cerrado: input malformado, hash sin fila activa, fila vencida o
// usuario inactivo resuelven a inválido. En éxito actualiza last_used
// (best effort).
func (s *service) ValidateAPIToken(ctx context.Context, tokenValue string) (userID, tenantID string, ok bool) {
	log := logger.From(ctx).With(
		logger.Component("auth.apitokens"),
		logger.Op("ValidateAPIToken"),
	)

	if !tokens.WellFormed(tokenValue) {
		metrics.APITokenValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return "", "", false
	}

	rec, err := s.deps.Store.APITokens().GetByHash(ctx, tokens.SHA256Base64URL(tokenValue))
	if err != nil {
		outcome := metrics.OutcomeRejected
		if !repository.IsNotFound(err) {
			outcome = metrics.OutcomeError
			log.Error("token lookup failed", logger.Err(err))
		}
		metrics.APITokenValidations.WithLabelValues(outcome).Inc()
		return "", "", false
	}
	if !rec.IsActive || rec.Expired(time.Now().UTC()) {
		metrics.APITokenValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return "", "", false
	}

	u, err := s.deps.Store.Users().GetByID(ctx, rec.UserID)
	if err != nil || !u.IsActive {
		metrics.APITokenValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return "", "", false
	}

	_ = s.deps.Store.APITokens().UpdateLastUsed(ctx, rec.ID, time.Now().UTC())
	metrics.APITokenValidations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return rec.UserID, rec.TenantID, true
}

// GetUserTokens lista los tokens activos del usuario, solo con el prefix de
// display. El hash no sale del core.
func (s *service) GetUserTokens(ctx context.Context, userID string) ([]repository.APIToken, error) {
	ts, err := s.deps.Store.APITokens().ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	for i := range ts {
		ts[i].TokenHash = ""
	}
	return ts, nil
}

// GetTokenStats resume los tokens activos del usuario.
func (s *service) GetTokenStats(ctx context.Context, userID string) (*repository.APITokenStats, error) {
	st, err := s.deps.Store.APITokens().StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("token stats: %w", err)
	}
	return st, nil
}

// RevokeToken revoca un token si pertenece al usuario. Un intento sobre un
// token ajeno reporta ErrNotFound: la existencia de tokens de otros usuarios
// no se revela.
func (s *service) RevokeToken(ctx context.Context, userID, tokenID string) error {
	if err := s.deps.Store.APITokens().Revoke(ctx, userID, tokenID); err != nil {
		if repository.IsNotFound(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("revoke token: %w", err)
	}
	logger.From(ctx).Info("api token revoked",
		logger.Component("auth.apitokens"),
		logger.UserID(userID), logger.TokenID(tokenID))
	return nil
}

// RevokeAllTokens revoca todos los tokens activos del usuario y retorna
// cuántos eran.
func (s *service) RevokeAllTokens(ctx context.Context, userID string) (int, error) {
	n, err := s.deps.Store.APITokens().RevokeAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all tokens: %w", err)
	}
	logger.From(ctx).Info("api tokens revoked",
		logger.Component("auth.apitokens"),
		logger.UserID(userID), logger.Count(n))
	return n, nil
}

// CleanupExpiredTokens hard-deletea los tokens vencidos. Idempotente bajo
// corridas concurrentes: solo borra filas ya expiradas.
func (s *service) CleanupExpiredTokens(ctx context.Context) (int, error) {
	n, err := s.deps.Store.APITokens().DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	if n > 0 {
		metrics.ExpiredTokensDeleted.Add(float64(n))
		logger.From(ctx).Info("expired api tokens deleted",
			logger.Component("auth.apitokens"), logger.Count(n))
	}
	return n, nil
}

// CleanupExpiredSessions elimina sesiones naturalmente vencidas.
func (s *service) CleanupExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.deps.Store.Sessions().DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		logger.From(ctx).Info("expired sessions deleted",
			logger.Component("auth.session"), logger.Count(n))
	}
	return n, nil
}
