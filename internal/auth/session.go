package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/observability/metrics"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionClaims es el payload firmado que viaja al cliente. La fila de DB
// sigue mandando: un token con firma válida pero sin fila viva es inválido.
type sessionClaims struct {
	SessionID string `json:"sid"`
	TenantID  string `json:"tid"`
	jwtv5.RegisteredClaims
}

// CreateSession emite una sesión nueva para el usuario: fila persistida con
// el hash del token y un JWT HS256 {sid, sub, tid, exp, iat} para el cliente.
// El valor firmado se retorna una sola vez; en DB solo queda su digest.
func (s *service) CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (string, error) {
	log := logger.From(ctx).With(
		logger.Component("auth.session"),
		logger.Op("CreateSession"),
		logger.UserID(userID),
	)

	u, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if !u.IsActive {
		return "", repository.ErrUnauthorized
	}

	now := time.Now().UTC()
	exp := now.Add(s.deps.SessionTTL)
	sessionID := uuid.NewString()

	claims := sessionClaims{
		SessionID: sessionID,
		TenantID:  u.TenantID,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.deps.SigningSecret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	if _, err := s.deps.Store.Sessions().Create(ctx, repository.CreateSessionInput{
		SessionID: sessionID,
		UserID:    u.ID,
		TokenHash: tokens.SHA256Base64URL(signed),
		ExpiresAt: exp,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	log.Info("session created", logger.SessionID(sessionID))
	return signed, nil
}

// ValidateSession valida un token de sesión. El orden importa:
//  1. firma y expiración del payload
//  2. fila de sesión viva por hash del token (logout revoca antes del exp)
//  3. usuario existente y activo
//
// Cualquier path ambiguo o con error resuelve a inválido, nunca a válido.
func (s *service) ValidateSession(ctx context.Context, token string) (*repository.User, bool) {
	log := logger.From(ctx).With(
		logger.Component("auth.session"),
		logger.Op("ValidateSession"),
	)

	claims, err := s.parseSessionToken(token, true)
	if err != nil {
		metrics.SessionValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
		log.Debug("token parse failed", logger.Err(err))
		return nil, false
	}

	sess, err := s.deps.Store.Sessions().GetByTokenHash(ctx, tokens.SHA256Base64URL(token))
	if err != nil {
		outcome := metrics.OutcomeRejected
		if !repository.IsNotFound(err) {
			outcome = metrics.OutcomeError
			log.Error("session lookup failed", logger.Err(err))
		}
		metrics.SessionValidations.WithLabelValues(outcome).Inc()
		return nil, false
	}
	if sess.SessionID != claims.SessionID || sess.UserID != claims.Subject {
		metrics.SessionValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
		log.Debug("claims do not match session row", logger.SessionID(claims.SessionID))
		return nil, false
	}

	u, err := s.deps.Store.Users().GetByID(ctx, sess.UserID)
	if err != nil || !u.IsActive {
		metrics.SessionValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, false
	}

	metrics.SessionValidations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return u, true
}

// LogoutUser elimina la fila de la sesión referida por el token. Idempotente:
// un token ilegible o una sesión ya borrada no son error.
func (s *service) LogoutUser(ctx context.Context, token string) error {
	log := logger.From(ctx).With(
		logger.Component("auth.session"),
		logger.Op("LogoutUser"),
	)

	// Sin validar expiración: cerrar una sesión ya vencida sigue siendo un no-op
	// legítimo.
	claims, err := s.parseSessionToken(token, false)
	if err != nil {
		log.Debug("unparseable token on logout")
		return nil
	}
	if err := s.deps.Store.Sessions().Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	log.Info("session closed", logger.SessionID(claims.SessionID))
	return nil
}

// LogoutAllSessions cierra todas las sesiones del usuario.
func (s *service) LogoutAllSessions(ctx context.Context, userID string) (int, error) {
	n, err := s.deps.Store.Sessions().DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}

func (s *service) parseSessionToken(token string, validateExpiry bool) (*sessionClaims, error) {
	var claims sessionClaims
	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{"HS256"})}
	if !validateExpiry {
		opts = append(opts, jwtv5.WithoutClaimsValidation())
	}
	tk, err := jwtv5.ParseWithClaims(token, &claims, func(t *jwtv5.Token) (any, error) {
		return s.deps.SigningSecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tk.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, repository.ErrUnauthorized
	}
	return &claims, nil
}
