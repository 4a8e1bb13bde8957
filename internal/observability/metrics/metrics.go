// Package metrics expone los contadores Prometheus del core de identidad.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes usados como label. Un path de auth solo reporta success/rejected;
// el detalle del motivo queda en los logs, nunca en una label de alta
// cardinalidad.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// LoginAttempts cuenta intentos de autenticación local por outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantgate_login_attempts_total",
		Help: "Local authentication attempts by outcome.",
	}, []string{"outcome"})

	// SessionValidations cuenta validaciones de sesión por outcome.
	SessionValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantgate_session_validations_total",
		Help: "Session token validations by outcome.",
	}, []string{"outcome"})

	// APITokenValidations cuenta validaciones de API token por outcome.
	APITokenValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantgate_api_token_validations_total",
		Help: "API token validations by outcome.",
	}, []string{"outcome"})

	// SSOCallbacks cuenta callbacks federados por provider y outcome.
	SSOCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantgate_sso_callbacks_total",
		Help: "Federated login callbacks by provider and outcome.",
	}, []string{"provider", "outcome"})

	// ExpiredTokensDeleted cuenta tokens eliminados por el sweep.
	ExpiredTokensDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantgate_expired_tokens_deleted_total",
		Help: "API tokens hard-deleted by the cleanup sweep.",
	})
)
