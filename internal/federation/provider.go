// Package federation implementa el login delegado: construcción de la URL de
// autorización, intercambio de code+state y resolución/auto-provisioning del
// usuario externo.
//
// Providers soportados: "oidc" (cualquier issuer con discovery estándar) y
// "entra" (variante de directorio Microsoft, mismo protocolo con la authority
// armada a partir del directory_id). Un provider con configuración incompleta
// queda deshabilitado, nunca rompe el arranque.
package federation

import "context"

// UserProfile es la identidad externa verificada que entrega un provider.
type UserProfile struct {
	Subject       string // sub del id_token, estable por usuario
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
}

// TokenSet es la respuesta del intercambio de authorization code.
type TokenSet struct {
	AccessToken string
	IDToken     string
	ExpiresIn   int
}

// Provider abstrae un identity provider externo.
type Provider interface {
	// Name retorna el nombre registrado ("oidc", "entra").
	Name() string

	// AuthURL construye la URL del authorization endpoint con response_type,
	// client_id, redirect_uri, scope, state y nonce.
	AuthURL(ctx context.Context, state, nonce string) (string, error)

	// ExchangeCode canjea el authorization code por tokens (server a server).
	ExchangeCode(ctx context.Context, code string) (*TokenSet, error)

	// FetchProfile verifica el id_token (firma, iss, aud, nonce, exp) y
	// extrae el perfil externo.
	FetchProfile(ctx context.Context, ts *TokenSet, expectedNonce string) (*UserProfile, error)
}
