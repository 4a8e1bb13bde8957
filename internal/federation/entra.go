package federation

import "fmt"

// entraAuthorityFmt arma la authority v2.0 de un directorio Microsoft Entra.
const entraAuthorityFmt = "https://login.microsoftonline.com/%s/v2.0"

// NewEntra crea el provider para un directorio Entra. Es el mismo protocolo
// OIDC con la authority derivada del directory_id; issuer, JWKS y endpoints
// salen del discovery del directorio.
func NewEntra(clientID, clientSecret, directoryID, redirectURL string, scopes []string) *OIDCProvider {
	authority := fmt.Sprintf(entraAuthorityFmt, directoryID)
	return NewOIDC("entra", clientID, clientSecret, authority, redirectURL, scopes)
}
