// Package token genera los bearer tokens opacos del sistema y sus digests.
//
// Un API token es "tg_" + sufijo aleatorio base64url, longitud total fija.
// En la DB solo se guarda el digest sha256 del valor completo; para display
// se conservan los primeros DisplayPrefixLen caracteres.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	// Prefix es el prefijo textual fijo de todo API token.
	Prefix = "tg_"

	// randomBytes produce un sufijo base64url de 40 chars.
	randomBytes = 30

	// TotalLength es la longitud fija del token completo.
	TotalLength = len(Prefix) + (randomBytes*8+5)/6

	// DisplayPrefixLen es cuántos caracteres se guardan para display.
	DisplayPrefixLen = 12
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAPIToken genera un API token completo junto con su prefix de
// display y el digest que se persiste. El valor completo no se vuelve a
// derivar nunca.
func GenerateAPIToken() (full, displayPrefix, hash string, err error) {
	suffix, err := GenerateOpaqueToken(randomBytes)
	if err != nil {
		return "", "", "", err
	}
	full = Prefix + suffix
	return full, full[:DisplayPrefixLen], SHA256Base64URL(full), nil
}

// WellFormed verifica prefijo y longitud sin tocar la DB.
func WellFormed(tok string) bool {
	return len(tok) == TotalLength && strings.HasPrefix(tok, Prefix)
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
