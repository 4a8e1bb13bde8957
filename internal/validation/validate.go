package validation

import (
	"regexp"
	"strings"
)

// Subdomain rules:
// - Lowercase only (input gets lowered by Normalize before checking).
// - Start and end with [a-z0-9].
// - Middle chars may include hyphen.
// - Length 2..63.
//
// Examples valid: acme, acme-corp, a1
// Examples invalid: -acme, acme-, a, UPPER (before normalize), 64+ chars.
var subdomainRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])$`)

// Email check liviano: algo@algo.algo, sin espacios. La unicidad real la da
// la constraint de DB, esto solo corta basura obvia antes del write.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeSubdomain recorta y baja a lowercase.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidSubdomain retorna true si el subdomain ya normalizado cumple el patrón.
func ValidSubdomain(s string) bool {
	return subdomainRe.MatchString(s)
}

// NormalizeEmail recorta y baja a lowercase.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail retorna true si el email ya normalizado tiene forma razonable.
func ValidEmail(s string) bool {
	return s != "" && len(s) <= 254 && emailRe.MatchString(s)
}
