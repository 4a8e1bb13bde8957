package federation

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

type discoveryDoc struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}
type jwks struct {
	Keys []jwk `json:"keys"`
}

// OIDCProvider habla con cualquier issuer que publique discovery estándar.
// El discovery y el JWKS se cachean en memoria; el refresh de JWKS usa ETag.
type OIDCProvider struct {
	name         string
	clientID     string
	clientSecret string
	authority    string // base del issuer, sin el sufijo well-known
	redirectURL  string
	scopes       []string

	http  *http.Client
	mu    sync.RWMutex
	disc  *discoveryDoc
	discU time.Time

	jwks     *jwks
	jwksAt   time.Time
	jwksETag string
}

// NewOIDC crea un provider OIDC genérico contra la authority dada.
func NewOIDC(name, clientID, clientSecret, authority, redirectURL string, scopes []string) *OIDCProvider {
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}
	return &OIDCProvider{
		name:         name,
		clientID:     clientID,
		clientSecret: clientSecret,
		authority:    strings.TrimRight(authority, "/"),
		redirectURL:  redirectURL,
		scopes:       scopes,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OIDCProvider) Name() string { return p.name }

func (p *OIDCProvider) discovery(ctx context.Context) (*discoveryDoc, error) {
	p.mu.RLock()
	disc := p.disc
	stale := time.Since(p.discU) > 24*time.Hour
	p.mu.RUnlock()
	if disc != nil && !stale {
		return disc, nil
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", p.authority+"/.well-known/openid-configuration", nil)
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
	}
	var dd discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.disc = &dd
	p.discU = time.Now()
	p.mu.Unlock()
	return &dd, nil
}

func (p *OIDCProvider) getJWKS(ctx context.Context, uri string) (*jwks, error) {
	p.mu.RLock()
	j := p.jwks
	age := time.Since(p.jwksAt)
	p.mu.RUnlock()
	if j != nil && age < 1*time.Hour {
		return j, nil
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if p.jwksETag != "" {
		req.Header.Set("If-None-Match", p.jwksETag)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		p.mu.Lock()
		out := p.jwks
		p.jwksAt = time.Now()
		p.mu.Unlock()
		return out, nil
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
	}
	var jj jwks
	if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.jwks = &jj
	p.jwksAt = time.Now()
	p.jwksETag = resp.Header.Get("ETag")
	p.mu.Unlock()
	return &jj, nil
}

func (p *OIDCProvider) rsaKeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	disc, err := p.discovery(ctx)
	if err != nil {
		return nil, err
	}
	jwks, err := p.getJWKS(ctx, disc.JWKSURI)
	if err != nil {
		return nil, err
	}
	for _, k := range jwks.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			n := new(big.Int).SetBytes(nb)
			e := 0
			for _, b := range eb {
				e = (e << 8) | int(b)
			}
			if e == 0 {
				e = 65537
			}
			return &rsa.PublicKey{N: n, E: e}, nil
		}
	}
	return nil, errors.New("kid not found")
}

// AuthURL construye la URL de autorización.
func (p *OIDCProvider) AuthURL(ctx context.Context, state, nonce string) (string, error) {
	disc, err := p.discovery(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(disc.AuthEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURL)
	q.Set("scope", strings.Join(p.scopes, " "))
	q.Set("state", state)
	q.Set("nonce", nonce)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *OIDCProvider) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	disc, err := p.discovery(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", p.redirectURL)

	req, _ := http.NewRequestWithContext(ctx, "POST", disc.TokenEndpoint, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var b struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		return nil, fmt.Errorf("token http %d: %s %s", resp.StatusCode, b.Error, b.ErrorDescription)
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		IDToken     string `json:"id_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	return &TokenSet{AccessToken: tr.AccessToken, IDToken: tr.IDToken, ExpiresIn: tr.ExpiresIn}, nil
}

// FetchProfile valida firma, iss, aud, nonce y exp del id_token y extrae el
// perfil.
func (p *OIDCProvider) FetchProfile(ctx context.Context, ts *TokenSet, expectedNonce string) (*UserProfile, error) {
	if ts == nil || ts.IDToken == "" {
		return nil, errors.New("missing id_token")
	}
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(ts.IDToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, err
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("unexpected alg: %s", header.Alg)
	}

	key, err := p.rsaKeyForKid(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	tok, err := jwtv5.Parse(ts.IDToken, func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}))
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid id_token")
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}

	disc, err := p.discovery(ctx)
	if err != nil {
		return nil, err
	}
	iss, _ := claims["iss"].(string)
	if disc.Issuer != "" && iss != disc.Issuer {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}

	audOK := false
	switch a := claims["aud"].(type) {
	case string:
		audOK = a == p.clientID
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == p.clientID {
				audOK = true
				break
			}
		}
	}
	if !audOK {
		return nil, errors.New("bad aud")
	}

	if expectedNonce != "" {
		if got, _ := claims["nonce"].(string); got != expectedNonce {
			return nil, errors.New("bad nonce")
		}
	}
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, errors.New("token expired")
		}
	}

	out := &UserProfile{
		Subject:       strClaim(claims, "sub"),
		Email:         strClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		GivenName:     strClaim(claims, "given_name"),
		FamilyName:    strClaim(claims, "family_name"),
	}
	if out.Subject == "" {
		return nil, errors.New("missing sub")
	}
	// Entra emite preferred_username cuando el scope email no está concedido.
	if out.Email == "" {
		out.Email = strClaim(claims, "preferred_username")
	}
	return out, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}

func boolClaim(m jwtv5.MapClaims, k string) bool {
	b, _ := m[k].(bool)
	return b
}
