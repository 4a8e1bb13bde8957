package federation

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testKid = "test-key-1"

// fakeIDP levanta un issuer OIDC mínimo: discovery, JWKS y token endpoint.
type fakeIDP struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	idToken  string // lo que devuelve el token endpoint
	lastForm url.Values
}

func newFakeIDP(t *testing.T) *fakeIDP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &fakeIDP{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 idp.srv.URL,
			"authorization_endpoint": idp.srv.URL + "/authorize",
			"token_endpoint":         idp.srv.URL + "/token",
			"jwks_uri":               idp.srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, _ *http.Request) {
		pub := &key.PublicKey
		w.Header().Set("ETag", `"v1"`)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"kid": testKid,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		idp.lastForm = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"id_token":     idp.idToken,
			"expires_in":   3600,
		})
	})
	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)
	return idp
}

// signIDToken firma un id_token RS256 con el kid publicado en el JWKS.
func (f *fakeIDP) signIDToken(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = testKid
	signed, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func (f *fakeIDP) baseClaims(clientID, nonce string) jwtv5.MapClaims {
	now := time.Now()
	return jwtv5.MapClaims{
		"iss":            f.srv.URL,
		"aud":            clientID,
		"sub":            "ext-subject-1",
		"email":          "ana@corp.com",
		"email_verified": true,
		"given_name":     "Ana",
		"family_name":    "García",
		"nonce":          nonce,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func newTestOIDC(idp *fakeIDP) *OIDCProvider {
	return NewOIDC("oidc", "client-1", "secret-1", idp.srv.URL, "https://app.example.test/cb", nil)
}

func TestOIDC_AuthURL(t *testing.T) {
	idp := newFakeIDP(t)
	p := newTestOIDC(idp)

	raw, err := p.AuthURL(context.Background(), "the-state", "the-nonce")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/authorize", u.Path)
	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "client-1", q.Get("client_id"))
	require.Equal(t, "https://app.example.test/cb", q.Get("redirect_uri"))
	require.Equal(t, "openid profile email", q.Get("scope"))
	require.Equal(t, "the-state", q.Get("state"))
	require.Equal(t, "the-nonce", q.Get("nonce"))
}

func TestOIDC_ExchangeCode(t *testing.T) {
	idp := newFakeIDP(t)
	idp.idToken = "opaque-id-token"
	p := newTestOIDC(idp)

	ts, err := p.ExchangeCode(context.Background(), "code-abc")
	require.NoError(t, err)
	require.Equal(t, "access-123", ts.AccessToken)
	require.Equal(t, "opaque-id-token", ts.IDToken)
	require.Equal(t, 3600, ts.ExpiresIn)

	require.Equal(t, "authorization_code", idp.lastForm.Get("grant_type"))
	require.Equal(t, "code-abc", idp.lastForm.Get("code"))
	require.Equal(t, "client-1", idp.lastForm.Get("client_id"))
	require.Equal(t, "secret-1", idp.lastForm.Get("client_secret"))
}

func TestOIDC_FetchProfile(t *testing.T) {
	idp := newFakeIDP(t)
	p := newTestOIDC(idp)

	idt := idp.signIDToken(t, idp.baseClaims("client-1", "nonce-1"))
	profile, err := p.FetchProfile(context.Background(), &TokenSet{IDToken: idt}, "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "ext-subject-1", profile.Subject)
	require.Equal(t, "ana@corp.com", profile.Email)
	require.True(t, profile.EmailVerified)
	require.Equal(t, "Ana", profile.GivenName)
	require.Equal(t, "García", profile.FamilyName)
}

func TestOIDC_FetchProfile_PreferredUsernameFallback(t *testing.T) {
	idp := newFakeIDP(t)
	p := newTestOIDC(idp)

	claims := idp.baseClaims("client-1", "nonce-1")
	delete(claims, "email")
	claims["preferred_username"] = "ana@corp.com"
	idt := idp.signIDToken(t, claims)

	profile, err := p.FetchProfile(context.Background(), &TokenSet{IDToken: idt}, "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "ana@corp.com", profile.Email)
}

func TestOIDC_FetchProfile_Rejections(t *testing.T) {
	idp := newFakeIDP(t)
	p := newTestOIDC(idp)
	ctx := context.Background()

	t.Run("missing id_token", func(t *testing.T) {
		_, err := p.FetchProfile(ctx, &TokenSet{}, "n")
		require.Error(t, err)
		_, err = p.FetchProfile(ctx, nil, "n")
		require.Error(t, err)
	})

	t.Run("wrong nonce", func(t *testing.T) {
		idt := idp.signIDToken(t, idp.baseClaims("client-1", "nonce-1"))
		_, err := p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "other-nonce")
		require.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		idt := idp.signIDToken(t, idp.baseClaims("someone-else", "nonce-1"))
		_, err := p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "nonce-1")
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := idp.baseClaims("client-1", "nonce-1")
		claims["iss"] = "https://evil.example.test"
		idt := idp.signIDToken(t, claims)
		_, err := p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "nonce-1")
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := idp.baseClaims("client-1", "nonce-1")
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		idt := idp.signIDToken(t, claims)
		_, err := p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "nonce-1")
		require.Error(t, err)
	})

	t.Run("hs256 downgrade", func(t *testing.T) {
		tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, idp.baseClaims("client-1", "nonce-1"))
		tok.Header["kid"] = testKid
		idt, err := tok.SignedString([]byte("guessable"))
		require.NoError(t, err)
		_, err = p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "nonce-1")
		require.Error(t, err)
	})

	t.Run("unknown kid", func(t *testing.T) {
		tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, idp.baseClaims("client-1", "nonce-1"))
		tok.Header["kid"] = "other-key"
		idt, err := tok.SignedString(idp.key)
		require.NoError(t, err)
		_, err = p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "nonce-1")
		require.Error(t, err)
	})

	t.Run("missing sub", func(t *testing.T) {
		claims := idp.baseClaims("client-1", "nonce-1")
		delete(claims, "sub")
		idt := idp.signIDToken(t, claims)
		_, err := p.FetchProfile(ctx, &TokenSet{IDToken: idt}, "nonce-1")
		require.Error(t, err)
	})
}

func TestNewEntra_AuthorityFromDirectory(t *testing.T) {
	p := NewEntra("cid", "cs", "dir-123", "https://cb", nil)
	require.Equal(t, "entra", p.Name())
	require.Equal(t, "https://login.microsoftonline.com/dir-123/v2.0", p.authority)
}
