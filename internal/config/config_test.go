package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithMemoryDriver(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
auth:
  signing_secret: s3cret
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Env != "dev" {
		t.Errorf("App.Env = %q, want dev", c.App.Env)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", c.Server.Addr)
	}
	if c.Cache.Kind != "memory" {
		t.Errorf("Cache.Kind = %q, want memory", c.Cache.Kind)
	}
	if got := c.SessionTTL(); got != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", got)
	}
	if got := c.StateTTL(); got != 10*time.Minute {
		t.Errorf("StateTTL = %v, want 10m", got)
	}
	if got := c.CleanupInterval(); got != time.Hour {
		t.Errorf("CleanupInterval = %v, want 1h", got)
	}
}

func TestLoad_MissingSigningSecretFails(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for missing signing secret")
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
auth:
  signing_secret: s3cret
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for postgres without dsn")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
auth:
  signing_secret: file-secret
  session_ttl: 24h
`)
	t.Setenv("TENANTGATE_SIGNING_SECRET", "env-secret")
	t.Setenv("TENANTGATE_SESSION_TTL", "2h")
	t.Setenv("TENANTGATE_ADDR", ":9090")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Auth.SigningSecret != "env-secret" {
		t.Errorf("SigningSecret = %q, want env-secret", c.Auth.SigningSecret)
	}
	if got := c.SessionTTL(); got != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", got)
	}
	if c.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", c.Server.Addr)
	}
}

func TestLoad_SSOProviderFromEnv(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
auth:
  signing_secret: s3cret
`)
	t.Setenv("TENANTGATE_SSO_ENTRA_CLIENT_ID", "cid")
	t.Setenv("TENANTGATE_SSO_ENTRA_CLIENT_SECRET", "cs")
	t.Setenv("TENANTGATE_SSO_ENTRA_DIRECTORY_ID", "dir-123")
	t.Setenv("TENANTGATE_SSO_ENTRA_REDIRECT_URI", "https://app.example.test/sso/entra/callback")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := c.SSO.Providers["entra"]
	if !ok {
		t.Fatal("entra provider not present")
	}
	if !p.Complete() {
		t.Error("entra provider should be complete")
	}
}

func TestProviderComplete(t *testing.T) {
	cases := []struct {
		name string
		p    Provider
		want bool
	}{
		{"empty", Provider{}, false},
		{"authority based", Provider{ClientID: "a", ClientSecret: "b", Authority: "https://idp", RedirectURI: "https://cb"}, true},
		{"directory based", Provider{ClientID: "a", ClientSecret: "b", DirectoryID: "d", RedirectURI: "https://cb"}, true},
		{"no redirect", Provider{ClientID: "a", ClientSecret: "b", Authority: "https://idp"}, false},
		{"no issuer source", Provider{ClientID: "a", ClientSecret: "b", RedirectURI: "https://cb"}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Complete(); got != tc.want {
			t.Errorf("%s: Complete() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
