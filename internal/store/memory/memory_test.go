package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

func mustTenant(t *testing.T, s *Store, subdomain string) *repository.Tenant {
	t.Helper()
	tn, err := s.Tenants().Create(context.Background(), repository.CreateTenantInput{
		Name: subdomain, Subdomain: subdomain,
	})
	if err != nil {
		t.Fatalf("create tenant %q: %v", subdomain, err)
	}
	return tn
}

func mustUser(t *testing.T, s *Store, tenantID, email string) *repository.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), repository.CreateUserInput{
		TenantID: tenantID, Email: email, PasswordHash: "h", PasswordSalt: "s",
	})
	if err != nil {
		t.Fatalf("create user %q: %v", email, err)
	}
	return u
}

func TestTenantSubdomainUnique(t *testing.T) {
	s := New()
	mustTenant(t, s, "acme")

	_, err := s.Tenants().Create(context.Background(), repository.CreateTenantInput{
		Name: "Other", Subdomain: "acme",
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate subdomain: err = %v, want ErrConflict", err)
	}
}

func TestTenantDefaultMaxUsers(t *testing.T) {
	s := New()
	tn := mustTenant(t, s, "acme")
	if tn.MaxUsers != repository.DefaultMaxUsers {
		t.Fatalf("MaxUsers = %d, want %d", tn.MaxUsers, repository.DefaultMaxUsers)
	}
	if !tn.IsActive {
		t.Fatal("new tenant should be active")
	}
}

func TestUserEmailUniquePerTenant(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustTenant(t, s, "tenant-a")
	b := mustTenant(t, s, "tenant-b")

	mustUser(t, s, a.ID, "x@corp.com")

	_, err := s.Users().Create(ctx, repository.CreateUserInput{TenantID: a.ID, Email: "x@corp.com"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("same tenant duplicate: err = %v, want ErrConflict", err)
	}

	// mismo email en otro tenant: permitido
	if _, err := s.Users().Create(ctx, repository.CreateUserInput{TenantID: b.ID, Email: "x@corp.com"}); err != nil {
		t.Fatalf("cross tenant same email: %v", err)
	}
}

func TestCountActiveUsersIgnoresInactive(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	u1 := mustUser(t, s, tn.ID, "a@corp.com")
	mustUser(t, s, tn.ID, "b@corp.com")

	if err := s.Users().SetActive(ctx, u1.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	n, err := s.Tenants().CountActiveUsers(ctx, tn.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountActiveUsers = (%d, %v), want (1, nil)", n, err)
	}
}

func TestSessionExpiredRowIsAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	u := mustUser(t, s, tn.ID, "a@corp.com")

	_, err := s.Sessions().Create(ctx, repository.CreateSessionInput{
		SessionID: "sess-1", UserID: u.ID, TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := s.Sessions().GetByTokenHash(ctx, "hash-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expired session lookup: err = %v, want ErrNotFound", err)
	}

	n, err := s.Sessions().DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired = (%d, %v), want (1, nil)", n, err)
	}
}

func TestSessionDeleteIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	u := mustUser(t, s, tn.ID, "a@corp.com")

	_, err := s.Sessions().Create(ctx, repository.CreateSessionInput{
		SessionID: "sess-1", UserID: u.ID, TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.Sessions().Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.Sessions().Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestAPITokenActiveNameUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	u := mustUser(t, s, tn.ID, "a@corp.com")

	first, err := s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: u.ID, TenantID: tn.ID, Name: "deploy", TokenPrefix: "tg_aaa", TokenHash: "h1",
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	_, err = s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: u.ID, TenantID: tn.ID, Name: "deploy", TokenPrefix: "tg_bbb", TokenHash: "h2",
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate active name: err = %v, want ErrConflict", err)
	}

	// revocado libera el nombre
	if err := s.APITokens().Revoke(ctx, u.ID, first.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: u.ID, TenantID: tn.ID, Name: "deploy", TokenPrefix: "tg_ccc", TokenHash: "h3",
	}); err != nil {
		t.Fatalf("recreate after revoke: %v", err)
	}
}

func TestAPITokenRevokedInvisibleByHash(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	u := mustUser(t, s, tn.ID, "a@corp.com")

	tok, err := s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: u.ID, TenantID: tn.ID, Name: "ci", TokenPrefix: "tg_aaa", TokenHash: "h1",
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if err := s.APITokens().Revoke(ctx, u.ID, tok.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.APITokens().GetByHash(ctx, "h1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("revoked lookup: err = %v, want ErrNotFound", err)
	}
	// doble revoke: el token ya no está activo
	if err := s.APITokens().Revoke(ctx, u.ID, tok.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("double revoke: err = %v, want ErrNotFound", err)
	}
}

func TestAPITokenCrossUserRevoke(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	owner := mustUser(t, s, tn.ID, "a@corp.com")
	other := mustUser(t, s, tn.ID, "b@corp.com")

	tok, err := s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: owner.ID, TenantID: tn.ID, Name: "ci", TokenPrefix: "tg_aaa", TokenHash: "h1",
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if err := s.APITokens().Revoke(ctx, other.ID, tok.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("cross-user revoke: err = %v, want ErrNotFound", err)
	}
	if _, err := s.APITokens().GetByHash(ctx, "h1"); err != nil {
		t.Fatalf("owner token should remain usable: %v", err)
	}
}

func TestAPITokenDeleteExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	tn := mustTenant(t, s, "acme")
	u := mustUser(t, s, tn.ID, "a@corp.com")

	past := time.Now().Add(-time.Hour)
	if _, err := s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: u.ID, TenantID: tn.ID, Name: "old", TokenPrefix: "tg_aaa", TokenHash: "h1", ExpiresAt: &past,
	}); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := s.APITokens().Create(ctx, repository.CreateAPITokenInput{
		UserID: u.ID, TenantID: tn.ID, Name: "keep", TokenPrefix: "tg_bbb", TokenHash: "h2",
	}); err != nil {
		t.Fatalf("create keeper: %v", err)
	}

	n, err := s.APITokens().DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired = (%d, %v), want (1, nil)", n, err)
	}
	if _, err := s.APITokens().GetByHash(ctx, "h2"); err != nil {
		t.Fatalf("keeper should survive: %v", err)
	}
}
