package token

import (
	"strings"
	"testing"
)

func TestGenerateAPIToken_Shape(t *testing.T) {
	t.Parallel()

	full, prefix, hash, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken err: %v", err)
	}
	if !strings.HasPrefix(full, Prefix) {
		t.Fatalf("token %q missing prefix %q", full, Prefix)
	}
	if len(full) != TotalLength {
		t.Fatalf("token length = %d, want %d", len(full), TotalLength)
	}
	if len(prefix) != DisplayPrefixLen {
		t.Fatalf("display prefix length = %d, want %d", len(prefix), DisplayPrefixLen)
	}
	if prefix != full[:DisplayPrefixLen] {
		t.Fatalf("display prefix %q is not the head of %q", prefix, full)
	}
	if hash == "" || hash == full {
		t.Fatalf("hash %q must be a digest, never the raw value", hash)
	}
	if hash != SHA256Base64URL(full) {
		t.Fatal("stored hash must be sha256(full)")
	}
}

func TestGenerateAPIToken_Unique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		full, _, _, err := GenerateAPIToken()
		if err != nil {
			t.Fatal(err)
		}
		if seen[full] {
			t.Fatalf("duplicate token generated: %q", full)
		}
		seen[full] = true
	}
}

func TestWellFormed(t *testing.T) {
	t.Parallel()

	full, _, _, err := GenerateAPIToken()
	if err != nil {
		t.Fatal(err)
	}
	if !WellFormed(full) {
		t.Fatalf("fresh token should be well formed: %q", full)
	}

	bad := []string{
		"",
		"tg_",
		"tg_short",
		strings.Repeat("x", TotalLength),  // longitud ok, prefijo malo
		Prefix + strings.Repeat("a", 100), // demasiado largo
		strings.TrimPrefix(full, Prefix),  // sin prefijo
	}
	for _, tok := range bad {
		if WellFormed(tok) {
			t.Fatalf("expected malformed: %q", tok)
		}
	}
}

func TestGenerateOpaqueToken_Length(t *testing.T) {
	t.Parallel()
	tok, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatal(err)
	}
	// 32 bytes → 43 chars base64url sin padding
	if len(tok) != 43 {
		t.Fatalf("opaque token length = %d, want 43", len(tok))
	}
}
