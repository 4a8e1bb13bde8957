package validation

import (
	"strings"
	"testing"
)

func TestValidSubdomain_Valid(t *testing.T) {
	valids := []string{
		"ab",
		"acme",
		"acme-corp",
		"a1",
		"0x",
		"a" + strings.Repeat("b", 61) + "c", // 63 chars
	}
	for _, v := range valids {
		if !ValidSubdomain(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidSubdomain_Invalid(t *testing.T) {
	invalids := []string{
		"",
		"a",                                 // muy corto
		"-acme",                             // guion inicial
		"acme-",                             // guion final
		"UPPER",                             // mayúsculas (antes de Normalize)
		"acme corp",                         // espacio
		"acme.corp",                         // punto
		"a" + strings.Repeat("b", 62) + "c", // 64 chars
	}
	for _, v := range invalids {
		if ValidSubdomain(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestNormalizeSubdomain(t *testing.T) {
	if got := NormalizeSubdomain("  ACME-Corp  "); got != "acme-corp" {
		t.Fatalf("got %q", got)
	}
}

func TestValidEmail(t *testing.T) {
	valids := []string{"a@b.co", "user.name+tag@example.org"}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{"", "nope", "a@b", "a b@c.d", "@x.y", "a@@b.c"}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  User@Example.COM "); got != "user@example.com" {
		t.Fatalf("got %q", got)
	}
}
