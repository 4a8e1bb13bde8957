package password

import "testing"

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, salt, err := Hash(Default, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if hash == "" || salt == "" {
		t.Fatalf("empty hash/salt: %q %q", hash, salt)
	}
	if !Verify("correct horse battery staple", hash, salt) {
		t.Fatal("expected verify true for correct password")
	}
	if Verify("wrong password", hash, salt) {
		t.Fatal("expected verify false for wrong password")
	}
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	t.Parallel()

	h1, s1, err := Hash(Default, "same-password")
	if err != nil {
		t.Fatal(err)
	}
	h2, s2, err := Hash(Default, "same-password")
	if err != nil {
		t.Fatal(err)
	}
	if s1 == s2 {
		t.Fatal("expected distinct salts for two hashes of the same password")
	}
	if h1 == h2 {
		t.Fatal("expected distinct hashes for two hashes of the same password")
	}
}

func TestHash_RejectsEmptyPassword(t *testing.T) {
	t.Parallel()
	if _, _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerify_MalformedNeverPanics(t *testing.T) {
	t.Parallel()

	hash, salt, err := Hash(Default, "pw")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		hash string
		salt string
	}{
		{"empty hash", "", salt},
		{"empty salt", hash, ""},
		{"garbage hash", "not-a-phc-string", salt},
		{"wrong scheme", "$bcrypt$v=19$m=65536,t=3,p=1$abc", salt},
		{"wrong version", "$argon2id$v=18$m=65536,t=3,p=1$abc", salt},
		{"bad base64 salt", hash, "!!!not base64!!!"},
		{"truncated hash", hash[:len(hash)/2], salt},
		{"zero params", "$argon2id$v=19$m=0,t=0,p=0$abc", salt},
	}
	for _, tc := range cases {
		if Verify("pw", tc.hash, tc.salt) {
			t.Fatalf("%s: expected verify false", tc.name)
		}
	}
}
