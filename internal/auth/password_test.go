package auth

import "testing"

func TestDetectCredential(t *testing.T) {
	tests := []struct {
		stored string
		want   CredentialKind
	}{
		{"$2a$10$abcdefghijklmnopqrstuv", CredentialBcrypt},
		{"$2b$12$abcdefghijklmnopqrstuv", CredentialBcrypt},
		{"$2y$12$abcdefghijklmnopqrstuv", CredentialBcrypt},
		{"hunter2", CredentialLegacyPlain},
		{"$1$md5-style", CredentialLegacyPlain},
		{"", CredentialLegacyPlain},
	}
	for _, tc := range tests {
		if got := DetectCredential(tc.stored); got != tc.want {
			t.Errorf("DetectCredential(%q) = %v, want %v", tc.stored, got, tc.want)
		}
	}
}

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}

	ok, legacy := VerifyPassword(hash, "correct horse")
	if !ok || legacy {
		t.Fatalf("ok=%v legacy=%v, want match through bcrypt", ok, legacy)
	}

	ok, _ = VerifyPassword(hash, "wrong")
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestVerifyPasswordLegacyPlaintext(t *testing.T) {
	ok, legacy := VerifyPassword("hunter2", "hunter2")
	if !ok || !legacy {
		t.Fatalf("ok=%v legacy=%v, want legacy match", ok, legacy)
	}

	ok, legacy = VerifyPassword("hunter2", "hunter3")
	if ok {
		t.Fatal("mismatched legacy password accepted")
	}
	if !legacy {
		t.Fatal("mismatch on a plaintext row must still report the legacy path")
	}
}

func TestVerifyPasswordEmptyStored(t *testing.T) {
	// Federated accounts have no password; direct login must fail
	// without flagging a migration.
	ok, legacy := VerifyPassword("", "")
	if ok || legacy {
		t.Fatalf("ok=%v legacy=%v for empty stored value", ok, legacy)
	}
}
