package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CredentialKind tags the encoding of a stored password value.
// LegacyPlain exists only for pre-migration rows; successful legacy
// logins are rewritten to bcrypt so the variant retires itself.
type CredentialKind int

const (
	CredentialBcrypt CredentialKind = iota
	CredentialLegacyPlain
)

// DetectCredential classifies a stored password value by its format.
func DetectCredential(stored string) CredentialKind {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return CredentialBcrypt
	}
	return CredentialLegacyPlain
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks plain against the stored value, dispatching on
// its credential kind. legacy reports that the match came through the
// plaintext-compatibility path and the row should be re-hashed.
func VerifyPassword(stored, plain string) (ok bool, legacy bool) {
	if stored == "" {
		return false, false
	}
	switch DetectCredential(stored) {
	case CredentialBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil, false
	default:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1, true
	}
}
