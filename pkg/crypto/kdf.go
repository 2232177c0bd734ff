package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Iterations follows the current OWASP minimum for PBKDF2-HMAC-SHA256.
const pbkdf2Iterations = 600000

// SaltSize is the recommended random salt length for DeriveKey.
const SaltSize = 16

// DeriveKey derives a 32-byte AES-256 key from a passphrase and salt using
// PBKDF2-HMAC-SHA256. It is exported library surface: nothing in this
// module calls it, and internal/config still requires ENCRYPTION_KEY to
// be exactly 32 raw bytes and derives nothing from it.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)
}

// GenerateSalt returns a fresh cryptographically random salt for DeriveKey.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}
