package crypto

import (
	"bytes"
	"testing"
)

// TestDeriveKeyLength проверяет, что выходной ключ всегда 32 байта
func TestDeriveKeyLength(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}

	key := DeriveKey("correct horse battery staple", salt)
	if len(key) != 32 {
		t.Errorf("DeriveKey: got %d bytes, want 32", len(key))
	}
}

// TestDeriveKeyDeterministic проверяет, что одна и та же пара
// (пароль, соль) всегда даёт один и тот же ключ
func TestDeriveKeyDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key1 := DeriveKey("my-passphrase", salt)
	key2 := DeriveKey("my-passphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("DeriveKey should be deterministic for the same passphrase and salt")
	}
}

// TestDeriveKeyDifferentSalts проверяет, что разные соли дают разные ключи
func TestDeriveKeyDifferentSalts(t *testing.T) {
	key1 := DeriveKey("my-passphrase", []byte("salt-one-16bytes"))
	key2 := DeriveKey("my-passphrase", []byte("salt-two-16bytes"))

	if bytes.Equal(key1, key2) {
		t.Error("DeriveKey should produce different keys for different salts")
	}
}

// TestDeriveKeyDifferentPassphrases проверяет, что разные пароли дают разные ключи
func TestDeriveKeyDifferentPassphrases(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key1 := DeriveKey("passphrase-one", salt)
	key2 := DeriveKey("passphrase-two", salt)

	if bytes.Equal(key1, key2) {
		t.Error("DeriveKey should produce different keys for different passphrases")
	}
}

// TestDeriveKeyUsableForAESGCM проверяет, что производный ключ можно
// использовать напрямую в Encrypt/Decrypt
func TestDeriveKeyUsableForAESGCM(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	key := DeriveKey("steam-web-api-key-passphrase", salt)

	ciphertext, err := Encrypt("0123456789ABCDEF0123456789ABCDEF01234567", key)
	if err != nil {
		t.Fatalf("Encrypt with derived key failed: %v", err)
	}

	plaintext, err := Decrypt(ciphertext, key)
	if err != nil {
		t.Fatalf("Decrypt with derived key failed: %v", err)
	}
	if plaintext != "0123456789ABCDEF0123456789ABCDEF01234567" {
		t.Errorf("round trip mismatch: got %q", plaintext)
	}
}

// TestGenerateSaltUnique проверяет, что последовательные соли не совпадают
func TestGenerateSaltUnique(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}

	if len(salt1) != SaltSize {
		t.Errorf("GenerateSalt: got %d bytes, want %d", len(salt1), SaltSize)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("GenerateSalt should not produce the same salt twice")
	}
}
