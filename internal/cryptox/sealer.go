// Package cryptox seals access-token values before they reach storage.
//
// The AES-256 key is derived from the configured secret with argon2id, so a
// leaked database dump alone does not reveal usable broker credentials.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// keySalt is fixed: the derived key must be reproducible across restarts.
var keySalt = []byte("kitekeeper/access-token/v1")

var ErrEmptySecret = errors.New("sealing secret is empty")

// DeriveKey stretches secret into a 32-byte AES key.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Sealer encrypts and decrypts token values with AES-GCM.
// It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key from secret once and prepares the AEAD.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	block, err := aes.NewCipher(DeriveKey([]byte(secret), keySalt))
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return s.aead.Seal(nil, nonce, []byte(plaintext), nil), nonce, nil
}

// Open reverses Seal. It fails if the ciphertext was tampered with or was
// sealed under a different secret.
func (s *Sealer) Open(ciphertext, nonce []byte) (string, error) {
	if len(nonce) != s.aead.NonceSize() {
		return "", fmt.Errorf("invalid nonce size %d", len(nonce))
	}

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}

	return string(plaintext), nil
}
