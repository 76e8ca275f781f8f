package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidKey         = errors.New("encryption key must be 32 bytes for AES-256")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed")
)

// Sealer seals small values (cookie payloads) with AES-256-GCM. The context
// string is authenticated with every value, so a payload sealed for one
// cookie cannot be replayed as another.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromSecret derives the AES key from an operator secret with
// HKDF-SHA256. info separates keys derived from the same secret.
func NewSealerFromSecret(secret, info string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("secret is required")
	}
	key, err := DeriveKey([]byte(secret), info)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// DeriveKey expands secret into a 32-byte key.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext bound to context and returns URL-safe base64,
// usable directly as a cookie value.
func (s *Sealer) Seal(plaintext, context string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the ciphertext and tag to the nonce
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(context))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Any tampering, truncation or context mismatch
// returns an error.
func (s *Sealer) Open(encoded, context string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(context))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
