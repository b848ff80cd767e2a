package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// payloadKeyInfo scopes derived keys to queued payload sealing.
const payloadKeyInfo = "khelo/queue-payload/v1"

// DeriveKey stretches an operator-supplied secret into an AES-256 key with
// HKDF-SHA256. The same secret and info always give the same key.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret must not be empty")
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// NewEncryptorFromSecret derives the payload key from secret. An empty
// secret gets a random per-process key, which is fine because sealed
// payloads are never persisted.
func NewEncryptorFromSecret(secret string) (*Encryptor, error) {
	if secret == "" {
		key, err := GenerateKeyBytes()
		if err != nil {
			return nil, err
		}
		return NewEncryptor(key)
	}

	key, err := DeriveKey([]byte(secret), payloadKeyInfo)
	if err != nil {
		return nil, err
	}
	return NewEncryptor(key)
}

// GenerateKey generates a new random 32-byte key for AES-256.
// Returns the key as a base64-encoded string.
func GenerateKey() (string, error) {
	key, err := GenerateKeyBytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// GenerateKeyBytes generates a new random 32-byte key for AES-256.
func GenerateKeyBytes() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
