package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

// DefaultKeyEnvVar holds a base64 encoded 32 byte key when no key file is configured
const DefaultKeyEnvVar = "SAFESERVE_ENCRYPTION_KEY"

// LocalService seals values with AES-256-GCM using a locally held key
type LocalService struct {
	key            []byte
	keyFingerprint string
}

// NewLocalService creates a LocalService.
// The key is read from keyPath when set, otherwise from the keyEnvVar environment
// variable (DefaultKeyEnvVar when empty) as base64.
func NewLocalService(keyPath, keyEnvVar string) (*LocalService, error) {
	if keyEnvVar == "" {
		keyEnvVar = DefaultKeyEnvVar
	}

	var key []byte
	var err error

	if keyPath != "" {
		key, err = os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read encryption key from file: %w", err)
		}
	} else {
		keyB64 := os.Getenv(keyEnvVar)
		if keyB64 == "" {
			return nil, fmt.Errorf("encryption key not found: neither key file nor %s is set", keyEnvVar)
		}
		key, err = base64.StdEncoding.DecodeString(keyB64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encryption key: %w", err)
		}
	}

	return NewLocalServiceFromKey(key)
}

// NewLocalServiceFromKey creates a LocalService from raw key bytes
func NewLocalServiceFromKey(key []byte) (*LocalService, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(key))
	}

	hash := sha256.Sum256(key)
	return &LocalService{
		key:            append([]byte(nil), key...),
		keyFingerprint: fmt.Sprintf("sha256:%x", hash[:8]),
	}, nil
}

// Encrypt seals plaintext, prefixing the ciphertext with its nonce
func (s *LocalService) Encrypt(ctx context.Context, plaintext string) (*EncryptedData, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return &EncryptedData{
		EncryptedValue: base64.StdEncoding.EncodeToString(ciphertext),
		Metadata:       newMetadata(s.Algorithm(), s.keyFingerprint),
	}, nil
}

// Decrypt opens data sealed by Encrypt with the same key
func (s *LocalService) Decrypt(ctx context.Context, encrypted *EncryptedData) (string, error) {
	if encrypted == nil {
		return "", fmt.Errorf("encrypted data is nil")
	}
	if err := checkAlgorithm(encrypted, s.Algorithm()); err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted.EncryptedValue)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short: %d bytes, expected at least %d bytes", len(ciphertext), nonceSize)
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

func (s *LocalService) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Algorithm returns "aes-256-gcm"
func (s *LocalService) Algorithm() string {
	return "aes-256-gcm"
}

// KeyID returns the key fingerprint
func (s *LocalService) KeyID() string {
	return s.keyFingerprint
}

var _ Service = (*LocalService)(nil)
