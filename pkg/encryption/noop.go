package encryption

import (
	"context"
	"fmt"
)

// NoopService stores values in plaintext. It is the fallback when no key is configured.
type NoopService struct{}

// NewNoopService creates a NoopService
func NewNoopService() *NoopService {
	return &NoopService{}
}

// Encrypt returns the plaintext unchanged
func (s *NoopService) Encrypt(ctx context.Context, plaintext string) (*EncryptedData, error) {
	return &EncryptedData{
		EncryptedValue: plaintext,
		Metadata:       newMetadata(s.Algorithm(), s.KeyID()),
	}, nil
}

// Decrypt returns the stored value unchanged
func (s *NoopService) Decrypt(ctx context.Context, encrypted *EncryptedData) (string, error) {
	if encrypted == nil {
		return "", fmt.Errorf("encrypted data is nil")
	}
	if err := checkAlgorithm(encrypted, s.Algorithm()); err != nil {
		return "", err
	}
	return encrypted.EncryptedValue, nil
}

// Algorithm returns "noop"
func (s *NoopService) Algorithm() string {
	return "noop"
}

// KeyID returns "noop"
func (s *NoopService) KeyID() string {
	return "noop"
}

func checkAlgorithm(encrypted *EncryptedData, want string) error {
	if encrypted.Metadata.Algorithm != "" && encrypted.Metadata.Algorithm != want {
		return fmt.Errorf("data was sealed with %q, cannot open with %q", encrypted.Metadata.Algorithm, want)
	}
	return nil
}

var _ Service = (*NoopService)(nil)
