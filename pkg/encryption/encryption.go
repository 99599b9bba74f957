package encryption

import (
	"context"
	"time"
)

// Service seals and opens values that are persisted outside the process,
// such as the credential pair kept by the file and S3 stores.
type Service interface {
	// Encrypt seals plaintext
	Encrypt(ctx context.Context, plaintext string) (*EncryptedData, error)

	// Decrypt opens data sealed by the same algorithm
	Decrypt(ctx context.Context, encrypted *EncryptedData) (string, error)

	// Algorithm returns the algorithm name
	Algorithm() string

	// KeyID returns an identifier for the key in use
	KeyID() string
}

// EncryptedData holds a sealed value together with its metadata
type EncryptedData struct {
	EncryptedValue string   `json:"encrypted_value"`
	Metadata       Metadata `json:"metadata"`
}

// Metadata describes how a value was sealed
type Metadata struct {
	Algorithm   string    `json:"algorithm"` // "noop", "aws-kms", "aes-256-gcm"
	KeyID       string    `json:"key_id"`
	EncryptedAt time.Time `json:"encrypted_at"`
	Version     string    `json:"version"`
}

const metadataVersion = "v1"

func newMetadata(algorithm, keyID string) Metadata {
	return Metadata{
		Algorithm:   algorithm,
		KeyID:       keyID,
		EncryptedAt: time.Now().UTC(),
		Version:     metadataVersion,
	}
}
