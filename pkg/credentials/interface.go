package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/safeserve/safeserve-go/pkg/encryption"
)

// ErrNotFound is returned when the requested credential is absent
var ErrNotFound = errors.New("credential not found")

// Pair is the access/refresh credential pair issued by the backend
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store persists the credential pair for one user profile.
// An empty field in a stored Pair is reported as ErrNotFound.
type Store interface {
	// AccessToken returns the stored access credential
	AccessToken(ctx context.Context) (string, error)

	// RefreshToken returns the stored refresh credential
	RefreshToken(ctx context.Context) (string, error)

	// Tokens returns the whole pair, ErrNotFound when nothing is stored
	Tokens(ctx context.Context) (Pair, error)

	// SetTokens replaces both credentials in a single write
	SetTokens(ctx context.Context, pair Pair) error

	// Clear removes both credentials. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}

// Config holds configuration for credential store backends
type Config struct {
	Type string `mapstructure:"type"` // "memory", "file", "s3"

	// Profile separates credential pairs of different accounts sharing a backend
	Profile string `mapstructure:"profile"`

	// File store config
	FilePath string `mapstructure:"file_path"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures the S3 backend
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// DefaultProfile is used when Config.Profile is empty
const DefaultProfile = "default"

// storedCredentials is the persisted form of a Pair in the file and S3 backends
type storedCredentials struct {
	Credentials *encryption.EncryptedData `json:"credentials"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// sanitizeProfile makes a profile name safe to use as an object key or file name.
// Names that sanitize to nothing fall back to DefaultProfile.
func sanitizeProfile(profile string) string {
	sanitized := profile
	sanitized = strings.ReplaceAll(sanitized, "/", "_")
	sanitized = strings.ReplaceAll(sanitized, "\\", "_")
	sanitized = strings.ReplaceAll(sanitized, "..", "__")
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	sanitized = strings.Trim(sanitized, ".-")

	if sanitized == "" || strings.Trim(sanitized, "_") == "" {
		return DefaultProfile
	}
	return sanitized
}

func pick(value string) (string, error) {
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}
