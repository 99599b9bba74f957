package credentials

import (
	"context"
	"fmt"

	"github.com/safeserve/safeserve-go/pkg/encryption"
)

// NewStore creates a credential store based on the configuration
func NewStore(ctx context.Context, cfg Config, enc encryption.Service) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil

	case "file":
		return NewFileStore(cfg.FilePath, cfg.Profile, enc)

	case "s3":
		return NewS3Store(ctx, cfg.S3, cfg.Profile, enc)

	default:
		return nil, fmt.Errorf("unknown credential store type: %s", cfg.Type)
	}
}
