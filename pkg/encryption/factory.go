package encryption

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Config selects and configures an encryption Service
type Config struct {
	KMSKeyID  string `mapstructure:"kms_key_id"`
	KMSRegion string `mapstructure:"kms_region"`
	KeyFile   string `mapstructure:"key_file"`
	KeyEnvVar string `mapstructure:"key_env"`
}

// NewService picks an implementation in order KMS, local, noop.
// A KMS key that cannot be used falls through to the next option.
func NewService(ctx context.Context, cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.KMSKeyID != "" && cfg.KMSRegion != "" {
		service, err := NewKMSService(ctx, cfg.KMSKeyID, cfg.KMSRegion)
		if err == nil {
			if err = probe(ctx, service); err == nil {
				logger.Info("using AWS KMS encryption for credentials",
					slog.String("key_id", cfg.KMSKeyID), slog.String("region", cfg.KMSRegion))
				return service
			}
		}
		logger.Warn("KMS unavailable, falling back", slog.String("error", err.Error()))
	}

	keyEnvVar := cfg.KeyEnvVar
	if keyEnvVar == "" {
		keyEnvVar = DefaultKeyEnvVar
	}
	if cfg.KeyFile != "" || os.Getenv(keyEnvVar) != "" {
		service, err := NewLocalService(cfg.KeyFile, keyEnvVar)
		if err == nil {
			logger.Info("using local AES-256-GCM encryption for credentials", slog.String("key_id", service.KeyID()))
			return service
		}
		logger.Warn("failed to create local encryption service", slog.String("error", err.Error()))
	}

	logger.Debug("no encryption configured, credentials are stored in plaintext")
	return NewNoopService()
}

func probe(ctx context.Context, service Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := service.Encrypt(ctx, "probe")
	return err
}
