package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/safeserve/safeserve-go/pkg/encryption"
)

func seal(ctx context.Context, enc encryption.Service, pair Pair) (*storedCredentials, error) {
	data, err := json.Marshal(pair)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}
	sealed, err := enc.Encrypt(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return &storedCredentials{Credentials: sealed, UpdatedAt: time.Now().UTC()}, nil
}

func unseal(ctx context.Context, enc encryption.Service, stored *storedCredentials) (Pair, error) {
	if stored == nil || stored.Credentials == nil {
		return Pair{}, ErrNotFound
	}
	plaintext, err := enc.Decrypt(ctx, stored.Credentials)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	var pair Pair
	if err := json.Unmarshal([]byte(plaintext), &pair); err != nil {
		return Pair{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if pair.Access == "" && pair.Refresh == "" {
		return Pair{}, ErrNotFound
	}
	return pair, nil
}
