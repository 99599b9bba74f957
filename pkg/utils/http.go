package utils

import (
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClientConfig holds configuration for HTTP client creation
type HTTPClientConfig struct {
	Timeout time.Duration
}

// DefaultHTTPClientConfig returns default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout: 30 * time.Second,
	}
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig) *http.Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultHTTPClientConfig().Timeout
	}
	return &http.Client{
		Timeout: config.Timeout,
	}
}

// ReadAndClose reads the whole response body and closes it
func ReadAndClose(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		slog.Warn("failed to close response body", slog.String("error", closeErr.Error()))
	}
	return body, err
}
