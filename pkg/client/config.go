package client

import (
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultBaseURL   = "http://127.0.0.1:8000"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "safeserve-go"
)

// Config holds the client configuration
type Config struct {
	// BaseURL is the backend origin, e.g. https://api.safeserve.app
	BaseURL string
	// RefreshPath is the endpoint exchanging a refresh credential for a new pair
	RefreshPath string
	// Timeout bounds each send when the default transport is used
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns a configuration pointing at a local backend
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		RefreshPath: RefreshPath,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.RefreshPath == "" {
		c.RefreshPath = defaults.RefreshPath
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	return c
}
