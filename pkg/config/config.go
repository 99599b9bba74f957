// Package config loads safeserve client configuration from flags, environment,
// an optional config file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/safeserve/safeserve-go/pkg/client"
	"github.com/safeserve/safeserve-go/pkg/credentials"
	"github.com/safeserve/safeserve-go/pkg/encryption"
)

// EnvPrefix prefixes every environment variable, e.g. SAFESERVE_BASE_URL
const EnvPrefix = "SAFESERVE"

// Output formats accepted by the CLI
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// RateLimitConfig limits outgoing requests. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// LogConfig selects the log level and handler format
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config represents the client configuration
type Config struct {
	BaseURL    string             `mapstructure:"base_url"`
	Timeout    time.Duration      `mapstructure:"timeout"`
	RequestIDs bool               `mapstructure:"request_ids"`
	RateLimit  RateLimitConfig    `mapstructure:"rate_limit"`
	Log        LogConfig          `mapstructure:"log"`
	Store      credentials.Config `mapstructure:"store"`
	Encryption encryption.Config  `mapstructure:"encryption"`
	Output     string             `mapstructure:"output"`
}

// DefaultDir returns $HOME/.safeserve, or .safeserve when the home directory is unknown
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".safeserve"
	}
	return filepath.Join(home, ".safeserve")
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: client.DefaultBaseURL,
		Timeout: client.DefaultTimeout,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Store: credentials.Config{
			Type:     "file",
			Profile:  credentials.DefaultProfile,
			FilePath: filepath.Join(DefaultDir(), "credentials.json"),
		},
		Output: OutputTable,
	}
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for all of them
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("request_ids", d.RequestIDs)
	v.SetDefault("rate_limit.rps", d.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.profile", d.Store.Profile)
	v.SetDefault("store.file_path", d.Store.FilePath)
	v.SetDefault("store.s3.bucket", "")
	v.SetDefault("store.s3.region", "")
	v.SetDefault("store.s3.prefix", "")
	v.SetDefault("store.s3.endpoint", "")
	v.SetDefault("store.s3.access_key", "")
	v.SetDefault("store.s3.secret_key", "")
	v.SetDefault("encryption.kms_key_id", "")
	v.SetDefault("encryption.kms_region", "")
	v.SetDefault("encryption.key_file", "")
	v.SetDefault("encryption.key_env", "")
	v.SetDefault("output", d.Output)
}

// Load reads configuration into a Config.
// configFile may be empty, in which case config.{yaml,json,toml} is looked up
// in DefaultDir and a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	loadDotEnv()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check while decoding
func (c *Config) Validate() error {
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format %q: must be one of table, json, yaml", c.Output)
	}
	switch c.Store.Type {
	case "memory", "file", "s3":
	default:
		return fmt.Errorf("invalid store type %q: must be one of memory, file, s3", c.Store.Type)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	return nil
}

// ClientConfig returns the part of the configuration the API client consumes
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.Timeout
	return cfg
}

// loadDotEnv loads the nearest .env file walking up from the working directory.
// Variables already present in the environment win.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
