// Package logger builds the slog loggers used by the client, the stores and
// the dev server, and keeps credentials out of log output.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New
type Options struct {
	// Level is one of debug, info, warn, error
	Level string
	// Format is text or json
	Format string
	// Output defaults to os.Stderr
	Output io.Writer
}

// sensitiveKeys are attribute keys whose values are always redacted
var sensitiveKeys = map[string]bool{
	"access":        true,
	"refresh":       true,
	"token":         true,
	"password":      true,
	"authorization": true,
	"secret_key":    true,
}

// New creates a logger with credential redaction installed
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog.Level; empty means info
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func redactAttr(groups []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return slog.String(a.Key, RedactToken(a.Value.String()))
	}
	if key == "email" {
		return slog.String(a.Key, RedactEmail(a.Value.String()))
	}
	return a
}

// RedactToken hides a credential, keeping only its first four characters
// when it is long enough for that to be safe
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	token = strings.TrimPrefix(token, "Bearer ")
	if len(token) <= 12 {
		return "[REDACTED]"
	}
	return token[:4] + "...[REDACTED]"
}

// RedactEmail masks the local part of an address, keeping the domain.
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func RedactEmail(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	runes := []rune(local)
	if len(runes) > 2 {
		local = string(runes[:2]) + "***"
	} else {
		local = "***"
	}
	return local + "@" + domain
}
