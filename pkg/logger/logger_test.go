package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Info("request completed", slog.String("path", "/api/users/me/"), slog.Int("status", 200))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "/api/users/me/", entry["path"])
	assert.Equal(t, float64(200), entry["status"])

	buf.Reset()
	log, err = New(Options{Output: &buf})
	require.NoError(t, err)
	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")

	_, err = New(Options{Level: "verbose"})
	assert.Error(t, err)
}

func TestNew_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Debug("login",
		slog.String("access", "eyJhbGciOiJIUzI1NiJ9.payload.signature"),
		slog.String("Password", "hunter2"),
		slog.String("username", "alice"))

	out := buf.String()
	assert.NotContains(t, out, "payload.signature")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "eyJh...[REDACTED]")
	assert.Contains(t, out, "alice")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "", RedactToken(""))
	assert.Equal(t, "[REDACTED]", RedactToken("a1"))
	assert.Equal(t, "[REDACTED]", RedactToken("Bearer a1"))
	assert.Equal(t, "eyJh...[REDACTED]", RedactToken("Bearer eyJhbGciOiJIUzI1NiJ9"))
}

func TestNew_RedactsEmail(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Info("account registered", slog.String("username", "alice"), slog.String("Email", "alice@example.com"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "al***@example.com", entry["Email"])
	assert.Equal(t, "alice", entry["username"])
	assert.NotContains(t, buf.String(), "alice@example.com")
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"foobar@example.com", "fo***@example.com"},
		{"ab@ex.com", "***@ex.com"},
		{"no-at", "***"},
		{"a@b@c", "***"},
		{"", "***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactEmail(tt.input), tt.input)
	}
}
