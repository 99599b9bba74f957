package utils

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDefaultHTTPClientConfig(t *testing.T) {
	config := DefaultHTTPClientConfig()

	if config.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", config.Timeout)
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{Timeout: 15 * time.Second})
	if client.Timeout != 15*time.Second {
		t.Errorf("Expected client timeout to be 15s, got %v", client.Timeout)
	}

	client = NewHTTPClient(HTTPClientConfig{})
	if client.Timeout != 30*time.Second {
		t.Errorf("Expected zero timeout to fall back to 30s, got %v", client.Timeout)
	}
}

func TestReadAndClose(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("payload"))}

	body, err := ReadAndClose(resp)
	if err != nil {
		t.Fatalf("ReadAndClose failed: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("Expected payload, got %q", body)
	}

	body, err = ReadAndClose(nil)
	if err != nil || body != nil {
		t.Errorf("Expected nil body and error for nil response, got %q, %v", body, err)
	}
}
