package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures surfaced by the client
type Kind int

const (
	// KindNetwork means no response was received
	KindNetwork Kind = iota + 1
	// KindAuthExpired means the session ended and the user must log in again
	KindAuthExpired
	// KindClient is a 4xx response other than an unrecoverable 401
	KindClient
	// KindServer is a 5xx response
	KindServer
	// KindDecode means a successful response body could not be decoded
	KindDecode
	// KindInvalidInput means the request was rejected before being sent
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthExpired:
		return "auth_expired"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// ErrAuthExpired matches every KindAuthExpired error through errors.Is
var ErrAuthExpired = errors.New("authentication expired")

// Error is returned by every Client operation that fails
type Error struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Method     string
	Path       string
	Err        error
}

func (e *Error) Error() string {
	target := e.Method + " " + e.Path
	switch e.Kind {
	case KindAuthExpired:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", target, ErrAuthExpired, e.Err)
		}
		return fmt.Sprintf("%s: %s", target, ErrAuthExpired)
	case KindClient, KindServer:
		if detail := e.Detail(); detail != "" {
			return fmt.Sprintf("%s: server returned status %d: %s", target, e.StatusCode, detail)
		}
		return fmt.Sprintf("%s: server returned status %d", target, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s error: %v", target, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports KindAuthExpired errors as ErrAuthExpired
func (e *Error) Is(target error) bool {
	return target == ErrAuthExpired && e.Kind == KindAuthExpired
}

// Detail extracts the backend's error message from the body.
// It understands {"detail": "..."} and field error maps, falling back to the raw body.
func (e *Error) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		const maxDetail = 200
		if len(e.Body) > maxDetail {
			return string(e.Body[:maxDetail]) + "..."
		}
		return string(e.Body)
	}
	if detail, ok := payload["detail"].(string); ok {
		return detail
	}
	return string(e.Body)
}

// IsAuthExpired reports whether err means the session ended
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsNetwork reports whether err is a transport failure
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNetwork
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func statusError(method, path string, resp *Response) *Error {
	kind := KindClient
	if resp.StatusCode >= http.StatusInternalServerError {
		kind = KindServer
	}
	return &Error{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Method:     method,
		Path:       path,
	}
}
