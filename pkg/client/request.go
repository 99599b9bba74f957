package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one logical API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is sent raw when it is a []byte and JSON encoded otherwise
	Body   any
	Header http.Header
}

// Response is a fully read backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	method string
	path   string
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{
			Kind:       KindDecode,
			StatusCode: r.StatusCode,
			Body:       r.Body,
			Method:     r.method,
			Path:       r.path,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// attempt carries one logical request through outbound, send and inbound.
// It is created per Do call and never shared between calls.
type attempt struct {
	req            *Request
	method         string
	classification Classification
	payload        []byte
	contentType    string
	// retried is set once the refresh cycle has run for this call
	retried bool
}

func newAttempt(req *Request) (*attempt, error) {
	if req == nil {
		return nil, &Error{Kind: KindInvalidInput, Err: fmt.Errorf("request is nil")}
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(req.Path, "/") {
		return nil, &Error{
			Kind:   KindInvalidInput,
			Method: method,
			Path:   req.Path,
			Err:    fmt.Errorf("path must start with /"),
		}
	}

	at := &attempt{
		req:            req,
		method:         method,
		classification: Classify(method, req.Path),
	}

	switch body := req.Body.(type) {
	case nil:
	case []byte:
		at.payload = body
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{
				Kind:   KindInvalidInput,
				Method: method,
				Path:   req.Path,
				Err:    fmt.Errorf("failed to marshal request: %w", err),
			}
		}
		at.payload = data
		at.contentType = "application/json"
	}

	return at, nil
}
