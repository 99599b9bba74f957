package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/safeserve/safeserve-go/pkg/credentials"
	"github.com/safeserve/safeserve-go/pkg/utils"
)

// HTTPDoer sends a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the SafeServe API client.
// It attaches the stored access credential to protected requests and runs at
// most one refresh-and-retry cycle per call when the backend answers 401.
// A Client is safe for concurrent use; concurrent calls refresh independently.
type Client struct {
	baseURL     string
	refreshPath string
	userAgent   string
	httpClient  HTTPDoer
	store       credentials.Store
	logger      *slog.Logger
	limiter     *rate.Limiter
	registerer  prometheus.Registerer
	metrics     *metrics
	requestIDs  bool
}

// New creates a client backed by the given credential store
func New(cfg Config, store credentials.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	cfg = cfg.withDefaults()
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	c := &Client{
		baseURL:     cfg.BaseURL,
		refreshPath: cfg.RefreshPath,
		userAgent:   cfg.UserAgent,
		httpClient:  utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: cfg.Timeout}),
		store:       store,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registerer != nil {
		m, err := newMetrics(c.registerer)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}

	return c, nil
}

// Store returns the credential store the client reads and writes
func (c *Client) Store() credentials.Store {
	return c.store
}

// BaseURL returns the backend origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and returns the response when the backend answers 2xx.
// Failures are returned as *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	at, err := newAttempt(req)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, at)
}

// roundTrip runs the full pipeline once. The refresh cycle re-enters it.
func (c *Client) roundTrip(ctx context.Context, at *attempt) (*Response, error) {
	httpReq, err := c.outbound(ctx, at)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, httpReq, at.classification)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Method: at.method, Path: at.req.Path, Err: err}
	}

	return c.inbound(ctx, at, resp)
}

// outbound builds the wire request and applies the authorization rule
func (c *Client) outbound(ctx context.Context, at *attempt) (*http.Request, error) {
	target := c.baseURL + at.req.Path
	if len(at.req.Query) > 0 {
		target += "?" + at.req.Query.Encode()
	}

	var body io.Reader
	if at.payload != nil {
		body = bytes.NewReader(at.payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, at.method, target, body)
	if err != nil {
		return nil, &Error{
			Kind:   KindInvalidInput,
			Method: at.method,
			Path:   at.req.Path,
			Err:    fmt.Errorf("failed to create request: %w", err),
		}
	}

	// Add canonicalizes keys, so the Del below also catches "authorization"
	for key, values := range at.req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if at.contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", at.contentType)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	// Callers never decide authorization
	httpReq.Header.Del("Authorization")

	if at.classification == Protected {
		access, err := c.store.AccessToken(ctx)
		switch {
		case err == nil:
			httpReq.Header.Set("Authorization", "Bearer "+access)
		case errors.Is(err, credentials.ErrNotFound):
			c.logger.Debug("no access credential stored, sending without authorization",
				slog.String("method", at.method), slog.String("path", at.req.Path))
		default:
			c.logger.Warn("failed to read access credential, sending without authorization",
				slog.String("method", at.method), slog.String("path", at.req.Path),
				slog.String("error", err.Error()))
		}
	}

	return httpReq, nil
}

// send performs one wire exchange and reads the whole body
func (c *Client) send(ctx context.Context, httpReq *http.Request, classification Classification) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	requestID := ""
	if c.requestIDs {
		requestID = uuid.NewString()
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observeRequest(httpReq.Method, classification, "error", elapsed)
		c.logger.Debug("request failed",
			slog.String("method", httpReq.Method),
			slog.String("path", httpReq.URL.Path),
			slog.String("classification", classification.String()),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	body, err := utils.ReadAndClose(httpResp)
	if err != nil {
		c.metrics.observeRequest(httpReq.Method, classification, "error", elapsed)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.metrics.observeRequest(httpReq.Method, classification, strconv.Itoa(httpResp.StatusCode), elapsed)
	c.logger.Debug("request completed",
		slog.String("method", httpReq.Method),
		slog.String("path", httpReq.URL.Path),
		slog.String("classification", classification.String()),
		slog.Int("status", httpResp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("elapsed", elapsed))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		method:     httpReq.Method,
		path:       httpReq.URL.Path,
	}, nil
}

// inbound passes 2xx through and turns the first 401 of a call into a refresh cycle
func (c *Client) inbound(ctx context.Context, at *attempt, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return nil, statusError(at.method, at.req.Path, resp)
	}

	if at.retried {
		c.logger.Info("retried request rejected again, session expired",
			slog.String("method", at.method), slog.String("path", at.req.Path))
		return nil, c.authExpired(at, resp, nil)
	}
	at.retried = true

	if err := c.refresh(ctx); err != nil {
		var cancelled *cancelledError
		if errors.As(err, &cancelled) {
			return nil, &Error{Kind: KindNetwork, Method: at.method, Path: at.req.Path, Err: cancelled.err}
		}
		return nil, c.authExpired(at, resp, err)
	}

	return c.roundTrip(ctx, at)
}

func (c *Client) authExpired(at *attempt, resp *Response, cause error) *Error {
	return &Error{
		Kind:       KindAuthExpired,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Method:     at.method,
		Path:       at.req.Path,
		Err:        cause,
	}
}

// cancelledError marks a refresh abandoned because the caller's context ended
type cancelledError struct {
	err error
}

func (e *cancelledError) Error() string {
	return e.err.Error()
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refresh exchanges the stored refresh credential for a new pair.
// Every failure clears the store, except the caller's context ending.
func (c *Client) refresh(ctx context.Context) error {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			c.metrics.observeRefresh(refreshMissingRefresh)
			c.logger.Info("no refresh credential stored, session expired")
			c.clearStore(ctx)
			return fmt.Errorf("no refresh credential stored")
		}
		return c.refreshFailed(ctx, fmt.Errorf("failed to read refresh credential: %w", err))
	}

	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return c.refreshFailed(ctx, fmt.Errorf("failed to marshal refresh request: %w", err))
	}

	// The refresh call skips outbound interception and never carries a credential
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.refreshPath, bytes.NewReader(payload))
	if err != nil {
		return c.refreshFailed(ctx, fmt.Errorf("failed to create refresh request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.send(ctx, httpReq, Public)
	if err != nil {
		if ctx.Err() != nil {
			return &cancelledError{err: err}
		}
		return c.refreshFailed(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.refreshFailed(ctx, fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode))
	}

	var issued refreshResponse
	if err := json.Unmarshal(resp.Body, &issued); err != nil {
		return c.refreshFailed(ctx, fmt.Errorf("failed to decode refresh response: %w", err))
	}
	if issued.Access == "" {
		return c.refreshFailed(ctx, fmt.Errorf("refresh response carried no access credential"))
	}

	// Keep the current refresh credential unless the backend rotated it
	pair := credentials.Pair{Access: issued.Access, Refresh: refreshToken}
	if issued.Refresh != "" {
		pair.Refresh = issued.Refresh
	}
	if err := c.store.SetTokens(ctx, pair); err != nil {
		return c.refreshFailed(ctx, fmt.Errorf("failed to store refreshed credentials: %w", err))
	}

	c.metrics.observeRefresh(refreshSuccess)
	c.logger.Debug("credentials refreshed", slog.Bool("rotated", issued.Refresh != ""))
	return nil
}

func (c *Client) refreshFailed(ctx context.Context, err error) error {
	c.metrics.observeRefresh(refreshFailed)
	c.logger.Warn("credential refresh failed, clearing credentials", slog.String("error", err.Error()))
	c.clearStore(ctx)
	return err
}

func (c *Client) clearStore(ctx context.Context) {
	// The caller's context may already be done; clearing must still happen
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("failed to clear credentials", slog.String("error", err.Error()))
	}
}
