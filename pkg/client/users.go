package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/safeserve/safeserve-go/pkg/allergens"
	"github.com/safeserve/safeserve-go/pkg/credentials"
)

// doJSON sends body and decodes a non-empty response into out
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, &Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}

// Register creates an account. Owners register through the owner endpoint.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	path := RegisterPath
	if req.Role == RoleOwner {
		path = RegisterOwnerPath
	}
	if err := req.Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, path, err)
	}

	var user User
	if err := c.doJSON(ctx, http.MethodPost, path, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges username and password for a credential pair and stores it
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if err := (credentialsInput{Username: username, Password: password}).Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, LoginPath, err)
	}

	body := map[string]string{"username": username, "password": password}
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, LoginPath, body, &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, &Error{
			Kind:   KindDecode,
			Method: http.MethodPost,
			Path:   LoginPath,
			Err:    fmt.Errorf("login response carried no access credential"),
		}
	}

	if err := c.store.SetTokens(ctx, credentials.Pair{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}
	return &pair, nil
}

// Logout removes the stored credentials. The backend keeps no session to end.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, MePath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateDietaryRestrictions replaces the user's restrictions
func (c *Client) UpdateDietaryRestrictions(ctx context.Context, restrictions []string) (*User, error) {
	body := map[string]string{"dietary_restrictions": allergens.Join(restrictions, nil)}
	var user User
	if err := c.doJSON(ctx, http.MethodPatch, MePath, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
