package devserver

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errTokenInvalid = errors.New("token is invalid or expired")

// tokenClaims mirrors the claims of a SimpleJWT token pair
type tokenClaims struct {
	Type string `json:"token_type"`
	// Generation ties the token to the issuer state; bumping it revokes older tokens
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

// tokenIssuer mints and verifies HS256 access and refresh tokens
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu                sync.Mutex
	accessGeneration  int
	refreshGeneration int
	// used holds the ids of rotated refresh tokens
	used map[string]bool
}

func newTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		used:       make(map[string]bool),
	}
}

func (ti *tokenIssuer) issue(userID int64, tokenType string) (string, error) {
	ti.mu.Lock()
	ttl, generation := ti.accessTTL, ti.accessGeneration
	if tokenType == tokenTypeRefresh {
		ttl, generation = ti.refreshTTL, ti.refreshGeneration
	}
	ti.mu.Unlock()

	now := time.Now()
	claims := tokenClaims{
		Type:       tokenType,
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (ti *tokenIssuer) issuePair(userID int64) (access, refresh string, err error) {
	if access, err = ti.issue(userID, tokenTypeAccess); err != nil {
		return "", "", err
	}
	if refresh, err = ti.issue(userID, tokenTypeRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// verify parses a token of the wanted type and returns its claims
func (ti *tokenIssuer) verify(tokenString, wantType string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errTokenInvalid
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Type != wantType {
		return nil, errTokenInvalid
	}

	ti.mu.Lock()
	defer ti.mu.Unlock()
	current := ti.accessGeneration
	if wantType == tokenTypeRefresh {
		current = ti.refreshGeneration
	}
	if claims.Generation != current || ti.used[claims.ID] {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func (ti *tokenIssuer) markUsed(id string) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.used[id] = true
}

func (ti *tokenIssuer) expireAccess() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.accessGeneration++
}

func (ti *tokenIssuer) revokeRefresh() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.refreshGeneration++
}

func subjectID(claims *tokenClaims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errTokenInvalid
	}
	return id, nil
}
