package devserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/safeserve/safeserve-go/pkg/client"
)

const userContextKey = "safeserve_user"

// authenticate enforces bearer authentication on every protected endpoint.
// Public endpoints ignore any Authorization header.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		path := req.URL.Path
		if path == "/health" || path == "/metrics" || client.Classify(req.Method, path) == client.Public {
			return next(c)
		}

		header := req.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		claims, err := s.tokens.verify(strings.TrimPrefix(header, "Bearer "), tokenTypeAccess)
		if err != nil {
			return tokenNotValid()
		}
		id, err := subjectID(claims)
		if err != nil {
			return tokenNotValid()
		}
		u, err := s.data.user(id)
		if err != nil {
			return tokenNotValid()
		}

		c.Set(userContextKey, u)
		return next(c)
	}
}

func tokenNotValid() error {
	return echo.NewHTTPError(http.StatusUnauthorized, map[string]any{
		"detail": "Given token not valid for any token type",
		"code":   "token_not_valid",
	})
}

// currentUser returns the user set by authenticate
func currentUser(c echo.Context) *user {
	if u, ok := c.Get(userContextKey).(*user); ok {
		return u
	}
	return nil
}
