// Package devserver implements an in-memory SafeServe backend. It serves the
// same endpoints and token semantics as the production API and is used by
// `safeserve dev-server` and by integration tests.
package devserver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/safeserve/safeserve-go/pkg/client"
)

// Config configures the dev server
type Config struct {
	// AccessTTL defaults to 5 minutes
	AccessTTL time.Duration
	// RefreshTTL defaults to 24 hours
	RefreshTTL time.Duration
	// RotateRefresh issues a new refresh token on every refresh and invalidates the old one
	RotateRefresh bool
	// Secret signs tokens; a random one is generated when empty
	Secret []byte
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
	Logger     *slog.Logger
}

// Server is the dev backend
type Server struct {
	echo     *echo.Echo
	config   Config
	tokens   *tokenIssuer
	data     *memoryStore
	logger   *slog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec

	countMu sync.Mutex
	counts  map[string]int
}

// New creates a dev server with empty state
func New(cfg Config) (*Server, error) {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 5 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("failed to generate signing secret: %w", err)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		echo:     echo.New(),
		config:   cfg,
		tokens:   newTokenIssuer(cfg.Secret, cfg.AccessTTL, cfg.RefreshTTL),
		data:     newMemoryStore(cfg.BcryptCost),
		logger:   cfg.Logger,
		registry: prometheus.NewRegistry(),
		counts:   make(map[string]int),
	}

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safeserve",
		Subsystem: "devserver",
		Name:      "requests_total",
		Help:      "Requests handled by the dev server.",
	}, []string{"method", "route", "code"})
	if err := s.registry.Register(s.requests); err != nil {
		return nil, fmt.Errorf("failed to register dev server metrics: %w", err)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger.SetOutput(io.Discard)
	s.echo.HTTPErrorHandler = s.handleError

	s.echo.Use(middleware.Recover())
	s.echo.Use(s.countRequests)
	s.echo.Use(s.authenticate)

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	e := s.echo

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	e.POST(client.RegisterPath, s.register)
	e.POST(client.RegisterOwnerPath, s.registerOwner)
	e.POST(client.LoginPath, s.obtainToken)
	e.POST(client.RefreshPath, s.refreshToken)
	e.GET(client.MePath, s.getMe)
	e.PATCH(client.MePath, s.updateMe)

	e.GET(client.RestaurantsPath, s.listRestaurants)
	e.POST(client.RestaurantsPath, s.createRestaurant)
	e.GET(client.RestaurantsPath+":id/", s.getRestaurant)
	e.GET(client.RestaurantsPath+":id/generate-qr/", s.generateQR)
	e.GET(client.RestaurantsPath+":id/categories/", s.listCategories)
	e.POST(client.RestaurantsPath+":id/categories/", s.createCategory)
	e.GET(client.RestaurantsPath+":id/menu/", s.listMenuItems)
	e.POST(client.RestaurantsPath+":id/menu/", s.createMenuItem)
	e.PUT(client.RestaurantsPath+":id/menu/:item/", s.updateMenuItem)
	e.DELETE(client.RestaurantsPath+":id/menu/:item/", s.deleteMenuItem)
}

// ServeHTTP makes the server usable with httptest.NewServer
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("dev server listening", slog.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener started by Start
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ExpireAccessTokens invalidates every access token issued so far
func (s *Server) ExpireAccessTokens() {
	s.tokens.expireAccess()
}

// RevokeRefreshTokens invalidates every refresh token issued so far
func (s *Server) RevokeRefreshTokens() {
	s.tokens.revokeRefresh()
}

// RequestCount returns how many requests hit method and path
func (s *Server) RequestCount(method, path string) int {
	s.countMu.Lock()
	defer s.countMu.Unlock()
	return s.counts[method+" "+path]
}

func (s *Server) countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.countMu.Lock()
		s.counts[req.Method+" "+req.URL.Path]++
		s.countMu.Unlock()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		s.requests.WithLabelValues(req.Method, c.Path(), strconv.Itoa(status)).Inc()
		s.logger.Debug("dev server request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", status))
		return nil
	}
}

// handleError renders errors the way the production API does: {"detail": "..."}
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var body any = map[string]string{"detail": "A server error occurred."}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case string:
			body = map[string]string{"detail": msg}
		case map[string]any, map[string][]string:
			body = msg
		default:
			body = map[string]string{"detail": http.StatusText(status)}
		}
	} else {
		s.logger.Error("dev server handler failed", slog.String("error", err.Error()))
	}

	if err := c.JSON(status, body); err != nil {
		s.logger.Error("failed to write error response", slog.String("error", err.Error()))
	}
}
