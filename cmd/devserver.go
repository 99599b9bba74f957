package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/safeserve/safeserve-go/internal/devserver"
	"github.com/safeserve/safeserve-go/pkg/logger"
)

var (
	devPort          string
	devRotateRefresh bool
	devAccessTTL     time.Duration
	devRefreshTTL    time.Duration
)

var DevServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory SafeServe backend",
	Long: `Run an in-memory SafeServe backend for local development.

It serves the same endpoints and token semantics as the production API.
All state is lost when the server stops.

Examples:
  safeserve dev-server --port 8000
  safeserve dev-server --access-ttl 30s --rotate-refresh`,
	Args: cobra.NoArgs,
	RunE: runDevServer,
}

func init() {
	DevServerCmd.Flags().StringVarP(&devPort, "port", "p", "8000", "Port to listen on")
	DevServerCmd.Flags().BoolVar(&devRotateRefresh, "rotate-refresh", false, "Issue a new refresh token on every refresh")
	DevServerCmd.Flags().DurationVar(&devAccessTTL, "access-ttl", 5*time.Minute, "Lifetime of access tokens")
	DevServerCmd.Flags().DurationVar(&devRefreshTTL, "refresh-ttl", 24*time.Hour, "Lifetime of refresh tokens")
}

func runDevServer(cmd *cobra.Command, args []string) error {
	level := "info"
	if verbose {
		level = "debug"
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	slogger, err := logger.New(logger.Options{Level: level, Output: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	server, err := devserver.New(devserver.Config{
		AccessTTL:     devAccessTTL,
		RefreshTTL:    devRefreshTTL,
		RotateRefresh: devRotateRefresh,
		Logger:        slogger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting SafeServe dev server on port %s", devPort)
		errCh <- server.Start(":" + devPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("Shutdown signal received, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}

	log.Printf("Server shutdown complete")
	return nil
}
