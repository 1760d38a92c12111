// ABOUTME: Development server command serving the in-memory planning backend
// ABOUTME: Lets the CLI and TUI run end to end without the real service

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/markalston/maarif-planner/internal/fakebackend"
	"github.com/markalston/maarif-planner/internal/logger"
	"github.com/spf13/cobra"
)

var (
	devAddr   string
	devSecret string
	devUser   string
	devPass   string
)

var devServerCmd = &cobra.Command{
	Use:    "dev-server",
	Short:  "Run an in-memory backend for local development",
	Hidden: true,
	Args:   cobra.NoArgs,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runDevServer(ctx, w, devAddr, devSecret, devUser, devPass)
	}),
}

func init() {
	rootCmd.AddCommand(devServerCmd)
	devServerCmd.Flags().StringVar(&devAddr, "addr", ":8001", "Listen address")
	devServerCmd.Flags().StringVar(&devSecret, "secret", "", "JWT signing secret (default: random per run)")
	devServerCmd.Flags().StringVar(&devUser, "seed-email", "", "Create this account at startup")
	devServerCmd.Flags().StringVar(&devPass, "seed-password", "password", "Password for --seed-email")
}

// runDevServer serves until ctx is cancelled and returns exit code
func runDevServer(ctx context.Context, w io.Writer, addr, secret, seedEmail, seedPassword string) int {
	logger.Init(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if secret == "" {
		secret = fakebackend.RandomSecret()
	}
	backend := fakebackend.New(secret)
	if seedEmail != "" {
		if _, _, err := backend.AddUser(fakebackend.SeedUser(seedEmail), seedPassword); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(w, "Serving the in-memory backend on %s\n", addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	slog.Info("dev server stopped")
	return 0
}
