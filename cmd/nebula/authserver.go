package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/internal/authtest"
)

var (
	authServerAddr   string
	authServerSecret string
	authServerTTL    time.Duration
	authServerSeed   []string
)

var authServerCmd = &cobra.Command{
	Use:   "authserver",
	Short: "Run a local auth API for development",
	Long: `authserver serves /auth/login, /auth/register, /auth/logout and /me
with bcrypt-hashed accounts kept in memory and HS256 access tokens.
Seed accounts with --user "Name:email:password".`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := authServerAddr
		if addr == "" {
			addr = cfg.AuthAddr
		}

		opts := []authtest.Option{authtest.WithTokenTTL(authServerTTL)}
		if authServerSecret != "" {
			opts = append(opts, authtest.WithSecret([]byte(authServerSecret)))
		}
		api := authtest.NewAPI(opts...)

		for _, seed := range authServerSeed {
			parts := strings.SplitN(seed, ":", 3)
			if len(parts) != 3 {
				fatal("Invalid --user", fmt.Errorf("%q is not Name:email:password", seed))
			}
			if _, err := api.AddUser(parts[0], parts[1], parts[2]); err != nil {
				fatal("Failed to seed user", err)
			}
			slog.Info("seeded user", "email", parts[1])
		}

		srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}
		done := make(chan struct{})
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer close(done)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, lifecycle.WithErrorHandler(func(err error) {
			slog.Error("auth server stopped", "error", err)
			stop()
		}))

		fmt.Fprintf(os.Stderr, "Auth API listening on http://%s\n", addr)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
		<-done
		slog.Info("auth server stopped", "requests", api.Requests())
	},
}

func init() {
	rootCmd.AddCommand(authServerCmd)
	authServerCmd.Flags().StringVar(&authServerAddr, "addr", "", "Listen address (default from config)")
	authServerCmd.Flags().StringVar(&authServerSecret, "secret", "", "JWT signing secret")
	authServerCmd.Flags().DurationVar(&authServerTTL, "ttl", time.Hour, "Access token lifetime")
	authServerCmd.Flags().StringArrayVar(&authServerSeed, "user", nil, "Seed account as Name:email:password (repeatable)")
}
