// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/docmind/docmind-tui/internal/mockapi"
)

func newMockServerCommand(r *runtime) *cobra.Command {
	var (
		addr      string
		secret    string
		rateLimit float64
		burst     int
		seedUser  string
		tokenTTL  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local DocMind API for development",
		Long: `mock-server serves /signup, /login, /upload and /chat in memory so the
client can be tried without the real backend. Answers quote the uploaded
document names back.`,
		Example: `  docmind mock-server
  docmind mock-server --addr 127.0.0.1:9000 --seed-user "Ada Lovelace:ada@example.com:secret"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := mockapi.New(mockapi.Options{
				Secret:    []byte(secret),
				TokenTTL:  tokenTTL,
				Logger:    r.log,
				RateLimit: rate.Limit(max(rateLimit, 0)),
				Burst:     burst,
			})
			if seedUser != "" {
				name, email, password, err := parseSeedUser(seedUser)
				if err != nil {
					return err
				}
				if err := srv.AddAccount(name, email, password); err != nil {
					return NewCommandError("mock-server", "could not add seed user", err)
				}
			}
			return serveUntilDone(cmd.Context(), r, srv, addr)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", mockapi.DefaultAddr, "listen address")
	flags.StringVar(&secret, "secret", "", "JWT signing secret (random when empty)")
	flags.Float64Var(&rateLimit, "rate-limit", 20, "requests per second per client, 0 disables")
	flags.IntVar(&burst, "burst", 40, "rate limit burst")
	flags.StringVar(&seedUser, "seed-user", "", `account to create at start, "name:email:password"`)
	flags.DurationVar(&tokenTTL, "token-ttl", mockapi.DefaultTokenTTL, "access token lifetime")
	return cmd
}

func serveUntilDone(ctx context.Context, r *runtime, srv *mockapi.Server, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()

	base := "http://" + addr + mockapi.Prefix
	fmt.Fprintln(r.stdout, RenderSuccess("Mock DocMind API listening on "+base))
	fmt.Fprintln(r.stdout, DimStyle.Render("Point the client at it with --api-url "+base+" and press Ctrl+C to stop."))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.log.Warn("mock server shutdown", zap.Error(err))
		return err
	}
	return nil
}

// parseSeedUser splits "name:email:password". The password may contain colons.
func parseSeedUser(s string) (name, email, password string, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", &usageError{msg: `--seed-user must be "name:email:password"`}
	}
	return parts[0], parts[1], parts[2], nil
}
