// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
)

// whoami is the --json payload of whoami, login and signup.
type whoami struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func whoamiOf(s auth.Session) whoami {
	w := whoami{Name: s.Profile.Name, Email: s.Profile.Email}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		w.ExpiresAt = &exp
	}
	return w
}

// =============================================================================
// LOGIN / SIGNUP
// =============================================================================

func newLoginCommand(r *runtime) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Example: `  docmind login
  docmind login --email ada@example.com
  printf 'secret\n' | docmind login --email ada@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(r.stdin, r.stderr)
			email, password, err := credentials(p, email)
			if err != nil {
				return err
			}
			if err := r.openSession(); err != nil {
				return err
			}
			res, err := r.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return r.startSession(res, email, "", "login")
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newSignupCommand(r *runtime) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(r.stdin, r.stderr)
			if name == "" {
				var err error
				if name, err = p.Line("Name: "); err != nil {
					return err
				}
			}
			if strings.TrimSpace(name) == "" {
				return &usageError{msg: "name is required"}
			}
			email, password, err := credentials(p, email)
			if err != nil {
				return err
			}
			if err := r.openSession(); err != nil {
				return err
			}
			res, err := r.client.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			return r.startSession(res, email, name, "signup")
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "full name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

// credentials prompts for whatever was not given as a flag.
func credentials(p *prompter, email string) (string, string, error) {
	if email == "" {
		var err error
		if email, err = p.Line("Email: "); err != nil {
			return "", "", err
		}
	}
	password, err := p.Password("Password: ")
	if err != nil {
		return "", "", err
	}
	if email == "" || password == "" {
		return "", "", &usageError{msg: "email and password are required"}
	}
	return email, password, nil
}

// startSession stores the session from an auth response and reports it.
func (r *runtime) startSession(res *api.AuthResponse, email, name, command string) error {
	profile := auth.Profile{Name: res.User.Name, Email: res.User.Email}
	if profile.Email == "" {
		profile.Email = email
	}
	if profile.Name == "" {
		profile.Name = name
	}
	session, err := r.sessions.Login(res.AccessToken, profile)
	if err != nil {
		return err
	}
	if r.jsonOut {
		return NewJSONResponse(command, whoamiOf(session)).Print(r.stdout)
	}
	fmt.Fprintln(r.stdout, RenderSuccess("Signed in as "+profile.DisplayName()))
	return nil
}

// =============================================================================
// LOGOUT / WHOAMI
// =============================================================================

func newLogoutCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.openSession(); err != nil {
				return err
			}
			if err := r.sessions.Logout(); err != nil {
				return NewCommandError("logout", "could not clear the stored session", err)
			}
			fmt.Fprintln(r.stdout, RenderSuccess("Signed out"))
			return nil
		},
	}
}

func newWhoamiCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.openSession(); err != nil {
				return err
			}
			session, ok := r.sessions.Current()
			if !ok {
				return auth.ErrNotLoggedIn
			}
			if r.jsonOut {
				return NewJSONResponse("whoami", whoamiOf(session)).Print(r.stdout)
			}
			fmt.Fprintln(r.stdout, RenderLabelValue("Name", session.Profile.DisplayName()))
			fmt.Fprintln(r.stdout, RenderLabelValue("Email", session.Profile.Email))
			if !session.ExpiresAt.IsZero() {
				fmt.Fprintln(r.stdout, RenderLabelValue("Expires", session.ExpiresAt.Local().Format(time.RFC1123)))
			}
			fmt.Fprintln(r.stdout, RenderLabelValue("API", r.client.BaseURL()))
			return nil
		},
	}
}
