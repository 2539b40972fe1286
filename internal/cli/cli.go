// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/config"
	"github.com/docmind/docmind-tui/internal/logging"
	"github.com/docmind/docmind-tui/internal/storage"
	"github.com/docmind/docmind-tui/internal/ui/app"
	"github.com/docmind/docmind-tui/internal/upload"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// RUNTIME
// =============================================================================

// runtime holds what commands share: I/O, configuration, the logger and,
// once opened, the session store and API client.
type runtime struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	apiURL     string
	jsonOut    bool

	cfg *config.Config
	log *zap.Logger

	kv       *storage.KV
	sessions *auth.Manager
	client   *api.Client
}

// setup loads .env, the configuration and the logger.
func (r *runtime) setup() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var (
		cfg *config.Config
		err error
	)
	if r.configPath != "" {
		cfg, err = config.LoadFromPath(r.configPath)
		if err != nil {
			return err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return err
		}
		if err != nil {
			fmt.Fprintln(r.stderr, RenderWarning(fmt.Sprintf("ignoring config file: %v", err)))
		}
	}
	if r.apiURL != "" {
		cfg.API.BaseURL = r.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	r.cfg = cfg

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	r.log = log
	return nil
}

// openSession opens the session store and restores the saved session.
func (r *runtime) openSession() error {
	if r.sessions != nil {
		return nil
	}

	var store auth.Store = &auth.MemoryStore{}
	if r.cfg.Storage.Persist {
		kv, err := storage.OpenKV(r.cfg.Storage.SessionDB)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		r.kv = kv
		store = storage.NewSessionStore(kv)
	}

	r.sessions = auth.NewManager(store, r.log)
	if err := r.sessions.Restore(); err != nil {
		r.log.Warn("could not restore session", zap.Error(err))
	}
	r.client = api.NewClient(r.cfg.API.BaseURL).
		WithTimeout(r.cfg.RequestTimeout()).
		WithLogger(r.log)
	return nil
}

func (r *runtime) close() {
	if r.kv != nil {
		if err := r.kv.Close(); err != nil && r.log != nil {
			r.log.Warn("close session store", zap.Error(err))
		}
	}
	if r.log != nil {
		_ = r.log.Sync()
	}
}

// =============================================================================
// COMMAND TREE
// =============================================================================

// newRootCommand builds the command tree over r.
func newRootCommand(r *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "docmind",
		Short: "Chat with your documents from the terminal",
		Long: `docmind is a terminal client for DocMind. Sign in, upload a PDF, DOCX or
PPTX document, and ask questions about it.

Run without a command to start the full-screen interface.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), r)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&r.configPath, "config", "c", "", "config file path (default ~/.docmind/config.toml)")
	flags.StringVar(&r.apiURL, "api-url", "", "API base URL, overrides the config file")
	flags.BoolVar(&r.jsonOut, "json", false, "print machine-readable JSON where supported")

	root.AddCommand(
		newTUICommand(r),
		newLoginCommand(r),
		newSignupCommand(r),
		newLogoutCommand(r),
		newWhoamiCommand(r),
		newUploadCommand(r),
		newAskCommand(r),
		newChatCommand(r),
		newMockServerCommand(r),
		newConfigCommand(r),
	)
	return root
}

func newTUICommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), r)
		},
	}
}

// runTUI starts the bubbletea interface with the drop folder watched.
func runTUI(ctx context.Context, r *runtime) error {
	if err := r.openSession(); err != nil {
		return err
	}

	deps := app.Deps{
		Client:         r.client,
		Sessions:       r.sessions,
		Desktop:        upload.OSDesktop{},
		Logger:         r.log,
		Theme:          r.cfg.UI.Theme,
		ShowLanding:    r.cfg.UI.ShowLanding,
		RevealInterval: r.cfg.RevealInterval(),
		RequestTimeout: r.cfg.RequestTimeout(),
	}

	if r.cfg.UI.DropDir != "" {
		watcher, err := upload.NewDropWatcher(r.cfg.UI.DropDir, deps.Desktop, r.log)
		if err != nil {
			r.log.Warn("drop folder disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			deps.Drops = watcher.Drops()
			deps.DropDir = watcher.Dir()
		}
	}

	return app.Run(ctx, deps)
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// run executes the command line args and returns the error, if any.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	r := &runtime{stdin: stdin, stdout: stdout, stderr: stderr}
	defer r.close()

	root := newRootCommand(r)
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)
	if err != nil && r.jsonOut {
		_ = NewJSONErrorResponse(cmd.Name(), err).Print(stdout)
	}
	return err
}

// Execute runs the CLI with the process arguments and returns the exit
// code. It is called by main.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil || errors.Is(err, context.Canceled) {
		return ExitSuccess
	}
	DisplayError(os.Stderr, err)
	return GetExitCode(err)
}
