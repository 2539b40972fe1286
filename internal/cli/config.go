// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - view and modify ~/.docmind/config.toml.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value and save
//   keys                List the settable keys
//   reset               Restore defaults and save
//   path                Show configuration file path
//
// Examples:
//   docmind config set api.base_url http://localhost:8000
//   docmind config set reveal.interval_ms 20
//   docmind config get ui.theme
//   docmind config show --json
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docmind/docmind-tui/internal/config"
)

func newConfigCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return configShow(r)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Display current configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return configShow(r)
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := r.cfg.Get(args[0])
				if err != nil {
					return &usageError{msg: err.Error()}
				}
				if r.jsonOut {
					return NewJSONResponse("config get", map[string]any{"key": args[0], "value": value}).Print(r.stdout)
				}
				fmt.Fprintln(r.stdout, value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value and save it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, value := args[0], args[1]
				cfg, err := loadForEdit(r)
				if err != nil {
					return err
				}
				if err := cfg.Set(key, value); err != nil {
					return &usageError{msg: err.Error()}
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				r.cfg = cfg
				path, err := configSave(r)
				if err != nil {
					return NewCommandError("config set", "could not save configuration", err)
				}
				if r.jsonOut {
					return NewJSONResponse("config set", map[string]string{"key": key, "value": value, "path": path}).Print(r.stdout)
				}
				fmt.Fprintln(r.stdout, RenderSuccess(fmt.Sprintf("%s = %s", key, value)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List configuration keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				keys := config.GetAllKeys()
				if r.jsonOut {
					return NewJSONResponse("config keys", keys).Print(r.stdout)
				}
				for _, k := range keys {
					fmt.Fprintln(r.stdout, k)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				r.cfg = config.Default()
				path, err := configSave(r)
				if err != nil {
					return NewCommandError("config reset", "could not save configuration", err)
				}
				fmt.Fprintln(r.stdout, RenderSuccess("Configuration reset: "+path))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := configPath(r)
				if err != nil {
					return err
				}
				if r.jsonOut {
					return NewJSONResponse("config path", map[string]string{"path": path}).Print(r.stdout)
				}
				fmt.Fprintln(r.stdout, path)
				return nil
			},
		},
	)
	return cmd
}

func configShow(r *runtime) error {
	if r.jsonOut {
		return NewJSONResponse("config show", r.cfg).Print(r.stdout)
	}
	fmt.Fprintln(r.stdout, TitleStyle.Render("DocMind Configuration"))
	for _, key := range config.GetAllKeys() {
		value, err := r.cfg.Get(key)
		if err != nil {
			continue
		}
		display := fmt.Sprint(value)
		if display == "" {
			display = DimStyle.Render("(not set)")
		}
		fmt.Fprintf(r.stdout, "  %-22s %s\n", key, display)
	}
	if path, err := configPath(r); err == nil {
		fmt.Fprintln(r.stdout)
		fmt.Fprintln(r.stdout, DimStyle.Render("File: "+path))
	}
	return nil
}

// configPath is --config when given, else the default TOML path.
func configPath(r *runtime) (string, error) {
	if r.configPath != "" {
		return r.configPath, nil
	}
	return config.ConfigPathTOML()
}

// loadForEdit reads the config file alone, without environment or flag
// overrides, so that saving does not persist them.
func loadForEdit(r *runtime) (*config.Config, error) {
	path, err := configPath(r)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	return cfg, err
}

func configSave(r *runtime) (string, error) {
	path, err := configPath(r)
	if err != nil {
		return "", err
	}
	return path, config.SaveTOML(r.cfg, path)
}
