// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docmind/docmind-tui/internal/ui/bridge"
)

// Run starts the TUI and blocks until it exits or ctx is cancelled.
// deps.Scheduler is replaced with a scheduler bound to the program.
func Run(ctx context.Context, deps Deps) error {
	sched := bridge.New()
	defer sched.Stop()
	deps.Scheduler = sched

	m := New(deps)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	sched.Attach(p.Send)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	m.chat.Controller().Close()
	return nil
}
