// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// ErrorBanner renders msg as a full-width error strip, or "" when msg is
// empty.
func ErrorBanner(theme *styles.Theme, msg string, width int) string {
	if strings.TrimSpace(msg) == "" {
		return ""
	}
	return theme.ErrorBanner.Width(max(width-2, 10)).Render(styles.StatusIndicators.Error + " " + msg)
}

// KeyHelp renders "key desc" pairs on one line.
func KeyHelp(theme *styles.Theme, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, theme.HelpKey.Render(pairs[i])+" "+theme.HelpDesc.Render(pairs[i+1]))
	}
	return strings.Join(parts, theme.HelpDesc.Render("  •  "))
}
