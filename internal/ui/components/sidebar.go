// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// NavItem is an entry in the sidebar navigation.
type NavItem struct {
	Key   string
	Label string
}

// Sidebar is the layout shell's left column: brand, navigation and the
// signed-in profile with a sign-out hint.
type Sidebar struct {
	Items   []NavItem
	Active  string
	Profile auth.Profile
	Height  int
	theme   *styles.Theme
}

// NewSidebar creates a sidebar.
func NewSidebar(theme *styles.Theme, items []NavItem) Sidebar {
	return Sidebar{Items: items, theme: theme}
}

// View renders the sidebar at styles.SidebarWidth.
func (s Sidebar) View() string {
	inner := styles.SidebarWidth - 2
	t := s.theme

	var nav []string
	for _, item := range s.Items {
		label := Truncate(item.Label, inner-6)
		hint := t.HelpKey.Render(item.Key)
		if item.Label == s.Active {
			nav = append(nav, t.NavActive.Render(" "+label)+" "+hint)
		} else {
			nav = append(nav, t.NavItem.Render(label)+" "+hint)
		}
	}

	profile := []string{
		t.Avatar.Render(s.Profile.Initial()) + " " + t.ProfileTxt.Bold(true).Render(Truncate(s.Profile.DisplayName(), inner-5)),
	}
	if s.Profile.Email != "" {
		profile = append(profile, t.Muted.Render(Truncate(s.Profile.Email, inner)))
	}
	profile = append(profile, t.SignOut.Render("Sign Out")+" "+t.HelpKey.Render("ctrl+o"))

	top := lipgloss.JoinVertical(lipgloss.Left,
		t.Brand.Render("◆ DocMind"),
		strings.Join(nav, "\n"),
	)
	bottom := strings.Join(profile, "\n")

	gap := s.Height - lipgloss.Height(top) - lipgloss.Height(bottom) - 2
	if gap < 1 {
		gap = 1
	}
	return t.Sidebar.Height(max(s.Height-2, 0)).Render(top + strings.Repeat("\n", gap) + bottom)
}

// Truncate shortens s to at most width terminal cells, adding an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
