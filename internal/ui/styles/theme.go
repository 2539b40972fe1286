// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// SidebarWidth is the fixed width of the navigation sidebar.
const SidebarWidth = 26

// Theme holds all the styled components for the application.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	Sidebar    lipgloss.Style
	Brand      lipgloss.Style
	NavItem    lipgloss.Style
	NavActive  lipgloss.Style
	Avatar     lipgloss.Style
	ProfileTxt lipgloss.Style
	SignOut    lipgloss.Style
	Content    lipgloss.Style
	Title      lipgloss.Style
	Subtitle   lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style
	Streaming       lipgloss.Style
	Processing      lipgloss.Style
	EmptyState      lipgloss.Style

	// ==========================================================================
	// FORMATTED BLOCKS
	// ==========================================================================

	HeadingLarge  lipgloss.Style
	HeadingMedium lipgloss.Style
	HeadingSmall  lipgloss.Style
	Paragraph     lipgloss.Style
	ListMarker    lipgloss.Style
	Bold          lipgloss.Style
	Italic        lipgloss.Style
	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style

	// ==========================================================================
	// INPUT, FORMS AND FEEDBACK
	// ==========================================================================

	InputContainer lipgloss.Style
	InputDisabled  lipgloss.Style
	FormBox        lipgloss.Style
	Label          lipgloss.Style
	Button         lipgloss.Style
	ButtonActive   lipgloss.Style
	Link           lipgloss.Style
	ErrorBanner    lipgloss.Style
	DropZone       lipgloss.Style
	HelpKey        lipgloss.Style
	HelpDesc       lipgloss.Style
	Muted          lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; auto
// asks the terminal.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Layout
	t.Sidebar = lipgloss.NewStyle().
		Width(SidebarWidth).
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(1, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		MarginBottom(1)

	t.NavItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(1)

	t.NavActive = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Indigo)

	t.Avatar = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true).
		Padding(0, 1)

	t.ProfileTxt = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SignOut = lipgloss.NewStyle().
		Foreground(Rose)

	t.Content = lipgloss.NewStyle().
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary).
		MarginBottom(1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		Padding(0, 2)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.RoleLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)

	t.Streaming = lipgloss.NewStyle().
		Foreground(Amber)

	t.Processing = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.EmptyState = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Center)

	// Formatted blocks
	t.HeadingLarge = lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Foreground(Sky)

	t.HeadingMedium = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)

	t.HeadingSmall = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Paragraph = lipgloss.NewStyle()

	t.ListMarker = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.Bold = lipgloss.NewStyle().Bold(true)
	t.Italic = lipgloss.NewStyle().Italic(true)

	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(OverlayDim).
		Padding(0, 1).
		Bold(true)

	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	// Input, forms, feedback
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 1)

	t.InputDisabled = t.InputContainer.
		BorderForeground(OverlayDim).
		Foreground(TextMuted)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 3).
		Width(52)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 2)

	t.ButtonActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true).
		Padding(0, 2)

	t.Link = lipgloss.NewStyle().
		Foreground(Sky).
		Underline(true)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Background(RoseDeep).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		Padding(0, 1)

	t.DropZone = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(OverlayDim).
		Padding(1, 2).
		Align(lipgloss.Center)

	t.HelpKey = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.HelpDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// ShowSidebar reports whether the sidebar fits next to the content.
func (t *Theme) ShowSidebar() bool {
	return t.GetLayoutMode() != LayoutNarrow
}

// ContentWidth is the width left for the main area.
func (t *Theme) ContentWidth() int {
	w := t.Width
	if t.ShowSidebar() {
		w -= SidebarWidth + 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
