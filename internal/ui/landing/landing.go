// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package landing is the introduction screen shown before sign in.
package landing

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/docmind/docmind-tui/internal/ui/components"
	"github.com/docmind/docmind-tui/internal/ui/screen"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// Intro is the landing page copy.
const Intro = `# Your AI Document Assistant

Upload your documents and instantly start conversations with them. Get
answers, insights, and analysis powered by advanced AI.

## Features

- **Easy Document Upload** - Upload your documents in various formats including PDF, DOCX, and PPTX
- **AI-Powered Chat** - Interact with your documents through natural conversation
- **Secure & Private** - Your documents are encrypted and stored securely
`

type keyMap struct {
	GetStarted key.Binding
	Login      key.Binding
	Signup     key.Binding
}

var keys = keyMap{
	GetStarted: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get started")),
	Login:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "login")),
	Signup:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sign up")),
}

// Model is the landing screen.
type Model struct {
	theme         *styles.Theme
	width, height int
	rendered      string
	renderedWidth int

	// Authenticated changes "get started" to go straight to the upload screen.
	Authenticated bool
}

// New creates the landing screen.
func New(theme *styles.Theme) Model {
	return Model{theme: theme}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// SetSize re-renders the intro for the new width.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	wrap := min(max(width-4, 20), 100)
	if wrap != m.renderedWidth {
		m.rendered = renderMarkdown(Intro, wrap, m.theme.IsDark)
		m.renderedWidth = wrap
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, keys.GetStarted):
		if m.Authenticated {
			return m, screen.Navigate(screen.Upload)
		}
		return m, screen.Navigate(screen.Signup)
	case key.Matches(k, keys.Login):
		return m, screen.Navigate(screen.Login)
	case key.Matches(k, keys.Signup):
		return m, screen.Navigate(screen.Signup)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	body := m.rendered
	if body == "" {
		body = renderMarkdown(Intro, 80, m.theme.IsDark)
	}
	brand := m.theme.Brand.Render("◆ DocMind")
	help := components.KeyHelp(m.theme, "enter", "get started", "l", "login", "s", "sign up", "ctrl+c", "quit")
	return lipgloss.JoinVertical(lipgloss.Left, brand, strings.TrimRight(body, "\n"), "", help)
}

// renderMarkdown renders md with glamour, falling back to the raw text.
func renderMarkdown(md string, width int, dark bool) string {
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
