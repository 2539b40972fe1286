// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/model"
	"github.com/docmind/docmind-tui/internal/ui/components"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// =============================================================================
// RENDER CACHE
// =============================================================================

// renderCache keeps rendered final messages so a reveal only re-renders the
// message being revealed.
type renderCache struct {
	width    int
	messages []model.Message
	rendered []string
}

// render returns the bubble for msgs[i], reusing the cached rendering of
// final messages whose content is unchanged.
func (c *renderCache) render(theme *styles.Theme, msgs []model.Message, i, width int, indicator string) string {
	if c.width != width {
		c.width = width
		c.messages = nil
		c.rendered = nil
	}
	msg := msgs[i]
	if i < len(c.messages) && c.messages[i] == msg && msg.IsFinal {
		return c.rendered[i]
	}

	bubble := components.NewMessageBubble(msg, theme)
	bubble.Width = width
	bubble.Indicator = indicator
	out := bubble.View()

	if !msg.IsFinal || i > len(c.messages) {
		return out
	}
	c.messages = append(c.messages[:i], msg)
	c.rendered = append(c.rendered[:i], out)
	return out
}

// =============================================================================
// VIEW
// =============================================================================

// renderMessages draws the conversation or the empty state.
func (m *Model) renderMessages() string {
	width := max(m.viewport.Width-2, 20)
	msgs := m.snap.Messages
	if len(msgs) == 0 {
		empty := lipgloss.JoinVertical(lipgloss.Center,
			m.theme.EmptyState.Bold(true).Render("No messages yet"),
			m.theme.EmptyState.Render("Start a conversation about your document"),
		)
		return lipgloss.Place(width, max(m.viewport.Height, 3), lipgloss.Center, lipgloss.Center, empty)
	}

	indicator := m.spinner.View()
	parts := make([]string, len(msgs))
	for i := range msgs {
		parts[i] = m.cache.render(m.theme, msgs, i, width, indicator)
	}
	return strings.Join(parts, "\n\n")
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme
	width := max(m.width, 20)

	header := t.Title.Render("DocMind Chat")
	if m.document != "" {
		header += "  " + t.Muted.Render(components.Truncate(m.document, width-16))
	}

	rows := []string{header, m.viewport.View()}

	if m.snap.State == chatsession.StateSending {
		rows = append(rows, m.spinner.View()+" "+t.Processing.Render("Processing..."))
	}
	if m.snap.Error != "" {
		rows = append(rows, components.ErrorBanner(t, m.snap.Error, width-2))
	}

	rows = append(rows, m.renderInput(width), m.renderActions())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderInput draws the input line with its send button.
func (m Model) renderInput(width int) string {
	t := m.theme
	button := t.Button.Render("Send")
	box := t.InputContainer
	if !m.snap.CanSubmit() {
		box = t.InputDisabled
		button = t.Muted.Render("Send")
	}
	field := box.Width(max(width-lipgloss.Width(button)-3, 10)).Render(m.input.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, field, " ", button)
}

// renderActions draws the message actions and key help.
func (m Model) renderActions() string {
	t := m.theme
	var actions []string
	if _, ok := m.snap.LastAnswer(); ok {
		if m.copied {
			actions = append(actions, styles.RenderSuccess("Copied"))
		} else {
			actions = append(actions, t.HelpDesc.Render("Copy"))
		}
	}
	if m.snap.CanRegenerate() {
		actions = append(actions, t.HelpDesc.Render("Regenerate"))
	}
	if m.notice != "" {
		actions = append(actions, styles.RenderError(m.notice))
	}

	helpLine := m.help.View(m.keys)
	if len(actions) == 0 {
		return helpLine
	}
	return strings.Join(actions, t.Muted.Render(" · ")) + "   " + helpLine
}
