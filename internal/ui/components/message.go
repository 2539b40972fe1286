// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docmind/docmind-tui/internal/model"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat message.
type MessageBubble struct {
	Message model.Message
	Width   int

	// Indicator is drawn after a placeholder message, e.g. a spinner frame.
	Indicator string

	theme *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme) MessageBubble {
	return MessageBubble{Message: msg, Width: 80, theme: theme}
}

// View renders the bubble. User messages are right-aligned plain text;
// assistant messages are formatted into blocks.
func (b MessageBubble) View() string {
	if b.Message.Role == model.RoleUser {
		return b.renderUser()
	}
	return b.renderAssistant()
}

func (b MessageBubble) renderUser() string {
	maxWidth := b.Width * 3 / 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	label := b.theme.RoleLabel.Render(model.RoleUser.DisplayName())
	bubble := b.theme.UserBubble.MaxWidth(maxWidth).Render(wrap(b.Message.Content, maxWidth-4))
	block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

func (b MessageBubble) renderAssistant() string {
	inner := b.Width - 4
	if inner < 10 {
		inner = 10
	}

	var body string
	if strings.TrimSpace(b.Message.Content) != "" {
		body = RenderText(b.theme, b.Message.Content, inner)
	}
	if b.Message.IsPlaceholder() {
		indicator := b.Indicator
		if indicator == "" {
			indicator = "▍"
		}
		if body == "" {
			body = b.theme.Streaming.Render(indicator)
		} else {
			body += " " + b.theme.Streaming.Render(indicator)
		}
	}

	label := b.theme.RoleLabel.Render(model.RoleAssistant.DisplayName())
	return lipgloss.JoinVertical(lipgloss.Left, label, b.theme.AssistantBubble.Width(b.Width-2).Render(body))
}

// wrap soft-wraps plain text to width.
func wrap(text string, width int) string {
	if width < 1 || lipgloss.Width(text) <= width {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// RenderConversation renders every message, one blank line apart.
func RenderConversation(theme *styles.Theme, msgs []model.Message, width int, indicator string) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		bubble := NewMessageBubble(m, theme)
		bubble.Width = width
		bubble.Indicator = indicator
		parts = append(parts, bubble.View())
	}
	return strings.Join(parts, "\n\n")
}
