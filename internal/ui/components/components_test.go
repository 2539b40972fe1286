// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/format"
	"github.com/docmind/docmind-tui/internal/model"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

func TestRenderText_Blocks(t *testing.T) {
	out := RenderText(testTheme(), "## Refunds\n\n* Within 30 days\n* Receipt required\n\n1. Ask\n2. Wait", 60)

	assert.Contains(t, out, "Refunds")
	assert.NotContains(t, out, "##")
	assert.Contains(t, out, "• Within 30 days")
	assert.Contains(t, out, "• Receipt required")
	assert.Contains(t, out, "1. Ask")
	assert.Contains(t, out, "2. Wait")
}

func TestRenderText_InlineEmphasisMarkersRemoved(t *testing.T) {
	out := RenderText(testTheme(), "This is **important** and *subtle*.", 60)
	assert.Contains(t, out, "important")
	assert.Contains(t, out, "subtle")
	assert.NotContains(t, out, "**")
}

func TestRenderBlocks_RespectsWidth(t *testing.T) {
	long := strings.Repeat("word ", 40)
	out := RenderText(testTheme(), long, 30)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 30)
	}
}

func TestCodeBlock_Render(t *testing.T) {
	cb := NewCodeBlock(format.CodeBlock{Language: "go", Code: "fmt.Println(1)\nreturn", Closed: true}, testTheme())
	out := cb.Render()
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "2")
	assert.NotContains(t, out, "…")

	open := NewCodeBlock(format.CodeBlock{Code: "partial"}, testTheme()).Render()
	assert.Contains(t, open, "…")
}

func TestMessageBubble_Roles(t *testing.T) {
	theme := testTheme()

	user := NewMessageBubble(model.Message{Role: model.RoleUser, Content: "hi there", IsFinal: true}, theme)
	user.Width = 60
	assert.Contains(t, user.View(), "You")
	assert.Contains(t, user.View(), "hi there")

	pending := NewMessageBubble(model.Message{Role: model.RoleAssistant}, theme)
	pending.Width = 60
	pending.Indicator = "⠋"
	assert.Contains(t, pending.View(), "DocMind")
	assert.Contains(t, pending.View(), "⠋")

	done := NewMessageBubble(model.Message{Role: model.RoleAssistant, Content: "Answer", IsFinal: true}, theme)
	done.Width = 60
	done.Indicator = "⠋"
	assert.Contains(t, done.View(), "Answer")
	assert.NotContains(t, done.View(), "⠋")
}

func TestSidebar_View(t *testing.T) {
	s := NewSidebar(testTheme(), []NavItem{{Key: "ctrl+u", Label: "Upload"}, {Key: "ctrl+n", Label: "Chat"}})
	s.Active = "Chat"
	s.Height = 20
	s.Profile = auth.Profile{Name: "ada lovelace", Email: "ada@example.com"}

	out := s.View()
	assert.Contains(t, out, "DocMind")
	assert.Contains(t, out, "Upload")
	assert.Contains(t, out, " A ")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Sign Out")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.LessOrEqual(t, lipgloss.Width(Truncate("日本語のテキスト", 7)), 7)
}

func TestErrorBanner(t *testing.T) {
	assert.Empty(t, ErrorBanner(testTheme(), "  ", 40))
	assert.Contains(t, ErrorBanner(testTheme(), "Boom", 40), "[X] Boom")
}

func TestKeyHelp(t *testing.T) {
	out := KeyHelp(testTheme(), "enter", "send", "ctrl+r", "regenerate")
	assert.Contains(t, out, "enter send")
	assert.Contains(t, out, "ctrl+r regenerate")
}
