// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docmind/docmind-tui/internal/format"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// =============================================================================
// BLOCK RENDERER
// =============================================================================

// RenderBlocks renders formatted answer blocks, separated by blank lines,
// wrapped to width.
func RenderBlocks(theme *styles.Theme, blocks []format.Block, width int) string {
	if width < 10 {
		width = 10
	}
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		parts = append(parts, renderBlock(theme, blk, width))
	}
	return strings.Join(parts, "\n\n")
}

// RenderText formats text and renders it.
func RenderText(theme *styles.Theme, text string, width int) string {
	return RenderBlocks(theme, format.Format(text), width)
}

func renderBlock(theme *styles.Theme, blk format.Block, width int) string {
	switch b := blk.(type) {
	case format.Heading:
		style := theme.HeadingSmall
		switch b.Tier() {
		case format.TierLarge:
			style = theme.HeadingLarge
		case format.TierMedium:
			style = theme.HeadingMedium
		}
		return style.Width(width).Render(format.Text(b.Spans))

	case format.BulletList:
		return renderList(theme, b.Items, width, func(int) string { return "•" })

	case format.NumberedList:
		return renderList(theme, b.Items, width, func(i int) string { return strconv.Itoa(i+1) + "." })

	case format.CodeBlock:
		cb := NewCodeBlock(b, theme)
		cb.MaxWidth = width
		return cb.Render()

	case format.Paragraph:
		return theme.Paragraph.Width(width).Render(RenderSpans(theme, b.Spans))
	}
	return ""
}

// renderList renders items with a hanging indent under the marker.
func renderList(theme *styles.Theme, items [][]format.Span, width int, marker func(int) string) string {
	markerWidth := 0
	for i := range items {
		if w := lipgloss.Width(marker(i)); w > markerWidth {
			markerWidth = w
		}
	}
	textWidth := width - markerWidth - 1
	if textWidth < 5 {
		textWidth = 5
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		m := theme.ListMarker.Width(markerWidth).Align(lipgloss.Right).Render(marker(i))
		body := lipgloss.NewStyle().Width(textWidth).Render(RenderSpans(theme, item))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, m, " ", body))
	}
	return strings.Join(lines, "\n")
}

// RenderSpans applies inline emphasis.
func RenderSpans(theme *styles.Theme, spans []format.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case format.SpanBold:
			b.WriteString(theme.Bold.Render(s.Text))
		case format.SpanItalic:
			b.WriteString(theme.Italic.Render(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
