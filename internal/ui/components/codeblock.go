// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/docmind/docmind-tui/internal/format"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock renders a fenced code block from an answer.
type CodeBlock struct {
	Block    format.CodeBlock
	MaxWidth int
	theme    *styles.Theme
}

// NewCodeBlock creates a code block renderer.
func NewCodeBlock(block format.CodeBlock, theme *styles.Theme) CodeBlock {
	return CodeBlock{Block: block, MaxWidth: 80, theme: theme}
}

// Render renders the block with a language badge, line numbers and
// highlighting. An unclosed block (still being revealed) is shown with a
// trailing ellipsis.
func (c CodeBlock) Render() string {
	code := strings.TrimRight(c.Block.Code, "\n")
	lines := strings.Split(highlightCode(code, c.Block.Language), "\n")

	var b strings.Builder
	if c.Block.Language != "" {
		b.WriteString(c.theme.CodeLangBadge.Render(c.Block.Language))
		b.WriteString("\n")
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.theme.CodeLineNum.Render(strconv.Itoa(i + 1)))
		b.WriteString(line)
	}
	if !c.Block.Closed {
		b.WriteString("\n")
		b.WriteString(c.theme.Muted.Render("…"))
	}

	maxWidth := c.MaxWidth - 2
	if maxWidth < 20 {
		maxWidth = 20
	}
	return c.theme.CodeBlock.MaxWidth(maxWidth).Render(b.String())
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies terminal syntax highlighting. Unknown languages are
// guessed from the content; on any failure the code is returned unchanged.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DetectLanguage guesses the language name of code, or "".
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
