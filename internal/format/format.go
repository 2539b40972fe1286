// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format converts assistant answers into typed display blocks.
package format

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const codeFence = "```"

var (
	// blankLines separates blocks.
	blankLines = regexp.MustCompile(`\n\n+`)

	headingPattern  = regexp.MustCompile(`^(#{1,6})\s`)
	numberedPattern = regexp.MustCompile(`^\d+\.`)

	// inlinePattern matches **bold** before *italic*; both non-greedy and
	// confined to a single line.
	inlinePattern = regexp.MustCompile(`\*\*(.*?)\*\*|\*(.*?)\*`)
)

// =============================================================================
// BLOCK FORMATTING
// =============================================================================

// Format splits text into display blocks.
//
// Format is pure and total: it never fails and is safe to call on a
// truncated answer while it is being revealed. Empty input yields no blocks.
func Format(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var blocks []Block
	for _, raw := range splitBlocks(text) {
		blocks = append(blocks, classify(raw)...)
	}
	return blocks
}

// splitBlocks splits on blank lines. A fenced code block keeps its blank
// lines: segments are rejoined until the fence closes or the input ends.
func splitBlocks(text string) []string {
	locs := blankLines.FindAllStringIndex(text, -1)

	segments := make([]string, 0, len(locs)+1)
	separators := make([]string, 0, len(locs))
	start := 0
	for _, loc := range locs {
		segments = append(segments, text[start:loc[0]])
		separators = append(separators, text[loc[0]:loc[1]])
		start = loc[1]
	}
	segments = append(segments, text[start:])

	blocks := make([]string, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		block := segments[i]
		if strings.HasPrefix(block, codeFence) {
			for !fenceClosed(block) && i+1 < len(segments) {
				block += separators[i] + segments[i+1]
				i++
			}
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// classify turns one raw block into display blocks. It returns more than
// one block only when a heading line or a closed code fence is followed by
// further text in the same raw block.
func classify(raw string) []Block {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")

	// Headings
	if m := headingPattern.FindStringSubmatch(lines[0]); m != nil {
		level := len(m[1])
		text := strings.TrimSpace(lines[0][level:])
		heading := Heading{Level: level, Spans: ParseInline(text)}
		return append([]Block{heading}, classify(strings.Join(lines[1:], "\n"))...)
	}

	items := nonEmptyLines(lines)

	// Bullet lists
	if bullets, ok := listItems(items, bulletItem); ok {
		return []Block{BulletList{Items: bullets}}
	}

	// Numbered lists
	if numbered, ok := listItems(items, numberedItem); ok {
		return []Block{NumberedList{Items: numbered}}
	}

	// Code blocks
	if strings.HasPrefix(raw, codeFence) {
		code, rest := parseFence(lines)
		return append([]Block{code}, classify(rest)...)
	}

	return []Block{Paragraph{Spans: ParseInline(raw)}}
}

func nonEmptyLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func listItems(lines []string, item func(string) (string, bool)) ([][]Span, bool) {
	if len(lines) == 0 {
		return nil, false
	}
	out := make([][]Span, 0, len(lines))
	for _, line := range lines {
		text, ok := item(line)
		if !ok {
			return nil, false
		}
		out = append(out, ParseInline(text))
	}
	return out, true
}

// bulletItem strips a leading "•", "-" or "*" marker. "-" and "*" must be
// followed by whitespace so that emphasis such as "**Note**" is not a bullet.
func bulletItem(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(t, "•"); ok {
		return strings.TrimLeftFunc(rest, unicode.IsSpace), true
	}
	if t == "" || (t[0] != '-' && t[0] != '*') {
		return "", false
	}
	rest := t[1:]
	if rest == "" {
		return "", true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace), true
}

// numberedItem strips a leading "N." marker.
func numberedItem(line string) (string, bool) {
	t := strings.TrimSpace(line)
	loc := numberedPattern.FindStringIndex(t)
	if loc == nil {
		return "", false
	}
	return strings.TrimLeftFunc(t[loc[1]:], unicode.IsSpace), true
}

// =============================================================================
// CODE FENCES
// =============================================================================

// fenceClosed reports whether a block opening with a fence also closes it.
func fenceClosed(block string) bool {
	lines := strings.Split(block, "\n")
	if inlineFence(lines[0]) {
		return true
	}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == codeFence {
			return true
		}
	}
	return false
}

// inlineFence reports a single-line fence such as "```x := 1```".
func inlineFence(first string) bool {
	body := strings.TrimSpace(strings.TrimPrefix(first, codeFence))
	return len(body) > len(codeFence) && strings.HasSuffix(body, codeFence)
}

// parseFence extracts the code block opened on lines[0] and returns any text
// that follows the closing fence.
func parseFence(lines []string) (CodeBlock, string) {
	header := strings.TrimSpace(strings.TrimPrefix(lines[0], codeFence))
	if inlineFence(lines[0]) {
		return CodeBlock{
			Code:   strings.TrimSuffix(header, codeFence),
			Closed: true,
		}, strings.Join(lines[1:], "\n")
	}

	var language string
	if fields := strings.Fields(header); len(fields) > 0 {
		language = fields[0]
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == codeFence {
			return CodeBlock{
				Language: language,
				Code:     strings.Join(lines[1:i], "\n"),
				Closed:   true,
			}, strings.Join(lines[i+1:], "\n")
		}
	}

	// Truncated mid-stream: everything after the fence is code.
	return CodeBlock{
		Language: language,
		Code:     strings.Join(lines[1:], "\n"),
	}, ""
}

// =============================================================================
// INLINE FORMATTING
// =============================================================================

// ParseInline splits text into plain, bold and italic spans, left to right.
// Unterminated or empty markers stay literal.
func ParseInline(text string) []Span {
	if text == "" {
		return nil
	}

	var spans []Span
	emit := func(s Span) {
		if s.Text == "" {
			return
		}
		if s.Kind == SpanPlain && len(spans) > 0 && spans[len(spans)-1].Kind == SpanPlain {
			spans[len(spans)-1].Text += s.Text
			return
		}
		spans = append(spans, s)
	}

	pos := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		emit(Plain(text[pos:m[0]]))
		pos = m[1]

		switch {
		case m[2] >= 0 && m[3] > m[2]:
			emit(Bold(text[m[2]:m[3]]))
		case m[4] >= 0 && m[5] > m[4]:
			emit(Italic(text[m[4]:m[5]]))
		default:
			emit(Plain(text[m[0]:m[1]]))
		}
	}
	emit(Plain(text[pos:]))
	return spans
}

// Text concatenates the text of spans without markers.
func Text(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
