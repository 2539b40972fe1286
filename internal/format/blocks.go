// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format converts assistant answers into typed display blocks.
package format

// =============================================================================
// BLOCK TYPES
// =============================================================================

// Kind identifies the variant of a Block.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindBulletList
	KindNumberedList
	KindCodeBlock
)

// String returns the name of the block kind.
func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindBulletList:
		return "bullet_list"
	case KindNumberedList:
		return "numbered_list"
	case KindCodeBlock:
		return "code_block"
	default:
		return "paragraph"
	}
}

// Block is one display block derived from an answer.
// The concrete types are Heading, BulletList, NumberedList, CodeBlock and
// Paragraph.
type Block interface {
	Kind() Kind
	block()
}

// HeadingTier is the visual size of a heading.
type HeadingTier int

const (
	TierLarge HeadingTier = iota
	TierMedium
	TierSmall
)

// Heading is a "#"-prefixed line.
type Heading struct {
	Level int
	Spans []Span
}

// Tier clamps the heading level to three visual sizes.
func (h Heading) Tier() HeadingTier {
	switch {
	case h.Level <= 1:
		return TierLarge
	case h.Level == 2:
		return TierMedium
	default:
		return TierSmall
	}
}

// BulletList is a block in which every line carries a bullet marker.
type BulletList struct {
	Items [][]Span
}

// NumberedList is a block in which every line starts with "N.".
type NumberedList struct {
	Items [][]Span
}

// CodeBlock is fenced code. Language is the optional tag after the opening
// fence; it only affects highlighting.
type CodeBlock struct {
	Language string
	Code     string

	// Closed is false when the closing fence has not arrived yet.
	Closed bool
}

// Paragraph is any other block.
type Paragraph struct {
	Spans []Span
}

func (Heading) Kind() Kind      { return KindHeading }
func (BulletList) Kind() Kind   { return KindBulletList }
func (NumberedList) Kind() Kind { return KindNumberedList }
func (CodeBlock) Kind() Kind    { return KindCodeBlock }
func (Paragraph) Kind() Kind    { return KindParagraph }

func (Heading) block()      {}
func (BulletList) block()   {}
func (NumberedList) block() {}
func (CodeBlock) block()    {}
func (Paragraph) block()    {}

// =============================================================================
// INLINE SPANS
// =============================================================================

// SpanKind identifies inline emphasis.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanBold
	SpanItalic
)

// Span is a run of text with uniform emphasis.
type Span struct {
	Kind SpanKind
	Text string
}

// Plain returns a plain text span.
func Plain(text string) Span { return Span{Kind: SpanPlain, Text: text} }

// Bold returns a bold span.
func Bold(text string) Span { return Span{Kind: SpanBold, Text: text} }

// Italic returns an italic span.
func Italic(text string) Span { return Span{Kind: SpanItalic, Text: text} }
