// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockapi

import (
	"context"
	"fmt"
	"strings"
)

// DefaultAnswerer returns a canned, structured answer that names the most
// recent document. It exercises every block kind the chat view renders.
func DefaultAnswerer(_ context.Context, _ string, query string, documents []string) (string, error) {
	doc := documents[len(documents)-1]
	q := strings.TrimSpace(query)

	var b strings.Builder
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "You asked: %q. Here is what %s says about it.\n\n", q, doc)
	fmt.Fprintf(&b, "### Key points\n\n")
	fmt.Fprintf(&b, "* The document covers the topic in its opening section\n")
	fmt.Fprintf(&b, "* Supporting details appear in the appendix\n\n")
	fmt.Fprintf(&b, "1. Read the introduction\n")
	fmt.Fprintf(&b, "2. Check the referenced tables\n\n")
	if len(documents) > 1 {
		fmt.Fprintf(&b, "Other uploaded documents: %s.", strings.Join(documents[:len(documents)-1], ", "))
	} else {
		fmt.Fprintf(&b, "This is a development server; answers are not generated from the file contents.")
	}
	return b.String(), nil
}

// StaticAnswerer always answers with text.
func StaticAnswerer(text string) Answerer {
	return func(context.Context, string, string, []string) (string, error) {
		return text, nil
	}
}
