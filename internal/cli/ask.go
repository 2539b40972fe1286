// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot question against the uploaded document.
//
// Command: ask <question...>
//
// Examples:
//   docmind ask What is the refund policy?
//   docmind ask --no-reveal "Summarize section 2" > summary.txt
//   docmind ask --json "Who signed the contract?"
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/reveal"
)

func newAskCommand(r *runtime) *cobra.Command {
	var noReveal bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question about the uploaded document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return &usageError{msg: "question is empty"}
			}
			if err := r.openSession(); err != nil {
				return err
			}
			token, err := r.sessions.Token()
			if err != nil {
				return err
			}

			answer, err := r.client.Chat(cmd.Context(), token, query)
			if err != nil {
				if r.jsonOut {
					return err
				}
				_, msg := chatsession.Classify(err)
				return NewCommandError("ask", msg, err)
			}

			if r.jsonOut {
				return NewJSONResponse("ask", map[string]string{
					"question": query,
					"answer":   answer,
				}).Print(r.stdout)
			}

			interval := r.cfg.RevealInterval()
			if noReveal || !IsStdoutTTY() {
				interval = 0
			}
			return printRevealed(cmd.Context(), r.stdout, answer, interval)
		},
	}
	cmd.Flags().BoolVar(&noReveal, "no-reveal", false, "print the answer at once")
	return cmd
}

// printRevealed writes text to w word by word, paced by interval.
func printRevealed(ctx context.Context, w io.Writer, text string, interval time.Duration) error {
	shown := 0
	for prefix := range reveal.Stream(ctx, text, interval) {
		if len(prefix) <= shown {
			continue
		}
		if _, err := io.WriteString(w, prefix[shown:]); err != nil {
			return err
		}
		shown = len(prefix)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
