// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - interactive line-mode chat about the uploaded document.
//
// Command: chat
//
// Interactive commands:
//   /regenerate, /r     Ask the last question again
//   /copy, /c           Copy the last answer to the clipboard
//   /help, /h           Show available commands
//   /exit, /quit, /q    Leave the chat
//   Ctrl+D              Leave the chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/config"
	"github.com/docmind/docmind-tui/internal/loop"
	"github.com/docmind/docmind-tui/internal/model"
	"github.com/docmind/docmind-tui/internal/upload"
	"github.com/docmind/docmind-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent history for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	c.LoadHistory()
	return c
}

// LoadHistory reads the history file, if any.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput prompts for one line and records it in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file with 0600 permissions.
func (c *ChatCLI) SaveHistory() error {
	return util.WriteFileAtomic(c.historyFile, 0600, 0700, func(w io.Writer) error {
		_, err := c.line.WriteHistory(w)
		return err
	})
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	_ = c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// ANSWER PRINTER
// =============================================================================

// replPrinter prints controller snapshots as a line-mode transcript. Its
// methods run on the loop goroutine.
type replPrinter struct {
	out  io.Writer
	done chan struct{}

	busy      bool
	revealing bool
	printed   int
}

func newReplPrinter(out io.Writer) *replPrinter {
	return &replPrinter{out: out, done: make(chan struct{}, 1)}
}

// begin marks the start of a turn.
func (p *replPrinter) begin() {
	p.busy = true
	p.revealing = false
	p.printed = 0
}

func (p *replPrinter) onChange(s chatsession.Snapshot) {
	if !p.busy {
		return
	}
	if s.State == chatsession.StateRevealing {
		if !p.revealing {
			p.revealing = true
			fmt.Fprint(p.out, PromptStyle.Render("docmind> "))
		}
		p.printAnswer(s.Messages)
	}
	if s.State != chatsession.StateIdle {
		return
	}

	if p.revealing {
		p.printAnswer(s.Messages)
		fmt.Fprintln(p.out)
	}
	if s.Error != "" {
		fmt.Fprintln(p.out, RenderWarning(s.Error))
	}
	p.busy = false
	select {
	case p.done <- struct{}{}:
	default:
	}
}

func (p *replPrinter) printAnswer(msgs []model.Message) {
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant || len(last.Content) <= p.printed {
		return
	}
	fmt.Fprint(p.out, last.Content[p.printed:])
	p.printed = len(last.Content)
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat about the uploaded document in line mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !IsTTY() {
				return &TTYRequiredError{Operation: "chat"}
			}
			if err := r.openSession(); err != nil {
				return err
			}
			if _, err := r.sessions.Token(); err != nil {
				return err
			}
			return runChat(cmd.Context(), r, NewChatCLI())
		},
	}
}

// runChat drives a chatsession.Controller on a loop.Loop and reads
// questions from the terminal until the user leaves.
func runChat(ctx context.Context, r *runtime, input *ChatCLI) error {
	defer input.Close()

	lp := loop.New(0)
	go func() { _ = lp.Run(ctx) }()
	defer lp.Stop()

	ctrl := chatsession.New(r.client, r.sessions, lp, chatsession.Options{
		RevealInterval: r.cfg.RevealInterval(),
		RequestTimeout: r.cfg.RequestTimeout(),
		Logger:         r.log,
	})
	defer lp.Do(ctrl.Close)

	printer := newReplPrinter(r.stdout)
	lp.Do(func() { ctrl.OnChange(printer.onChange) })

	if profile, ok := r.sessions.Profile(); ok {
		fmt.Fprintln(r.stdout, TitleStyle.Render("DocMind Chat")+DimStyle.Render(" - signed in as "+profile.DisplayName()))
	}
	fmt.Fprintln(r.stdout, DimStyle.Render("Type a question, /help for commands, Ctrl+D to leave."))
	fmt.Fprintln(r.stdout)

	for {
		line, err := input.ReadInput("you> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(r.stdout, DimStyle.Render("(Ctrl+D or /exit to leave)"))
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.stdout)
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var action func() error
		switch strings.ToLower(line) {
		case "/exit", "/quit", "/q":
			return nil
		case "/help", "/h":
			printChatHelp(r.stdout)
			continue
		case "/copy", "/c":
			copyLastAnswer(r, lp, ctrl)
			continue
		case "/regenerate", "/r":
			action = ctrl.Regenerate
		default:
			if strings.HasPrefix(line, "/") {
				fmt.Fprintln(r.stdout, RenderWarning("Unknown command "+line+". Type /help."))
				continue
			}
			action = func() error { return ctrl.Submit(line) }
		}

		if err := runTurn(ctx, lp, printer, action); err != nil {
			if isFatalChatError(err) {
				return err
			}
			fmt.Fprintln(r.stdout, RenderWarning(chatErrorMessage(err)))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// runTurn starts action on the loop and waits until the controller is idle.
func runTurn(ctx context.Context, lp *loop.Loop, printer *replPrinter, action func() error) error {
	var err error
	ok := lp.Do(func() {
		printer.begin()
		if err = action(); err != nil {
			printer.busy = false
		}
	})
	if !ok {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	select {
	case <-printer.done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func copyLastAnswer(r *runtime, lp *loop.Loop, ctrl *chatsession.Controller) {
	var snap chatsession.Snapshot
	lp.Do(func() { snap = ctrl.Snapshot() })
	answer, ok := snap.LastAnswer()
	if !ok {
		fmt.Fprintln(r.stdout, RenderWarning("Nothing to copy yet."))
		return
	}
	if err := (upload.OSDesktop{}).WriteClipboardText(answer); err != nil {
		r.log.Warn("clipboard write failed", zap.Error(err))
		fmt.Fprintln(r.stdout, RenderWarning("Clipboard is not available."))
		return
	}
	fmt.Fprintln(r.stdout, RenderSuccess("Copied"))
}

// isFatalChatError reports errors that end the REPL.
func isFatalChatError(err error) bool {
	return GetExitCode(err) == ExitAuthError || errors.Is(err, chatsession.ErrClosed)
}

func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, chatsession.ErrNothingToRegenerate):
		return "Nothing to regenerate yet."
	case errors.Is(err, chatsession.ErrBusy):
		return "Still answering the previous question."
	}
	return err.Error()
}

func printChatHelp(w io.Writer) {
	rows := [][2]string{
		{"/regenerate", "Ask the last question again"},
		{"/copy", "Copy the last answer"},
		{"/help", "Show this help"},
		{"/exit", "Leave the chat"},
	}
	for _, row := range rows {
		fmt.Fprintln(w, RenderLabelValue(row[0], row[1]))
	}
}
