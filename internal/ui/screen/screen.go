// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package screen names the TUI's screens and the messages screens use to
// ask the root model for navigation and session changes.
package screen

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docmind/docmind-tui/internal/auth"
)

// ID identifies a screen.
type ID int

const (
	Landing ID = iota
	Login
	Signup
	Upload
	Chat
)

func (id ID) String() string {
	switch id {
	case Landing:
		return "landing"
	case Login:
		return "login"
	case Signup:
		return "signup"
	case Upload:
		return "upload"
	case Chat:
		return "chat"
	default:
		return "unknown"
	}
}

// Private reports whether the screen needs a signed-in session. Private
// screens are drawn inside the sidebar layout.
func (id ID) Private() bool {
	return id == Upload || id == Chat
}

// Title is the sidebar label for private screens.
func (id ID) Title() string {
	switch id {
	case Upload:
		return "Upload Document"
	case Chat:
		return "Chat Interface"
	default:
		return ""
	}
}

// NavigateMsg asks the root model to switch screens.
type NavigateMsg struct {
	To ID
}

// Navigate returns a command producing NavigateMsg.
func Navigate(to ID) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{To: to} }
}

// LoggedInMsg reports that a session was established.
type LoggedInMsg struct {
	Session auth.Session
}

// LogoutMsg asks the root model to end the session.
type LogoutMsg struct{}

// Logout returns a command producing LogoutMsg.
func Logout() tea.Msg { return LogoutMsg{} }

// UploadedMsg reports a successful document upload.
type UploadedMsg struct {
	Name string
}
