// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/logging"
	"github.com/docmind/docmind-tui/internal/ui/styles"
	"github.com/docmind/docmind-tui/internal/ui/screen"
)

// CopiedDuration is how long the "Copied" confirmation stays visible.
const CopiedDuration = 2 * time.Second

// Clipboard receives copied answers.
type Clipboard interface {
	WriteClipboardText(text string) error
}

// copiedResetMsg hides the copy confirmation. seq matches the copy that
// scheduled it so a later copy keeps its own full duration.
type copiedResetMsg struct {
	seq int
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen.
type Model struct {
	theme     *styles.Theme
	keys      KeyMap
	ctrl      *chatsession.Controller
	clipboard Clipboard
	log       *zap.Logger

	snap     chatsession.Snapshot
	document string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	cache    renderCache

	width, height int
	ticking       bool
	copied        bool
	copySeq       int
	notice        string
}

// New creates the chat screen over ctrl.
func New(theme *styles.Theme, ctrl *chatsession.Controller, clipboard Clipboard, log *zap.Logger) Model {
	in := textinput.New()
	in.Placeholder = "Ask about your document..."
	in.Prompt = "› "
	in.CharLimit = 10000
	in.Focus()

	m := Model{
		theme:     theme,
		keys:      DefaultKeyMap(),
		clipboard: clipboard,
		log:       logging.OrNop(log).Named("chat"),
		viewport:  viewport.New(80, 20),
		input:     in,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		help:      help.New(),
	}
	m.SetController(ctrl)
	return m
}

// SetController replaces the session shown, e.g. after signing in again.
func (m *Model) SetController(ctrl *chatsession.Controller) {
	m.ctrl = ctrl
	m.cache = renderCache{}
	m.copied = false
	m.notice = ""
	m.Refresh()
}

// Controller returns the session shown.
func (m Model) Controller() *chatsession.Controller { return m.ctrl }

// SetDocument records the name of the uploaded document for the header.
func (m *Model) SetDocument(name string) { m.document = name }

// Snapshot returns the state last drawn.
func (m Model) Snapshot() chatsession.Snapshot { return m.snap }

// SetSize lays the screen out for the given content area.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = max(width-6, 10)
	m.help.Width = width
	m.layout()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Refresh re-reads the controller and redraws. The root model calls it after
// every scheduler callback. The returned command starts the spinner when a
// request or reveal has begun, or ends the session when the API rejected
// the token.
func (m *Model) Refresh() tea.Cmd {
	if m.ctrl == nil {
		m.snap = chatsession.Snapshot{}
	} else {
		m.snap = m.ctrl.Snapshot()
	}

	if m.snap.CanSubmit() {
		if !m.input.Focused() {
			m.input.Focus()
		}
	} else {
		m.input.Blur()
	}

	m.layout()

	if m.snap.Unauthorized && !m.ctrl.Closed() {
		m.log.Info("chat rejected token, signing out")
		return screen.Logout
	}
	if !m.snap.CanSubmit() && !m.ticking {
		m.ticking = true
		return m.spinner.Tick
	}
	return nil
}

// layout sizes the viewport around the fixed rows and redraws its content.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	fixed := 2 + 3 + 2 // header, input box, actions and help
	if m.snap.State == chatsession.StateSending {
		fixed++
	}
	if m.snap.Error != "" {
		fixed += 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-fixed, 3)

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || !m.snap.CanSubmit() {
		m.viewport.GotoBottom()
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.snap.CanSubmit() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.viewport.SetContent(m.renderMessages())
		return m, cmd

	case copiedResetMsg:
		if msg.seq == m.copySeq {
			m.copied = false
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Regenerate):
		return m.regenerate()

	case key.Matches(msg, m.keys.Copy):
		return m.copyAnswer()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if !m.snap.CanSubmit() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	if m.ctrl == nil || !m.snap.CanSubmit() {
		return m, nil
	}
	text := m.input.Value()
	err := m.ctrl.Submit(text)
	switch {
	case err == nil:
		m.input.Reset()
	case errors.Is(err, chatsession.ErrEmptyQuery), errors.Is(err, chatsession.ErrBusy):
		return m, nil
	case isAuthFailure(err):
		m.log.Info("session ended", zap.Error(err))
		return m, screen.Logout
	default:
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	m.copied = false
	return m, m.Refresh()
}

func (m Model) regenerate() (Model, tea.Cmd) {
	if m.ctrl == nil {
		return m, nil
	}
	err := m.ctrl.Regenerate()
	switch {
	case err == nil:
	case errors.Is(err, chatsession.ErrNothingToRegenerate), errors.Is(err, chatsession.ErrBusy):
		return m, nil
	case isAuthFailure(err):
		return m, screen.Logout
	default:
		m.notice = err.Error()
		return m, nil
	}
	m.copied = false
	return m, m.Refresh()
}

func (m Model) copyAnswer() (Model, tea.Cmd) {
	answer, ok := m.snap.LastAnswer()
	if !ok || m.clipboard == nil {
		return m, nil
	}
	if err := m.clipboard.WriteClipboardText(answer); err != nil {
		m.log.Warn("clipboard write failed", zap.Error(err))
		m.notice = "Clipboard is not available"
		return m, nil
	}
	m.copied = true
	m.copySeq++
	seq := m.copySeq
	return m, tea.Tick(CopiedDuration, func(time.Time) tea.Msg {
		return copiedResetMsg{seq: seq}
	})
}

// isAuthFailure reports errors that end the session.
func isAuthFailure(err error) bool {
	return errors.Is(err, auth.ErrNotLoggedIn) || errors.Is(err, auth.ErrSessionExpired)
}
