// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/logging"
	"github.com/docmind/docmind-tui/internal/loop"
	"github.com/docmind/docmind-tui/internal/ui/authform"
	"github.com/docmind/docmind-tui/internal/ui/bridge"
	"github.com/docmind/docmind-tui/internal/ui/chat"
	"github.com/docmind/docmind-tui/internal/ui/components"
	"github.com/docmind/docmind-tui/internal/ui/landing"
	"github.com/docmind/docmind-tui/internal/ui/screen"
	"github.com/docmind/docmind-tui/internal/ui/styles"
	"github.com/docmind/docmind-tui/internal/ui/uploadview"
	"github.com/docmind/docmind-tui/internal/upload"
)

// SessionCheckInterval is how often the token's expiry is checked.
const SessionCheckInterval = 30 * time.Second

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Client is the backend API used by the screens.
type Client interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Signup(ctx context.Context, name, email, password string) (*api.AuthResponse, error)
	Chat(ctx context.Context, token, query string) (string, error)
	Upload(ctx context.Context, token, filename string, r io.Reader, size int64, progress api.ProgressFunc) (*api.UploadResponse, error)
}

// Deps wires the root model.
type Deps struct {
	Client    Client
	Sessions  *auth.Manager
	Scheduler loop.Scheduler
	Desktop   upload.Desktop
	Logger    *zap.Logger

	// Drops delivers files saved to DropDir; nil disables the drop folder.
	Drops   <-chan upload.Drop
	DropDir string

	Theme          string
	ShowLanding    bool
	RevealInterval time.Duration
	RequestTimeout time.Duration
}

// sessionCheckMsg triggers an expiry check.
type sessionCheckMsg struct{}

type keyMap struct {
	Quit    key.Binding
	Upload  key.Binding
	Chat    key.Binding
	SignOut key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
	Upload:  key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("C-u", "upload")),
	Chat:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("C-n", "chat")),
	SignOut: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("C-o", "sign out")),
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Model is the root bubbletea model: screen routing, the layout shell and
// the session lifecycle.
type Model struct {
	deps  Deps
	theme *styles.Theme
	log   *zap.Logger

	current screen.ID
	width   int
	height  int

	landing landing.Model
	login   authform.Model
	signup  authform.Model
	upload  uploadview.Model
	chat    chat.Model
	sidebar components.Sidebar
}

// New creates the root model. The first screen is Upload for a restored
// session, otherwise Landing or Login depending on ShowLanding.
func New(deps Deps) *Model {
	log := logging.OrNop(deps.Logger)
	if deps.Desktop == nil {
		deps.Desktop = upload.OSDesktop{}
	}
	theme := styles.NewTheme(deps.Theme)

	m := &Model{
		deps:    deps,
		theme:   theme,
		log:     log.Named("app"),
		landing: landing.New(theme),
		login:   authform.New(authform.ModeLogin, theme, deps.Client, deps.Sessions),
		signup:  authform.New(authform.ModeSignup, theme, deps.Client, deps.Sessions),
		upload: uploadview.New(theme,
			upload.NewUploader(deps.Client, deps.Sessions, log),
			deps.Desktop, deps.Drops, deps.DropDir),
		sidebar: components.NewSidebar(theme, []components.NavItem{
			{Key: "C-u", Label: screen.Upload.Title()},
			{Key: "C-n", Label: screen.Chat.Title()},
		}),
	}
	m.chat = chat.New(theme, m.newController(), deps.Desktop, log)

	switch {
	case deps.Sessions.IsAuthenticated():
		m.current = screen.Upload
	case deps.ShowLanding:
		m.current = screen.Landing
	default:
		m.current = screen.Login
	}
	m.syncProfile()
	return m
}

// Current returns the visible screen.
func (m *Model) Current() screen.ID { return m.current }

// Chat returns the chat screen.
func (m *Model) Chat() chat.Model { return m.chat }

func (m *Model) newController() *chatsession.Controller {
	return chatsession.New(m.deps.Client, m.deps.Sessions, m.deps.Scheduler, chatsession.Options{
		RevealInterval: m.deps.RevealInterval,
		RequestTimeout: m.deps.RequestTimeout,
		Logger:         m.deps.Logger,
	})
}

func (m *Model) syncProfile() {
	profile, _ := m.deps.Sessions.Profile()
	m.sidebar.Profile = profile
	m.landing.Authenticated = m.deps.Sessions.IsAuthenticated()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.login.Init(),
		m.upload.Init(),
		m.chat.Init(),
		checkSessionAfter(SessionCheckInterval),
	)
}

func checkSessionAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return sessionCheckMsg{} })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bridge.RunMsg:
		msg.Run()
		return m, m.chat.Refresh()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case screen.NavigateMsg:
		return m, m.navigate(msg.To)

	case screen.LoggedInMsg:
		m.log.Info("signed in", zap.String("email", msg.Session.Profile.Email))
		m.resetChat()
		m.chat.SetDocument("")
		m.syncProfile()
		return m, m.navigate(screen.Upload)

	case screen.LogoutMsg:
		return m, m.signOut()

	case screen.UploadedMsg:
		// A new document starts a new conversation.
		m.resetChat()
		m.chat.SetDocument(msg.Name)
		return m, nil

	case sessionCheckMsg:
		next := checkSessionAfter(SessionCheckInterval)
		if m.current.Private() && !m.deps.Sessions.IsAuthenticated() {
			m.log.Info("session expired")
			return m, tea.Batch(m.signOut(), next)
		}
		return m, next

	case tea.MouseMsg:
		return m, m.updateCurrent(msg)
	}

	return m, m.broadcast(msg)
}

// handleKeyPress applies global bindings and forwards the rest to the
// visible screen.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		m.chat.Controller().Close()
		return m, tea.Quit
	}
	if m.current.Private() {
		switch {
		case key.Matches(msg, keys.Upload):
			return m, m.navigate(screen.Upload)
		case key.Matches(msg, keys.Chat):
			return m, m.navigate(screen.Chat)
		case key.Matches(msg, keys.SignOut):
			return m, m.signOut()
		}
	}
	return m, m.updateCurrent(msg)
}

// updateCurrent sends msg to the visible screen only.
func (m *Model) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.current {
	case screen.Landing:
		m.landing, cmd = m.landing.Update(msg)
	case screen.Login:
		m.login, cmd = m.login.Update(msg)
	case screen.Signup:
		m.signup, cmd = m.signup.Update(msg)
	case screen.Upload:
		m.upload, cmd = m.upload.Update(msg)
	case screen.Chat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return cmd
}

// broadcast sends a non-key message to every screen. Results of background
// work (uploads, drops, sign-in requests, timers) must reach their screen
// even when another one is visible.
func (m *Model) broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, 4)
	var cmd tea.Cmd

	m.login, cmd = m.login.Update(msg)
	cmds = append(cmds, cmd)
	m.signup, cmd = m.signup.Update(msg)
	cmds = append(cmds, cmd)
	m.upload, cmd = m.upload.Update(msg)
	cmds = append(cmds, cmd)
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)

	return tea.Batch(cmds...)
}

// navigate switches screens. Private screens redirect to Login without a
// session; Login and Signup go to Upload when already signed in. Leaving
// Chat closes its conversation and the next visit starts a fresh one.
func (m *Model) navigate(to screen.ID) tea.Cmd {
	authenticated := m.deps.Sessions.IsAuthenticated()
	switch {
	case to.Private() && !authenticated:
		to = screen.Login
	case (to == screen.Login || to == screen.Signup) && authenticated:
		to = screen.Upload
	}
	if to == m.current {
		return nil
	}
	m.log.Debug("navigate", zap.Stringer("from", m.current), zap.Stringer("to", to))
	if m.current == screen.Chat {
		m.chat.Controller().Close()
	}
	m.current = to

	switch to {
	case screen.Upload:
		m.upload.Reset()
	case screen.Chat:
		if m.chat.Controller().Closed() {
			m.resetChat()
		}
		return m.chat.Refresh()
	}
	return nil
}

// resetChat closes the current conversation and starts an empty one about
// the same document.
func (m *Model) resetChat() {
	m.chat.Controller().Close()
	m.chat.SetController(m.newController())
}

// signOut ends the session and returns to the login screen.
func (m *Model) signOut() tea.Cmd {
	if err := m.deps.Sessions.Logout(); err != nil {
		m.log.Warn("logout failed", zap.Error(err))
	}
	m.chat.Controller().Close()
	m.syncProfile()
	return m.navigate(screen.Login)
}

// resize lays every screen out for the terminal size.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)
	m.sidebar.Height = height

	m.landing.SetSize(width, height)
	m.login.SetSize(width, height)
	m.signup.SetSize(width, height)

	cw, ch := m.contentSize()
	m.upload.SetSize(cw, ch)
	m.chat.SetSize(cw, ch)
}

// contentSize is the area left for private screens beside the sidebar.
func (m *Model) contentSize() (int, int) {
	return m.theme.ContentWidth(), max(m.height-2, 5)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	var content string
	switch m.current {
	case screen.Landing:
		content = m.landing.View()
	case screen.Login:
		content = m.login.View()
	case screen.Signup:
		content = m.signup.View()
	case screen.Upload:
		content = m.upload.View()
	case screen.Chat:
		content = m.chat.View()
	}

	if !m.current.Private() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}

	body := m.theme.Content.Render(content)
	if !m.theme.ShowSidebar() {
		return body
	}
	m.sidebar.Active = m.current.Title()
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), body)
}
