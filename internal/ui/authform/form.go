// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authform provides the login and signup screens.
package authform

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/ui/components"
	"github.com/docmind/docmind-tui/internal/ui/screen"
	"github.com/docmind/docmind-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Authenticator is the part of the API client the forms use.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Signup(ctx context.Context, name, email, password string) (*api.AuthResponse, error)
}

// SessionSink stores the session after a successful sign in.
type SessionSink interface {
	Login(token string, profile auth.Profile) (auth.Session, error)
}

// Mode selects login or signup.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

// Messages shown under the form.
const (
	MsgMissingFields = "Please fill in all fields"
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgLoginFailed   = "Invalid email or password"
	MsgUnreachable   = "Unable to reach the server. Please try again."
)

// RequestTimeout bounds a login or signup call.
const RequestTimeout = 30 * time.Second

const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Switch key.Binding
	Back   key.Binding
}

var keys = keyMap{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Switch: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "switch")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

// resultMsg carries the outcome of a submit.
type resultMsg struct {
	mode    Mode
	session auth.Session
	err     error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is a login or signup form.
type Model struct {
	mode   Mode
	theme  *styles.Theme
	client Authenticator
	sink   SessionSink

	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string
	spinner    spinner.Model
	width      int
}

// New creates a form in the given mode.
func New(mode Mode, theme *styles.Theme, client Authenticator, sink SessionSink) Model {
	m := Model{
		mode:    mode,
		theme:   theme,
		client:  client,
		sink:    sink,
		inputs:  make([]textinput.Model, 3),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	m.inputs[fieldName] = textinput.New()
	m.inputs[fieldName].Placeholder = "Full name"
	m.inputs[fieldName].CharLimit = 100

	m.inputs[fieldEmail] = textinput.New()
	m.inputs[fieldEmail].Placeholder = "you@example.com"
	m.inputs[fieldEmail].CharLimit = 254

	m.inputs[fieldPassword] = textinput.New()
	m.inputs[fieldPassword].Placeholder = "Password"
	m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldPassword].EchoCharacter = '•'
	m.inputs[fieldPassword].CharLimit = 128

	m.focus = m.fields()[0]
	m.inputs[m.focus].Focus()
	return m
}

// Mode returns the form's mode.
func (m Model) Mode() Mode { return m.mode }

// Err returns the message shown under the form.
func (m Model) Err() string { return m.err }

// Submitting reports whether a request is in flight.
func (m Model) Submitting() bool { return m.submitting }

// SetSize updates the available width.
func (m *Model) SetSize(width, _ int) {
	m.width = width
	for i := range m.inputs {
		m.inputs[i].Width = 40
	}
}

// SetValues fills the form, for tests and prefilled emails.
func (m *Model) SetValues(name, email, password string) {
	m.inputs[fieldName].SetValue(name)
	m.inputs[fieldEmail].SetValue(email)
	m.inputs[fieldPassword].SetValue(password)
}

// fields lists the visible inputs in tab order.
func (m Model) fields() []int {
	if m.mode == ModeSignup {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		if msg.mode != m.mode {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.err = describe(msg.err)
			return m, nil
		}
		m.err = ""
		m.inputs[fieldPassword].SetValue("")
		return m, func() tea.Msg { return screen.LoggedInMsg{Session: msg.session} }

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Back):
			return m, screen.Navigate(screen.Landing)
		case key.Matches(msg, keys.Switch):
			if m.mode == ModeLogin {
				return m, screen.Navigate(screen.Signup)
			}
			return m, screen.Navigate(screen.Login)
		case key.Matches(msg, keys.Next):
			return m, m.move(1)
		case key.Matches(msg, keys.Prev):
			return m, m.move(-1)
		case key.Matches(msg, keys.Submit):
			fields := m.fields()
			if m.focus != fields[len(fields)-1] {
				return m, m.move(1)
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// move shifts focus by delta within the visible fields.
func (m *Model) move(delta int) tea.Cmd {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	m.inputs[m.focus].Blur()
	m.focus = fields[pos]
	return m.inputs[m.focus].Focus()
}

// submit validates the form and starts the request.
func (m Model) submit() (Model, tea.Cmd) {
	name := strings.TrimSpace(m.inputs[fieldName].Value())
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()

	if email == "" || password == "" || (m.mode == ModeSignup && name == "") {
		m.err = MsgMissingFields
		return m, nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		m.err = MsgInvalidEmail
		return m, nil
	}

	m.err = ""
	m.submitting = true
	mode, client, sink := m.mode, m.client, m.sink
	request := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()

		var (
			res *api.AuthResponse
			err error
		)
		if mode == ModeSignup {
			res, err = client.Signup(ctx, name, email, password)
		} else {
			res, err = client.Login(ctx, email, password)
		}
		if err != nil {
			return resultMsg{mode: mode, err: err}
		}

		profile := auth.Profile{Name: res.User.Name, Email: res.User.Email}
		if profile.Email == "" {
			profile.Email = email
		}
		if profile.Name == "" && mode == ModeSignup {
			profile.Name = name
		}
		session, err := sink.Login(res.AccessToken, profile)
		return resultMsg{mode: mode, session: session, err: err}
	}
	return m, tea.Batch(request, m.spinner.Tick)
}

// describe maps a failure to the text shown under the form.
func describe(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.HasDetail() {
			return apiErr.Detail
		}
		if apiErr.Status == 401 {
			return MsgLoginFailed
		}
		return apiErr.Error()
	}
	if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrEmptyToken) {
		return err.Error()
	}
	return MsgUnreachable
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme
	title, subtitle := "Welcome Back", "Enter your credentials to access your account"
	footer := "Don't have an account? " + t.Link.Render("Sign up") + " " + t.HelpKey.Render("ctrl+t")
	button := "Sign in"
	if m.mode == ModeSignup {
		title, subtitle = "Create Your Account", "Join thousands of users managing their documents with AI"
		footer = "Already have an account? " + t.Link.Render("Log in") + " " + t.HelpKey.Render("ctrl+t")
		button = "Create account"
	}

	labels := map[int]string{fieldName: "Name", fieldEmail: "Email", fieldPassword: "Password"}
	var rows []string
	for _, f := range m.fields() {
		rows = append(rows, t.Label.Render(labels[f]), m.inputs[f].View(), "")
	}

	btnStyle := t.Button
	if m.focus == m.fields()[len(m.fields())-1] {
		btnStyle = t.ButtonActive
	}
	if m.submitting {
		rows = append(rows, m.spinner.View()+" "+t.Processing.Render("Please wait..."))
	} else {
		rows = append(rows, btnStyle.Render(button))
	}
	if m.err != "" {
		rows = append(rows, "", styles.RenderError(m.err))
	}

	form := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	help := components.KeyHelp(t, "tab", "next", "enter", "submit", "esc", "back")
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Brand.Render("◆ DocMind"),
		t.Title.Render(title),
		t.Subtitle.Render(subtitle),
		"",
		form,
		"",
		footer,
		help,
	)
}
