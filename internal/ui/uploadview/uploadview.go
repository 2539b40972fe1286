// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package uploadview is the document upload screen.
//
// A file is chosen by typing or pasting its path (terminals paste a dragged
// file as its path) or by saving it into the drop folder. Progress from the
// upload goroutine arrives on a channel that the model listens to one
// message at a time.
package uploadview

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/ui/components"
	"github.com/docmind/docmind-tui/internal/ui/screen"
	"github.com/docmind/docmind-tui/internal/ui/styles"
	"github.com/docmind/docmind-tui/internal/upload"
)

// UploadTimeout bounds a single upload.
const UploadTimeout = 5 * time.Minute

// Uploader sends a document.
type Uploader interface {
	Upload(ctx context.Context, doc upload.Document, progress api.ProgressFunc) error
}

// =============================================================================
// MESSAGES
// =============================================================================

type progressMsg struct {
	sent, total int64
}

type doneMsg struct {
	doc upload.Document
	err error
}

type dropMsg upload.Drop

// dropsClosedMsg ends listening when the watcher shuts down.
type dropsClosedMsg struct{}

type keyMap struct {
	Upload key.Binding
	Clear  key.Binding
}

var keys = keyMap{
	Upload: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
	Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the upload screen.
type Model struct {
	theme    *styles.Theme
	uploader Uploader
	desktop  upload.Desktop
	drops    <-chan upload.Drop
	dropDir  string

	input    textinput.Model
	bar      progress.Model
	selected *upload.Document

	uploading bool
	events    chan tea.Msg
	sent      int64
	total     int64
	err       string
	width     int
}

// New creates the upload screen. drops may be nil when no drop folder is
// watched.
func New(theme *styles.Theme, uploader Uploader, desktop upload.Desktop, drops <-chan upload.Drop, dropDir string) Model {
	if desktop == nil {
		desktop = upload.OSDesktop{}
	}
	in := textinput.New()
	in.Placeholder = "Paste or type the path of a PDF, DOCX or PPTX file"
	in.CharLimit = 4096
	in.Prompt = "› "
	in.Focus()

	return Model{
		theme:    theme,
		uploader: uploader,
		desktop:  desktop,
		drops:    drops,
		dropDir:  dropDir,
		input:    in,
		bar:      progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts listening for dropped files.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenDrops())
}

// SetSize updates the available width.
func (m *Model) SetSize(width, _ int) {
	m.width = width
	m.input.Width = max(width-8, 20)
	m.bar.Width = min(max(width-8, 20), 60)
}

// Err returns the message shown under the drop zone.
func (m Model) Err() string { return m.err }

// Uploading reports whether an upload is in flight.
func (m Model) Uploading() bool { return m.uploading }

// Selected returns the validated document, if any.
func (m Model) Selected() (upload.Document, bool) {
	if m.selected == nil {
		return upload.Document{}, false
	}
	return *m.selected, true
}

// Reset clears the form, for a fresh visit to the screen.
func (m *Model) Reset() {
	if m.uploading {
		return
	}
	m.input.Reset()
	m.selected = nil
	m.err = ""
	m.sent, m.total = 0, 0
}

func (m Model) listenDrops() tea.Cmd {
	if m.drops == nil {
		return nil
	}
	drops := m.drops
	return func() tea.Msg {
		d, ok := <-drops
		if !ok {
			return dropsClosedMsg{}
		}
		return dropMsg(d)
	}
}

// waitForEvent reads the next message from the upload goroutine.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dropMsg:
		if !m.uploading {
			m.choose(upload.Drop(msg))
		}
		return m, m.listenDrops()

	case dropsClosedMsg:
		return m, nil

	case progressMsg:
		m.sent, m.total = msg.sent, msg.total
		return m, waitForEvent(m.events)

	case doneMsg:
		m.uploading = false
		m.events = nil
		if msg.err != nil {
			if isAuthFailure(msg.err) {
				return m, screen.Logout
			}
			m.err = upload.Message(msg.err)
			return m, nil
		}
		name := msg.doc.Name
		m.Reset()
		return m, tea.Batch(
			func() tea.Msg { return screen.UploadedMsg{Name: name} },
			screen.Navigate(screen.Chat),
		)

	case tea.KeyMsg:
		if m.uploading {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Upload):
			return m.start()
		case key.Matches(msg, keys.Clear):
			m.Reset()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.selected = nil
		m.err = ""
	}
	return m, cmd
}

// choose applies a dropped file to the form.
func (m *Model) choose(d upload.Drop) {
	m.input.SetValue(d.Path)
	if d.Err != nil {
		m.selected = nil
		m.err = upload.Message(d.Err)
		return
	}
	doc := d.Document
	m.selected = &doc
	m.err = ""
}

// start validates the chosen path and launches the upload goroutine.
func (m Model) start() (Model, tea.Cmd) {
	if m.selected == nil {
		path := upload.CleanDroppedPath(m.input.Value())
		if path == "" {
			m.err = upload.MsgNoFile
			return m, nil
		}
		doc, err := m.desktop.ReadDroppedFile(path)
		if err != nil {
			m.err = upload.Message(err)
			return m, nil
		}
		m.selected = &doc
	}

	doc := *m.selected
	events := make(chan tea.Msg, 16)
	m.events = events
	m.uploading = true
	m.err = ""
	m.sent, m.total = 0, doc.Size

	uploader := m.uploader
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), UploadTimeout)
		defer cancel()
		err := uploader.Upload(ctx, doc, func(sent, total int64) {
			select {
			case events <- progressMsg{sent: sent, total: total}:
			default:
			}
		})
		events <- doneMsg{doc: doc, err: err}
	}()
	return m, waitForEvent(events)
}

// isAuthFailure reports errors that end the session.
func isAuthFailure(err error) bool {
	return errors.Is(err, auth.ErrNotLoggedIn) ||
		errors.Is(err, auth.ErrSessionExpired) ||
		api.IsUnauthorized(err)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme
	width := max(m.width-4, 30)

	zone := []string{
		t.Muted.Render("Drag a file onto this window or type its path, then press enter."),
	}
	if m.dropDir != "" {
		zone = append(zone, t.Muted.Render("Files saved to "+components.Truncate(m.dropDir, width-20)+" are picked up too."))
	}
	zone = append(zone, "", m.input.View())

	if m.selected != nil {
		d := m.selected
		zone = append(zone, "", d.Kind.Icon()+" "+t.Bold.Render(d.Name)+" "+t.Muted.Render(d.SizeLabel()))
	}
	if m.uploading {
		pct := 0.0
		if m.total > 0 {
			pct = float64(m.sent) / float64(m.total)
		}
		zone = append(zone, "", t.Processing.Render("Uploading..."), m.bar.ViewAs(pct))
	}

	rows := []string{
		t.Title.Render("Upload Document"),
		t.Subtitle.Render("Supported formats: PDF, DOCX, PPTX"),
		"",
		t.DropZone.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, zone...)),
	}
	if m.err != "" {
		rows = append(rows, "", components.ErrorBanner(t, m.err, width))
	}
	rows = append(rows, "", components.KeyHelp(t, "enter", "upload", "esc", "clear", "ctrl+n", "chat"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
