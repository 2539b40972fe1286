// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uploadview

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/ui/screen"
	"github.com/docmind/docmind-tui/internal/ui/styles"
	"github.com/docmind/docmind-tui/internal/upload"
)

type fakeDesktop struct {
	docs map[string]upload.Document
}

func (d fakeDesktop) ReadDroppedFile(path string) (upload.Document, error) {
	doc, ok := d.docs[path]
	if !ok {
		return upload.Document{}, upload.ErrUnsupportedType
	}
	return doc, nil
}

func (fakeDesktop) WriteClipboardText(string) error { return nil }

type fakeUploader struct {
	err  error
	docs []upload.Document
}

func (f *fakeUploader) Upload(_ context.Context, doc upload.Document, progress api.ProgressFunc) error {
	f.docs = append(f.docs, doc)
	progress(doc.Size/2, doc.Size)
	return f.err
}

var report = upload.Document{Path: "/tmp/report.pdf", Name: "report.pdf", Size: 2048, Kind: upload.KindPDF}

func newModel(u Uploader, drops <-chan upload.Drop) Model {
	desktop := fakeDesktop{docs: map[string]upload.Document{report.Path: report}}
	m := New(styles.NewTheme("dark"), u, desktop, drops, "")
	m.SetSize(80, 24)
	return m
}

// drain feeds messages from the upload goroutine back into the model until
// it settles, returning the follow-up messages.
func drain(t *testing.T, m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	t.Helper()
	var out []tea.Msg
	for cmd != nil {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				out = append(out, c())
			}
			return m, out
		}
		switch msg.(type) {
		case progressMsg, doneMsg:
			m, cmd = m.Update(msg)
		default:
			return m, append(out, msg)
		}
	}
	return m, out
}

func TestUpload_Success(t *testing.T) {
	up := &fakeUploader{}
	m := newModel(up, nil)
	m.input.SetValue("'/tmp/report.pdf'")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Uploading())
	assert.Contains(t, m.View(), "Uploading")

	m, msgs := drain(t, m, cmd)
	assert.False(t, m.Uploading())
	require.Len(t, up.docs, 1)
	assert.Equal(t, "report.pdf", up.docs[0].Name)
	assert.Contains(t, msgs, tea.Msg(screen.UploadedMsg{Name: "report.pdf"}))
	assert.Contains(t, msgs, tea.Msg(screen.NavigateMsg{To: screen.Chat}))
	assert.Empty(t, m.input.Value())
}

func TestUpload_Errors(t *testing.T) {
	m := newModel(&fakeUploader{}, nil)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, upload.MsgNoFile, m.Err())

	m.input.SetValue("/tmp/notes.txt")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, upload.MsgUnsupportedType, m.Err())
	assert.False(t, m.Uploading())
}

func TestUpload_RequestFailure(t *testing.T) {
	m := newModel(&fakeUploader{err: errors.New("connection reset")}, nil)
	m.input.SetValue(report.Path)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, msgs := drain(t, m, cmd)

	assert.Empty(t, msgs)
	assert.Equal(t, upload.MsgUploadFailed, m.Err())
	assert.Contains(t, m.View(), upload.MsgUploadFailed)
}

func TestUpload_AuthFailureLogsOut(t *testing.T) {
	m := newModel(&fakeUploader{err: auth.ErrSessionExpired}, nil)
	m.input.SetValue(report.Path)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, msgs := drain(t, m, cmd)

	assert.Equal(t, []tea.Msg{screen.LogoutMsg{}}, msgs)
}

func TestDrop_SelectsDocument(t *testing.T) {
	drops := make(chan upload.Drop, 1)
	drops <- upload.Drop{Path: report.Path, Document: report}
	m := newModel(&fakeUploader{}, drops)

	cmd := m.listenDrops()
	require.NotNil(t, cmd)
	m, next := m.Update(cmd())
	assert.NotNil(t, next)

	doc, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Contains(t, m.View(), "report.pdf")

	close(drops)
	_, last := m.Update(next())
	assert.Nil(t, last)
}

func TestDrop_ShowsValidationError(t *testing.T) {
	m := newModel(&fakeUploader{}, nil)
	m, _ = m.Update(dropMsg{Path: "/tmp/a.exe", Err: upload.ErrUnsupportedType})
	assert.Equal(t, upload.MsgUnsupportedType, m.Err())
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestView_Copy(t *testing.T) {
	out := newModel(&fakeUploader{}, nil).View()
	assert.Contains(t, out, "Upload Document")
	assert.Contains(t, out, "Supported formats: PDF, DOCX, PPTX")
}
