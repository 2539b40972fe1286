// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/loop"
	"github.com/docmind/docmind-tui/internal/ui/bridge"
	"github.com/docmind/docmind-tui/internal/ui/screen"
)

type fakeClient struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeClient) Login(context.Context, string, string) (*api.AuthResponse, error) {
	return &api.AuthResponse{AccessToken: "tok"}, nil
}

func (f *fakeClient) Signup(context.Context, string, string, string) (*api.AuthResponse, error) {
	return &api.AuthResponse{AccessToken: "tok"}, nil
}

func (f *fakeClient) Chat(_ context.Context, _, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return "It says **yes**.", nil
}

func (f *fakeClient) Upload(context.Context, string, string, io.Reader, int64, api.ProgressFunc) (*api.UploadResponse, error) {
	return &api.UploadResponse{}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t        *testing.T
	sched    *loop.Manual
	client   *fakeClient
	sessions *auth.Manager
	clock    *clock
	m        *Model
}

func newHarness(t *testing.T, showLanding bool) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		sched:  loop.NewManual(),
		client: &fakeClient{},
		clock:  &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.sessions = auth.NewManager(&auth.MemoryStore{}, nil).WithClock(h.clock.Now)
	h.m = New(Deps{
		Client:         h.client,
		Sessions:       h.sessions,
		Scheduler:      h.sched,
		Theme:          "dark",
		ShowLanding:    showLanding,
		RevealInterval: 10 * time.Millisecond,
	})
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// update applies msg and follows any navigation or session messages the
// screens produce, the way the program loop would.
func (h *harness) update(msg tea.Msg) {
	_, cmd := h.m.Update(msg)
	h.follow(cmd)
}

func (h *harness) follow(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	// Timer commands (cursor blink, session checks) would block; they are
	// abandoned after a short wait.
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-out:
	case <-time.After(50 * time.Millisecond):
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.follow(c)
		}
	case screen.NavigateMsg, screen.LoggedInMsg, screen.LogoutMsg, screen.UploadedMsg:
		h.update(msg)
	}
}

func (h *harness) signIn(token string) {
	h.t.Helper()
	s, err := h.sessions.Login(token, auth.Profile{Name: "Ada Lovelace", Email: "ada@example.com"})
	require.NoError(h.t, err)
	h.update(screen.LoggedInMsg{Session: s})
}

func (h *harness) typeText(text string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestStart_ScreenDependsOnSession(t *testing.T) {
	assert.Equal(t, screen.Landing, newHarness(t, true).m.Current())
	assert.Equal(t, screen.Login, newHarness(t, false).m.Current())
}

func TestPrivateScreens_RedirectToLogin(t *testing.T) {
	h := newHarness(t, true)
	h.update(screen.NavigateMsg{To: screen.Chat})
	assert.Equal(t, screen.Login, h.m.Current())

	view := h.m.View()
	assert.Contains(t, view, "Welcome Back")
	assert.NotContains(t, view, "Sign Out")
}

func TestLogin_ShowsLayoutShell(t *testing.T) {
	h := newHarness(t, true)
	h.signIn("tok")

	require.Equal(t, screen.Upload, h.m.Current())
	view := h.m.View()
	assert.Contains(t, view, "Upload Document")
	assert.Contains(t, view, "Chat Interface")
	assert.Contains(t, view, "Ada Lovelace")
	assert.Contains(t, view, "Sign Out")

	h.update(screen.NavigateMsg{To: screen.Login})
	assert.Equal(t, screen.Upload, h.m.Current())
}

func TestChat_EndToEnd(t *testing.T) {
	h := newHarness(t, false)
	h.signIn("tok")
	h.update(screen.UploadedMsg{Name: "handbook.pdf"})
	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, screen.Chat, h.m.Current())
	assert.Contains(t, h.m.View(), "handbook.pdf")

	h.typeText("Is it allowed?")
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, chatsession.StateSending, h.m.Chat().Snapshot().State)

	require.True(t, h.sched.WaitPosted(2*time.Second))
	h.update(bridge.RunMsg{})
	h.sched.Advance(time.Minute)
	h.update(bridge.RunMsg{})

	snap := h.m.Chat().Snapshot()
	assert.Equal(t, chatsession.StateIdle, snap.State)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "It says **yes**.", snap.Messages[1].Content)
	assert.Contains(t, h.m.View(), "yes")
}

// startReveal signs in, opens Chat about doc and submits a question,
// stopping part way through the reveal.
func (h *harness) startReveal(doc string) *chatsession.Controller {
	h.t.Helper()
	h.signIn("tok")
	h.update(screen.UploadedMsg{Name: doc})
	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(h.t, screen.Chat, h.m.Current())

	h.typeText("Is it allowed?")
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(h.t, h.sched.WaitPosted(2*time.Second))
	h.update(bridge.RunMsg{})
	h.sched.Advance(10 * time.Millisecond)
	h.update(bridge.RunMsg{})
	require.Equal(h.t, chatsession.StateRevealing, h.m.Chat().Snapshot().State)
	return h.m.Chat().Controller()
}

func TestLeaveChat_MidRevealClosesConversation(t *testing.T) {
	h := newHarness(t, false)
	ctrl := h.startReveal("handbook.pdf")

	h.update(tea.KeyMsg{Type: tea.KeyCtrlU})
	require.Equal(t, screen.Upload, h.m.Current())
	assert.True(t, ctrl.Closed())
	assert.Zero(t, h.sched.Pending(), "reveal ticks are cancelled")

	h.sched.Advance(time.Minute)
	snap := ctrl.Snapshot()
	assert.Equal(t, chatsession.StateIdle, snap.State)
	require.Len(t, snap.Messages, 2)
	assert.False(t, snap.Messages[1].IsFinal)
	assert.NotEqual(t, "It says **yes**.", snap.Messages[1].Content)

	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, screen.Chat, h.m.Current())
	assert.False(t, h.m.Chat().Controller().Closed())
	assert.Empty(t, h.m.Chat().Snapshot().Messages)
	assert.Contains(t, h.m.View(), "handbook.pdf")
}

func TestUpload_NewDocumentStartsNewConversation(t *testing.T) {
	h := newHarness(t, false)
	ctrl := h.startReveal("handbook.pdf")
	h.sched.Advance(time.Minute)
	h.update(bridge.RunMsg{})
	require.Len(t, h.m.Chat().Snapshot().Messages, 2)

	h.update(screen.UploadedMsg{Name: "other.pdf"})
	assert.True(t, ctrl.Closed())

	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, screen.Chat, h.m.Current())
	assert.Empty(t, h.m.Chat().Snapshot().Messages)
	view := h.m.View()
	assert.Contains(t, view, "other.pdf")
	assert.NotContains(t, view, "handbook.pdf")
}

func TestSignOut_ClearsSession(t *testing.T) {
	h := newHarness(t, false)
	h.signIn("tok")
	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	ctrl := h.m.Chat().Controller()

	h.update(tea.KeyMsg{Type: tea.KeyCtrlO})

	assert.Equal(t, screen.Login, h.m.Current())
	assert.False(t, h.sessions.IsAuthenticated())
	assert.True(t, ctrl.Closed())

	h.signIn("tok")
	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.False(t, h.m.Chat().Controller().Closed())
	assert.Empty(t, h.m.Chat().Snapshot().Messages)
}

func TestSessionCheck_ExpiredTokenSignsOut(t *testing.T) {
	h := newHarness(t, false)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ada@example.com",
		"exp": h.clock.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	h.signIn(token)

	h.update(sessionCheckMsg{})
	assert.Equal(t, screen.Upload, h.m.Current())

	h.clock.Add(2 * time.Hour)
	_, cmd := h.m.Update(sessionCheckMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, screen.Login, h.m.Current())
}

func TestNarrowTerminal_HidesSidebar(t *testing.T) {
	h := newHarness(t, false)
	h.signIn("tok")
	h.update(tea.WindowSizeMsg{Width: 50, Height: 30})
	assert.NotContains(t, h.m.View(), "Sign Out")
}
