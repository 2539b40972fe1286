// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsession

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/format"
	"github.com/docmind/docmind-tui/internal/loop"
	"github.com/docmind/docmind-tui/internal/model"
)

const (
	testInterval = 10 * time.Millisecond
	waitTimeout  = 2 * time.Second
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeClient struct {
	mu      sync.Mutex
	queries []string
	tokens  []string
	respond func(ctx context.Context, query string) (string, error)
}

func (f *fakeClient) Chat(ctx context.Context, token, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.tokens = append(f.tokens, token)
	respond := f.respond
	f.mu.Unlock()
	return respond(ctx, query)
}

func (f *fakeClient) setResponse(answer string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.respond = func(context.Context, string) (string, error) { return answer, err }
}

func (f *fakeClient) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token() (string, error) { return s.token, s.err }

type harness struct {
	t      *testing.T
	sched  *loop.Manual
	client *fakeClient
	ctrl   *Controller
	states []State
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		sched:  loop.NewManual(),
		client: &fakeClient{},
	}
	h.client.setResponse("ok", nil)
	h.ctrl = New(h.client, staticToken{token: "tok"}, h.sched, Options{RevealInterval: testInterval})
	h.ctrl.OnChange(func(s Snapshot) { h.states = append(h.states, s.State) })
	t.Cleanup(h.ctrl.Close)
	return h
}

// awaitResult runs the posted network result on the test goroutine.
func (h *harness) awaitResult() {
	h.t.Helper()
	require.True(h.t, h.sched.WaitPosted(waitTimeout), "no chat result posted")
}

// finishReveal advances virtual time until the reveal completes.
func (h *harness) finishReveal() {
	h.sched.Advance(time.Minute)
}

func (h *harness) exchange(query, answer string) {
	h.t.Helper()
	h.client.setResponse(answer, nil)
	require.NoError(h.t, h.ctrl.Submit(query))
	h.awaitResult()
	h.finishReveal()
	require.Equal(h.t, StateIdle, h.ctrl.State())
}

// =============================================================================
// SUCCESS PATH
// =============================================================================

func TestSubmit_RefundScenario(t *testing.T) {
	h := newHarness(t)
	h.exchange("What is the refund policy?", "**Refunds** are allowed within *30 days*.")

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.Message{Role: model.RoleUser, Content: "What is the refund policy?", IsFinal: true}, snap.Messages[0])

	answer := snap.Messages[1]
	assert.Equal(t, model.RoleAssistant, answer.Role)
	assert.True(t, answer.IsFinal)

	blocks := format.Format(answer.Content)
	require.Len(t, blocks, 1)
	p, ok := blocks[0].(format.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []format.Span{
		format.Bold("Refunds"),
		format.Plain(" are allowed within "),
		format.Italic("30 days"),
		format.Plain("."),
	}, p.Spans)

	assert.Equal(t, []string{"What is the refund policy?"}, h.client.calls())
	assert.Equal(t, []string{"tok"}, h.client.tokens)
}

func TestSubmit_StateTransitions(t *testing.T) {
	h := newHarness(t)
	h.client.setResponse("a b c", nil)

	require.NoError(t, h.ctrl.Submit("q"))
	assert.Equal(t, StateSending, h.ctrl.State())
	assert.Len(t, h.ctrl.Snapshot().Messages, 1)

	h.awaitResult()
	assert.Equal(t, StateRevealing, h.ctrl.State())

	h.sched.Advance(0)
	last := h.ctrl.Snapshot().Messages[1]
	assert.Equal(t, "a", last.Content)
	assert.False(t, last.IsFinal)

	h.finishReveal()
	assert.Equal(t, []State{
		StateSending,
		StateRevealing,
		StateRevealing, // "a"
		StateRevealing, // "a b"
		StateRevealing, // "a b c"
		StateIdle,
	}, h.states)
}

func TestSubmit_ClearsPreviousError(t *testing.T) {
	h := newHarness(t)
	h.client.setResponse("", errors.New("boom"))
	require.NoError(t, h.ctrl.Submit("q1"))
	h.awaitResult()
	require.Equal(t, MsgUnknown, h.ctrl.Snapshot().Error)

	h.client.setResponse("fine", nil)
	require.NoError(t, h.ctrl.Submit("q2"))
	assert.Empty(t, h.ctrl.Snapshot().Error)
	assert.Equal(t, CategoryNone, h.ctrl.Snapshot().Category)
}

func TestSubmit_EmptyAnswer(t *testing.T) {
	h := newHarness(t)
	h.exchange("q", "")

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.True(t, snap.Messages[1].IsFinal)
	assert.Empty(t, snap.Messages[1].Content)
}

// =============================================================================
// PRECONDITIONS
// =============================================================================

func TestSubmit_Rejections(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.ctrl.Submit(""), ErrEmptyQuery)
	assert.ErrorIs(t, h.ctrl.Submit("  \n\t"), ErrEmptyQuery)
	assert.Empty(t, h.ctrl.Snapshot().Messages)

	require.NoError(t, h.ctrl.Submit("first"))
	assert.ErrorIs(t, h.ctrl.Submit("second"), ErrBusy)

	h.awaitResult()
	assert.ErrorIs(t, h.ctrl.Submit("during reveal"), ErrBusy)
	assert.ErrorIs(t, h.ctrl.Regenerate(), ErrBusy)

	h.finishReveal()
	assert.Len(t, h.ctrl.Snapshot().Messages, 2)
	assert.Equal(t, []string{"first"}, h.client.calls())
}

func TestSubmit_NotLoggedIn(t *testing.T) {
	sched := loop.NewManual()
	client := &fakeClient{}
	ctrl := New(client, staticToken{err: auth.ErrNotLoggedIn}, sched, Options{})
	defer ctrl.Close()

	assert.ErrorIs(t, ctrl.Submit("q"), auth.ErrNotLoggedIn)
	assert.Empty(t, ctrl.Snapshot().Messages)
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Empty(t, client.calls())
}

// =============================================================================
// FAILURES
// =============================================================================

func TestSubmit_DetailRollsBack(t *testing.T) {
	h := newHarness(t)
	h.client.setResponse("", &api.Error{Status: 400, Detail: "No document found"})

	require.NoError(t, h.ctrl.Submit("What is this?"))
	h.awaitResult()

	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Equal(t, "No document found", snap.Error)
	assert.Equal(t, CategoryValidationDetail, snap.Category)
	assert.Equal(t, StateIdle, snap.State)
}

func TestSubmit_Bare400RollsBack(t *testing.T) {
	h := newHarness(t)
	h.client.setResponse("", &api.Error{Status: 400})

	require.NoError(t, h.ctrl.Submit("q"))
	h.awaitResult()

	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Equal(t, MsgNoDocument, snap.Error)
	assert.Equal(t, CategoryNoDocumentUploaded, snap.Category)
}

func TestSubmit_UnknownKeepsUserMessage(t *testing.T) {
	for name, err := range map[string]error{
		"server error":  &api.Error{Status: 500},
		"network error": errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.exchange("earlier", "answer")

			h.client.setResponse("", err)
			require.NoError(t, h.ctrl.Submit("q"))
			h.awaitResult()

			snap := h.ctrl.Snapshot()
			require.Len(t, snap.Messages, 3)
			assert.Equal(t, "q", snap.Messages[2].Content)
			assert.Equal(t, MsgUnknown, snap.Error)
			assert.Equal(t, CategoryUnknown, snap.Category)
			assert.Equal(t, StateIdle, snap.State)
		})
	}
}

func TestSubmit_UnauthorizedFlagged(t *testing.T) {
	h := newHarness(t)
	h.client.setResponse("", &api.Error{Status: 401, Detail: "Not authenticated"})
	require.NoError(t, h.ctrl.Submit("hello"))
	h.awaitResult()

	snap := h.ctrl.Snapshot()
	assert.True(t, snap.Unauthorized)
	assert.Equal(t, "Not authenticated", snap.Error)

	h.client.setResponse("fine", nil)
	require.NoError(t, h.ctrl.Submit("again"))
	assert.False(t, h.ctrl.Snapshot().Unauthorized)
}

func TestSubmit_RollbackOnlyRemovesNewMessage(t *testing.T) {
	h := newHarness(t)
	h.exchange("earlier", "answer")

	h.client.setResponse("", &api.Error{Status: 422, Detail: "query too long"})
	require.NoError(t, h.ctrl.Submit("q"))
	h.awaitResult()

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "earlier", snap.Messages[0].Content)
	assert.Equal(t, "answer", snap.Messages[1].Content)
}

// =============================================================================
// REGENERATE
// =============================================================================

func TestRegenerate_NoPriorExchange(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.ctrl.Regenerate(), ErrNothingToRegenerate)

	// A lone user message left by an unknown failure.
	h.client.setResponse("", errors.New("offline"))
	require.NoError(t, h.ctrl.Submit("only question"))
	h.awaitResult()
	before := h.ctrl.Snapshot()
	require.Len(t, before.Messages, 1)
	assert.False(t, before.CanRegenerate())

	assert.ErrorIs(t, h.ctrl.Regenerate(), ErrNothingToRegenerate)
	after := h.ctrl.Snapshot()
	assert.Equal(t, before, after)
	assert.Len(t, h.client.calls(), 1)
}

func TestRegenerate_ReplacesLastAnswer(t *testing.T) {
	h := newHarness(t)
	h.exchange("q1", "first answer")
	h.exchange("q2", "second answer")
	require.True(t, h.ctrl.Snapshot().CanRegenerate())

	h.client.setResponse("better answer", nil)
	require.NoError(t, h.ctrl.Regenerate())
	assert.Equal(t, StateSending, h.ctrl.State())
	assert.Len(t, h.ctrl.Snapshot().Messages, 3)

	h.awaitResult()
	h.finishReveal()

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 4)
	assert.Equal(t, "q2", snap.Messages[2].Content)
	assert.Equal(t, "better answer", snap.Messages[3].Content)
	assert.Equal(t, []string{"q1", "q2", "q2"}, h.client.calls())

	answer, ok := snap.LastAnswer()
	require.True(t, ok)
	assert.Equal(t, "better answer", answer)
}

func TestRegenerate_FailureKeepsUserMessage(t *testing.T) {
	h := newHarness(t)
	h.exchange("q", "answer")

	h.client.setResponse("", &api.Error{Status: 400, Detail: "No document found"})
	require.NoError(t, h.ctrl.Regenerate())
	h.awaitResult()

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, model.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "No document found", snap.Error)
}

// =============================================================================
// TEARDOWN
// =============================================================================

func TestClose_DuringReveal(t *testing.T) {
	h := newHarness(t)
	h.client.setResponse("one two three", nil)
	require.NoError(t, h.ctrl.Submit("q"))
	h.awaitResult()
	h.sched.Advance(0)

	notified := len(h.states)
	h.ctrl.Close()
	h.sched.Advance(time.Minute)

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "one", snap.Messages[1].Content)
	assert.Len(t, h.states, notified)
	assert.Zero(t, h.sched.Pending())
	assert.ErrorIs(t, h.ctrl.Submit("again"), ErrClosed)
	assert.ErrorIs(t, h.ctrl.Regenerate(), ErrClosed)
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	h := newHarness(t)
	cancelled := make(chan struct{})
	h.client.mu.Lock()
	h.client.respond = func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		close(cancelled)
		return "late answer", nil
	}
	h.client.mu.Unlock()

	require.NoError(t, h.ctrl.Submit("q"))
	h.ctrl.Close()

	select {
	case <-cancelled:
	case <-time.After(waitTimeout):
		t.Fatal("request context was not cancelled")
	}
	h.awaitResult()
	h.sched.Advance(time.Minute)

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, model.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, StateIdle, snap.State)
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestController_AtMostOnePendingAssistant(t *testing.T) {
	h := newHarness(t)
	rng := rand.New(rand.NewSource(42))
	responses := []func(){
		func() { h.client.setResponse("alpha beta gamma", nil) },
		func() { h.client.setResponse("", &api.Error{Status: 400}) },
		func() { h.client.setResponse("", &api.Error{Status: 400, Detail: "bad"}) },
		func() { h.client.setResponse("", errors.New("down")) },
		func() { h.client.setResponse("", nil) },
	}

	for step := 0; step < 500; step++ {
		switch rng.Intn(5) {
		case 0:
			responses[rng.Intn(len(responses))]()
			_ = h.ctrl.Submit("question")
		case 1:
			responses[rng.Intn(len(responses))]()
			_ = h.ctrl.Regenerate()
		case 2:
			h.sched.Advance(time.Duration(rng.Intn(40)) * time.Millisecond)
		case 3:
			if h.ctrl.State() == StateSending {
				h.awaitResult()
			}
		case 4:
			_ = h.ctrl.Submit("")
		}

		pending := 0
		for _, m := range h.ctrl.Snapshot().Messages {
			if m.IsPlaceholder() {
				pending++
			}
		}
		require.LessOrEqual(t, pending, 1, "step %d", step)
		if h.ctrl.State() != StateRevealing {
			require.Zero(t, pending, "step %d: placeholder outside reveal", step)
		}
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category Category
		msg      string
	}{
		{"nil", nil, CategoryNone, ""},
		{"detail", &api.Error{Status: 400, Detail: "No document found"}, CategoryValidationDetail, "No document found"},
		{"detail wins on 500", &api.Error{Status: 500, Detail: "index busy"}, CategoryValidationDetail, "index busy"},
		{"bare 400", &api.Error{Status: 400}, CategoryNoDocumentUploaded, MsgNoDocument},
		{"wrapped 400", errors.Join(errors.New("chat"), &api.Error{Status: 400}), CategoryNoDocumentUploaded, MsgNoDocument},
		{"bare 401", &api.Error{Status: 401}, CategoryUnknown, MsgUnknown},
		{"transport", context.DeadlineExceeded, CategoryUnknown, MsgUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			category, msg := Classify(tc.err)
			assert.Equal(t, tc.category, category)
			assert.Equal(t, tc.msg, msg)
		})
	}
}
