// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsession

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/logging"
	"github.com/docmind/docmind-tui/internal/loop"
	"github.com/docmind/docmind-tui/internal/model"
	"github.com/docmind/docmind-tui/internal/reveal"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// ChatClient sends a query and returns the complete answer.
type ChatClient interface {
	Chat(ctx context.Context, token, query string) (string, error)
}

// TokenSource supplies the bearer token of the signed-in user.
type TokenSource interface {
	Token() (string, error)
}

// =============================================================================
// STATE
// =============================================================================

// State is the controller's position in the submission cycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateRevealing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateRevealing:
		return "revealing"
	default:
		return "idle"
	}
}

// Snapshot is an immutable view of the session for renderers.
type Snapshot struct {
	Messages []model.Message
	State    State
	Error    string
	Category Category

	// Unauthorized is set when the last chat call was rejected with 401.
	Unauthorized bool
}

// CanSubmit reports whether input should be enabled.
func (s Snapshot) CanSubmit() bool {
	return s.State == StateIdle
}

// CanRegenerate reports whether Regenerate would do anything.
func (s Snapshot) CanRegenerate() bool {
	return s.State == StateIdle && regenerable(s.Messages)
}

// LastAnswer returns the content of the most recent final assistant message.
func (s Snapshot) LastAnswer() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == model.RoleAssistant && m.IsFinal {
			return m.Content, true
		}
	}
	return "", false
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options tunes a Controller.
type Options struct {
	// RevealInterval is the delay between revealed prefixes.
	RevealInterval time.Duration

	// RequestTimeout bounds one chat call. Zero means no extra bound.
	RequestTimeout time.Duration

	Logger *zap.Logger
}

// Controller drives one chat screen: submission, reveal, regenerate and
// error handling over a single Conversation.
//
// Every method, and every callback it schedules, runs on the scheduler's
// thread. Only the network call runs elsewhere; its result is posted back.
type Controller struct {
	conv   *model.Conversation
	client ChatClient
	tokens TokenSource
	sched  loop.Scheduler
	opts   Options
	log    *zap.Logger

	state        State
	category     Category
	unauthorized bool
	reveal       reveal.Slot

	// gen identifies the current submission; results carrying an older
	// generation are discarded.
	gen uint64

	ctx           context.Context
	cancel        context.CancelFunc
	cancelRequest context.CancelFunc
	closed        bool

	listeners []func(Snapshot)
}

// New creates a controller with an empty conversation.
func New(client ChatClient, tokens TokenSource, sched loop.Scheduler, opts Options) *Controller {
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = reveal.DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		conv:   model.NewConversation(),
		client: client,
		tokens: tokens,
		sched:  sched,
		opts:   opts,
		log:    logging.OrNop(opts.Logger).Named("chat"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnChange registers fn to be called after every state transition.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Messages:     c.conv.Messages(),
		State:        c.state,
		Error:        c.conv.LastError,
		Category:     c.category,
		Unauthorized: c.unauthorized,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Submit sends text as a new user message.
func (c *Controller) Submit(text string) error {
	if c.closed {
		return ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyQuery
	}
	if c.state != StateIdle {
		return ErrBusy
	}
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	c.conv.AppendUser(text)
	c.send(text, token, true)
	return nil
}

// Regenerate drops the last assistant answer and resubmits the user message
// that preceded it.
func (c *Controller) Regenerate() error {
	if c.closed {
		return ErrClosed
	}
	if c.state != StateIdle {
		return ErrBusy
	}
	msgs := c.conv.Messages()
	if !regenerable(msgs) {
		return ErrNothingToRegenerate
	}
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	c.reveal.Cancel()
	c.conv.DropLast()
	query, _ := c.conv.LastUserMessage()
	c.send(query.Content, token, false)
	return nil
}

// regenerable reports whether msgs end with an assistant answer that has a
// user message before it.
func regenerable(msgs []model.Message) bool {
	if len(msgs) < 2 || msgs[len(msgs)-1].Role != model.RoleAssistant {
		return false
	}
	for i := len(msgs) - 2; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			return true
		}
	}
	return false
}

// Close tears the session down. The active reveal and any in-flight request
// are cancelled and later results are ignored.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.reveal.Cancel()
	if c.cancelRequest != nil {
		c.cancelRequest()
		c.cancelRequest = nil
	}
	c.cancel()
	c.conv.AwaitingResponse = false
	c.conv.Revealing = false
	c.state = StateIdle
	c.listeners = nil
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	return c.closed
}

// =============================================================================
// SUBMISSION CYCLE
// =============================================================================

// send starts the network call. appended records whether this submission
// added a user message, which decides rollback on failure.
func (c *Controller) send(query, token string, appended bool) {
	c.conv.LastError = ""
	c.category = CategoryNone
	c.unauthorized = false
	c.conv.AwaitingResponse = true
	c.state = StateSending

	c.gen++
	gen := c.gen

	var ctx context.Context
	if c.opts.RequestTimeout > 0 {
		ctx, c.cancelRequest = context.WithTimeout(c.ctx, c.opts.RequestTimeout)
	} else {
		ctx, c.cancelRequest = context.WithCancel(c.ctx)
	}

	c.log.Debug("chat submit", zap.Uint64("gen", gen), zap.Bool("regenerate", !appended), zap.Int("query_len", len(query)))

	go func() {
		answer, err := c.client.Chat(ctx, token, query)
		c.sched.Post(func() {
			c.handleResult(gen, appended, answer, err)
		})
	}()

	c.notify()
}

func (c *Controller) handleResult(gen uint64, appended bool, answer string, err error) {
	if c.closed || gen != c.gen {
		c.log.Debug("discarding stale chat result", zap.Uint64("gen", gen))
		return
	}
	if c.cancelRequest != nil {
		c.cancelRequest()
		c.cancelRequest = nil
	}
	c.conv.AwaitingResponse = false

	if err != nil {
		c.fail(err, appended)
		return
	}

	if err := c.conv.AppendPlaceholderAssistant(); err != nil {
		// Unreachable while the state machine holds; surface it rather than
		// corrupt the conversation.
		c.log.Error("cannot start reveal", zap.Error(err))
		c.fail(err, false)
		return
	}

	c.state = StateRevealing
	c.conv.Revealing = true
	c.reveal.Start(c.sched, answer, c.opts.RevealInterval,
		func(prefix string) { c.onRevealUpdate(gen, prefix) },
		func() { c.onRevealComplete(gen) },
	)
	c.notify()
}

func (c *Controller) fail(err error, appended bool) {
	category, msg := Classify(err)
	c.category = category
	c.unauthorized = api.IsUnauthorized(err)
	c.conv.LastError = msg

	rolledBack := false
	if appended && category.RollsBack() {
		if last, ok := c.conv.Last(); ok && last.Role == model.RoleUser {
			c.conv.DropLast()
			rolledBack = true
		}
	}

	c.log.Warn("chat request failed",
		zap.String("category", category.String()),
		zap.Bool("rolled_back", rolledBack),
		zap.Error(err),
	)

	c.state = StateIdle
	c.notify()
}

func (c *Controller) onRevealUpdate(gen uint64, prefix string) {
	if gen != c.gen {
		return
	}
	if err := c.conv.UpdateLastAssistant(prefix); err != nil {
		c.log.Error("reveal update rejected", zap.Error(err))
		return
	}
	c.notify()
}

func (c *Controller) onRevealComplete(gen uint64) {
	if gen != c.gen {
		return
	}
	if err := c.conv.FinalizeLastAssistant(); err != nil {
		c.log.Error("reveal finalize rejected", zap.Error(err))
	}
	c.conv.Revealing = false
	c.state = StateIdle
	c.notify()
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.listeners {
		fn(snap)
	}
}
