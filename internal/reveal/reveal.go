// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal turns a complete answer into a paced sequence of growing
// word prefixes so it appears to be typed out.
package reveal

import (
	"context"
	"iter"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/docmind/docmind-tui/internal/loop"
)

// DefaultInterval is the delay between successive prefixes.
const DefaultInterval = 50 * time.Millisecond

// =============================================================================
// SEQUENCE
// =============================================================================

// Tokens splits text on single spaces. Consecutive spaces produce empty
// tokens so that joining the tokens with " " reproduces the text exactly.
// Blank text has no tokens.
func Tokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, " ")
}

// Sequence yields the prefixes of an answer one at a time.
//
// Each prefix is the tokens consumed so far joined by single spaces with
// surrounding whitespace trimmed, so the last prefix equals the trimmed text.
// Blank tokens are folded into the next word and never yield a prefix of
// their own, so every prefix is longer than the one before.
// A Sequence is not safe for concurrent use.
type Sequence struct {
	tokens    []string
	words     int
	next      int
	emitted   int
	prefix    string
	cancelled bool
}

// NewSequence creates a sequence over text.
func NewSequence(text string) *Sequence {
	s := &Sequence{tokens: Tokens(text)}
	for _, tok := range s.tokens {
		if !blank(tok) {
			s.words++
		}
	}
	return s
}

func blank(tok string) bool { return strings.TrimSpace(tok) == "" }

// Next returns the next prefix. It returns false once the sequence is
// exhausted or cancelled.
func (s *Sequence) Next() (string, bool) {
	if s.cancelled {
		return "", false
	}
	for s.next < len(s.tokens) {
		tok := s.tokens[s.next]
		if s.next == 0 {
			s.prefix = tok
		} else {
			s.prefix += " " + tok
		}
		s.next++
		if !blank(tok) {
			s.emitted++
			return strings.TrimSpace(s.prefix), true
		}
	}
	return "", false
}

// Len returns the total number of prefixes.
func (s *Sequence) Len() int { return s.words }

// Emitted returns how many prefixes Next has returned.
func (s *Sequence) Emitted() int { return s.emitted }

// Done reports whether every prefix has been emitted.
func (s *Sequence) Done() bool { return s.emitted >= s.words }

// Cancel stops the sequence. Later calls to Next return false.
func (s *Sequence) Cancel() { s.cancelled = true }

// Cancelled reports whether Cancel was called.
func (s *Sequence) Cancelled() bool { return s.cancelled }

// All returns an iterator over the remaining prefixes.
func (s *Sequence) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			p, ok := s.Next()
			if !ok || !yield(p) {
				return
			}
		}
	}
}

// =============================================================================
// SCHEDULED REVEAL
// =============================================================================

// Handle controls a reveal started with Start.
type Handle struct {
	seq        *Sequence
	sched      loop.Scheduler
	interval   time.Duration
	onUpdate   func(string)
	onComplete func()

	timer    loop.Timer
	finished bool
}

// Start reveals text on sched. The first prefix is delivered immediately,
// then one per interval; onComplete runs one interval after the last
// prefix. Blank text completes immediately with no updates.
//
// Start, Cancel and both callbacks run on the scheduler's thread. After
// Cancel returns neither callback runs again.
func Start(sched loop.Scheduler, text string, interval time.Duration, onUpdate func(string), onComplete func()) *Handle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	h := &Handle{
		seq:        NewSequence(text),
		sched:      sched,
		interval:   interval,
		onUpdate:   onUpdate,
		onComplete: onComplete,
	}
	h.timer = sched.AfterFunc(0, h.tick)
	return h
}

func (h *Handle) tick() {
	prefix, ok := h.seq.Next()
	if !ok {
		h.finish()
		return
	}
	if h.onUpdate != nil {
		h.onUpdate(prefix)
	}
	if h.seq.Cancelled() {
		return
	}
	if h.seq.Done() {
		h.timer = h.sched.AfterFunc(h.interval, h.finish)
		return
	}
	h.timer = h.sched.AfterFunc(h.interval, h.tick)
}

func (h *Handle) finish() {
	if h.seq.Cancelled() || h.finished {
		return
	}
	h.finished = true
	if h.onComplete != nil {
		h.onComplete()
	}
}

// Cancel stops the reveal. It is safe to call more than once and after
// completion.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.seq.Cancel()
	if h.timer != nil {
		h.timer.Stop()
	}
}

// Active reports whether the reveal is still running.
func (h *Handle) Active() bool {
	return h != nil && !h.finished && !h.seq.Cancelled()
}

// Progress returns emitted and total prefix counts.
func (h *Handle) Progress() (emitted, total int) {
	return h.seq.Emitted(), h.seq.Len()
}

// =============================================================================
// SLOT
// =============================================================================

// Slot holds at most one active reveal. Starting a new reveal cancels the
// previous one first.
type Slot struct {
	current *Handle
}

// Start cancels any active reveal and starts a new one.
func (s *Slot) Start(sched loop.Scheduler, text string, interval time.Duration, onUpdate func(string), onComplete func()) *Handle {
	s.Cancel()
	s.current = Start(sched, text, interval, onUpdate, onComplete)
	return s.current
}

// Cancel cancels the active reveal, if any.
func (s *Slot) Cancel() {
	s.current.Cancel()
	s.current = nil
}

// Active reports whether a reveal is running.
func (s *Slot) Active() bool {
	return s.current.Active()
}

// =============================================================================
// STREAM
// =============================================================================

// Stream yields the prefixes of text paced by interval. The first prefix is
// yielded at once. Iteration stops early when ctx is done.
func Stream(ctx context.Context, text string, interval time.Duration) iter.Seq[string] {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return func(yield func(string) bool) {
		limiter := rate.NewLimiter(limit, 1)
		for prefix := range NewSequence(text).All() {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			if !yield(prefix) {
				return
			}
		}
	}
}
