// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package loop provides the single "UI thread" on which chat state changes.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// SCHEDULER INTERFACE
// =============================================================================

// Scheduler runs callbacks on one serial thread.
//
// Post may be called from any goroutine. Callbacks passed to Post and
// AfterFunc always run on the scheduler's thread, one at a time.
type Scheduler interface {
	Post(f func())
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from running. It must be called on the
	// scheduler's thread; after it returns the callback will not run.
	// Returns false if the callback already ran or was stopped.
	Stop() bool
}

// =============================================================================
// LOOP
// =============================================================================

// Loop is a Scheduler backed by a goroutine draining a task queue.
// Used by the CLI commands; the TUI schedules through bubbletea instead.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a loop with the given queue depth.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case task := <-l.tasks:
			task()
		}
	}
}

// Stop terminates Run. Tasks posted afterwards are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Post queues f for execution on the loop goroutine.
func (l *Loop) Post(f func()) {
	select {
	case <-l.done:
	case l.tasks <- f:
	}
}

// Do posts f and waits for it to finish. It must not be called from the
// loop goroutine. Returns false if the loop stopped first.
func (l *Loop) Do(f func()) bool {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		f()
	})
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc runs f on the loop goroutine after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}

// =============================================================================
// FUNC TIMER
// =============================================================================

// NewFuncTimer returns a Timer whose callback is f guarded by a stop flag.
// Schedulers that hand callbacks to another event loop wrap them with it.
func NewFuncTimer(f func(), stop func()) (Timer, func()) {
	t := &funcTimer{stop: stop}
	return t, func() {
		if t.stopped.CompareAndSwap(false, true) {
			f()
		}
	}
}

type funcTimer struct {
	stopped atomic.Bool
	stop    func()
}

func (t *funcTimer) Stop() bool {
	if t.stop != nil {
		t.stop()
	}
	return t.stopped.CompareAndSwap(false, true)
}
