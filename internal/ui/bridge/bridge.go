// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge runs loop.Scheduler callbacks inside a bubbletea program's
// Update, so chat state only ever changes on the UI goroutine.
package bridge

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docmind/docmind-tui/internal/loop"
)

// RunMsg carries a callback. The root model must call Run when it receives
// one.
type RunMsg struct {
	f func()
}

// Run executes the callback.
func (m RunMsg) Run() {
	if m.f != nil {
		m.f()
	}
}

// Scheduler implements loop.Scheduler on top of tea.Program.Send.
// Callbacks are delivered in Post order by a single pump goroutine, since
// Send blocks while Update is running.
type Scheduler struct {
	queue chan func()
	done  chan struct{}

	mu      sync.Mutex
	send    func(tea.Msg)
	started bool
	once    sync.Once
}

// New creates a scheduler. Attach it to a program before running it.
func New() *Scheduler {
	return &Scheduler{
		queue: make(chan func(), 1024),
		done:  make(chan struct{}),
	}
}

// Attach connects the scheduler to send (normally program.Send) and starts
// delivering callbacks.
func (s *Scheduler) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.send = send
	s.started = true
	go s.pump()
}

// Stop ends delivery. Pending callbacks are dropped.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) pump() {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.queue:
			select {
			case <-s.done:
				return
			default:
			}
			s.send(RunMsg{f: f})
		}
	}
}

// Post implements loop.Scheduler.
func (s *Scheduler) Post(f func()) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case <-s.done:
	case s.queue <- f:
	}
}

// AfterFunc implements loop.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) loop.Timer {
	var t *time.Timer
	timer, run := loop.NewFuncTimer(f, func() {
		if t != nil {
			t.Stop()
		}
	})
	t = time.AfterFunc(d, func() { s.Post(run) })
	return timer
}

var _ loop.Scheduler = (*Scheduler)(nil)
