// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loop

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// MANUAL SCHEDULER
// =============================================================================

// Manual is a Scheduler driven by hand with a virtual clock.
//
// The goroutine that calls Advance, RunPosted and WaitPosted acts as the
// scheduler thread. Post is safe from any goroutine, so background work
// (such as an HTTP request) can hand results back. Intended for tests and
// deterministic replays.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
	posted chan func()
}

type manualTimer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{posted: make(chan func(), 1024)}
}

// Post queues f. It runs on the next RunPosted, WaitPosted or Advance.
func (m *Manual) Post(f func()) {
	m.posted <- f
}

// AfterFunc registers f to run once virtual time has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{at: m.now + d, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return &manualHandle{m: m, t: t}
}

type manualHandle struct {
	m *Manual
	t *manualTimer
}

func (h *manualHandle) Stop() bool {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.t.stopped {
		return false
	}
	h.t.stopped = true
	h.m.removeLocked(h.t)
	return true
}

func (m *Manual) removeLocked(t *manualTimer) {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// RunPosted runs every queued Post callback, including ones queued while
// running. Returns the number run.
func (m *Manual) RunPosted() int {
	n := 0
	for {
		select {
		case f := <-m.posted:
			f()
			n++
		default:
			return n
		}
	}
}

// WaitPosted blocks until a Post callback arrives, runs it and any others
// already queued. Returns false on timeout.
func (m *Manual) WaitPosted(timeout time.Duration) bool {
	select {
	case f := <-m.posted:
		f()
		m.RunPosted()
		return true
	case <-time.After(timeout):
		return false
	}
}

// Advance moves the virtual clock forward by d, firing due timers in order.
// Posted callbacks run before each timer.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.RunPosted()

		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			m.RunPosted()
			return
		}
		next.stopped = true
		m.removeLocked(next)
		m.now = next.at
		m.mu.Unlock()

		next.f()
	}
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at != m.timers[j].at {
			return m.timers[i].at < m.timers[j].at
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if m.timers[0].at > target {
		return nil
	}
	return m.timers[0]
}
