// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attached(t *testing.T) (*Scheduler, chan tea.Msg) {
	t.Helper()
	msgs := make(chan tea.Msg, 64)
	s := New()
	s.Attach(func(m tea.Msg) { msgs <- m })
	t.Cleanup(s.Stop)
	return s, msgs
}

func next(t *testing.T, msgs chan tea.Msg) RunMsg {
	t.Helper()
	select {
	case m := <-msgs:
		run, ok := m.(RunMsg)
		require.True(t, ok)
		return run
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return RunMsg{}
	}
}

func TestPost_DeliversInOrder(t *testing.T) {
	s, msgs := attached(t)
	var got []int
	for i := 0; i < 5; i++ {
		s.Post(func() { got = append(got, i) })
	}
	for i := 0; i < 5; i++ {
		next(t, msgs).Run()
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestAfterFunc_Fires(t *testing.T) {
	s, msgs := attached(t)
	fired := false
	s.AfterFunc(5*time.Millisecond, func() { fired = true })
	next(t, msgs).Run()
	assert.True(t, fired)
}

func TestAfterFunc_StopAfterDeliveryStillSuppresses(t *testing.T) {
	s, msgs := attached(t)
	fired := false
	timer := s.AfterFunc(0, func() { fired = true })

	// The RunMsg is already queued when Stop is called; it must be a no-op.
	run := next(t, msgs)
	assert.True(t, timer.Stop())
	run.Run()
	assert.False(t, fired)
	assert.False(t, timer.Stop())
}

func TestStop_DropsPosts(t *testing.T) {
	s, msgs := attached(t)
	s.Stop()
	s.Post(func() {})
	select {
	case <-msgs:
		t.Fatal("delivered after stop")
	case <-time.After(20 * time.Millisecond):
	}
}
