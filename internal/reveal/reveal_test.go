// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind/docmind-tui/internal/loop"
)

// =============================================================================
// SEQUENCE TESTS
// =============================================================================

func TestTokens(t *testing.T) {
	assert.Nil(t, Tokens(""))
	assert.Nil(t, Tokens("   "))
	assert.Equal(t, []string{"a", "b", "c"}, Tokens("a b c"))
	assert.Equal(t, []string{"a", "", "b"}, Tokens("a  b"))
}

func TestSequence_PrefixesEndWithText(t *testing.T) {
	inputs := []string{
		"a b c",
		"single",
		"double  spaced words",
		"line one\nline two and **bold**",
		"trailing space ",
	}
	for _, text := range inputs {
		full := strings.TrimSpace(text)
		prefixes := slices.Collect(NewSequence(text).All())
		require.NotEmpty(t, prefixes, text)
		assert.Equal(t, full, prefixes[len(prefixes)-1])
		words := slices.DeleteFunc(strings.Split(text, " "), func(w string) bool { return strings.TrimSpace(w) == "" })
		assert.Len(t, prefixes, len(words))
		for i, p := range prefixes {
			assert.True(t, strings.HasPrefix(full, p), "prefix %d %q of %q", i, p, text)
			if i > 0 {
				assert.GreaterOrEqual(t, len(p), len(prefixes[i-1]))
			}
		}
	}
}

func TestSequence_SkipsBlankTokens(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"a  b c", []string{"a", "a  b", "a  b c"}},
		{"  hello", []string{"hello"}},
		{"one \n two", []string{"one", "one \n two"}},
		{"end  ", []string{"end"}},
	}
	for _, tt := range tests {
		seq := NewSequence(tt.text)
		assert.Equal(t, len(tt.want), seq.Len(), tt.text)
		assert.Equal(t, tt.want, slices.Collect(seq.All()), tt.text)
		assert.True(t, seq.Done(), tt.text)
		assert.Equal(t, seq.Len(), seq.Emitted(), tt.text)
	}
}

func TestStart_DoubleSpaceNoRepeatedUpdate(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	Start(sched, "a  b c", 10*time.Millisecond, rec.update, rec.complete)

	sched.Advance(time.Second)
	assert.Equal(t, []string{"a", "a  b", "a  b c"}, rec.updates)
	assert.Equal(t, 1, rec.completed)
}

func TestSequence_Cancel(t *testing.T) {
	seq := NewSequence("one two three")
	p, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, "one", p)

	seq.Cancel()
	_, ok = seq.Next()
	assert.False(t, ok)
	assert.True(t, seq.Cancelled())
	assert.Equal(t, 1, seq.Emitted())
}

func TestSequence_Blank(t *testing.T) {
	seq := NewSequence("")
	_, ok := seq.Next()
	assert.False(t, ok)
	assert.True(t, seq.Done())
	assert.Zero(t, seq.Len())
}

// =============================================================================
// SCHEDULED REVEAL TESTS
// =============================================================================

type recorder struct {
	updates   []string
	completed int
}

func (r *recorder) update(p string) { r.updates = append(r.updates, p) }
func (r *recorder) complete()       { r.completed++ }

func TestStart_Timing(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	Start(sched, "a b c", 50*time.Millisecond, rec.update, rec.complete)

	sched.Advance(0)
	assert.Equal(t, []string{"a"}, rec.updates)

	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "a b"}, rec.updates)

	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "a b", "a b c"}, rec.updates)
	assert.Zero(t, rec.completed, "completion comes one interval after the last prefix")

	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, rec.completed)
	assert.Zero(t, sched.Pending())
}

func TestStart_ThreeWordsThreeUpdates(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	h := Start(sched, "a b c", 0, rec.update, rec.complete)

	sched.Advance(time.Second)
	assert.Equal(t, []string{"a", "a b", "a b c"}, rec.updates)
	assert.Equal(t, 1, rec.completed)
	assert.False(t, h.Active())
}

func TestStart_CancelAfterFirstUpdate(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	h := Start(sched, "a b c", 50*time.Millisecond, rec.update, rec.complete)

	sched.Advance(0)
	require.Equal(t, []string{"a"}, rec.updates)
	h.Cancel()

	sched.Advance(time.Second)
	assert.Equal(t, []string{"a"}, rec.updates)
	assert.Zero(t, rec.completed)
	assert.Zero(t, sched.Pending())
	assert.False(t, h.Active())
}

func TestStart_CancelFromUpdateCallback(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	var h *Handle
	h = Start(sched, "a b c", 10*time.Millisecond, func(p string) {
		rec.update(p)
		if p == "a b" {
			h.Cancel()
		}
	}, rec.complete)

	sched.Advance(time.Second)
	assert.Equal(t, []string{"a", "a b"}, rec.updates)
	assert.Zero(t, rec.completed)
}

func TestStart_CancelAfterLastUpdateSuppressesCompletion(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	h := Start(sched, "one", 50*time.Millisecond, rec.update, rec.complete)

	sched.Advance(0)
	require.Equal(t, []string{"one"}, rec.updates)
	h.Cancel()
	sched.Advance(time.Second)
	assert.Zero(t, rec.completed)
}

func TestStart_BlankCompletesImmediately(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	Start(sched, "  ", 50*time.Millisecond, rec.update, rec.complete)

	sched.Advance(0)
	assert.Empty(t, rec.updates)
	assert.Equal(t, 1, rec.completed)
}

func TestStart_CancelIsIdempotent(t *testing.T) {
	sched := loop.NewManual()
	rec := &recorder{}
	h := Start(sched, "a b", 0, rec.update, rec.complete)
	sched.Advance(time.Second)

	h.Cancel()
	h.Cancel()
	var nilHandle *Handle
	nilHandle.Cancel()
	assert.Equal(t, 1, rec.completed)
}

func TestSlot_StartCancelsPrevious(t *testing.T) {
	sched := loop.NewManual()
	first, second := &recorder{}, &recorder{}
	var slot Slot

	slot.Start(sched, "x y z", 10*time.Millisecond, first.update, first.complete)
	sched.Advance(0)
	slot.Start(sched, "p q", 10*time.Millisecond, second.update, second.complete)
	sched.Advance(time.Second)

	assert.Equal(t, []string{"x"}, first.updates)
	assert.Zero(t, first.completed)
	assert.Equal(t, []string{"p", "p q"}, second.updates)
	assert.Equal(t, 1, second.completed)
	assert.False(t, slot.Active())
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func TestStream_YieldsAllPrefixes(t *testing.T) {
	got := slices.Collect(Stream(context.Background(), "a b c", time.Millisecond))
	assert.Equal(t, []string{"a", "a b", "a b c"}, got)
}

func TestStream_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	for p := range Stream(ctx, "a b c d", time.Hour) {
		got = append(got, p)
		cancel()
	}
	assert.Equal(t, []string{"a"}, got)
}
