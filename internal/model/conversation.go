// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"errors"
	"time"
)

// Errors returned when a store operation's precondition does not hold.
var (
	// ErrPendingAssistant indicates a non-final assistant message already exists.
	ErrPendingAssistant = errors.New("an assistant message is already being revealed")

	// ErrNoPendingAssistant indicates the last message is not a non-final assistant message.
	ErrNoPendingAssistant = errors.New("last message is not a pending assistant message")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered messages of one chat screen plus its
// transient request flags.
//
// A Conversation has a single writer (the chat session controller) and all
// operations are expected to run on the UI thread, so it does no locking.
type Conversation struct {
	messages []Message

	// AwaitingResponse is true while a chat request is in flight.
	AwaitingResponse bool

	// Revealing is true while the last assistant message is being revealed.
	Revealing bool

	// LastError is the user-facing error of the last failed submission.
	LastError string

	UpdatedAt time.Time
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		messages:  make([]Message, 0),
		UpdatedAt: time.Now(),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AppendUser appends a final user message.
func (c *Conversation) AppendUser(text string) {
	c.append(Message{Role: RoleUser, Content: text, IsFinal: true})
}

// AppendPlaceholderAssistant appends an empty, non-final assistant message.
// It fails if another non-final assistant message already exists.
func (c *Conversation) AppendPlaceholderAssistant() error {
	if c.PendingAssistants() > 0 {
		return ErrPendingAssistant
	}
	c.append(Message{Role: RoleAssistant})
	return nil
}

// UpdateLastAssistant overwrites the content of the last message, which must
// be the pending assistant message.
func (c *Conversation) UpdateLastAssistant(partial string) error {
	last, ok := c.lastIndex()
	if !ok || !c.messages[last].IsPlaceholder() {
		return ErrNoPendingAssistant
	}
	c.messages[last].Content = partial
	c.UpdatedAt = time.Now()
	return nil
}

// FinalizeLastAssistant marks the pending assistant message as final.
func (c *Conversation) FinalizeLastAssistant() error {
	last, ok := c.lastIndex()
	if !ok || !c.messages[last].IsPlaceholder() {
		return ErrNoPendingAssistant
	}
	c.messages[last].IsFinal = true
	c.UpdatedAt = time.Now()
	return nil
}

// DropLast removes the last message and returns it.
// Returns false if the conversation is empty.
func (c *Conversation) DropLast() (Message, bool) {
	last, ok := c.lastIndex()
	if !ok {
		return Message{}, false
	}
	msg := c.messages[last]
	c.messages = c.messages[:last]
	c.UpdatedAt = time.Now()
	return msg, true
}

// LastUserMessage returns the most recent user message.
func (c *Conversation) LastUserMessage() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleUser {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	last, ok := c.lastIndex()
	if !ok {
		return Message{}, false
	}
	return c.messages[last], true
}

// LastAssistantMessage returns the most recent assistant message.
func (c *Conversation) LastAssistantMessage() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// PendingAssistants returns the number of non-final assistant messages.
// The controller keeps this at 0 or 1.
func (c *Conversation) PendingAssistants() int {
	n := 0
	for _, msg := range c.messages {
		if msg.IsPlaceholder() {
			n++
		}
	}
	return n
}

// Messages returns a copy of the message history for display.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

// Clear removes all messages and resets the transient flags.
func (c *Conversation) Clear() {
	c.messages = c.messages[:0]
	c.AwaitingResponse = false
	c.Revealing = false
	c.LastError = ""
	c.UpdatedAt = time.Now()
}

func (c *Conversation) append(msg Message) {
	c.messages = append(c.messages, msg)
	c.UpdatedAt = time.Now()
}

func (c *Conversation) lastIndex() (int, bool) {
	if len(c.messages) == 0 {
		return 0, false
	}
	return len(c.messages) - 1, true
}
