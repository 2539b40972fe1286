// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the conversation store used by a single chat screen.
// Messages are addressed by position; nothing here is persisted.
//
// # Key Types
//
//   - Conversation: Ordered messages plus in-flight and error flags
//   - Message: Single message with role, content and a final flag
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.AppendUser("What is the refund policy?")
//	_ = conv.AppendPlaceholderAssistant()
//	_ = conv.UpdateLastAssistant("Refunds are")
//	_ = conv.FinalizeLastAssistant()
package model
