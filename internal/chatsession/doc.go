// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatsession implements the chat screen's state machine.
//
// A submission moves Idle → Sending → Revealing → Idle on success and
// Idle → Sending → Idle on failure. Only one submission is in flight at a
// time; Submit and Regenerate return ErrBusy otherwise.
//
// # Failures
//
// A failed chat call is classified as:
//
//   - validation detail: the server's detail message is shown verbatim and the
//     user message is removed
//   - no document uploaded: HTTP 400 without detail; the user message is removed
//   - unknown: a generic message; the user message stays visible
//
// # Threading
//
// The controller has no locks. All methods must be called on the thread of
// the loop.Scheduler passed to New; network results are posted back to it.
package chatsession
