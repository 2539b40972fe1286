// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root of the DocMind TUI. It routes between the
// landing, login, signup, upload and chat screens, draws the sidebar
// layout around the private screens, and runs scheduler callbacks
// delivered as bridge.RunMsg before refreshing the chat screen.
package app
