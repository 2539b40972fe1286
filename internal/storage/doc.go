// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the signed-in session for docmind.
//
// Conversations are never stored; only the bearer token and the user's
// profile survive between runs.
//
// # Key Types
//
//   - KV: string key-value table in a SQLite file (modernc.org/sqlite)
//   - SessionStore: auth.Store over KV using the keys token, userEmail, userName
//
// # Usage
//
//	kv, err := storage.OpenKV(filepath.Join(dir, "session.db"))
//	sessions := auth.NewManager(storage.NewSessionStore(kv), log)
//
// # Storage Location
//
// The database lives in ~/.docmind/session.db with 0600 permissions.
package storage
