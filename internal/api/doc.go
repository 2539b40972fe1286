// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the DocMind backend.
//
// The backend owns three contracts: authentication (login and signup issue a
// bearer token plus profile), chat (a query returns one complete answer) and
// document upload (multipart). This package consumes them and nothing more.
//
// # Key Types
//
//   - Client: JSON and multipart requests with request ids and size limits
//   - Error: non-2xx response carrying the server's "detail" message
//
// # Usage
//
//	client := api.NewClient(cfg.API.BaseURL).WithLogger(log)
//	answer, err := client.Chat(ctx, token, "What is the refund policy?")
//	if apiErr, ok := api.AsError(err); ok && apiErr.HasDetail() {
//	    fmt.Println(apiErr.Detail)
//	}
//
// # Security
//
// Bearer tokens are never logged; request headers pass through
// logging.SafeHeaders before reaching the log file.
package api
