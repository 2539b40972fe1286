// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockapi is an in-memory development backend for docmind.
//
// It serves the routes the client consumes under /api/v1:
//   - POST /auth/signup       - create an account, returns an access token
//   - POST /auth/login        - exchange credentials for an access token
//   - POST /chat/             - answer a query about the uploaded document
//   - POST /documents/upload  - multipart upload, field "file"
//   - GET  /documents         - list uploaded filenames
//
// Error bodies use the {"detail": ...} shape, with a list-shaped detail
// for 422 validation failures.
package mockapi
