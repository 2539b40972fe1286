// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsession

import (
	"errors"
	"net/http"

	"github.com/docmind/docmind-tui/internal/api"
)

// Errors returned synchronously by Controller operations. None of them
// change controller state.
var (
	// ErrEmptyQuery indicates a blank submission.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrBusy indicates a submission while a request or reveal is running.
	ErrBusy = errors.New("a response is already in progress")

	// ErrNothingToRegenerate indicates there is no completed exchange to redo.
	ErrNothingToRegenerate = errors.New("nothing to regenerate")

	// ErrClosed indicates use of a controller after Close.
	ErrClosed = errors.New("chat session is closed")
)

// User-facing messages for failed chat calls.
const (
	MsgNoDocument = "Please upload a document before starting the chat."
	MsgUnknown    = "Something went wrong. Please try again later."
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Category classifies a failed chat call.
type Category int

const (
	// CategoryNone means no error.
	CategoryNone Category = iota

	// CategoryValidationDetail means the server sent a detail message.
	CategoryValidationDetail

	// CategoryNoDocumentUploaded means HTTP 400 without a detail message.
	CategoryNoDocumentUploaded

	// CategoryUnknown covers every other failure.
	CategoryUnknown
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryValidationDetail:
		return "validation_detail"
	case CategoryNoDocumentUploaded:
		return "no_document_uploaded"
	case CategoryUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// RollsBack reports whether a failure of this category removes the user
// message that was just submitted.
func (c Category) RollsBack() bool {
	return c == CategoryValidationDetail || c == CategoryNoDocumentUploaded
}

// Classify maps a chat error to its category and user-facing message.
// Rules apply in priority order: detail message, then bare 400, then unknown.
func Classify(err error) (Category, string) {
	if err == nil {
		return CategoryNone, ""
	}
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.HasDetail() {
			return CategoryValidationDetail, apiErr.Detail
		}
		if apiErr.Status == http.StatusBadRequest {
			return CategoryNoDocumentUploaded, MsgNoDocument
		}
	}
	return CategoryUnknown, MsgUnknown
}
