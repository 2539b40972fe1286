// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload validates and sends the document a conversation is about.
//
// Accepted formats are PDF, DOCX and PPTX up to 10 MB. Host integration
// (dropped files, clipboard) sits behind the Desktop interface.
package upload
