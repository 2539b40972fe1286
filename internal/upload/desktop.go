// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"strings"

	"github.com/atotto/clipboard"
)

// Desktop is the capability boundary for host integration: files dropped
// onto the app and clipboard writes. Tests substitute a fake.
type Desktop interface {
	// ReadDroppedFile validates a dropped path.
	ReadDroppedFile(path string) (Document, error)

	// WriteClipboardText copies text to the system clipboard.
	WriteClipboardText(text string) error
}

// OSDesktop implements Desktop with the local filesystem and clipboard.
type OSDesktop struct{}

// ReadDroppedFile implements Desktop. Terminals paste dropped files as a
// path, often quoted or with escaped spaces; both forms are accepted.
func (OSDesktop) ReadDroppedFile(path string) (Document, error) {
	return Inspect(CleanDroppedPath(path))
}

// WriteClipboardText implements Desktop.
func (OSDesktop) WriteClipboardText(text string) error {
	return clipboard.WriteAll(text)
}

// ClipboardAvailable reports whether the platform clipboard can be used.
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}

// CleanDroppedPath strips the quoting terminals add when a file is dragged
// onto them.
func CleanDroppedPath(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.TrimPrefix(p, "file://")
	if len(p) >= 2 {
		if (p[0] == '\'' && p[len(p)-1] == '\'') || (p[0] == '"' && p[len(p)-1] == '"') {
			return p[1 : len(p)-1]
		}
	}
	return strings.ReplaceAll(p, `\ `, " ")
}
