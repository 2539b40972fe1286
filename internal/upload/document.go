// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize is the largest document accepted for upload.
const MaxFileSize = 10 * 1024 * 1024

// Errors returned when a file cannot be uploaded.
var (
	// ErrNoFile indicates no file was chosen.
	ErrNoFile = errors.New("no file selected")

	// ErrUnsupportedType indicates a file that is not PDF, DOCX or PPTX.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrTooLarge indicates a file over MaxFileSize.
	ErrTooLarge = errors.New("document too large")

	// ErrNotAFile indicates a directory or other non-regular path.
	ErrNotAFile = errors.New("not a regular file")

	// ErrUploadFailed wraps any failure of the upload request itself.
	ErrUploadFailed = errors.New("upload failed")
)

// User-facing messages.
const (
	MsgUnsupportedType = "Please upload a PDF, DOCX, or PPTX file"
	MsgNoFile          = "Please select a file"
	MsgUploadFailed    = "Error uploading file. Please try again."
	MsgTooLarge        = "File is too large. The limit is 10 MB."
)

// Message maps an upload error to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFile):
		return MsgNoFile
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrNotAFile):
		return MsgUnsupportedType
	case errors.Is(err, ErrTooLarge):
		return MsgTooLarge
	default:
		return MsgUploadFailed
	}
}

// =============================================================================
// DOCUMENT KINDS
// =============================================================================

// Kind is an accepted document format.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindDOCX
	KindPPTX
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeZip  = "application/zip"
)

// String returns the short format name.
func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "PDF"
	case KindDOCX:
		return "DOCX"
	case KindPPTX:
		return "PPTX"
	default:
		return "unknown"
	}
}

// MIME returns the canonical media type of the kind.
func (k Kind) MIME() string {
	switch k {
	case KindPDF:
		return mimePDF
	case KindDOCX:
		return mimeDOCX
	case KindPPTX:
		return mimePPTX
	default:
		return "application/octet-stream"
	}
}

// Icon returns a glyph for lists and the upload card.
func (k Kind) Icon() string {
	switch k {
	case KindPDF:
		return "📕"
	case KindDOCX:
		return "📘"
	case KindPPTX:
		return "📙"
	default:
		return "📄"
	}
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a local file that passed validation.
type Document struct {
	Path string
	Name string
	Size int64
	Kind Kind
}

// SizeLabel formats the size for display.
func (d Document) SizeLabel() string {
	switch {
	case d.Size >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(d.Size)/(1024*1024))
	case d.Size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(d.Size)/1024)
	default:
		return fmt.Sprintf("%d B", d.Size)
	}
}

// Inspect validates the file at path and describes it.
//
// The format is detected from content. DOCX and PPTX are zip containers, so
// a generic zip is also accepted when the extension names one of them.
func Inspect(path string) (Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Document{}, ErrNoFile
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, fmt.Errorf("%w: %s", ErrNoFile, path)
		}
		return Document{}, err
	}
	if !info.Mode().IsRegular() {
		return Document{}, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	if info.Size() > MaxFileSize {
		return Document{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("detect type: %w", err)
	}

	kind := kindOf(detected, filepath.Ext(path))
	if kind == KindUnknown {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}

	return Document{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		Kind: kind,
	}, nil
}

func kindOf(detected *mimetype.MIME, ext string) Kind {
	isZip := false
	for m := detected; m != nil; m = m.Parent() {
		switch {
		case m.Is(mimePDF):
			return KindPDF
		case m.Is(mimeDOCX):
			return KindDOCX
		case m.Is(mimePPTX):
			return KindPPTX
		case m.Is(mimeZip):
			isZip = true
		}
	}
	if isZip {
		switch strings.ToLower(ext) {
		case ".docx":
			return KindDOCX
		case ".pptx":
			return KindPPTX
		}
	}
	return KindUnknown
}
