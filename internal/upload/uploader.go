// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/logging"
)

// DocumentClient is the part of the API client used for uploads.
type DocumentClient interface {
	Upload(ctx context.Context, token, filename string, r io.Reader, size int64, progress api.ProgressFunc) (*api.UploadResponse, error)
}

// TokenSource supplies the bearer token.
type TokenSource interface {
	Token() (string, error)
}

// Uploader sends validated documents to the backend.
type Uploader struct {
	client DocumentClient
	tokens TokenSource
	log    *zap.Logger
}

// NewUploader creates an uploader.
func NewUploader(client DocumentClient, tokens TokenSource, log *zap.Logger) *Uploader {
	return &Uploader{client: client, tokens: tokens, log: logging.OrNop(log).Named("upload")}
}

// Upload sends doc. Authentication errors are returned unchanged; every
// other failure wraps ErrUploadFailed.
func (u *Uploader) Upload(ctx context.Context, doc Document, progress api.ProgressFunc) error {
	if doc.Path == "" {
		return ErrNoFile
	}
	token, err := u.tokens.Token()
	if err != nil {
		return err
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	u.log.Info("uploading document",
		zap.String("name", doc.Name),
		zap.String("kind", doc.Kind.String()),
		zap.Int64("size", doc.Size),
	)

	if _, err := u.client.Upload(ctx, token, doc.Name, f, doc.Size, progress); err != nil {
		u.log.Warn("upload failed", zap.String("name", doc.Name), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return nil
}

// UploadPath validates path and uploads it.
func (u *Uploader) UploadPath(ctx context.Context, path string, progress api.ProgressFunc) (Document, error) {
	doc, err := Inspect(path)
	if err != nil {
		return Document{}, err
	}
	return doc, u.Upload(ctx, doc, progress)
}
