// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeHeaders_RedactsCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret-token")
	h.Set("Content-Type", "application/json")
	h.Set("X-Request-ID", "abc")

	got := SafeHeaders(h)
	assert.Equal(t, "Authorization=<redacted>; Content-Type=application/json; X-Request-Id=abc", got)
	assert.NotContains(t, got, "secret-token")
}

func TestNew_EmptyFileIsNop(t *testing.T) {
	l, err := New(Options{})
	require.NoError(t, err)
	l.Info("dropped")
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docmind.log")
	l, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	l.Debug("chat_request", Headers(http.Header{"Authorization": {"Bearer x"}}))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"chat_request"`)
	assert.Contains(t, line, `<redacted>`)
	assert.Contains(t, line, `"logger":"docmind"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
