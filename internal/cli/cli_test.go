// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/auth"
	"github.com/docmind/docmind-tui/internal/chatsession"
	"github.com/docmind/docmind-tui/internal/config"
	"github.com/docmind/docmind-tui/internal/mockapi"
	"github.com/docmind/docmind-tui/internal/model"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"

// =============================================================================
// HARNESS
// =============================================================================

type cliEnv struct {
	t      *testing.T
	home   string
	apiURL string
}

// newCLIEnv points HOME at a temp dir and starts a mock API.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("DOCMIND_API_URL", "")
	t.Setenv("DOCMIND_REVEAL_INTERVAL_MS", "")
	t.Setenv("DOCMIND_LOG_LEVEL", "")
	t.Setenv("DOCMIND_LOG_FILE", "")
	t.Setenv("DOCMIND_DROP_DIR", "")

	srv := mockapi.New(mockapi.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &cliEnv{t: t, home: home, apiURL: ts.URL + mockapi.Prefix}
}

// run executes the CLI with stdin and returns stdout, stderr and the error.
func (e *cliEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	full := append([]string{"--api-url", e.apiURL}, args...)
	err := run(ctx, full, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) signup() {
	e.t.Helper()
	_, _, err := e.run("secret123\n", "signup", "--name", "Ada Lovelace", "--email", "ada@example.com")
	require.NoError(e.t, err)
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(pdfBody), 0600))
	return path
}

// =============================================================================
// COMMAND FLOW
// =============================================================================

func TestRun_SignupWhoamiUploadAsk(t *testing.T) {
	env := newCLIEnv(t)

	out, stderr, err := env.run("secret123\n", "signup", "--name", "Ada Lovelace", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada Lovelace")
	assert.Contains(t, stderr, "Password:")

	// The session survives into a fresh process.
	out, _, err = env.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Expires")

	doc := writePDF(t, t.TempDir(), "handbook.pdf")
	out, _, err = env.run("", "upload", "--quiet", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded handbook.pdf")

	out, _, err = env.run("", "ask", "What", "is", "the", "refund", "policy?")
	require.NoError(t, err)
	assert.Contains(t, out, "What is the refund policy?")
	assert.Contains(t, out, "handbook.pdf")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRun_LoginAfterLogout(t *testing.T) {
	env := newCLIEnv(t)
	env.signup()

	out, _, err := env.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, _, err = env.run("", "whoami")
	require.ErrorIs(t, err, auth.ErrNotLoggedIn)
	assert.Equal(t, ExitAuthError, GetExitCode(err))

	out, _, err = env.run("secret123\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada Lovelace")
}

func TestRun_LoginWrongPassword(t *testing.T) {
	env := newCLIEnv(t)
	env.signup()

	_, _, err := env.run("wrong\n", "login", "--email", "ada@example.com")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestRun_LoginPromptsForEmail(t *testing.T) {
	env := newCLIEnv(t)
	env.signup()

	out, stderr, err := env.run("ada@example.com\nsecret123\n", "login")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Email:")
	assert.Contains(t, out, "Signed in")
}

func TestRun_LoginMissingInput(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("", "login", "--email", "ada@example.com")
	require.ErrorIs(t, err, errNoInput)
}

func TestRun_AskBeforeUpload(t *testing.T) {
	env := newCLIEnv(t)
	env.signup()

	_, _, err := env.run("", "ask", "anything?")
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, mockapi.DetailNoDocument, cmdErr.Reason)
	assert.Equal(t, ExitGeneralError, GetExitCode(err))
}

func TestRun_AskSignedOut(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("", "ask", "anything?")
	require.ErrorIs(t, err, auth.ErrNotLoggedIn)
}

func TestRun_UploadUnsupported(t *testing.T) {
	env := newCLIEnv(t)
	env.signup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0600))

	_, _, err := env.run("", "upload", "--quiet", path)
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Reason, "PDF")
}

func TestRun_JSONOutput(t *testing.T) {
	env := newCLIEnv(t)
	env.signup()

	doc := writePDF(t, t.TempDir(), "report.pdf")
	out, _, err := env.run("", "--json", "upload", doc)
	require.NoError(t, err)

	var resp struct {
		Success bool           `json:"success"`
		Command string         `json:"command"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "upload", resp.Command)
	assert.Equal(t, "report.pdf", resp.Data["name"])
	assert.Equal(t, "PDF", resp.Data["kind"])

	out, _, err = env.run("", "--json", "whoami")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ada@example.com", resp.Data["email"])
	assert.NotEmpty(t, resp.Data["expires_at"])
}

func TestRun_JSONError(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("", "--json", "whoami")
	require.ErrorIs(t, err, auth.ErrNotLoggedIn)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "whoami", resp.Command)
	require.NotNil(t, resp.Error)
	assert.Equal(t, auth.ErrNotLoggedIn.Error(), *resp.Error)
}

func TestRun_UnknownFlagIsUsageError(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("", "whoami", "--bogus")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func TestRun_ConfigSetGet(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("", "config", "set", "reveal.interval_ms", "20")
	require.NoError(t, err)

	path, err := config.ConfigPathTOML()
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, _, err := env.run("", "config", "get", "reveal.interval_ms")
	require.NoError(t, err)
	assert.Equal(t, "20\n", out)

	out, _, err = env.run("", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestRun_ConfigRejectsUnknownKey(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("", "config", "set", "no.such_key", "1")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestRun_ConfigSetInvalidValue(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("", "config", "set", "api.base_url", "not a url")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestRun_ConfigKeys(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("", "config", "keys")
	require.NoError(t, err)
	for _, k := range config.GetAllKeys() {
		assert.Contains(t, out, k)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &usageError{msg: "bad"}, ExitUsageError},
		{"config", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "api.base_url", Message: "bad"}}), ExitConfigError},
		{"not logged in", auth.ErrNotLoggedIn, ExitAuthError},
		{"expired", fmt.Errorf("token: %w", auth.ErrSessionExpired), ExitAuthError},
		{"401", &api.Error{Status: 401, Detail: "nope"}, ExitAuthError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
		{"wrapped command", NewCommandError("ask", "failed", auth.ErrNotLoggedIn), ExitAuthError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError_Hints(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, auth.ErrNotLoggedIn)
	assert.Contains(t, buf.String(), "docmind login")

	buf.Reset()
	DisplayError(&buf, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")})
	assert.Contains(t, buf.String(), "mock-server")

	buf.Reset()
	DisplayError(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestParseSeedUser(t *testing.T) {
	name, email, password, err := parseSeedUser("Ada Lovelace:ada@example.com:pa:ss")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)
	assert.Equal(t, "ada@example.com", email)
	assert.Equal(t, "pa:ss", password)

	_, _, _, err = parseSeedUser("ada@example.com:secret")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// PROMPTS AND OUTPUT
// =============================================================================

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("  ada@example.com \nlast"), &out)

	line, err := p.Line("Email: ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", line)

	secret, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "last", secret)

	_, err = p.Line("More: ")
	assert.ErrorIs(t, err, errNoInput)
	assert.Equal(t, "Email: Password: More: ", out.String())
}

func TestPrintRevealed(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRevealed(context.Background(), &out, "one  two three", 0))
	assert.Equal(t, "one  two three\n", out.String())
}

func TestPrintRevealed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := printRevealed(ctx, &out, "one two", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplPrinter_RevealTurn(t *testing.T) {
	var out bytes.Buffer
	p := newReplPrinter(&out)
	user := model.Message{Role: model.RoleUser, Content: "Q", IsFinal: true}

	p.begin()
	p.onChange(chatsession.Snapshot{State: chatsession.StateSending, Messages: []model.Message{user}})
	p.onChange(chatsession.Snapshot{State: chatsession.StateRevealing, Messages: []model.Message{user, {Role: model.RoleAssistant, Content: "The"}}})
	p.onChange(chatsession.Snapshot{State: chatsession.StateRevealing, Messages: []model.Message{user, {Role: model.RoleAssistant, Content: "The answer"}}})
	p.onChange(chatsession.Snapshot{State: chatsession.StateIdle, Messages: []model.Message{user, {Role: model.RoleAssistant, Content: "The answer", IsFinal: true}}})

	assert.Equal(t, "docmind> The answer\n", out.String())
	select {
	case <-p.done:
	default:
		t.Fatal("turn did not signal completion")
	}

	// Snapshots outside a turn are ignored.
	p.onChange(chatsession.Snapshot{State: chatsession.StateIdle, Error: "late"})
	assert.NotContains(t, out.String(), "late")
}

func TestReplPrinter_ErrorTurn(t *testing.T) {
	var out bytes.Buffer
	p := newReplPrinter(&out)
	previous := []model.Message{
		{Role: model.RoleUser, Content: "Q1", IsFinal: true},
		{Role: model.RoleAssistant, Content: "A1", IsFinal: true},
	}

	p.begin()
	p.onChange(chatsession.Snapshot{State: chatsession.StateSending})
	p.onChange(chatsession.Snapshot{State: chatsession.StateIdle, Messages: previous, Error: chatsession.MsgNoDocument})

	assert.Contains(t, out.String(), chatsession.MsgNoDocument)
	assert.NotContains(t, out.String(), "A1")
}

func TestChatErrorMessage(t *testing.T) {
	assert.Equal(t, "Nothing to regenerate yet.", chatErrorMessage(chatsession.ErrNothingToRegenerate))
	assert.True(t, isFatalChatError(auth.ErrSessionExpired))
	assert.False(t, isFatalChatError(chatsession.ErrBusy))
}
