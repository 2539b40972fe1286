// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/logging"
)

// Configuration constants for the DocMind API.
const (
	// DefaultBaseURL is the base URL of a locally running backend.
	DefaultBaseURL = "http://127.0.0.1:8000/api/v1"

	// DefaultTimeout bounds JSON requests. Uploads are bounded by context only.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	userAgent = "docmind-tui/0.1.0"
)

// Endpoint paths relative to the base URL.
const (
	PathLogin  = "/auth/login"
	PathSignup = "/auth/signup"
	PathChat   = "/chat/"
	PathUpload = "/documents/upload"
)

// ErrMalformedResponse indicates a 2xx response whose body could not be used.
var ErrMalformedResponse = errors.New("malformed response from server")

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the profile returned with an access token.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// ChatRequest is the body of POST /chat/.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the body of a successful chat call.
type ChatResponse struct {
	Answer *string `json:"answer"`
}

// UploadResponse is the body of a successful upload. Every field is optional.
type UploadResponse struct {
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ProgressFunc reports upload progress in bytes.
type ProgressFunc func(sent, total int64)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the DocMind HTTP API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
	log          *zap.Logger
}

// NewClient creates a client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		uploadClient: &http.Client{},
		log:          zap.NewNop(),
	}
}

// WithTimeout sets the timeout for JSON requests.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client for all requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.uploadClient = hc
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	c.log = logging.OrNop(l).Named("api")
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// AUTH API
// =============================================================================

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, PathLogin, "", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	}
	return &out, nil
}

// Signup creates an account and returns its access token.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := SignupRequest{Name: name, Email: email, Password: password}
	if err := c.doJSON(ctx, PathSignup, "", req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	}
	return &out, nil
}

// =============================================================================
// CHAT API
// =============================================================================

// Chat sends query and returns the complete answer.
func (c *Client) Chat(ctx context.Context, token, query string) (string, error) {
	var out ChatResponse
	if err := c.doJSON(ctx, PathChat, token, ChatRequest{Query: query}, &out); err != nil {
		return "", err
	}
	if out.Answer == nil {
		return "", fmt.Errorf("%w: missing answer", ErrMalformedResponse)
	}
	return *out.Answer, nil
}

// =============================================================================
// DOCUMENT API
// =============================================================================

// Upload sends a document as the multipart field "file". size is used for
// progress reporting only and may be zero if unknown.
func (c *Client) Upload(ctx context.Context, token, filename string, r io.Reader, size int64, progress ProgressFunc) (*UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := r
		if progress != nil {
			src = &progressReader{r: r, total: size, report: progress}
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathUpload, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(c.uploadClient, req)
	pr.Close()
	if err != nil {
		return nil, err
	}

	var out UploadResponse
	if len(bytes.TrimSpace(body)) > 0 {
		// Any 2xx counts as success; an unexpected body is not an error.
		_ = json.Unmarshal(body, &out)
	}
	return &out, nil
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) doJSON(ctx context.Context, path, token string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(c.httpClient, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// do executes req and returns the body of a 2xx response. Non-2xx responses
// become *Error.
func (c *Client) do(hc *http.Client, req *http.Request) ([]byte, error) {
	start := time.Now()
	c.log.Debug("api_request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		logging.Headers(req.Header),
	)

	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn("api_request_failed",
			zap.String("path", req.URL.Path),
			zap.String("request_id", req.Header.Get(RequestIDHeader)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, MaxResponseSize)
	}

	c.log.Debug("api_response",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}
