// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/docmind/docmind-tui/internal/api"
	"github.com/docmind/docmind-tui/internal/logging"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where `docmind mock-server` listens.
	DefaultAddr = "127.0.0.1:8000"

	// Prefix is the API root the client's default base URL points at.
	Prefix = "/api/v1"

	// DefaultTokenTTL is the lifetime of issued access tokens.
	DefaultTokenTTL = 24 * time.Hour

	// MaxUploadSize mirrors the client-side document limit.
	MaxUploadSize = 10 << 20

	// MaxQueryLength bounds a chat query.
	MaxQueryLength = 10000
)

// Detail strings returned in {"detail": ...} bodies.
const (
	DetailNotAuthenticated = "Not authenticated"
	DetailBadCredentials   = "Could not validate credentials"
	DetailLoginFailed      = "Incorrect email or password"
	DetailEmailTaken       = "Email already registered"
	DetailNoDocument       = "No document found. Please upload a document first."
	DetailUnsupportedFile  = "Unsupported file type. Please upload a PDF, DOCX, or PPTX file."
	DetailFileTooLarge     = "File too large"
)

// Answerer produces the assistant answer for a query about the user's
// uploaded documents.
type Answerer func(ctx context.Context, email, query string, documents []string) (string, error)

// Options configures a Server. Zero values select defaults.
type Options struct {
	Secret   []byte
	TokenTTL time.Duration
	Answerer Answerer
	Logger   *zap.Logger

	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit rate.Limit
	Burst     int

	// Now is the clock used for token issue times.
	Now func() time.Time
}

// ============================================================================
// SERVER
// ============================================================================

type account struct {
	name         string
	email        string
	passwordHash []byte
}

// Server is an in-memory stand-in for the DocMind backend.
type Server struct {
	engine   *gin.Engine
	server   *http.Server
	secret   []byte
	ttl      time.Duration
	answerer Answerer
	log      *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	accounts  map[string]*account
	documents map[string][]string
}

// New creates a server with its routes registered.
func New(opts Options) *Server {
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, 32)
		_, _ = rand.Read(opts.Secret)
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.Answerer == nil {
		opts.Answerer = DefaultAnswerer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		secret:    opts.Secret,
		ttl:       opts.TokenTTL,
		answerer:  opts.Answerer,
		log:       logging.OrNop(opts.Logger).Named("mockapi"),
		now:       opts.Now,
		accounts:  make(map[string]*account),
		documents: make(map[string][]string),
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.MaxMultipartMemory = MaxUploadSize
	s.engine.Use(recovery(s.log), requestLogger(s.log), corsMiddleware(), securityHeaders())
	if opts.RateLimit > 0 {
		s.engine.Use(rateLimit(newClientLimiter(opts.RateLimit, opts.Burst)))
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group(Prefix)
	v1.POST(api.PathSignup, s.handleSignup)
	v1.POST(api.PathLogin, s.handleLogin)

	private := v1.Group("", s.requireBearer())
	private.POST("/chat", s.handleChat)
	private.POST("/chat/", s.handleChat)
	private.POST(api.PathUpload, s.handleUpload)
	private.GET("/documents", s.handleListDocuments)
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.log.Info("server start", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	s.log.Info("server shutdown")
	return srv.Shutdown(ctx)
}

// AddAccount registers an account directly, for seeding and tests.
func (s *Server) AddAccount(name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	if _, exists := s.accounts[key]; exists {
		return errors.New(DetailEmailTaken)
	}
	s.accounts[key] = &account{name: name, email: strings.TrimSpace(email), passwordHash: hash}
	return nil
}

// Documents returns the filenames uploaded by email.
func (s *Server) Documents(email string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.documents[normalizeEmail(email)]...)
}

// IssueToken signs an access token for email.
func (s *Server) IssueToken(email, name string) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   normalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "docmind-mockapi",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type signupBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var body signupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeValidation(c, err)
		return
	}
	if err := s.AddAccount(body.Name, body.Email, body.Password); err != nil {
		writeDetail(c, http.StatusBadRequest, DetailEmailTaken)
		return
	}
	s.log.Info("account created", zap.String("email", normalizeEmail(body.Email)))
	s.writeAuth(c, body.Name, body.Email)
}

func (s *Server) handleLogin(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeValidation(c, err)
		return
	}
	s.mu.RLock()
	acct := s.accounts[normalizeEmail(body.Email)]
	s.mu.RUnlock()
	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(body.Password)) != nil {
		writeDetail(c, http.StatusUnauthorized, DetailLoginFailed)
		return
	}
	s.writeAuth(c, acct.name, acct.email)
}

func (s *Server) writeAuth(c *gin.Context, name, email string) {
	token, err := s.IssueToken(email, name)
	if err != nil {
		writeDetail(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(http.StatusOK, api.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        api.User{Name: name, Email: email},
	})
}

type chatBody struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeValidation(c, err)
		return
	}
	if len(body.Query) > MaxQueryLength {
		writeDetail(c, http.StatusBadRequest, fmt.Sprintf("Query exceeds %d characters", MaxQueryLength))
		return
	}

	email := c.GetString(ctxEmail)
	docs := s.Documents(email)
	if len(docs) == 0 {
		writeDetail(c, http.StatusBadRequest, DetailNoDocument)
		return
	}

	answer, err := s.answerer(c.Request.Context(), email, body.Query, docs)
	if err != nil {
		s.log.Warn("answerer failed", zap.Error(err))
		var ae *api.Error
		if errors.As(err, &ae) && ae.Status >= 400 {
			if ae.Detail != "" {
				writeDetail(c, ae.Status, ae.Detail)
			} else {
				c.Status(ae.Status)
			}
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(c, http.StatusRequestEntityTooLarge, DetailFileTooLarge)
			return
		}
		writeDetail(c, http.StatusUnprocessableEntity, "field required: file")
		return
	}
	if header.Size > MaxUploadSize {
		writeDetail(c, http.StatusRequestEntityTooLarge, DetailFileTooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		writeDetail(c, http.StatusBadRequest, "Could not read file")
		return
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil || !acceptedUpload(mt, header.Filename) {
		writeDetail(c, http.StatusBadRequest, DetailUnsupportedFile)
		return
	}

	email := c.GetString(ctxEmail)
	name := filepath.Base(header.Filename)
	s.mu.Lock()
	key := normalizeEmail(email)
	s.documents[key] = append(s.documents[key], name)
	s.mu.Unlock()

	s.log.Info("document uploaded",
		zap.String("email", key),
		zap.String("filename", name),
		zap.String("mime", mt.String()),
		zap.Int64("size", header.Size),
	)
	c.JSON(http.StatusOK, api.UploadResponse{Filename: name, Message: "File uploaded successfully"})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"documents": s.Documents(c.GetString(ctxEmail))})
}

// acceptedUpload matches PDF by content, and DOCX/PPTX by content or by a
// zip container with the right extension.
func acceptedUpload(mt *mimetype.MIME, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for m := mt; m != nil; m = m.Parent() {
		switch m.Extension() {
		case ".pdf", ".docx", ".pptx":
			return true
		case ".zip":
			return ext == ".docx" || ext == ".pptx"
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================================
// RESPONSES
// ============================================================================

func writeDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// fieldError is one entry of a 422 detail list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// writeValidation answers 422 with a list-shaped detail.
func writeValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []fieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}},
	})
}
