// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds the signed-in user's session: bearer token and profile.
//
// The session is an explicit object handed to the chat controller and the
// layout shell at construction time. It is set on login, cleared on logout
// and persisted through a Store.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docmind/docmind-tui/internal/logging"
)

// Errors returned by the session manager.
var (
	// ErrNotLoggedIn indicates no session token is available.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired indicates the stored token's exp claim has passed.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNoSession is returned by Store.Load when nothing is persisted.
	ErrNoSession = errors.New("no stored session")

	// ErrEmptyToken indicates an attempt to start a session without a token.
	ErrEmptyToken = errors.New("empty access token")
)

// =============================================================================
// PROFILE
// =============================================================================

// Profile is the user shown in the layout shell.
type Profile struct {
	Name  string
	Email string
}

// Initial returns the avatar letter: the uppercased first letter of the name,
// else of the email, else "U".
func (p Profile) Initial() string {
	for _, s := range []string{p.Name, p.Email} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return cases.Upper(language.Und).String(string(r))
	}
	return "U"
}

// DisplayName returns the name, falling back to the email.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// =============================================================================
// SESSION
// =============================================================================

// Session is a bearer token with the profile it was issued for.
type Session struct {
	Token   string
	Profile Profile

	// ExpiresAt is read from the token's exp claim; zero if absent.
	ExpiresAt time.Time
}

// Expired reports whether the session's token has expired at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The server verifies tokens; the client only needs to know when to stop
// using one. Opaque (non-JWT) tokens have no expiry.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// NewSession builds a session, reading the expiry from the token.
func NewSession(token string, profile Profile) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrEmptyToken
	}
	s := Session{Token: token, Profile: profile}
	if exp, ok := TokenExpiry(token); ok {
		s.ExpiresAt = exp
	}
	return s, nil
}

// =============================================================================
// STORE
// =============================================================================

// Store persists a session between runs.
type Store interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
}

// Load implements Store.
func (m *MemoryStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return *m.session, nil
}

// Save implements Store.
func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the current session. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current *Session
	now     func() time.Time
	log     *zap.Logger
}

// NewManager creates a manager persisting through store.
func NewManager(store Store, log *zap.Logger) *Manager {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Manager{
		store: store,
		now:   time.Now,
		log:   logging.OrNop(log).Named("auth"),
	}
}

// WithClock overrides the time source used for expiry checks.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Restore loads a persisted session. A missing or expired session is not an
// error; the manager simply stays logged out.
func (m *Manager) Restore() error {
	s, err := m.store.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.ExpiresAt.IsZero() {
		if exp, ok := TokenExpiry(s.Token); ok {
			s.ExpiresAt = exp
		}
	}
	if s.Expired(m.now()) {
		m.log.Info("stored session expired", zap.Time("expires_at", s.ExpiresAt))
		return m.store.Clear()
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return nil
}

// Login starts a session and persists it.
func (m *Manager) Login(token string, profile Profile) (Session, error) {
	s, err := NewSession(token, profile)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.Save(s); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.log.Info("session started", zap.String("email", profile.Email))
	return s, nil
}

// Logout ends the session and deletes the persisted copy.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	m.log.Info("session ended")
	return m.store.Clear()
}

// Current returns the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.Expired(m.now()) {
		return Session{}, false
	}
	return *m.current, true
}

// Profile returns the profile of the active session, if any.
func (m *Manager) Profile() (Profile, bool) {
	s, ok := m.Current()
	return s.Profile, ok
}

// Token returns the bearer token of the active session.
func (m *Manager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", ErrNotLoggedIn
	}
	if m.current.Expired(m.now()) {
		return "", ErrSessionExpired
	}
	return m.current.Token, nil
}

// IsAuthenticated reports whether a usable session exists.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}
