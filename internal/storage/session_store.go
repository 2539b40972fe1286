// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/docmind/docmind-tui/internal/auth"
)

// Fixed keys under which the session is persisted.
const (
	KeyToken     = "token"
	KeyUserEmail = "userEmail"
	KeyUserName  = "userName"
)

const opTimeout = 5 * time.Second

// SessionStore persists an auth.Session in a KV.
type SessionStore struct {
	kv *KV
}

// NewSessionStore wraps kv as an auth.Store.
func NewSessionStore(kv *KV) *SessionStore {
	return &SessionStore{kv: kv}
}

var _ auth.Store = (*SessionStore)(nil)

// Load implements auth.Store. A missing token means no session.
func (s *SessionStore) Load() (auth.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	token, err := s.kv.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) || (err == nil && token == "") {
		return auth.Session{}, auth.ErrNoSession
	}
	if err != nil {
		return auth.Session{}, err
	}

	var profile auth.Profile
	if profile.Email, err = s.optional(ctx, KeyUserEmail); err != nil {
		return auth.Session{}, err
	}
	if profile.Name, err = s.optional(ctx, KeyUserName); err != nil {
		return auth.Session{}, err
	}
	return auth.NewSession(token, profile)
}

func (s *SessionStore) optional(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Save implements auth.Store.
func (s *SessionStore) Save(session auth.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return s.kv.SetMany(ctx, map[string]string{
		KeyToken:     session.Token,
		KeyUserEmail: session.Profile.Email,
		KeyUserName:  session.Profile.Name,
	})
}

// Clear implements auth.Store.
func (s *SessionStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return s.kv.Delete(ctx, KeyToken, KeyUserEmail, KeyUserName)
}
