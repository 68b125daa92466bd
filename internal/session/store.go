/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrLoginFailed is the generic login failure used when the authenticator
// gives no readable reason.
var ErrLoginFailed = errors.New("login failed")

// LoginError is returned by Store.Login. Reason is safe to show to the user.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	return e.Reason
}

func (e *LoginError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoginFailed}
	}
	return []error{ErrLoginFailed, e.Err}
}

// reasoner is implemented by authenticator errors that carry a message
// meant for the user.
type reasoner interface {
	Reason() string
}

// Session is the authenticated identity held by the console.
type Session struct {
	Token    string
	Username string
	Role     Role
}

// Valid reports whether every field is populated.
func (s Session) Valid() bool {
	return s.Token != "" && s.Username != "" && s.Role != ""
}

// Credentials is what an Authenticator returns on a successful login.
type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        Role   `json:"role"`
}

// Authenticator is the remote side of login and logout.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Credentials, error)
	Logout(ctx context.Context) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for failures that are not returned.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExpiredHook registers fn to run every time the session is expired by
// an authentication rejection.
func WithExpiredHook(fn func()) Option {
	return func(s *Store) {
		if fn != nil {
			s.onExpired = append(s.onExpired, fn)
		}
	}
}

// Store owns the current session and its persisted copy.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	current   Session
	storage   Storage
	auth      Authenticator
	logger    *slog.Logger
	flight    singleflight.Group
	onExpired []func()
}

// NewStore creates a Store and rehydrates the session from storage.
// A partial or unreadable persisted session is treated as absent and erased;
// it never keeps the console from starting logged out.
func NewStore(storage Storage, auth Authenticator, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, errors.New("session storage is required")
	}
	s := &Store{
		storage: storage,
		auth:    auth,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	restored, err := s.restore()
	if err != nil {
		s.logger.Warn("Discarding unreadable session", "error", err)
	}
	if err == nil && restored.Valid() {
		s.current = restored
		s.logger.Debug("Session restored", "username", restored.Username, "role", restored.Role)
		return s, nil
	}
	if err := storage.Delete(sessionKeys...); err != nil {
		s.logger.Error("Failed to clear persisted session", "error", err)
	}
	return s, nil
}

func (s *Store) restore() (Session, error) {
	var sess Session
	for _, key := range sessionKeys {
		v, _, err := s.storage.Get(key)
		if err != nil {
			return Session{}, fmt.Errorf("failed to read session key %q: %w", key, err)
		}
		switch key {
		case KeyToken:
			sess.Token = v
		case KeyUsername:
			sess.Username = v
		case KeyRole:
			sess.Role = Role(v)
		}
	}
	return sess, nil
}

// Login authenticates and, on success, persists and activates the session.
// Concurrent calls with the same credentials share a single authenticator
// call. On failure the
// previous session is left as it was.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, &LoginError{Reason: "username and password are required"}
	}

	v, err, shared := s.flight.Do(flightKey(username, password), func() (any, error) {
		return s.login(ctx, username, password)
	})
	if shared {
		s.logger.Debug("Joined in-flight login", "username", username)
	}
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}

// flightKey identifies a login attempt so that only calls with identical
// credentials share a result.
func flightKey(username, password string) string {
	sum := sha256.Sum256([]byte(password))
	return username + "\x00" + hex.EncodeToString(sum[:])
}

func (s *Store) login(ctx context.Context, username, password string) (Session, error) {
	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth == nil {
		return Session{}, &LoginError{Reason: ErrLoginFailed.Error(), Err: errors.New("no authenticator configured")}
	}

	creds, err := auth.Login(ctx, username, password)
	if err != nil {
		return Session{}, loginError(err)
	}

	next := Session{Token: creds.AccessToken, Username: creds.Username, Role: creds.Role}
	if next.Username == "" {
		next.Username = username
	}
	if !next.Valid() {
		return Session{}, &LoginError{Reason: ErrLoginFailed.Error(), Err: errors.New("incomplete login response")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(map[string]string{
		KeyToken:    next.Token,
		KeyUsername: next.Username,
		KeyRole:     string(next.Role),
	}); err != nil {
		return Session{}, fmt.Errorf("failed to persist session: %w", err)
	}
	s.current = next
	s.logger.Info("Logged in", "username", next.Username, "role", next.Role)
	return next, nil
}

func loginError(err error) *LoginError {
	var r reasoner
	if errors.As(err, &r) {
		if reason := strings.TrimSpace(r.Reason()); reason != "" {
			return &LoginError{Reason: reason, Err: err}
		}
	}
	return &LoginError{Reason: ErrLoginFailed.Error(), Err: err}
}

// Logout notifies the authenticator and then clears the session whether or
// not that call succeeded.
func (s *Store) Logout(ctx context.Context) {
	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()

	if auth != nil {
		if err := auth.Logout(ctx); err != nil {
			s.logger.Warn("Remote logout failed", "error", err)
		}
	}
	s.clear("logout")
}

// Expire clears the session after an authentication rejection and runs the
// expired hooks.
func (s *Store) Expire() {
	s.clear("expired")
	s.mu.RLock()
	hooks := append([]func(){}, s.onExpired...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *Store) clear(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = Session{}
	if err := s.storage.Delete(sessionKeys...); err != nil {
		s.logger.Error("Failed to erase persisted session", "error", err)
	}
	if prev.Token != "" {
		s.logger.Info("Session cleared", "username", prev.Username, "reason", reason)
	}
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token != ""
}

// HasPermission reports whether the current role ranks at or above
// required. It is false without a session or for unknown roles.
func (s *Store) HasPermission(required Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.Token == "" {
		return false
	}
	return s.current.Role.AtLeast(required)
}

// Current returns a copy of the active session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}
