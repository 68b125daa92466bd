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

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Session is what the HTTP layer needs from the session store.
type Session interface {
	Token() string
	Expire()
}

type skipExpiryKey struct{}

// withoutExpiry marks a request whose 401 is an expected answer (a wrong
// password) and must not clear the session.
func withoutExpiry(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipExpiryKey{}, true)
}

func expirySkipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipExpiryKey{}).(bool)
	return v
}

// requestIDTransport stamps every request with a fresh X-Request-ID.
type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, uuid.NewString())
	return t.next.RoundTrip(r)
}

// bearerTransport attaches the current session token when there is one.
type bearerTransport struct {
	session func() Session
	next    http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s := t.session()
	if s == nil || req.Header.Get("Authorization") != "" {
		return t.next.RoundTrip(req)
	}
	token := s.Token()
	if token == "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(r)
}

// expiryTransport inspects every response. A 401 expires the session
// before the response is handed back to the caller.
type expiryTransport struct {
	session func() Session
	logger  *slog.Logger
	next    http.RoundTripper
}

func (t *expiryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug("HTTP request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
			"duration", time.Since(start),
		)
		return nil, err
	}

	t.logger.Debug("HTTP request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized && !expirySkipped(req.Context()) {
		if s := t.session(); s != nil {
			t.logger.Warn("Authentication rejected, clearing session", "path", req.URL.Path)
			s.Expire()
		}
	}
	return resp, nil
}
