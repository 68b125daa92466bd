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

package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
)

const (
	// DefaultTokenTTL matches the lifetime of tokens issued by the backend.
	DefaultTokenTTL = 30 * time.Minute

	detailBadCredentials = "Incorrect username or password"
	detailInvalidToken   = "Could not validate credentials"
	detailForbidden      = "Not enough permissions"
)

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type principalKey struct{}

func withPrincipal(ctx context.Context, a models.Admin) context.Context {
	return context.WithValue(ctx, principalKey{}, a)
}

// principal returns the admin authenticated for the request.
func principal(ctx context.Context) (models.Admin, bool) {
	a, ok := ctx.Value(principalKey{}).(models.Admin)
	return a, ok
}

func (s *Server) issueToken(a models.Admin) (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	return signed, exp, err
}

func (s *Server) parseToken(raw string) (*tokenClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*tokenClaims)
	if !ok || !tok.Valid || c.Subject == "" {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// requireRole wraps h so it only runs for a valid bearer token whose admin
// ranks at or above min. The role is read from the account, not the token,
// so a role change takes effect immediately.
func (s *Server) requireRole(min session.Role, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			s.unauthorized(w, detailInvalidToken)
			return
		}
		claims, err := s.parseToken(raw)
		if err != nil {
			s.logger.Debug("Rejected token", "error", err)
			s.unauthorized(w, detailInvalidToken)
			return
		}
		admin, ok := s.store.ActiveAdmin(claims.Subject)
		if !ok {
			s.unauthorized(w, detailInvalidToken)
			return
		}
		if !session.Role(admin.Role).AtLeast(min) {
			s.writeError(w, detailForbidden, http.StatusForbidden)
			return
		}
		h(w, r.WithContext(withPrincipal(r.Context(), admin)))
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.writeError(w, detail, http.StatusUnauthorized)
}

// handleLogin accepts the OAuth2 password form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	admin, ok := s.store.Authenticate(username, r.PostFormValue("password"))
	if !ok {
		s.logger.Info("Login rejected", "username", username)
		loginsTotal.WithLabelValues("rejected").Inc()
		s.unauthorized(w, detailBadCredentials)
		return
	}

	token, exp, err := s.issueToken(admin)
	if err != nil {
		s.logger.Error("Failed to sign token", "error", err)
		s.writeError(w, "Could not issue token", http.StatusInternalServerError)
		return
	}
	loginsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("Login accepted", "username", admin.Username, "role", admin.Role, "expires", exp)
	s.writeJSON(w, http.StatusOK, session.Credentials{
		AccessToken: token,
		TokenType:   "bearer",
		Username:    admin.Username,
		Role:        session.Role(admin.Role),
	})
}

// handleLogout is stateless: tokens simply expire.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
