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
	"net/http"
	"net/url"

	"github.com/phuonguno98/netbackup/internal/session"
)

// AuthService implements session.Authenticator over the auth endpoints.
type AuthService struct {
	c *Client
}

var _ session.Authenticator = (*AuthService)(nil)

// Login posts the OAuth2 password form. A rejected login does not expire
// the current session.
func (s *AuthService) Login(ctx context.Context, username, password string) (session.Credentials, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var creds session.Credentials
	if err := s.c.doForm(withoutExpiry(ctx), "/api/auth/login", form, &creds); err != nil {
		return session.Credentials{}, err
	}
	return creds, nil
}

// Logout tells the server the token is no longer in use.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.c.doJSON(withoutExpiry(ctx), http.MethodPost, "/api/auth/logout", nil, nil)
}
