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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/phuonguno98/netbackup/internal/models"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// Client talks to the backup management REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	session Session

	Auth        *AuthService
	Devices     *Resource[models.Device, models.DeviceInput]
	Sites       *Resource[models.Site, models.SiteInput]
	Locations   *LocationService
	Groups      *GroupService
	Credentials *Resource[models.DeviceCredential, models.DeviceCredentialInput]
	Admins      *Resource[models.Admin, models.AdminInput]
	Dashboard   *DashboardService
	Backups     *BackupService
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTransport replaces the base transport under the auth chain.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.httpClient.Transport = rt
		}
	}
}

// WithSession binds the session used for bearer tokens and expiry.
func WithSession(s Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout, Transport: http.DefaultTransport},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient.Transport = &expiryTransport{
		session: c.currentSession,
		logger:  c.logger,
		next: &bearerTransport{
			session: c.currentSession,
			next:    &requestIDTransport{next: c.httpClient.Transport},
		},
	}

	c.Auth = &AuthService{c: c}
	c.Devices = newResource[models.Device, models.DeviceInput](c, "/api/devices")
	c.Sites = newResource[models.Site, models.SiteInput](c, "/api/sites")
	c.Locations = &LocationService{Resource: newResource[models.Location, models.LocationInput](c, "/api/locations")}
	c.Groups = &GroupService{Resource: newResource[models.DeviceGroup, models.DeviceGroupInput](c, "/api/device-groups")}
	c.Credentials = newResource[models.DeviceCredential, models.DeviceCredentialInput](c, "/api/device-credentials")
	c.Admins = newResource[models.Admin, models.AdminInput](c, "/api/admins")
	c.Dashboard = &DashboardService{c: c}
	c.Backups = &BackupService{c: c}
	return c, nil
}

// UseSession binds s after construction. The session store needs the
// client's AuthService, so the two are wired in this order.
func (c *Client) UseSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	return u.String()
}

// doJSON sends body as JSON and decodes a 2xx response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// doForm posts form-encoded values.
func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, req.Method, req.URL.Path, respBody)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// IsUnauthorized reports whether err is an authentication rejection.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
