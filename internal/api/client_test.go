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
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
)

type recorded struct {
	Method    string
	Path      string
	Auth      string
	RequestID string
	Body      string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
	router   *mux.Router
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{router: mux.NewRouter()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recorded{
			Method:    r.Method,
			Path:      r.URL.Path,
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get(RequestIDHeader),
			Body:      string(body),
		})
		fb.mu.Unlock()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		fb.router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) last() recorded {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests[len(fb.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// wire builds the client and session store the way the CLI does.
func wire(t *testing.T, baseURL string, opts ...session.Option) (*Client, *session.Store, *session.MemoryStorage) {
	t.Helper()
	client, err := New(baseURL, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	storage := session.NewMemoryStorage()
	store, err := session.NewStore(storage, client.Auth, opts...)
	require.NoError(t, err)
	client.UseSession(store)
	return client, store, storage
}

func loginOK(router *mux.Router) {
	router.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("username") != "alice" || r.FormValue("password") != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": "t1",
			"token_type":   "bearer",
			"username":     "alice",
			"role":         "admin",
		})
	}).Methods(http.MethodPost)
}

func TestLogin_FormEncodedAndPersisted(t *testing.T) {
	fb, srv := newFakeBackend(t)
	loginOK(fb.router)
	_, store, storage := wire(t, srv.URL)

	sess, err := store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t1", sess.Token)
	assert.Equal(t, session.RoleAdmin, sess.Role)
	assert.Equal(t, 3, storage.Len())

	req := fb.last()
	assert.Equal(t, "/api/auth/login", req.Path)
	assert.Contains(t, req.Body, "username=alice")
	assert.Empty(t, req.Auth)
}

func TestLogin_RejectedKeepsSession(t *testing.T) {
	fb, srv := newFakeBackend(t)
	loginOK(fb.router)
	_, store, _ := wire(t, srv.URL)

	_, err := store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	_, err = store.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", err.Error())
	assert.ErrorIs(t, err, session.ErrLoginFailed)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "t1", store.Token())
}

func TestBearerAndRequestID(t *testing.T) {
	fb, srv := newFakeBackend(t)
	loginOK(fb.router)
	fb.router.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Device{{ID: "d1", Name: "edge-rtr", Type: models.DeviceTypeRouter}})
	}).Methods(http.MethodGet)
	client, store, _ := wire(t, srv.URL)

	_, err := client.Devices.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fb.last().Auth)
	first := fb.last().RequestID
	assert.NotEmpty(t, first)

	_, err = store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	devices, err := client.Devices.List(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "edge-rtr", devices[0].Name)
	assert.Equal(t, "Bearer t1", fb.last().Auth)
	assert.NotEqual(t, first, fb.last().RequestID)
}

func TestUnauthorized_ExpiresBeforeCallerSeesError(t *testing.T) {
	fb, srv := newFakeBackend(t)
	loginOK(fb.router)
	fb.router.HandleFunc("/api/sites", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	})

	var redirected int
	client, store, storage := wire(t, srv.URL, session.WithExpiredHook(func() { redirected++ }))
	_, err := store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	_, err = client.Sites.List(context.Background())
	require.Error(t, err)

	// By the time the error reaches the caller the session is gone.
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, 0, storage.Len())
	assert.Equal(t, 1, redirected)
	assert.True(t, IsUnauthorized(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Could not validate credentials", apiErr.Detail)
	assert.Equal(t, "/api/sites", apiErr.Path)
}

func TestLogout_ServerErrorStillClears(t *testing.T) {
	fb, srv := newFakeBackend(t)
	loginOK(fb.router)
	fb.router.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	})
	_, store, storage := wire(t, srv.URL)
	_, err := store.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	store.Logout(context.Background())
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, 0, storage.Len())
	assert.Equal(t, "/api/auth/logout", fb.last().Path)
	assert.Equal(t, "Bearer t1", fb.last().Auth)
}

func TestResourcePaths(t *testing.T) {
	fb, srv := newFakeBackend(t)
	ok := func(v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, v) }
	}
	fb.router.HandleFunc("/api/devices/{id}", ok(models.Device{ID: "d1"})).Methods(http.MethodGet, http.MethodPut)
	fb.router.HandleFunc("/api/devices", ok(models.Device{ID: "d2"})).Methods(http.MethodPost)
	fb.router.HandleFunc("/api/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	fb.router.HandleFunc("/api/locations/site/{id}", ok([]models.Location{{ID: "l1", SiteID: "s1"}})).Methods(http.MethodGet)
	fb.router.HandleFunc("/api/device-groups/{id}/devices", ok(models.DeviceGroup{ID: "g1", Devices: []models.DeviceSummary{{ID: "d1"}}})).Methods(http.MethodPost)
	fb.router.HandleFunc("/api/device-groups/{gid}/devices/{did}", ok(map[string]string{"message": "removed"})).Methods(http.MethodDelete)
	fb.router.HandleFunc("/api/device-credentials/{id}", ok(models.DeviceCredential{ID: "c1", DeviceID: "d1"})).Methods(http.MethodGet)
	fb.router.HandleFunc("/api/dashboard/stats", ok(models.DashboardStats{TotalDevices: 4, ActiveDevices: 3})).Methods(http.MethodGet)
	fb.router.HandleFunc("/api/backup-history", ok([]models.BackupRecord{{ID: "b1", Status: models.BackupStatusSuccess}})).Methods(http.MethodGet)
	fb.router.HandleFunc("/api/admins", ok([]models.Admin{{ID: 7, Username: "root"}})).Methods(http.MethodGet)

	client, _, _ := wire(t, srv.URL)
	ctx := context.Background()

	d, err := client.Devices.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)

	d, err = client.Devices.Create(ctx, models.DeviceInput{Name: "n", IPAddress: "10.0.0.2", Type: models.DeviceTypeSwitch})
	require.NoError(t, err)
	assert.Equal(t, "d2", d.ID)
	assert.JSONEq(t, `{"name":"n","ip_address":"10.0.0.2","type":"Switch"}`, fb.last().Body)

	_, err = client.Devices.Update(ctx, "d1", models.DeviceInput{Name: "n2"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, fb.last().Method)

	require.NoError(t, client.Devices.Delete(ctx, "d1"))
	assert.Equal(t, http.MethodDelete, fb.last().Method)

	locs, err := client.Locations.ListBySite(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "/api/locations/site/s1", fb.last().Path)

	g, err := client.Groups.AddDevice(ctx, "g1", "d1")
	require.NoError(t, err)
	assert.Len(t, g.Devices, 1)
	assert.JSONEq(t, `{"device_id":"d1"}`, fb.last().Body)

	require.NoError(t, client.Groups.RemoveDevice(ctx, "g1", "d1"))
	assert.Equal(t, "/api/device-groups/g1/devices/d1", fb.last().Path)

	cred, err := client.Credentials.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "c1", cred.ID)

	stats, err := client.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDevices)

	history, err := client.Backups.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusSuccess, history[0].Status)

	admins, err := client.Admins.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", admins[0].RowID())
}

func TestNotFound(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.router.HandleFunc("/api/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Device not found"})
	})
	client, _, _ := wire(t, srv.URL)

	_, err := client.Devices.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Contains(t, err.Error(), "404 Device not found")
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", 400, `{"detail":"Username already registered"}`, "Username already registered"},
		{"validation list", 422, `{"detail":[{"loc":["body","ip_address"],"msg":"field required"},{"loc":["body","name"],"msg":"field required"}]}`, "ip_address: field required; name: field required"},
		{"error field", 500, `{"error":"database unavailable"}`, "database unavailable"},
		{"message field", 500, `{"message":"try later"}`, "try later"},
		{"not json", 502, `<html>bad gateway</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := decodeError(tt.status, http.MethodGet, "/api/x", []byte(tt.body))
			assert.Equal(t, tt.want, e.Detail)
			assert.Equal(t, tt.status, e.StatusCode)
		})
	}
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "ftp://host", "http://"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}
