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

// Package devserver is an in-memory implementation of the backup management
// REST API, used to exercise the console without the real backend.
package devserver

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
	"github.com/phuonguno98/netbackup/pkg/version"
)

// MaxBodySize limits request bodies (1MB).
const MaxBodySize = 1 << 20

// Options configures a Server.
type Options struct {
	Secret         []byte        // HS256 key; random when empty
	TokenTTL       time.Duration // 0 = DefaultTokenTTL
	AllowedOrigins []string      // CORS origins; empty allows any
	Clock          clockwork.Clock
}

// Server serves the development API.
type Server struct {
	store    *Store
	secret   []byte
	tokenTTL time.Duration
	origins  []string
	clock    clockwork.Clock
	logger   *slog.Logger
	router   *mux.Router
}

// NewServer creates a server over store.
func NewServer(store *Store, opts Options, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	secret := opts.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		logger.Warn("No signing secret configured, tokens will not survive a restart")
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	clock := opts.Clock
	if clock == nil {
		clock = store.clock
	}

	s := &Server{
		store:    store,
		secret:   secret,
		tokenTTL: ttl,
		origins:  opts.AllowedOrigins,
		clock:    clock,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	read := func(h http.HandlerFunc) http.HandlerFunc { return s.requireRole(session.RoleReadOnly, h) }
	write := func(h http.HandlerFunc) http.HandlerFunc { return s.requireRole(session.RoleAdmin, h) }
	super := func(h http.HandlerFunc) http.HandlerFunc { return s.requireRole(session.RoleSuperAdmin, h) }

	r := s.router
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/version", s.handleGetVersion).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/api/dashboard/stats", read(s.handleDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/api/backup-history", read(s.handleBackups)).Methods(http.MethodGet)

	r.HandleFunc("/api/devices", read(s.handleListDevices)).Methods(http.MethodGet)
	r.HandleFunc("/api/devices", write(s.handleCreateDevice)).Methods(http.MethodPost)
	r.HandleFunc("/api/devices/{id}", read(s.handleGetDevice)).Methods(http.MethodGet)
	r.HandleFunc("/api/devices/{id}", write(s.handleUpdateDevice)).Methods(http.MethodPut)
	r.HandleFunc("/api/devices/{id}", write(s.handleDeleteDevice)).Methods(http.MethodDelete)

	r.HandleFunc("/api/sites", read(s.handleListSites)).Methods(http.MethodGet)
	r.HandleFunc("/api/sites", write(s.handleCreateSite)).Methods(http.MethodPost)
	r.HandleFunc("/api/sites/{id}", read(s.handleGetSite)).Methods(http.MethodGet)
	r.HandleFunc("/api/sites/{id}", write(s.handleUpdateSite)).Methods(http.MethodPut)
	r.HandleFunc("/api/sites/{id}", write(s.handleDeleteSite)).Methods(http.MethodDelete)

	r.HandleFunc("/api/locations", read(s.handleListLocations)).Methods(http.MethodGet)
	r.HandleFunc("/api/locations", write(s.handleCreateLocation)).Methods(http.MethodPost)
	r.HandleFunc("/api/locations/site/{siteId}", read(s.handleListLocations)).Methods(http.MethodGet)
	r.HandleFunc("/api/locations/{id}", read(s.handleGetLocation)).Methods(http.MethodGet)
	r.HandleFunc("/api/locations/{id}", write(s.handleUpdateLocation)).Methods(http.MethodPut)
	r.HandleFunc("/api/locations/{id}", write(s.handleDeleteLocation)).Methods(http.MethodDelete)

	r.HandleFunc("/api/device-groups", read(s.handleListGroups)).Methods(http.MethodGet)
	r.HandleFunc("/api/device-groups", write(s.handleCreateGroup)).Methods(http.MethodPost)
	r.HandleFunc("/api/device-groups/{id}", read(s.handleGetGroup)).Methods(http.MethodGet)
	r.HandleFunc("/api/device-groups/{id}", write(s.handleUpdateGroup)).Methods(http.MethodPut)
	r.HandleFunc("/api/device-groups/{id}", write(s.handleDeleteGroup)).Methods(http.MethodDelete)
	r.HandleFunc("/api/device-groups/{id}/devices", write(s.handleAddGroupDevice)).Methods(http.MethodPost)
	r.HandleFunc("/api/device-groups/{id}/devices/{deviceId}", write(s.handleRemoveGroupDevice)).Methods(http.MethodDelete)

	r.HandleFunc("/api/device-credentials", read(s.handleListCredentials)).Methods(http.MethodGet)
	r.HandleFunc("/api/device-credentials", write(s.handleCreateCredential)).Methods(http.MethodPost)
	r.HandleFunc("/api/device-credentials/{deviceId}", read(s.handleGetCredential)).Methods(http.MethodGet)
	r.HandleFunc("/api/device-credentials/{deviceId}", write(s.handleUpdateCredential)).Methods(http.MethodPut)
	r.HandleFunc("/api/device-credentials/{deviceId}", write(s.handleDeleteCredential)).Methods(http.MethodDelete)

	r.HandleFunc("/api/admins", super(s.handleListAdmins)).Methods(http.MethodGet)
	r.HandleFunc("/api/admins", super(s.handleCreateAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/api/admins/{id}", super(s.handleGetAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/api/admins/{id}", super(s.handleUpdateAdmin)).Methods(http.MethodPut)
	r.HandleFunc("/api/admins/{id}", super(s.handleDeleteAdmin)).Methods(http.MethodDelete)
}

// ServeHTTP implements http.Handler. CORS runs ahead of routing so that
// preflight requests are answered for every path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.router).ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Development API listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("Development API stopped")
	return nil
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.origins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware echoes X-Request-ID, generating one when absent.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and feeds the request metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", elapsed,
		)
	})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

// writeError writes a FastAPI style {"detail": "..."} body.
func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, map[string]string{"detail": message})
}

type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// fail maps a store error onto a status code.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string][]validationDetail{
			"detail": {{Loc: []string{"body", ve.Field}, Msg: ve.Msg, Type: "value_error"}},
		})
	case errors.Is(err, ErrNotFound):
		s.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		s.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("Request failed", "error", err)
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// reply writes v, or the error when err is set.
func reply[T any](s *Server, w http.ResponseWriter, status int, v T, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, status, v)
}

// decode reads a JSON body into a T.
func decode[T any](s *Server, w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string][]validationDetail{
			"detail": {{Loc: []string{"body"}, Msg: "invalid JSON: " + err.Error(), Type: "value_error.json"}},
		})
		return v, false
	}
	return v, true
}

func (s *Server) noContent(w http.ResponseWriter, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Dashboard and history -----

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.DashboardStats())
}

func (s *Server) handleBackups(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListBackups())
}

// ----- Devices -----

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListDevices())
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDevice(mux.Vars(r)["id"])
	reply(s, w, http.StatusOK, d, err)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.DeviceInput](s, w, r)
	if !ok {
		return
	}
	d, err := s.store.CreateDevice(in)
	reply(s, w, http.StatusOK, d, err)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.DeviceInput](s, w, r)
	if !ok {
		return
	}
	d, err := s.store.UpdateDevice(mux.Vars(r)["id"], in)
	reply(s, w, http.StatusOK, d, err)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.store.DeleteDevice(mux.Vars(r)["id"]))
}

// ----- Sites -----

func (s *Server) handleListSites(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListSites())
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := s.store.GetSite(mux.Vars(r)["id"])
	reply(s, w, http.StatusOK, site, err)
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.SiteInput](s, w, r)
	if !ok {
		return
	}
	site, err := s.store.CreateSite(in)
	reply(s, w, http.StatusOK, site, err)
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.SiteInput](s, w, r)
	if !ok {
		return
	}
	site, err := s.store.UpdateSite(mux.Vars(r)["id"], in)
	reply(s, w, http.StatusOK, site, err)
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.store.DeleteSite(mux.Vars(r)["id"]))
}

// ----- Locations -----

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	siteID := mux.Vars(r)["siteId"]
	if siteID == "" {
		siteID = r.URL.Query().Get("site_id")
	}
	s.writeJSON(w, http.StatusOK, s.store.ListLocations(siteID))
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.GetLocation(mux.Vars(r)["id"])
	reply(s, w, http.StatusOK, l, err)
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.LocationInput](s, w, r)
	if !ok {
		return
	}
	l, err := s.store.CreateLocation(in)
	reply(s, w, http.StatusOK, l, err)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.LocationInput](s, w, r)
	if !ok {
		return
	}
	l, err := s.store.UpdateLocation(mux.Vars(r)["id"], in)
	reply(s, w, http.StatusOK, l, err)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.store.DeleteLocation(mux.Vars(r)["id"]))
}

// ----- Device groups -----

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListGroups())
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGroup(mux.Vars(r)["id"])
	reply(s, w, http.StatusOK, g, err)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.DeviceGroupInput](s, w, r)
	if !ok {
		return
	}
	g, err := s.store.CreateGroup(in)
	reply(s, w, http.StatusOK, g, err)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.DeviceGroupInput](s, w, r)
	if !ok {
		return
	}
	g, err := s.store.UpdateGroup(mux.Vars(r)["id"], in)
	reply(s, w, http.StatusOK, g, err)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.store.DeleteGroup(mux.Vars(r)["id"]))
}

type groupDeviceBody struct {
	DeviceID string `json:"device_id"`
}

func (s *Server) handleAddGroupDevice(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[groupDeviceBody](s, w, r)
	if !ok {
		return
	}
	g, err := s.store.AddGroupDevice(mux.Vars(r)["id"], body.DeviceID)
	reply(s, w, http.StatusOK, g, err)
}

func (s *Server) handleRemoveGroupDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.noContent(w, s.store.RemoveGroupDevice(vars["id"], vars["deviceId"]))
}

// ----- Device credentials -----

func (s *Server) handleListCredentials(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListCredentials())
}

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCredential(mux.Vars(r)["deviceId"])
	reply(s, w, http.StatusOK, c, err)
}

func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.DeviceCredentialInput](s, w, r)
	if !ok {
		return
	}
	c, err := s.store.CreateCredential(in)
	reply(s, w, http.StatusOK, c, err)
}

func (s *Server) handleUpdateCredential(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.DeviceCredentialInput](s, w, r)
	if !ok {
		return
	}
	c, err := s.store.UpdateCredential(mux.Vars(r)["deviceId"], in)
	reply(s, w, http.StatusOK, c, err)
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.store.DeleteCredential(mux.Vars(r)["deviceId"]))
}

// ----- Admins -----

func adminID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, invalid("id", "value is not a valid integer")
	}
	return id, nil
}

func (s *Server) handleListAdmins(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListAdmins())
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := adminID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	a, err := s.store.GetAdmin(id)
	reply(s, w, http.StatusOK, a, err)
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.AdminInput](s, w, r)
	if !ok {
		return
	}
	a, err := s.store.CreateAdmin(in)
	reply(s, w, http.StatusOK, a, err)
}

func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := adminID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	in, ok := decode[models.AdminInput](s, w, r)
	if !ok {
		return
	}
	a, err := s.store.UpdateAdmin(id, in)
	reply(s, w, http.StatusOK, a, err)
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := adminID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	caller, _ := principal(r.Context())
	s.noContent(w, s.store.DeleteAdmin(id, caller.Username))
}
