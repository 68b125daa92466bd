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

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/phuonguno98/netbackup/internal/api"
	"github.com/phuonguno98/netbackup/internal/session"
	"github.com/phuonguno98/netbackup/internal/views"
)

// errSessionExpired is returned once the server rejected the stored token.
var errSessionExpired = errors.New("session expired, run 'netbackup login'")

// app is the API client and session of one command invocation.
type app struct {
	client  *api.Client
	session *session.Store
	expired atomic.Bool
}

// connect wires the API client to the persisted session.
func connect() (*app, error) {
	client, err := api.New(cfg.APIURL, api.WithLogger(logger), api.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	a := &app{client: client}
	store, err := session.NewStore(
		session.NewFileStorage(cfg.SessionFile),
		client.Auth,
		session.WithLogger(logger),
		session.WithExpiredHook(func() { a.expired.Store(true) }),
	)
	if err != nil {
		return nil, err
	}
	client.UseSession(store)
	a.session = store
	return a, nil
}

// requireAction connects and fails unless the session may perform action.
func requireAction(action views.Action) (*app, error) {
	a, err := connect()
	if err != nil {
		return nil, err
	}
	if err := views.RequireRole(a.session, action); err != nil {
		return nil, err
	}
	return a, nil
}

// check turns an authentication rejection into errSessionExpired.
func (a *app) check(err error) error {
	if err == nil {
		return nil
	}
	if a.expired.Load() || api.IsUnauthorized(err) {
		return errSessionExpired
	}
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// warnf prints a notice to stderr without disturbing command output.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
