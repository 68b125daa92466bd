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

// Package watch keeps a table in sync with the API by refetching its rows
// on a fixed interval.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/phuonguno98/netbackup/internal/api"
	"github.com/phuonguno98/netbackup/internal/table"
)

// Fetcher loads the current rows of a collection.
type Fetcher[R table.Row] func(ctx context.Context) ([]R, error)

// Option configures a Refresher.
type Option func(*settings)

type settings struct {
	clock    clockwork.Clock
	onUpdate func()
	onError  func(error)
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithUpdateHook runs fn after every successful refresh.
func WithUpdateHook(fn func()) Option {
	return func(s *settings) { s.onUpdate = fn }
}

// WithErrorHook runs fn after every failed refresh, including the final
// unauthorized one.
func WithErrorHook(fn func(error)) Option {
	return func(s *settings) { s.onError = fn }
}

// Refresher feeds a table with freshly fetched rows.
type Refresher[R table.Row] struct {
	table    *table.Table[R]
	fetch    Fetcher[R]
	interval time.Duration
	logger   *slog.Logger
	settings
}

// NewRefresher creates a refresher for t. An interval of zero or less
// fetches once.
func NewRefresher[R table.Row](t *table.Table[R], fetch Fetcher[R], interval time.Duration, logger *slog.Logger, opts ...Option) *Refresher[R] {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refresher[R]{
		table:    t,
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		settings: settings{clock: clockwork.NewRealClock()},
	}
	for _, opt := range opts {
		opt(&r.settings)
	}
	return r
}

// Start performs an initial fetch, then refetches every interval until ctx
// is cancelled. Fetch errors are logged and the loop carries on, except an
// unauthorized response, which ends it with that error.
func (r *Refresher[R]) Start(ctx context.Context) error {
	r.logger.Debug("Starting refresher", "interval", r.interval)

	if err := r.refreshOnce(ctx); err != nil {
		return err
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Refresher stopping")
			return nil

		case <-ticker.Chan():
			if err := r.refreshOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// refreshOnce returns an error only when the loop must stop.
func (r *Refresher[R]) refreshOnce(ctx context.Context) error {
	r.table.SetLoading(true)
	rows, err := r.fetch(ctx)
	r.table.SetLoading(false)

	if err != nil {
		if r.onError != nil {
			r.onError(err)
		}
		if errors.Is(err, api.ErrUnauthorized) {
			r.logger.Warn("Refresh rejected, stopping", "error", err)
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		r.logger.Error("Refresh failed", "error", err)
		return nil
	}

	r.table.SetRows(rows)
	r.logger.Debug("Refreshed", "rows", len(rows), "selected", len(r.table.Selected()))
	if r.onUpdate != nil {
		r.onUpdate()
	}
	return nil
}
