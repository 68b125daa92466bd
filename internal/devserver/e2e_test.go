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

package devserver_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/netbackup/internal/api"
	"github.com/phuonguno98/netbackup/internal/devserver"
	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
)

// TestConsoleAgainstDevServer drives the real client and session store
// against the development API.
func TestConsoleAgainstDevServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClock()

	store := devserver.NewStore(clock, logger)
	seed, err := devserver.LoadSeed("")
	require.NoError(t, err)
	require.NoError(t, seed.Apply(store))
	srv, err := devserver.NewServer(store, devserver.Options{Secret: []byte("e2e")}, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, api.WithLogger(logger))
	require.NoError(t, err)
	var expired atomic.Int32
	sess, err := session.NewStore(session.NewMemoryStorage(), client.Auth,
		session.WithLogger(logger),
		session.WithExpiredHook(func() { expired.Add(1) }),
	)
	require.NoError(t, err)
	client.UseSession(sess)

	ctx := context.Background()

	_, err = sess.Login(ctx, "operator", "nope")
	require.ErrorIs(t, err, session.ErrLoginFailed)
	assert.Equal(t, "Incorrect username or password", err.Error())
	assert.Zero(t, expired.Load())

	_, err = sess.Login(ctx, "operator", "operator")
	require.NoError(t, err)
	assert.True(t, sess.HasPermission(session.RoleAdmin))
	assert.False(t, sess.HasPermission(session.RoleSuperAdmin))

	devices, err := client.Devices.List(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 5)

	site, err := client.Sites.Create(ctx, models.SiteInput{Name: "Can Tho", Code: "CT"})
	require.NoError(t, err)
	loc, err := client.Locations.Create(ctx, models.LocationInput{Name: "Closet", SiteID: site.ID})
	require.NoError(t, err)
	bySite, err := client.Locations.ListBySite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, bySite, 1)
	assert.Equal(t, loc.ID, bySite[0].ID)

	_, err = client.Admins.List(ctx)
	assert.ErrorIs(t, err, api.ErrForbidden)
	assert.True(t, sess.IsAuthenticated(), "403 must not end the session")

	// Once the token lapses the next call expires the session.
	clock.Advance(devserver.DefaultTokenTTL + time.Minute)
	_, err = client.Dashboard.Stats(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, int32(1), expired.Load())
}
