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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/netbackup/internal/devserver"
	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/views"
)

// resetFlags restores every flag to its default so executions do not leak
// into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := devserver.NewStore(clockwork.NewRealClock(), logger)
	seed, err := devserver.LoadSeed("")
	require.NoError(t, err)
	require.NoError(t, seed.Apply(store))
	srv, err := devserver.NewServer(store, devserver.Options{Secret: []byte("cli-test")}, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &cli{t: t, base: []string{
		"--url", ts.URL,
		"--session-file", filepath.Join(home, "session.json"),
		"--log-level", "error",
		"--no-color",
	}}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(append([]string{}, c.base...), args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "netbackup %s", strings.Join(args, " "))
	return out
}

func (c *cli) runJSON(v any, args ...string) {
	c.t.Helper()
	out := c.mustRun(append(args, "--json")...)
	require.NoError(c.t, json.Unmarshal([]byte(out), v), out)
}

func TestCLI_Session(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("devices", "list")
	assert.ErrorIs(t, err, views.ErrNotLoggedIn)

	_, err = c.run("login", "-u", "viewer", "-p", "wrong", "--no-save")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", err.Error())

	out := c.mustRun("login", "-u", "viewer", "-p", "viewer", "--no-save")
	assert.Contains(t, out, "as viewer (Read Only)")

	var who map[string]any
	c.runJSON(&who, "whoami")
	assert.Equal(t, "viewer", who["username"])
	assert.Equal(t, map[string]any{"view": true, "modify": false, "manage admins": false}, who["permissions"])

	var devices []models.Device
	c.runJSON(&devices, "devices", "list")
	assert.Len(t, devices, 5)

	_, err = c.run("devices", "delete", "dev-fw1", "--yes")
	var perm *views.PermissionError
	require.ErrorAs(t, err, &perm)
	assert.Equal(t, views.ActionModify, perm.Action)

	_, err = c.run("admins", "list")
	require.ErrorAs(t, err, &perm)

	out = c.mustRun("logout")
	assert.Contains(t, out, "Logged out viewer")
	_, err = c.run("whoami")
	assert.ErrorIs(t, err, views.ErrNotLoggedIn)
}

func TestCLI_LoginRemembersURL(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "-u", "operator", "-p", "operator")

	data, err := os.ReadFile(filepath.Join(os.Getenv("HOME"), ".config", "netbackup", "console.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), c.base[1])
}

func TestCLI_ManageResources(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "-u", "operator", "-p", "operator", "--no-save")

	out := c.mustRun("sites", "create", "--name", "Da Nang", "--code", "DN")
	assert.Contains(t, out, "Da Nang")

	var site models.Site
	c.runJSON(&site, "sites", "create", "--name", "Can Tho", "--code", "CT")
	assert.Equal(t, "CT", site.Code)

	var loc models.Location
	c.runJSON(&loc, "locations", "create", "--name", "Server room", "--site", site.ID, "--floor", "2")
	var locs []models.Location
	c.runJSON(&locs, "locations", "list", "--site", site.ID)
	require.Len(t, locs, 1)
	assert.Equal(t, loc.ID, locs[0].ID)

	file := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: ct-edge-r1\nip_address: 10.9.0.1\ntype: Router\nstatus: active\n"), 0o600))
	var dev models.Device
	c.runJSON(&dev, "devices", "create", "-f", file, "--site", site.ID)
	assert.Equal(t, "ct-edge-r1", dev.Name)
	assert.Equal(t, site.ID, dev.SiteID)
	assert.Equal(t, models.DeviceStatusPending, dev.Status)

	c.runJSON(&dev, "devices", "update", dev.ID, "--status", "active")
	assert.Equal(t, models.DeviceStatusActive, dev.Status)
	assert.Equal(t, "10.9.0.1", dev.IPAddress)

	_, err := c.run("devices", "update", dev.ID, "--type", "Toaster")
	assert.ErrorContains(t, err, "invalid device type")

	var group models.DeviceGroup
	c.runJSON(&group, "groups", "add-device", "grp-security", dev.ID)
	assert.Len(t, group.Devices, 2)

	var cred models.DeviceCredential
	c.runJSON(&cred, "credentials", "show", "dev-core-sw1")
	assert.Equal(t, "backup", cred.Username)
	c.runJSON(&cred, "credentials", "update", "dev-core-sw1", "--username", "netops")
	assert.Equal(t, "netops", cred.Username)

	_, err = c.run("devices", "delete", "dev-hn-r1")
	assert.ErrorContains(t, err, "--yes")

	out = c.mustRun("devices", "delete", "dev-hn-r1", "dev-acc-sw3", "--yes")
	assert.Contains(t, out, "Deleted 2 of 2 devices")

	_, err = c.run("devices", "delete", "dev-missing", "--yes")
	assert.ErrorContains(t, err, "row not found")

	var devices []models.Device
	c.runJSON(&devices, "devices", "list")
	assert.Len(t, devices, 4)
}

func TestCLI_ListPagingAndExport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "-u", "viewer", "-p", "viewer", "--no-save")

	out := c.mustRun("devices", "list")
	assert.Contains(t, out, "core-sw1")
	assert.Contains(t, out, "Active")

	_, err := c.run("devices", "list", "--page-size", "7")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "devices.csv")
	c.mustRun("devices", "list", "--export", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 6)
	assert.NotContains(t, string(data), "\x1b[")

	var backups []models.BackupRecord
	c.runJSON(&backups, "backups", "list", "--status", "failed")
	require.NotEmpty(t, backups)
	for _, b := range backups {
		assert.Equal(t, models.BackupStatusFailed, b.Status)
	}
	_, err = c.run("backups", "list", "--status", "exploded")
	assert.Error(t, err)
}

func TestCLI_Dashboard(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "-u", "viewer", "-p", "viewer", "--no-save")

	var doc struct {
		Stats       models.DashboardStats `json:"stats"`
		SuccessRate float64               `json:"success_rate"`
	}
	c.runJSON(&doc, "dashboard")
	assert.Equal(t, 5, doc.Stats.TotalDevices)
	assert.Equal(t, 4, doc.Stats.TotalBackups)
	assert.InDelta(t, 50.0, doc.SuccessRate, 0.001)

	record := filepath.Join(t.TempDir(), "dashboard.csv")
	out := c.mustRun("dashboard", "--record", record)
	assert.Contains(t, out, "Recent activity")

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestCLI_Version(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "netbackup dev"))
}

func TestCLI_GlobalFlagsReachConfig(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentPreRunE)

	c := newCLI(t)
	c.mustRun("version", "--timezone", "UTC", "--timeout", "7s")
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, c.base[1], cfg.APIURL)

	_, err := c.run("version", "--timezone", "Mars/Olympus")
	assert.Error(t, err)
}

func TestLocalURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8000": "http://127.0.0.1:8000",
		":9000":          "http://localhost:9000",
		"0.0.0.0:80":     "http://localhost:80",
		"[::1]:8000":     "http://[::1]:8000",
	}
	for addr, want := range tests {
		assert.Equal(t, want, localURL(addr), addr)
	}
}

func TestExpiredSessionIsReported(t *testing.T) {
	c := newCLI(t)
	c.mustRun("login", "-u", "viewer", "-p", "viewer", "--no-save")

	// A token signed with another key is rejected by the server.
	sessionFile := c.base[3]
	data, err := os.ReadFile(sessionFile)
	require.NoError(t, err)
	var stored map[string]string
	require.NoError(t, json.Unmarshal(data, &stored))
	stored["access_token"] = "forged"
	data, err = json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sessionFile, data, 0o600))

	_, err = c.run("devices", "list")
	assert.True(t, errors.Is(err, errSessionExpired), "got %v", err)
	_, err = os.Stat(sessionFile)
	assert.True(t, os.IsNotExist(err))
}
