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

package views

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
	"github.com/phuonguno98/netbackup/internal/table"
)

func init() {
	color.NoColor = true
	Location = time.UTC
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", FormatTime(models.Timestamp{}))
	ts := models.NewTimestamp(time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC))
	assert.Equal(t, "Mar 9, 2024 14:05", FormatTime(ts))
}

func TestSetTimezone(t *testing.T) {
	defer func() { Location = time.UTC }()

	require.NoError(t, SetTimezone("Asia/Ho_Chi_Minh"))
	ts := models.NewTimestamp(time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC))
	assert.Equal(t, "Mar 9, 2024 21:05", FormatTime(ts))

	require.NoError(t, SetTimezone("Local"))
	assert.Equal(t, time.Local, Location)
	assert.Error(t, SetTimezone("Mars/Olympus"))
}

func TestChip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"active", "Active"},
		{"in_progress", "In Progress"},
		{"FAILED", "Failed"},
		{"super_admin", "Super Admin"},
		{"decommissioned", "decommissioned"},
		{"", "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Chip(tt.in), tt.in)
	}
}

func TestChip_Colored(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	got := Chip("active")
	assert.True(t, strings.HasPrefix(got, "\x1b["), got)
	assert.Contains(t, got, "Active")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "-", MaskSecret(""))
	assert.Equal(t, "********", MaskSecret("hunter2"))
}

func TestDeviceColumns(t *testing.T) {
	sites := Names{"s1": "HQ"}
	devices := []models.Device{
		{ID: "d1", Name: "core-sw", IPAddress: "10.0.0.1", Type: models.DeviceTypeSwitch, Status: models.DeviceStatusActive, SiteID: "s1",
			Groups: []models.GroupRef{{ID: "g1", Name: "core"}, {ID: "g2", Name: "dc"}}},
		{ID: "d2", Name: "edge", IPAddress: "10.0.0.2", Type: models.DeviceTypeRouter, Status: models.DeviceStatusMaintenance,
			Site: &models.Site{ID: "s2", Name: "Branch"}, Location: &models.Location{Name: "Rack 4"}},
	}
	cols := DeviceColumns(sites)
	cell := func(col string, row int) string {
		for _, c := range cols {
			if c.Key == col {
				return table.Cell(c, devices[row])
			}
		}
		t.Fatalf("no column %q", col)
		return ""
	}

	assert.Equal(t, "Switch", cell("type", 0))
	assert.Equal(t, "Active", cell("status", 0))
	assert.Equal(t, "HQ", cell("site", 0))
	assert.Equal(t, "core, dc", cell("groups", 0))
	assert.Equal(t, "-", cell("location", 0))
	assert.Equal(t, "-", cell("last_backup", 0))

	assert.Equal(t, "Maintenance", cell("status", 1))
	assert.Equal(t, "Branch", cell("site", 1))
	assert.Equal(t, "-", cell("groups", 1))
	assert.Equal(t, "Rack 4", cell("location", 1))
}

func TestCredentialColumns_MaskPassword(t *testing.T) {
	tbl := table.New(CredentialColumns(Names{"d1": "core-sw"}), []models.DeviceCredential{
		{ID: "c1", Name: "default", Username: "netops", Password: "s3cret", DeviceID: "d1"},
	}, table.Options[models.DeviceCredential]{})
	out := tbl.String()
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "core-sw")
}

func TestNames(t *testing.T) {
	n := NamesOf([]models.Site{{ID: "s1", Name: "HQ"}, {ID: "s2"}}, func(s models.Site) string { return s.Name })
	assert.Equal(t, "HQ", n.Name("s1"))
	assert.Equal(t, "s2", n.Name("s2"))
	assert.Equal(t, "s9", n.Name("s9"))
	assert.Equal(t, "-", n.Name(""))
}

type fakePerms struct {
	role session.Role
}

func (f fakePerms) IsAuthenticated() bool { return f.role != "" }
func (f fakePerms) HasPermission(r session.Role) bool {
	return f.role != "" && f.role.AtLeast(r)
}
func (f fakePerms) Current() session.Session { return session.Session{Role: f.role} }

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role   session.Role
		action Action
		ok     bool
	}{
		{session.RoleReadOnly, ActionView, true},
		{session.RoleReadOnly, ActionModify, false},
		{session.RoleAdmin, ActionModify, true},
		{session.RoleAdmin, ActionManageAdmins, false},
		{session.RoleSuperAdmin, ActionManageAdmins, true},
		{"guest", ActionView, false},
	}
	for _, tt := range tests {
		err := RequireRole(fakePerms{role: tt.role}, tt.action)
		if tt.ok {
			assert.NoError(t, err, "%s %s", tt.role, tt.action)
			continue
		}
		var pe *PermissionError
		require.ErrorAs(t, err, &pe, "%s %s", tt.role, tt.action)
		assert.Equal(t, RequiredRole(tt.action), pe.Required)
	}

	assert.ErrorIs(t, RequireRole(fakePerms{}, ActionView), ErrNotLoggedIn)
}
