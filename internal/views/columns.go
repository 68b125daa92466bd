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
	"strconv"
	"strings"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/table"
)

// Names maps ids to display names for cross-resource columns.
type Names map[string]string

// Name returns the name for id, the id itself when unknown, or Empty.
func (n Names) Name(id string) string {
	if id == "" {
		return Empty
	}
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

// NamesOf indexes rows by id using name.
func NamesOf[R table.Row](rows []R, name func(R) string) Names {
	out := make(Names, len(rows))
	for _, r := range rows {
		out[r.RowID()] = name(r)
	}
	return out
}

func dash[R table.Row](v string, _ R) string {
	return OrEmpty(v)
}

func chip[R table.Row](v string, _ R) string {
	return Chip(v)
}

func when[R table.Row](v models.Timestamp, _ R) string {
	return FormatTime(v)
}

// DeviceColumns lists devices. sites resolves site ids when the device
// payload does not embed its site.
func DeviceColumns(sites Names) []table.Column[models.Device] {
	return []table.Column[models.Device]{
		table.Field("name", "Device Name", func(d models.Device) string { return d.Name }).WithMinWidth(12),
		table.Field("ip_address", "IP Address", func(d models.Device) string { return d.IPAddress }),
		table.Formatted("type", "Type", func(d models.Device) models.DeviceType { return d.Type },
			func(v models.DeviceType, _ models.Device) string { return DeviceTypeLabel(v) }),
		table.Formatted("status", "Status", func(d models.Device) string { return string(d.Status) }, chip[models.Device]),
		table.Formatted("site", "Site", func(d models.Device) *models.Site { return d.Site },
			func(s *models.Site, d models.Device) string {
				if s != nil && s.Name != "" {
					return s.Name
				}
				return sites.Name(d.SiteID)
			}),
		table.Formatted("groups", "Device Groups", func(d models.Device) []models.GroupRef { return d.Groups },
			func(groups []models.GroupRef, _ models.Device) string {
				if len(groups) == 0 {
					return Empty
				}
				names := make([]string, len(groups))
				for i, g := range groups {
					names[i] = g.Name
				}
				return strings.Join(names, ", ")
			}),
		table.Formatted("location", "Location", func(d models.Device) *models.Location { return d.Location },
			func(l *models.Location, _ models.Device) string {
				if l == nil {
					return Empty
				}
				return OrEmpty(l.Name)
			}),
		table.Formatted("last_backup", "Last Backup", func(d models.Device) models.Timestamp { return d.LastBackup }, when[models.Device]),
	}
}

func SiteColumns() []table.Column[models.Site] {
	return []table.Column[models.Site]{
		table.Field("name", "Site Name", func(s models.Site) string { return s.Name }),
		table.Field("code", "Site Code", func(s models.Site) string { return s.Code }),
		table.Formatted("description", "Description", func(s models.Site) string { return s.Description }, dash[models.Site]),
		table.Formatted("address", "Address", func(s models.Site) string { return s.Address }, dash[models.Site]),
	}
}

func LocationColumns(sites Names) []table.Column[models.Location] {
	return []table.Column[models.Location]{
		table.Field("name", "Location Name", func(l models.Location) string { return l.Name }),
		table.Formatted("site", "Site", func(l models.Location) *models.Site { return l.Site },
			func(s *models.Site, l models.Location) string {
				if s != nil && s.Name != "" {
					return s.Name
				}
				return sites.Name(l.SiteID)
			}),
		table.Formatted("floor", "Floor", func(l models.Location) string { return l.Floor }, dash[models.Location]),
		table.Formatted("room", "Room", func(l models.Location) string { return l.Room }, dash[models.Location]),
	}
}

func GroupColumns() []table.Column[models.DeviceGroup] {
	return []table.Column[models.DeviceGroup]{
		table.Field("name", "Group Name", func(g models.DeviceGroup) string { return g.Name }),
		table.Formatted("description", "Description", func(g models.DeviceGroup) string { return g.Description }, dash[models.DeviceGroup]),
		table.Formatted("devices", "Devices", func(g models.DeviceGroup) []models.DeviceSummary { return g.Devices },
			func(v []models.DeviceSummary, _ models.DeviceGroup) string { return strconv.Itoa(len(v)) }).WithAlign(table.AlignRight),
	}
}

func CredentialColumns(devices Names) []table.Column[models.DeviceCredential] {
	return []table.Column[models.DeviceCredential]{
		table.Field("name", "Name", func(c models.DeviceCredential) string { return c.Name }),
		table.Field("username", "Username", func(c models.DeviceCredential) string { return c.Username }),
		table.Formatted("password", "Password", func(c models.DeviceCredential) string { return c.Password },
			func(v string, _ models.DeviceCredential) string { return MaskSecret(v) }),
		table.Formatted("device", "Device", func(c models.DeviceCredential) string { return c.DeviceID },
			func(v string, _ models.DeviceCredential) string { return devices.Name(v) }),
		table.Formatted("updated_at", "Updated", func(c models.DeviceCredential) models.Timestamp { return c.UpdatedAt }, when[models.DeviceCredential]),
	}
}

func AdminColumns() []table.Column[models.Admin] {
	return []table.Column[models.Admin]{
		table.Field("id", "ID", func(a models.Admin) int64 { return a.ID }).WithAlign(table.AlignRight),
		table.Field("username", "Username", func(a models.Admin) string { return a.Username }),
		table.Formatted("role", "Role", func(a models.Admin) string { return a.Role },
			func(v string, _ models.Admin) string { return ChipLabel(v) }),
		table.Formatted("status", "Status", func(a models.Admin) string { return string(a.Status) }, chip[models.Admin]),
		table.Formatted("last_login", "Last Login", func(a models.Admin) models.Timestamp { return a.LastLogin }, when[models.Admin]),
	}
}

func BackupColumns(devices Names) []table.Column[models.BackupRecord] {
	return []table.Column[models.BackupRecord]{
		table.Formatted("device", "Device", func(b models.BackupRecord) string { return b.DeviceID },
			func(v string, _ models.BackupRecord) string { return devices.Name(v) }),
		table.Formatted("status", "Status", func(b models.BackupRecord) string { return string(b.Status) }, chip[models.BackupRecord]),
		table.Formatted("message", "Message", func(b models.BackupRecord) string { return b.Message }, dash[models.BackupRecord]),
		table.Formatted("created_at", "Time", func(b models.BackupRecord) models.Timestamp { return b.CreatedAt }, when[models.BackupRecord]),
	}
}

func ActivityColumns() []table.Column[models.RecentActivity] {
	return []table.Column[models.RecentActivity]{
		table.Field("device_name", "Device", func(a models.RecentActivity) string { return a.DeviceName }),
		table.Formatted("status", "Status", func(a models.RecentActivity) string { return string(a.Status) }, chip[models.RecentActivity]),
		table.Formatted("message", "Message", func(a models.RecentActivity) string { return a.Message }, dash[models.RecentActivity]),
		table.Formatted("created_at", "Time", func(a models.RecentActivity) models.Timestamp { return a.CreatedAt }, when[models.RecentActivity]),
	}
}
