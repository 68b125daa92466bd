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

package devserver

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phuonguno98/netbackup/internal/models"
)

//go:embed fixtures.yaml
var builtinFixtures []byte

// Seed is the YAML fixture document loaded into a Store at startup.
type Seed struct {
	Admins      []SeedAdmin               `yaml:"admins"`
	Sites       []models.Site             `yaml:"sites"`
	Locations   []models.Location         `yaml:"locations"`
	Devices     []models.Device           `yaml:"devices"`
	Groups      []SeedGroup               `yaml:"groups"`
	Credentials []models.DeviceCredential `yaml:"credentials"`
	Backups     []SeedBackup              `yaml:"backups"`
}

type SeedAdmin struct {
	Username string             `yaml:"username"`
	Password string             `yaml:"password"`
	Role     string             `yaml:"role"`
	Status   models.AdminStatus `yaml:"status"`
}

type SeedGroup struct {
	models.DeviceGroup `yaml:",inline"`
	DeviceIDs          []string `yaml:"device_ids"`
}

// SeedBackup is a history entry placed Age before the time of loading.
type SeedBackup struct {
	DeviceID string              `yaml:"device_id"`
	Status   models.BackupStatus `yaml:"status"`
	Message  string              `yaml:"message"`
	Age      time.Duration       `yaml:"age"`
}

// ParseSeed decodes a fixture document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// LoadSeed reads fixtures from path, or the built-in set when path is empty.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return ParseSeed(builtinFixtures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// Apply loads the fixtures into s. Ids from the document are kept so that
// references between records resolve.
func (seed *Seed) Apply(s *Store) error {
	for _, a := range seed.Admins {
		if _, err := s.CreateAdmin(models.AdminInput{
			Username: a.Username,
			Password: a.Password,
			Role:     a.Role,
			Status:   a.Status,
		}); err != nil {
			return fmt.Errorf("admin %q: %w", a.Username, err)
		}
	}

	s.mu.Lock()
	now := s.now()
	for _, site := range seed.Sites {
		site.CreatedAt, site.UpdatedAt = now, now
		s.sites.put(site.ID, site)
	}
	for _, l := range seed.Locations {
		if _, ok := s.sites.get(l.SiteID); !ok {
			s.mu.Unlock()
			return fmt.Errorf("location %q: unknown site %q", l.ID, l.SiteID)
		}
		l.CreatedAt, l.UpdatedAt = now, now
		s.locations.put(l.ID, l)
	}
	for _, d := range seed.Devices {
		if d.Status == "" {
			d.Status = models.DeviceStatusPending
		}
		d.CreatedAt, d.UpdatedAt = now, now
		s.devices.put(d.ID, d)
	}
	for _, g := range seed.Groups {
		g.CreatedAt, g.UpdatedAt = now, now
		s.groups.put(g.ID, g.DeviceGroup)
		s.members[g.ID] = append([]string(nil), g.DeviceIDs...)
	}
	for _, c := range seed.Credentials {
		c.CreatedAt, c.UpdatedAt = now, now
		s.credentials.put(c.ID, c)
	}
	s.mu.Unlock()

	base := s.clock.Now()
	for _, b := range seed.Backups {
		if _, err := s.RecordBackup(b.DeviceID, b.Status, b.Message, base.Add(-b.Age)); err != nil {
			return fmt.Errorf("backup for %q: %w", b.DeviceID, err)
		}
	}

	s.logger.Info("Seed loaded",
		"admins", len(seed.Admins),
		"sites", len(seed.Sites),
		"devices", len(seed.Devices),
		"backups", len(seed.Backups),
	)
	return nil
}
