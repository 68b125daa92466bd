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

package models

import "strconv"

// Site is a physical campus or branch.
type Site struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Code        string     `json:"code" yaml:"code"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Address     string     `json:"address,omitempty" yaml:"address,omitempty"`
	Locations   []Location `json:"locations,omitempty" yaml:"-"`
	CreatedAt   Timestamp  `json:"created_at" yaml:"-"`
	UpdatedAt   Timestamp  `json:"updated_at" yaml:"-"`
}

func (s Site) RowID() string { return s.ID }

type SiteInput struct {
	Name        string `json:"name" yaml:"name"`
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Location is a room or floor within a site.
type Location struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	SiteID    string    `json:"site_id" yaml:"site_id"`
	Floor     string    `json:"floor,omitempty" yaml:"floor,omitempty"`
	Room      string    `json:"room,omitempty" yaml:"room,omitempty"`
	Site      *Site     `json:"site,omitempty" yaml:"-"`
	CreatedAt Timestamp `json:"created_at" yaml:"-"`
	UpdatedAt Timestamp `json:"updated_at" yaml:"-"`
}

func (l Location) RowID() string { return l.ID }

type LocationInput struct {
	Name   string `json:"name" yaml:"name"`
	SiteID string `json:"site_id" yaml:"site_id"`
	Floor  string `json:"floor,omitempty" yaml:"floor,omitempty"`
	Room   string `json:"room,omitempty" yaml:"room,omitempty"`
}

// GroupRef is the short form of a group embedded in a device.
type GroupRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Device is a managed network device whose configuration is backed up.
type Device struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	IPAddress    string         `json:"ip_address" yaml:"ip_address"`
	Type         DeviceType     `json:"type" yaml:"type"`
	Status       DeviceStatus   `json:"status" yaml:"status"`
	SiteID       string         `json:"site_id,omitempty" yaml:"site_id,omitempty"`
	LocationID   string         `json:"location_id,omitempty" yaml:"location_id,omitempty"`
	CredentialID string         `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
	LastBackup   Timestamp      `json:"last_backup" yaml:"-"`
	NextBackup   Timestamp      `json:"next_backup" yaml:"-"`
	Config       map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Site         *Site          `json:"site,omitempty" yaml:"-"`
	Location     *Location      `json:"location,omitempty" yaml:"-"`
	Groups       []GroupRef     `json:"groups,omitempty" yaml:"-"`
	CreatedAt    Timestamp      `json:"created_at" yaml:"-"`
	UpdatedAt    Timestamp      `json:"updated_at" yaml:"-"`
}

func (d Device) RowID() string { return d.ID }

// DeviceInput is the create/update payload. Status is ignored on create.
type DeviceInput struct {
	Name         string         `json:"name" yaml:"name"`
	IPAddress    string         `json:"ip_address" yaml:"ip_address"`
	Type         DeviceType     `json:"type" yaml:"type"`
	Status       DeviceStatus   `json:"status,omitempty" yaml:"status,omitempty"`
	SiteID       string         `json:"site_id,omitempty" yaml:"site_id,omitempty"`
	LocationID   string         `json:"location_id,omitempty" yaml:"location_id,omitempty"`
	CredentialID string         `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
	Config       map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	GroupIDs     []string       `json:"group_ids,omitempty" yaml:"group_ids,omitempty"`
}

// DeviceSummary is the short form of a device embedded in a group.
type DeviceSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	IPAddress string       `json:"ip_address"`
	Type      DeviceType   `json:"type"`
	Status    DeviceStatus `json:"status"`
}

func (d DeviceSummary) RowID() string { return d.ID }

// DeviceGroup is a named set of devices.
type DeviceGroup struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Devices     []DeviceSummary `json:"devices" yaml:"-"`
	CreatedAt   Timestamp       `json:"created_at" yaml:"-"`
	UpdatedAt   Timestamp       `json:"updated_at" yaml:"-"`
}

func (g DeviceGroup) RowID() string { return g.ID }

type DeviceGroupInput struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DeviceCredential holds login material for one device.
type DeviceCredential struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Username  string    `json:"username" yaml:"username"`
	Password  string    `json:"password" yaml:"password"`
	SSHKey    string    `json:"ssh_key,omitempty" yaml:"ssh_key,omitempty"`
	DeviceID  string    `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	CreatedAt Timestamp `json:"created_at" yaml:"-"`
	UpdatedAt Timestamp `json:"updated_at" yaml:"-"`
}

func (c DeviceCredential) RowID() string { return c.ID }

// DeviceCredentialInput is used for both create and partial update; empty
// fields are left out of the request.
type DeviceCredentialInput struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	SSHKey   string `json:"ssh_key,omitempty" yaml:"ssh_key,omitempty"`
	DeviceID string `json:"device_id,omitempty" yaml:"device_id,omitempty"`
}

// Admin is a console operator account.
type Admin struct {
	ID        int64       `json:"id" yaml:"id"`
	Username  string      `json:"username" yaml:"username"`
	Role      string      `json:"role" yaml:"role"`
	Status    AdminStatus `json:"status" yaml:"status"`
	CreatedAt Timestamp   `json:"created_at" yaml:"-"`
	LastLogin Timestamp   `json:"last_login" yaml:"-"`
}

func (a Admin) RowID() string { return strconv.FormatInt(a.ID, 10) }

type AdminInput struct {
	Username string      `json:"username,omitempty" yaml:"username,omitempty"`
	Password string      `json:"password,omitempty" yaml:"password,omitempty"`
	Role     string      `json:"role,omitempty" yaml:"role,omitempty"`
	Status   AdminStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// BackupRecord is one entry of the backup history.
type BackupRecord struct {
	ID             string       `json:"id"`
	DeviceID       string       `json:"device_id"`
	Status         BackupStatus `json:"status"`
	Message        string       `json:"message,omitempty"`
	ConfigFilePath string       `json:"config_file_path,omitempty"`
	CreatedAt      Timestamp    `json:"created_at"`
	UpdatedAt      Timestamp    `json:"updated_at"`
}

func (b BackupRecord) RowID() string { return b.ID }
