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
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
)

const (
	// RecentActivityLimit caps the activities returned by the dashboard.
	RecentActivityLimit = 10
	// BackupWindow is the period the dashboard backup counts cover.
	BackupWindow = 24 * time.Hour
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects a payload field. It is reported like a FastAPI
// validation failure.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// detailError carries the message sent to the client and the kind used to
// pick the status code.
type detailError struct {
	detail string
	kind   error
}

func (e *detailError) Error() string { return e.detail }
func (e *detailError) Unwrap() error { return e.kind }

func notFound(what string) error {
	return &detailError{detail: what + " not found", kind: ErrNotFound}
}

func conflict(detail string) error {
	return &detailError{detail: detail, kind: ErrConflict}
}

// collection keeps items in insertion order.
type collection[T any] struct {
	items map[string]T
	order []string
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]T)}
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) put(id string, v T) {
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return true
}

func (c *collection[T]) all() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

type adminRecord struct {
	models.Admin
	hash []byte
}

// Store is the in-memory state behind the development API.
// It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	clock       clockwork.Clock
	logger      *slog.Logger
	sites       *collection[models.Site]
	locations   *collection[models.Location]
	devices     *collection[models.Device]
	groups      *collection[models.DeviceGroup]
	members     map[string][]string // group id -> device ids
	credentials *collection[models.DeviceCredential]
	admins      map[string]*adminRecord // username -> record
	nextAdminID int64
	backups     []models.BackupRecord
}

// NewStore creates an empty store.
func NewStore(clock clockwork.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		clock:       clock,
		logger:      logger,
		sites:       newCollection[models.Site](),
		locations:   newCollection[models.Location](),
		devices:     newCollection[models.Device](),
		groups:      newCollection[models.DeviceGroup](),
		members:     make(map[string][]string),
		credentials: newCollection[models.DeviceCredential](),
		admins:      make(map[string]*adminRecord),
		nextAdminID: 1,
	}
}

func (s *Store) now() models.Timestamp {
	return models.NewTimestamp(s.clock.Now())
}

// ----- Admins and authentication -----

// Authenticate checks a username and password and records the login time.
func (s *Store) Authenticate(username, password string) (models.Admin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.admins[username]
	if !ok || rec.Status == models.AdminStatusInactive {
		return models.Admin{}, false
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return models.Admin{}, false
	}
	rec.LastLogin = s.now()
	return rec.Admin, true
}

// ActiveAdmin returns the admin for a token subject, if still active.
func (s *Store) ActiveAdmin(username string) (models.Admin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.admins[username]
	if !ok || rec.Status == models.AdminStatusInactive {
		return models.Admin{}, false
	}
	return rec.Admin, true
}

func (s *Store) ListAdmins() []models.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Admin, 0, len(s.admins))
	for _, rec := range s.admins {
		out = append(out, rec.Admin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetAdmin(id int64) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.adminByID(id)
	if !ok {
		return models.Admin{}, notFound("Admin")
	}
	return rec.Admin, nil
}

func (s *Store) adminByID(id int64) (*adminRecord, bool) {
	for _, rec := range s.admins {
		if rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

func (s *Store) CreateAdmin(in models.AdminInput) (models.Admin, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return models.Admin{}, invalid("username", "field required")
	}
	if in.Password == "" {
		return models.Admin{}, invalid("password", "field required")
	}
	if in.Role == "" {
		in.Role = string(session.RoleReadOnly)
	}
	if !session.Role(in.Role).Valid() {
		return models.Admin{}, invalid("role", "unknown role")
	}
	if in.Status == "" {
		in.Status = models.AdminStatusActive
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Admin{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.admins[in.Username]; exists {
		return models.Admin{}, conflict("Username already registered")
	}
	rec := &adminRecord{
		Admin: models.Admin{
			ID:        s.nextAdminID,
			Username:  in.Username,
			Role:      in.Role,
			Status:    in.Status,
			CreatedAt: s.now(),
		},
		hash: hash,
	}
	s.nextAdminID++
	s.admins[rec.Username] = rec
	return rec.Admin, nil
}

func (s *Store) UpdateAdmin(id int64, in models.AdminInput) (models.Admin, error) {
	if in.Role != "" && !session.Role(in.Role).Valid() {
		return models.Admin{}, invalid("role", "unknown role")
	}
	var hash []byte
	if in.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Admin{}, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.adminByID(id)
	if !ok {
		return models.Admin{}, notFound("Admin")
	}
	if in.Username != "" && in.Username != rec.Username {
		if _, taken := s.admins[in.Username]; taken {
			return models.Admin{}, conflict("Username already registered")
		}
		delete(s.admins, rec.Username)
		rec.Username = in.Username
		s.admins[rec.Username] = rec
	}
	if in.Role != "" {
		rec.Role = in.Role
	}
	if in.Status != "" {
		rec.Status = in.Status
	}
	if hash != nil {
		rec.hash = hash
	}
	return rec.Admin, nil
}

// DeleteAdmin removes an admin. Callers cannot remove their own account.
func (s *Store) DeleteAdmin(id int64, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.adminByID(id)
	if !ok {
		return notFound("Admin")
	}
	if rec.Username == caller {
		return conflict("Cannot delete your own account")
	}
	delete(s.admins, rec.Username)
	return nil
}

// ----- Sites -----

func (s *Store) ListSites() []models.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sites := s.sites.all()
	for i := range sites {
		sites[i] = s.siteView(sites[i])
	}
	return sites
}

func (s *Store) GetSite(id string) (models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites.get(id)
	if !ok {
		return models.Site{}, notFound("Site")
	}
	return s.siteView(site), nil
}

func (s *Store) siteView(site models.Site) models.Site {
	site.Locations = nil
	for _, l := range s.locations.all() {
		if l.SiteID == site.ID {
			site.Locations = append(site.Locations, l)
		}
	}
	return site
}

func validateSite(in models.SiteInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "field required")
	}
	if strings.TrimSpace(in.Code) == "" {
		return invalid("code", "field required")
	}
	return nil
}

func (s *Store) CreateSite(in models.SiteInput) (models.Site, error) {
	if err := validateSite(in); err != nil {
		return models.Site{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	site := models.Site{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Address:     in.Address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.sites.put(site.ID, site)
	return site, nil
}

func (s *Store) UpdateSite(id string, in models.SiteInput) (models.Site, error) {
	if err := validateSite(in); err != nil {
		return models.Site{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites.get(id)
	if !ok {
		return models.Site{}, notFound("Site")
	}
	site.Name, site.Code, site.Description, site.Address = in.Name, in.Code, in.Description, in.Address
	site.UpdatedAt = s.now()
	s.sites.put(id, site)
	return s.siteView(site), nil
}

// DeleteSite removes a site with its locations and detaches its devices.
func (s *Store) DeleteSite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sites.remove(id) {
		return notFound("Site")
	}
	for _, l := range s.locations.all() {
		if l.SiteID == id {
			s.locations.remove(l.ID)
			s.detachLocation(l.ID)
		}
	}
	for _, d := range s.devices.all() {
		if d.SiteID == id {
			d.SiteID = ""
			s.devices.put(d.ID, d)
		}
	}
	return nil
}

// ----- Locations -----

func (s *Store) ListLocations(siteID string) []models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Location
	for _, l := range s.locations.all() {
		if siteID != "" && l.SiteID != siteID {
			continue
		}
		out = append(out, s.locationView(l))
	}
	if out == nil {
		out = []models.Location{}
	}
	return out
}

func (s *Store) GetLocation(id string) (models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations.get(id)
	if !ok {
		return models.Location{}, notFound("Location")
	}
	return s.locationView(l), nil
}

func (s *Store) locationView(l models.Location) models.Location {
	if site, ok := s.sites.get(l.SiteID); ok {
		site.Locations = nil
		l.Site = &site
	}
	return l
}

func (s *Store) validateLocation(in models.LocationInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "field required")
	}
	if _, ok := s.sites.get(in.SiteID); !ok {
		return notFound("Site")
	}
	return nil
}

func (s *Store) CreateLocation(in models.LocationInput) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateLocation(in); err != nil {
		return models.Location{}, err
	}
	now := s.now()
	l := models.Location{
		ID:        uuid.NewString(),
		Name:      in.Name,
		SiteID:    in.SiteID,
		Floor:     in.Floor,
		Room:      in.Room,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.locations.put(l.ID, l)
	return s.locationView(l), nil
}

func (s *Store) UpdateLocation(id string, in models.LocationInput) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations.get(id)
	if !ok {
		return models.Location{}, notFound("Location")
	}
	if err := s.validateLocation(in); err != nil {
		return models.Location{}, err
	}
	l.Name, l.SiteID, l.Floor, l.Room = in.Name, in.SiteID, in.Floor, in.Room
	l.UpdatedAt = s.now()
	s.locations.put(id, l)
	return s.locationView(l), nil
}

func (s *Store) DeleteLocation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.locations.remove(id) {
		return notFound("Location")
	}
	s.detachLocation(id)
	return nil
}

func (s *Store) detachLocation(id string) {
	for _, d := range s.devices.all() {
		if d.LocationID == id {
			d.LocationID = ""
			s.devices.put(d.ID, d)
		}
	}
}

// ----- Devices -----

func (s *Store) ListDevices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := s.devices.all()
	for i := range devices {
		devices[i] = s.deviceView(devices[i])
	}
	return devices
}

func (s *Store) GetDevice(id string) (models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices.get(id)
	if !ok {
		return models.Device{}, notFound("Device")
	}
	return s.deviceView(d), nil
}

func (s *Store) deviceView(d models.Device) models.Device {
	d.Site, d.Location, d.Groups = nil, nil, nil
	if site, ok := s.sites.get(d.SiteID); ok {
		site.Locations = nil
		d.Site = &site
	}
	if l, ok := s.locations.get(d.LocationID); ok {
		d.Location = &l
	}
	for _, g := range s.groups.all() {
		if slices.Contains(s.members[g.ID], d.ID) {
			d.Groups = append(d.Groups, models.GroupRef{ID: g.ID, Name: g.Name, Description: g.Description})
		}
	}
	return d
}

func (s *Store) validateDevice(in models.DeviceInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "field required")
	}
	if strings.TrimSpace(in.IPAddress) == "" {
		return invalid("ip_address", "field required")
	}
	if !in.Type.Valid() {
		return invalid("type", "must be one of Switch, Router, Firewall")
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("status", "unknown status")
	}
	if in.SiteID != "" {
		if _, ok := s.sites.get(in.SiteID); !ok {
			return notFound("Site")
		}
	}
	if in.LocationID != "" {
		if _, ok := s.locations.get(in.LocationID); !ok {
			return notFound("Location")
		}
	}
	for _, gid := range in.GroupIDs {
		if _, ok := s.groups.get(gid); !ok {
			return notFound("Device group")
		}
	}
	return nil
}

// CreateDevice adds a device. New devices always start pending.
func (s *Store) CreateDevice(in models.DeviceInput) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateDevice(in); err != nil {
		return models.Device{}, err
	}
	now := s.now()
	d := models.Device{
		ID:           uuid.NewString(),
		Name:         in.Name,
		IPAddress:    in.IPAddress,
		Type:         in.Type,
		Status:       models.DeviceStatusPending,
		SiteID:       in.SiteID,
		LocationID:   in.LocationID,
		CredentialID: in.CredentialID,
		Config:       in.Config,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.devices.put(d.ID, d)
	s.setMembership(d.ID, in.GroupIDs)
	return s.deviceView(d), nil
}

func (s *Store) UpdateDevice(id string, in models.DeviceInput) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices.get(id)
	if !ok {
		return models.Device{}, notFound("Device")
	}
	if err := s.validateDevice(in); err != nil {
		return models.Device{}, err
	}
	d.Name, d.IPAddress, d.Type = in.Name, in.IPAddress, in.Type
	if in.Status != "" {
		d.Status = in.Status
	}
	d.SiteID, d.LocationID, d.CredentialID = in.SiteID, in.LocationID, in.CredentialID
	if in.Config != nil {
		d.Config = in.Config
	}
	d.UpdatedAt = s.now()
	s.devices.put(id, d)
	if in.GroupIDs != nil {
		s.setMembership(id, in.GroupIDs)
	}
	return s.deviceView(d), nil
}

// DeleteDevice removes a device, its credential and its group memberships.
func (s *Store) DeleteDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.devices.remove(id) {
		return notFound("Device")
	}
	s.setMembership(id, nil)
	for _, c := range s.credentials.all() {
		if c.DeviceID == id {
			s.credentials.remove(c.ID)
		}
	}
	return nil
}

// setMembership makes deviceID a member of exactly groupIDs.
func (s *Store) setMembership(deviceID string, groupIDs []string) {
	for gid, ids := range s.members {
		s.members[gid] = slices.DeleteFunc(ids, func(id string) bool { return id == deviceID })
	}
	for _, gid := range groupIDs {
		if !slices.Contains(s.members[gid], deviceID) {
			s.members[gid] = append(s.members[gid], deviceID)
		}
	}
}

// ----- Device groups -----

func (s *Store) ListGroups() []models.DeviceGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := s.groups.all()
	for i := range groups {
		groups[i] = s.groupView(groups[i])
	}
	return groups
}

func (s *Store) GetGroup(id string) (models.DeviceGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups.get(id)
	if !ok {
		return models.DeviceGroup{}, notFound("Device group")
	}
	return s.groupView(g), nil
}

func (s *Store) groupView(g models.DeviceGroup) models.DeviceGroup {
	g.Devices = []models.DeviceSummary{}
	for _, id := range s.members[g.ID] {
		if d, ok := s.devices.get(id); ok {
			g.Devices = append(g.Devices, models.DeviceSummary{
				ID: d.ID, Name: d.Name, IPAddress: d.IPAddress, Type: d.Type, Status: d.Status,
			})
		}
	}
	return g
}

func (s *Store) CreateGroup(in models.DeviceGroupInput) (models.DeviceGroup, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.DeviceGroup{}, invalid("name", "field required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	g := models.DeviceGroup{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.groups.put(g.ID, g)
	return s.groupView(g), nil
}

func (s *Store) UpdateGroup(id string, in models.DeviceGroupInput) (models.DeviceGroup, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.DeviceGroup{}, invalid("name", "field required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups.get(id)
	if !ok {
		return models.DeviceGroup{}, notFound("Device group")
	}
	g.Name, g.Description = in.Name, in.Description
	g.UpdatedAt = s.now()
	s.groups.put(id, g)
	return s.groupView(g), nil
}

func (s *Store) DeleteGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.groups.remove(id) {
		return notFound("Device group")
	}
	delete(s.members, id)
	return nil
}

func (s *Store) AddGroupDevice(groupID, deviceID string) (models.DeviceGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups.get(groupID)
	if !ok {
		return models.DeviceGroup{}, notFound("Device group")
	}
	if _, ok := s.devices.get(deviceID); !ok {
		return models.DeviceGroup{}, notFound("Device")
	}
	if !slices.Contains(s.members[groupID], deviceID) {
		s.members[groupID] = append(s.members[groupID], deviceID)
	}
	return s.groupView(g), nil
}

func (s *Store) RemoveGroupDevice(groupID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups.get(groupID); !ok {
		return notFound("Device group")
	}
	if _, ok := s.devices.get(deviceID); !ok {
		return notFound("Device")
	}
	s.members[groupID] = slices.DeleteFunc(s.members[groupID], func(id string) bool { return id == deviceID })
	return nil
}

// ----- Device credentials, addressed by device id -----

func (s *Store) ListCredentials() []models.DeviceCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials.all()
}

func (s *Store) credentialFor(deviceID string) (models.DeviceCredential, bool) {
	for _, c := range s.credentials.all() {
		if c.DeviceID == deviceID {
			return c, true
		}
	}
	return models.DeviceCredential{}, false
}

func (s *Store) GetCredential(deviceID string) (models.DeviceCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentialFor(deviceID)
	if !ok {
		return models.DeviceCredential{}, notFound("Credentials")
	}
	return c, nil
}

// CreateCredential stores a credential. A device holds at most one.
func (s *Store) CreateCredential(in models.DeviceCredentialInput) (models.DeviceCredential, error) {
	if strings.TrimSpace(in.Username) == "" {
		return models.DeviceCredential{}, invalid("username", "field required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.DeviceID != "" {
		if _, ok := s.devices.get(in.DeviceID); !ok {
			return models.DeviceCredential{}, notFound("Device")
		}
		if _, exists := s.credentialFor(in.DeviceID); exists {
			return models.DeviceCredential{}, conflict("Credentials already exist for this device")
		}
	}
	now := s.now()
	c := models.DeviceCredential{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Username:  in.Username,
		Password:  in.Password,
		SSHKey:    in.SSHKey,
		DeviceID:  in.DeviceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.credentials.put(c.ID, c)
	return c, nil
}

// UpdateCredential applies the non-empty fields of in.
func (s *Store) UpdateCredential(deviceID string, in models.DeviceCredentialInput) (models.DeviceCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentialFor(deviceID)
	if !ok {
		return models.DeviceCredential{}, notFound("Credentials")
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Username != "" {
		c.Username = in.Username
	}
	if in.Password != "" {
		c.Password = in.Password
	}
	if in.SSHKey != "" {
		c.SSHKey = in.SSHKey
	}
	c.UpdatedAt = s.now()
	s.credentials.put(c.ID, c)
	return c, nil
}

func (s *Store) DeleteCredential(deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentialFor(deviceID)
	if !ok {
		return notFound("Credentials")
	}
	s.credentials.remove(c.ID)
	return nil
}

// ----- Backups and dashboard -----

// ListBackups returns the history, newest first.
func (s *Store) ListBackups() []models.BackupRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.backups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	if out == nil {
		out = []models.BackupRecord{}
	}
	return out
}

// RecordBackup appends a history entry and stamps the device.
func (s *Store) RecordBackup(deviceID string, status models.BackupStatus, message string, at time.Time) (models.BackupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices.get(deviceID)
	if !ok {
		return models.BackupRecord{}, notFound("Device")
	}
	ts := models.NewTimestamp(at)
	rec := models.BackupRecord{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Status:    status,
		Message:   message,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.backups = append(s.backups, rec)
	if status == models.BackupStatusSuccess && at.After(d.LastBackup.Time) {
		d.LastBackup = ts
		s.devices.put(d.ID, d)
	}
	return rec, nil
}

// DashboardStats counts devices and the backups of the last BackupWindow.
func (s *Store) DashboardStats() models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st models.DashboardStats
	for _, d := range s.devices.all() {
		st.TotalDevices++
		if d.Status == models.DeviceStatusActive {
			st.ActiveDevices++
		}
	}
	st.InactiveDevices = st.TotalDevices - st.ActiveDevices

	since := s.clock.Now().Add(-BackupWindow)
	for _, b := range s.backups {
		if b.CreatedAt.Before(since) {
			continue
		}
		st.TotalBackups++
		if b.Status == models.BackupStatusSuccess {
			st.SuccessfulBackups++
		}
	}
	st.FailedBackups = st.TotalBackups - st.SuccessfulBackups

	recent := slices.Clone(s.backups)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt.Time) })
	st.RecentActivities = []models.RecentActivity{}
	for _, b := range recent {
		if len(st.RecentActivities) == RecentActivityLimit {
			break
		}
		d, ok := s.devices.get(b.DeviceID)
		if !ok {
			continue
		}
		st.RecentActivities = append(st.RecentActivities, models.RecentActivity{
			ID:         b.ID,
			DeviceName: d.Name,
			Status:     b.Status,
			Message:    b.Message,
			CreatedAt:  b.CreatedAt,
		})
	}
	return st
}
