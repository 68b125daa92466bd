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

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/phuonguno98/netbackup/internal/models"
)

// Resource is the CRUD surface shared by every collection endpoint.
// T is the resource as returned by the server, In the create/update payload.
type Resource[T any, In any] struct {
	c    *Client
	path string
}

func newResource[T any, In any](c *Client, path string) *Resource[T, In] {
	return &Resource[T, In]{c: c, path: path}
}

// Path returns the collection path.
func (r *Resource[T, In]) Path() string {
	return r.path
}

func (r *Resource[T, In]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T, In]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.doJSON(ctx, http.MethodGet, r.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T, In]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.doJSON(ctx, http.MethodGet, r.item(id), nil, &out)
	return out, err
}

func (r *Resource[T, In]) Create(ctx context.Context, in In) (T, error) {
	var out T
	err := r.c.doJSON(ctx, http.MethodPost, r.path, in, &out)
	return out, err
}

func (r *Resource[T, In]) Update(ctx context.Context, id string, in In) (T, error) {
	var out T
	err := r.c.doJSON(ctx, http.MethodPut, r.item(id), in, &out)
	return out, err
}

func (r *Resource[T, In]) Delete(ctx context.Context, id string) error {
	return r.c.doJSON(ctx, http.MethodDelete, r.item(id), nil, nil)
}

// LocationService adds the per-site listing.
type LocationService struct {
	*Resource[models.Location, models.LocationInput]
}

func (s *LocationService) ListBySite(ctx context.Context, siteID string) ([]models.Location, error) {
	var out []models.Location
	if err := s.c.doJSON(ctx, http.MethodGet, s.path+"/site/"+url.PathEscape(siteID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupService adds group membership management.
type GroupService struct {
	*Resource[models.DeviceGroup, models.DeviceGroupInput]
}

func (s *GroupService) AddDevice(ctx context.Context, groupID, deviceID string) (models.DeviceGroup, error) {
	var out models.DeviceGroup
	body := map[string]string{"device_id": deviceID}
	err := s.c.doJSON(ctx, http.MethodPost, s.item(groupID)+"/devices", body, &out)
	return out, err
}

func (s *GroupService) RemoveDevice(ctx context.Context, groupID, deviceID string) error {
	return s.c.doJSON(ctx, http.MethodDelete, s.item(groupID)+"/devices/"+url.PathEscape(deviceID), nil, nil)
}

// DashboardService reads the summary statistics.
type DashboardService struct {
	c *Client
}

func (s *DashboardService) Stats(ctx context.Context) (models.DashboardStats, error) {
	var out models.DashboardStats
	err := s.c.doJSON(ctx, http.MethodGet, "/api/dashboard/stats", nil, &out)
	return out, err
}

// BackupService reads the backup history.
type BackupService struct {
	c *Client
}

func (s *BackupService) List(ctx context.Context) ([]models.BackupRecord, error) {
	var out []models.BackupRecord
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/backup-history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
