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

// RecentActivity is a backup event shown on the dashboard.
type RecentActivity struct {
	ID         string       `json:"id"`
	DeviceName string       `json:"device_name"`
	Status     BackupStatus `json:"status"`
	Message    string       `json:"message"`
	CreatedAt  Timestamp    `json:"created_at"`
}

func (a RecentActivity) RowID() string { return a.ID }

// DashboardStats summarises devices and backups of the last 24 hours.
type DashboardStats struct {
	TotalDevices      int              `json:"total_devices"`
	ActiveDevices     int              `json:"active_devices"`
	InactiveDevices   int              `json:"inactive_devices"`
	TotalBackups      int              `json:"total_backups"`
	SuccessfulBackups int              `json:"successful_backups"`
	FailedBackups     int              `json:"failed_backups"`
	RecentActivities  []RecentActivity `json:"recent_activities"`
}
