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

// DeviceType is the kind of network device.
type DeviceType string

const (
	DeviceTypeSwitch   DeviceType = "Switch"
	DeviceTypeRouter   DeviceType = "Router"
	DeviceTypeFirewall DeviceType = "Firewall"
)

// DeviceTypes lists every device type in display order.
var DeviceTypes = []DeviceType{DeviceTypeSwitch, DeviceTypeRouter, DeviceTypeFirewall}

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	for _, v := range DeviceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DeviceStatus is the operational state of a device.
type DeviceStatus string

const (
	DeviceStatusActive      DeviceStatus = "active"
	DeviceStatusInactive    DeviceStatus = "inactive"
	DeviceStatusPending     DeviceStatus = "pending"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

var DeviceStatuses = []DeviceStatus{
	DeviceStatusActive, DeviceStatusInactive, DeviceStatusPending, DeviceStatusMaintenance,
}

func (s DeviceStatus) Valid() bool {
	for _, v := range DeviceStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// BackupStatus is the outcome of a configuration backup run.
type BackupStatus string

const (
	BackupStatusSuccess    BackupStatus = "success"
	BackupStatusFailed     BackupStatus = "failed"
	BackupStatusInProgress BackupStatus = "in_progress"
	BackupStatusPending    BackupStatus = "pending"
)

// AdminStatus is whether an administrator account may log in.
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "active"
	AdminStatusInactive AdminStatus = "inactive"
)
