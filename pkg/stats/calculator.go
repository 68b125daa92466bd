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

package stats

import "fmt"

// SuccessRate returns the percentage of successful backups.
// Formula: 100 × Successful / Total
func SuccessRate(c Counts) float64 {
	return percent(c.SuccessfulBackups, c.TotalBackups)
}

// FailureRate returns the percentage of failed backups.
// Formula: 100 × Failed / Total
func FailureRate(c Counts) float64 {
	return percent(c.FailedBackups, c.TotalBackups)
}

// ActiveRatio returns the percentage of devices that are active.
// Formula: 100 × Active / TotalDevices
func ActiveRatio(c Counts) float64 {
	return percent(c.ActiveDevices, c.TotalDevices)
}

// Unfinished returns backups that are neither successful nor failed
// (pending or in progress). Never negative.
func Unfinished(c Counts) int {
	n := c.TotalBackups - c.SuccessfulBackups - c.FailedBackups
	if n < 0 {
		return 0
	}
	return n
}

// BackupRate returns new backups per hour between two dashboard readings.
// Formula: ΔTotalBackups / Δt(hours)
// The backup total is a rolling 24 hour window, so a shrinking total yields 0.
func BackupRate(prev, current Snapshot) float64 {
	if prev.Timestamp.IsZero() {
		return 0.0
	}

	deltaTime := current.Timestamp.Sub(prev.Timestamp).Hours()
	if deltaTime <= 0 {
		return 0.0
	}

	delta := current.TotalBackups - prev.TotalBackups
	if delta <= 0 {
		return 0.0
	}

	return float64(delta) / deltaTime
}

// ActiveDelta returns the change in active devices between two readings.
func ActiveDelta(prev, current Snapshot) int {
	if prev.Timestamp.IsZero() {
		return 0
	}
	return current.ActiveDevices - prev.ActiveDevices
}

// FormatPercent renders v with one decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func percent(part, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	p := 100.0 * float64(part) / float64(total)
	// Cap at 100% (counts can be read from inconsistent snapshots)
	if p > 100.0 {
		p = 100.0
	}
	if p < 0 {
		p = 0.0
	}
	return p
}
