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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		counts   Counts
		expected float64
	}{
		{
			name:     "Normal",
			counts:   Counts{TotalBackups: 8, SuccessfulBackups: 6, FailedBackups: 2},
			expected: 75.0,
		},
		{
			name:     "No backups (Zero denominator)",
			counts:   Counts{},
			expected: 0.0,
		},
		{
			name:     "All successful",
			counts:   Counts{TotalBackups: 3, SuccessfulBackups: 3},
			expected: 100.0,
		},
		{
			name:     "Inconsistent counts (Capped)",
			counts:   Counts{TotalBackups: 2, SuccessfulBackups: 5},
			expected: 100.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SuccessRate(tt.counts), 0.00001)
		})
	}
}

func TestFailureRateAndActiveRatio(t *testing.T) {
	c := Counts{TotalDevices: 3, ActiveDevices: 2, InactiveDevices: 1, TotalBackups: 4, FailedBackups: 1}

	assert.InDelta(t, 25.0, FailureRate(c), 0.00001)
	// 100 * 2/3 = 66.6666...
	assert.InDelta(t, 66.66666666666667, ActiveRatio(c), 0.00001)
	assert.Zero(t, ActiveRatio(Counts{}))
}

func TestUnfinished(t *testing.T) {
	tests := []struct {
		name     string
		counts   Counts
		expected int
	}{
		{"Some pending", Counts{TotalBackups: 10, SuccessfulBackups: 6, FailedBackups: 1}, 3},
		{"None pending", Counts{TotalBackups: 7, SuccessfulBackups: 6, FailedBackups: 1}, 0},
		{"Never negative", Counts{TotalBackups: 1, SuccessfulBackups: 6, FailedBackups: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unfinished(tt.counts))
		})
	}
}

func TestBackupRate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		prev     Snapshot
		current  Snapshot
		expected float64
	}{
		{
			name:     "Normal",
			prev:     Snapshot{Counts: Counts{TotalBackups: 10}, Timestamp: now},
			current:  Snapshot{Counts: Counts{TotalBackups: 16}, Timestamp: now.Add(30 * time.Minute)},
			expected: 12.0, // 6 backups / 0.5h
		},
		{
			name:     "Zero timestamp (First reading)",
			prev:     Snapshot{},
			current:  Snapshot{Counts: Counts{TotalBackups: 16}, Timestamp: now},
			expected: 0.0,
		},
		{
			name:     "Window rolled over",
			prev:     Snapshot{Counts: Counts{TotalBackups: 16}, Timestamp: now},
			current:  Snapshot{Counts: Counts{TotalBackups: 12}, Timestamp: now.Add(time.Hour)},
			expected: 0.0,
		},
		{
			name:     "Same timestamp",
			prev:     Snapshot{Counts: Counts{TotalBackups: 1}, Timestamp: now},
			current:  Snapshot{Counts: Counts{TotalBackups: 5}, Timestamp: now},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, BackupRate(tt.prev, tt.current), 0.00001)
		})
	}
}

func TestActiveDelta(t *testing.T) {
	now := time.Now()
	prev := Snapshot{Counts: Counts{ActiveDevices: 5}, Timestamp: now}
	current := Snapshot{Counts: Counts{ActiveDevices: 3}, Timestamp: now.Add(time.Minute)}

	assert.Equal(t, -2, ActiveDelta(prev, current))
	assert.Equal(t, 0, ActiveDelta(Snapshot{}, current), "first reading")
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "66.7%", FormatPercent(66.66666))
	assert.Equal(t, "0.0%", FormatPercent(0))
}
