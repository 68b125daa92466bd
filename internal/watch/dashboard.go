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

package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/pkg/stats"
)

// StatsSource returns the dashboard numbers.
type StatsSource interface {
	Stats(ctx context.Context) (models.DashboardStats, error)
}

// Summary is the latest dashboard reading with the figures derived from it.
type Summary struct {
	Stats       models.DashboardStats
	SuccessRate float64
	ActiveRatio float64
	BackupRate  float64 // Backups per hour since the previous reading
	ActiveDelta int     // Change in active devices since the previous reading
	HasRate     bool
}

// Dashboard fetches dashboard stats for a Refresher over the recent
// activity table and publishes each reading as a stats.Snapshot.
type Dashboard struct {
	src    StatsSource
	clock  clockwork.Clock
	out    chan<- stats.Snapshot
	logger *slog.Logger

	mu      sync.RWMutex
	prev    *stats.Snapshot
	summary Summary
}

// NewDashboard creates a Dashboard. out may be nil when no one records the
// readings.
func NewDashboard(src StatsSource, out chan<- stats.Snapshot, clock clockwork.Clock, logger *slog.Logger) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{src: src, clock: clock, out: out, logger: logger}
}

// Fetch is a Fetcher for the recent activity table.
func (d *Dashboard) Fetch(ctx context.Context) ([]models.RecentActivity, error) {
	ds, err := d.src.Stats(ctx)
	if err != nil {
		return nil, err
	}

	snap := stats.Snapshot{
		Counts: stats.Counts{
			TotalDevices:      ds.TotalDevices,
			ActiveDevices:     ds.ActiveDevices,
			InactiveDevices:   ds.InactiveDevices,
			TotalBackups:      ds.TotalBackups,
			SuccessfulBackups: ds.SuccessfulBackups,
			FailedBackups:     ds.FailedBackups,
		},
		Timestamp: d.clock.Now(),
	}

	d.mu.Lock()
	sum := Summary{
		Stats:       ds,
		SuccessRate: stats.SuccessRate(snap.Counts),
		ActiveRatio: stats.ActiveRatio(snap.Counts),
	}
	if d.prev != nil {
		sum.BackupRate = stats.BackupRate(*d.prev, snap)
		sum.ActiveDelta = stats.ActiveDelta(*d.prev, snap)
		sum.HasRate = true
	}
	d.prev = &snap
	d.summary = sum
	d.mu.Unlock()

	if d.out != nil {
		// Send snapshot to channel (non-blocking)
		select {
		case d.out <- snap:
		default:
			d.logger.Warn("Stats channel full, dropping snapshot")
		}
	}
	return ds.RecentActivities, nil
}

// Summary returns the latest reading.
func (d *Dashboard) Summary() Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.summary
}
