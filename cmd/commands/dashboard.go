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

package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/netbackup/internal/exporter"
	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/table"
	"github.com/phuonguno98/netbackup/internal/views"
	"github.com/phuonguno98/netbackup/internal/watch"
	"github.com/phuonguno98/netbackup/pkg/stats"
)

var (
	// Dashboard command specific flags
	dashWatch  time.Duration
	dashRecord string

	// Backups command specific flags
	backupDevice string
	backupStatus string
	backupOpts   listOptions
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show device and backup statistics",
	Long: `Show device totals, backups of the last 24 hours and the most recent
backup activity.

With --watch the dashboard refreshes until interrupted and also reports the
backup rate between readings. --record appends every reading to a CSV file.

Examples:
  # One-off summary
  netbackup dashboard

  # Refresh every 30 seconds and keep a history
  netbackup dashboard --watch 30s --record dashboard.csv`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var backupsCmd = &cobra.Command{
	Use:     "backups",
	Aliases: []string{"backup"},
	Short:   "Browse the backup history",
}

var backupsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List backups, newest first",
	Args:    cobra.NoArgs,
	RunE:    runBackupsList,
}

func init() {
	rootCmd.AddCommand(dashboardCmd, backupsCmd)
	backupsCmd.AddCommand(backupsListCmd)

	dashboardCmd.Flags().DurationVarP(&dashWatch, "watch", "w", 0, "Refresh at this interval until interrupted (e.g., 30s)")
	dashboardCmd.Flags().StringVar(&dashRecord, "record", "", "Append every reading to this CSV file")

	addListFlags(backupsListCmd, &backupOpts)
	backupsListCmd.Flags().StringVar(&backupDevice, "device", "", "Only backups of this device ID")
	backupsListCmd.Flags().StringVar(&backupStatus, "status", "", "Only backups with this status (success, failed, in_progress, pending)")
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	a, err := requireAction(views.ActionView)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var snapshots chan stats.Snapshot
	if dashRecord != "" {
		snapshots = make(chan stats.Snapshot, 10)
		recorder, err := exporter.NewStatsRecorder(exporter.RecorderConfig{
			Path:     dashRecord,
			Location: views.Location,
		}, snapshots, logger)
		if err != nil {
			return err
		}

		// The recorder drains the channel after the dashboard stops, so it
		// must not share the signal context.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := recorder.Start(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Recorder stopped with error", "error", err)
			}
		}()
		defer func() {
			close(snapshots)
			wg.Wait()
			if err := recorder.Close(); err != nil {
				logger.Error("Failed to close recorder", "error", err)
			}
		}()
	}

	dash := watch.NewDashboard(a.client.Dashboard, snapshots, nil, logger)
	activity := table.New(views.ActivityColumns(), nil, table.Options[models.RecentActivity]{})
	out := cmd.OutOrStdout()

	var lastErr error
	render := func() {
		if dashWatch > 0 && !outputJSON {
			clearScreen(out)
		}
		lastErr = printDashboard(out, dash.Summary(), activity)
	}
	onError := func(err error) {
		lastErr = err
		if dashWatch > 0 {
			warnf("Refresh failed: %v", err)
		}
	}

	r := watch.NewRefresher(activity, dash.Fetch, dashWatch, logger,
		watch.WithUpdateHook(render), watch.WithErrorHook(onError))
	if err := r.Start(ctx); err != nil {
		return a.check(err)
	}
	if dashWatch <= 0 {
		return a.check(lastErr)
	}
	return nil
}

func printDashboard(out io.Writer, sum watch.Summary, activity *table.Table[models.RecentActivity]) error {
	if outputJSON {
		doc := map[string]any{
			"stats":        sum.Stats,
			"success_rate": sum.SuccessRate,
			"active_ratio": sum.ActiveRatio,
		}
		if sum.HasRate {
			doc["backup_rate"] = sum.BackupRate
			doc["active_delta"] = sum.ActiveDelta
		}
		return printJSON(out, doc)
	}

	s := sum.Stats
	counts := stats.Counts{
		TotalBackups:      s.TotalBackups,
		SuccessfulBackups: s.SuccessfulBackups,
		FailedBackups:     s.FailedBackups,
	}
	fmt.Fprintf(out, "Devices  %d total, %d active, %d inactive (%s active)\n",
		s.TotalDevices, s.ActiveDevices, s.InactiveDevices, stats.FormatPercent(sum.ActiveRatio))
	fmt.Fprintf(out, "Backups  %d in the last 24h, %d successful, %d failed, %d unfinished (%s success, %s failure)\n",
		s.TotalBackups, s.SuccessfulBackups, s.FailedBackups, stats.Unfinished(counts),
		stats.FormatPercent(sum.SuccessRate), stats.FormatPercent(stats.FailureRate(counts)))
	if sum.HasRate {
		fmt.Fprintf(out, "Trend    %.2f backups/hour, %+d active devices since last refresh\n", sum.BackupRate, sum.ActiveDelta)
	}
	fmt.Fprintf(out, "\nRecent activity\n")
	return activity.Render(out)
}

func runBackupsList(cmd *cobra.Command, _ []string) error {
	if backupStatus != "" && !slices.Contains(backupStatuses, models.BackupStatus(backupStatus)) {
		return fmt.Errorf("invalid backup status %q", backupStatus)
	}
	a, err := requireAction(views.ActionView)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	devices, err := deviceNames(ctx, a)
	if err != nil {
		return a.check(err)
	}
	fetch := func(ctx context.Context) ([]models.BackupRecord, error) {
		records, err := a.client.Backups.List(ctx)
		if err != nil {
			return nil, err
		}
		return slices.DeleteFunc(records, func(b models.BackupRecord) bool {
			return (backupDevice != "" && b.DeviceID != backupDevice) ||
				(backupStatus != "" && string(b.Status) != backupStatus)
		}), nil
	}
	return a.check(showTable(ctx, cmd.OutOrStdout(), views.BackupColumns(devices), fetch, backupOpts))
}

var backupStatuses = []models.BackupStatus{
	models.BackupStatusSuccess,
	models.BackupStatusFailed,
	models.BackupStatusInProgress,
	models.BackupStatusPending,
}
