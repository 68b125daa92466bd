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

package exporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuonguno98/netbackup/pkg/stats"
)

// Default recorder settings.
const (
	DefaultBufferSize    = 10
	DefaultFlushInterval = 5 * time.Second
	DefaultMaxFileSize   = 150 * 1024 * 1024 // 150MB
)

// RecorderConfig configures a StatsRecorder.
type RecorderConfig struct {
	Path          string         // Output CSV file, appended to when it exists
	BufferSize    int            // Number of records to buffer before flush
	FlushInterval time.Duration  // Maximum time before forcing a flush
	MaxFileSize   int64          // Size at which the file is rotated
	Location      *time.Location // Timezone for timestamps
}

// StatsRecorder appends dashboard snapshots to a CSV file with buffering.
type StatsRecorder struct {
	config        RecorderConfig
	file          *os.File
	csvWriter     *csv.Writer
	bufWriter     *bufio.Writer
	snapshots     <-chan stats.Snapshot
	flushTicker   *time.Ticker
	recordCount   int
	logger        *slog.Logger
	headerWritten bool
	prev          stats.Snapshot // Previous reading for rate columns
	currentSize   int64          // Current file size in bytes
	fileIndex     int            // Index for file rotation
}

// NewStatsRecorder opens cfg.Path for appending and returns a recorder
// reading from snapshots.
func NewStatsRecorder(cfg RecorderConfig, snapshots <-chan stats.Snapshot, logger *slog.Logger) (*StatsRecorder, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bufWriter := bufio.NewWriterSize(file, 8192) // 8KB buffer

	return &StatsRecorder{
		config:        cfg,
		file:          file,
		bufWriter:     bufWriter,
		csvWriter:     csv.NewWriter(bufWriter),
		snapshots:     snapshots,
		logger:        logger,
		currentSize:   stat.Size(),
		headerWritten: stat.Size() > 0,
	}, nil
}

// Start consumes snapshots until ctx is cancelled or the channel is closed.
func (e *StatsRecorder) Start(ctx context.Context) error {
	e.logger.Info("Recording dashboard statistics", "output", e.config.Path)

	e.flushTicker = time.NewTicker(e.config.FlushInterval)
	defer e.flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return e.flush()

		case snapshot, ok := <-e.snapshots:
			if !ok {
				return e.flush()
			}

			if err := e.writeSnapshot(snapshot); err != nil {
				e.logger.Error("Failed to write snapshot", "error", err)
			}

			e.recordCount++

			if e.recordCount >= e.config.BufferSize {
				if err := e.flush(); err != nil {
					e.logger.Error("Failed to flush", "error", err)
				}
				e.recordCount = 0
			}

		case <-e.flushTicker.C:
			if e.recordCount > 0 {
				if err := e.flush(); err != nil {
					e.logger.Error("Failed to flush", "error", err)
				}
				e.recordCount = 0
			}
		}
	}
}

func (e *StatsRecorder) writeSnapshot(snapshot stats.Snapshot) error {
	if !e.headerWritten {
		if err := e.csvWriter.Write(recorderHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		e.headerWritten = true
	}

	if e.currentSize >= e.config.MaxFileSize {
		if err := e.rotateFile(); err != nil {
			e.logger.Error("Failed to rotate file", "error", err)
		}
	}

	row := e.buildRow(snapshot)
	e.prev = snapshot

	rowBytes := 1
	for _, cell := range row {
		rowBytes += len(cell) + 1
	}

	if err := e.csvWriter.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	e.currentSize += int64(rowBytes)
	return nil
}

var recorderHeader = []string{
	"Timestamp",
	"Total Devices",
	"Active Devices",
	"Inactive Devices",
	"Active (%)",
	"Backups (24h)",
	"Successful",
	"Failed",
	"Success Rate (%)",
	"Backup Rate (per hour)",
}

const naString = "N/A"

func (e *StatsRecorder) buildRow(s stats.Snapshot) []string {
	rate := naString
	if !e.prev.Timestamp.IsZero() {
		rate = fmt.Sprintf("%.2f", stats.BackupRate(e.prev, s))
	}
	return []string{
		s.Timestamp.In(e.config.Location).Format("2006-01-02 15:04:05"),
		fmt.Sprint(s.TotalDevices),
		fmt.Sprint(s.ActiveDevices),
		fmt.Sprint(s.InactiveDevices),
		fmt.Sprintf("%.2f", stats.ActiveRatio(s.Counts)),
		fmt.Sprint(s.TotalBackups),
		fmt.Sprint(s.SuccessfulBackups),
		fmt.Sprint(s.FailedBackups),
		fmt.Sprintf("%.2f", stats.SuccessRate(s.Counts)),
		rate,
	}
}

func (e *StatsRecorder) flush() error {
	e.csvWriter.Flush()
	if err := e.csvWriter.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	if err := e.bufWriter.Flush(); err != nil {
		return fmt.Errorf("buffer writer error: %w", err)
	}

	e.logger.Debug("Flushed to disk", "records", e.recordCount)
	return nil
}

// Close flushes remaining data and closes the file.
func (e *StatsRecorder) Close() error {
	if e.flushTicker != nil {
		e.flushTicker.Stop()
	}

	if err := e.flush(); err != nil {
		e.logger.Error("Final flush failed", "error", err)
	}

	if err := e.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// rotateFile moves output to <base>_<n><ext>, skipping names that exist.
func (e *StatsRecorder) rotateFile() error {
	e.logger.Info("Rotating output file", "current_size", e.currentSize)

	if err := e.flush(); err != nil {
		return fmt.Errorf("flush before rotate failed: %w", err)
	}
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("close before rotate failed: %w", err)
	}

	ext := filepath.Ext(e.config.Path)
	base := strings.TrimSuffix(e.config.Path, ext)
	var newPath string
	for {
		e.fileIndex++
		newPath = fmt.Sprintf("%s_%d%s", base, e.fileIndex, ext)
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
	}

	file, err := os.OpenFile(newPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open new rotated file: %w", err)
	}

	e.file = file
	e.bufWriter = bufio.NewWriterSize(file, 8192)
	e.csvWriter = csv.NewWriter(e.bufWriter)
	e.currentSize = 0

	if err := e.csvWriter.Write(recorderHeader); err != nil {
		return fmt.Errorf("failed to write header to rotated file: %w", err)
	}

	e.logger.Info("File rotated successfully", "new_path", newPath)
	return nil
}
