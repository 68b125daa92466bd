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
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/netbackup/internal/exporter"
	"github.com/phuonguno98/netbackup/internal/table"
	"github.com/phuonguno98/netbackup/internal/watch"
)

// listOptions are the flags shared by every list command.
type listOptions struct {
	page     int
	pageSize int
	export   string
	watch    time.Duration
}

func addListFlags(cmd *cobra.Command, opts *listOptions) {
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number to show")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0,
		fmt.Sprintf("Rows per page, one of %v (default from config)", table.PageSizes))
	cmd.Flags().StringVarP(&opts.export, "export", "o", "", "Also export all rows to this CSV file")
	cmd.Flags().DurationVarP(&opts.watch, "watch", "w", 0, "Refresh at this interval until interrupted (e.g., 10s)")
}

// showTable fetches rows into a table and prints the requested page, either
// once or every opts.watch until ctx is cancelled.
func showTable[R table.Row](ctx context.Context, out io.Writer, cols []table.Column[R], fetch watch.Fetcher[R], opts listOptions) error {
	size := opts.pageSize
	if size == 0 {
		size = cfg.PageSize
	}
	t := table.New(cols, nil, table.Options[R]{PageSize: size, Loading: true})
	if err := t.ChangePageSize(size); err != nil {
		return fmt.Errorf("%w: %d (must be one of %v)", err, size, table.PageSizes)
	}
	if opts.page < 1 {
		return fmt.Errorf("invalid page: %d", opts.page)
	}

	var lastErr error
	render := func() {
		lastErr = nil
		if opts.watch > 0 && !outputJSON {
			clearScreen(out)
		}
		t.ChangePage(opts.page - 1)
		if outputJSON {
			lastErr = printJSON(out, t.Rows())
			return
		}
		lastErr = t.Render(out)
	}
	onError := func(err error) {
		lastErr = err
		if opts.watch > 0 {
			warnf("Refresh failed: %v", err)
		}
	}

	r := watch.NewRefresher(t, fetch, opts.watch, logger,
		watch.WithUpdateHook(render), watch.WithErrorHook(onError))
	if err := r.Start(ctx); err != nil {
		return err
	}
	if opts.watch <= 0 && lastErr != nil {
		return lastErr
	}

	if opts.export != "" {
		n, err := exporter.ExportFile(opts.export, t, exporter.AllRows)
		if err != nil {
			return err
		}
		warnf("Exported %d rows to %s", n, opts.export)
	}
	return nil
}

// showRecord prints one row as label/value pairs.
func showRecord[R table.Row](out io.Writer, cols []table.Column[R], row R) error {
	if outputJSON {
		return printJSON(out, row)
	}
	width := 0
	for _, c := range cols {
		width = max(width, len(c.Label))
	}
	for _, c := range cols {
		if _, err := fmt.Fprintf(out, "%-*s  %s\n", width, c.Label, table.Cell(c, row)); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clearScreen(out io.Writer) {
	fmt.Fprint(out, "\033[H\033[2J")
}
