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
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/phuonguno98/netbackup/internal/table"
)

// Scope selects which rows of a table are exported.
type Scope int

const (
	AllRows Scope = iota
	SelectedRows
	CurrentPage
)

// WriteTable writes the rows in scope as CSV, using the column labels as
// header and the same cell rendering as the terminal view without colours.
func WriteTable[R table.Row](w io.Writer, t *table.Table[R], scope Scope) (int, error) {
	var rows []R
	switch scope {
	case SelectedRows:
		rows = t.SelectedRows()
	case CurrentPage:
		rows = t.Page()
	default:
		rows = t.Rows()
	}

	cols := t.Columns()
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			record[i] = table.StripANSI(table.Cell(c, r))
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("CSV writer error: %w", err)
	}
	return len(rows), nil
}

// ExportFile writes the rows in scope to path, replacing any existing file.
func ExportFile[R table.Row](path string, t *table.Table[R], scope Scope) (int, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open output file: %w", err)
	}

	n, err := WriteTable(file, t, scope)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close file: %w", closeErr)
	}
	return n, err
}
