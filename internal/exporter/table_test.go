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
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/netbackup/internal/table"
)

type host struct {
	ID     string
	Name   string
	Status string
}

func (h host) RowID() string { return h.ID }

func hostTable() *table.Table[host] {
	cols := []table.Column[host]{
		table.Field("name", "Name", func(h host) string { return h.Name }),
		table.Formatted("status", "Status", func(h host) string { return h.Status },
			func(v string, _ host) string { return "\x1b[32m" + v + "\x1b[0m" }),
	}
	rows := []host{{"1", "core, sw", "active"}, {"2", "edge", "pending"}, {"3", "fw", "active"}}
	return table.New(cols, rows, table.Options[host]{Selectable: true})
}

func TestWriteTable(t *testing.T) {
	tests := []struct {
		name     string
		scope    Scope
		prepare  func(tbl *table.Table[host])
		expected [][]string
	}{
		{
			name:  "All rows",
			scope: AllRows,
			expected: [][]string{
				{"Name", "Status"},
				{"core, sw", "active"},
				{"edge", "pending"},
				{"fw", "active"},
			},
		},
		{
			name:  "Selected rows keep row order",
			scope: SelectedRows,
			prepare: func(tbl *table.Table[host]) {
				tbl.ToggleSelection("3")
				tbl.ToggleSelection("1")
			},
			expected: [][]string{
				{"Name", "Status"},
				{"core, sw", "active"},
				{"fw", "active"},
			},
		},
		{
			name:     "Nothing selected",
			scope:    SelectedRows,
			expected: [][]string{{"Name", "Status"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := hostTable()
			if tt.prepare != nil {
				tt.prepare(tbl)
			}

			var buf bytes.Buffer
			n, err := WriteTable(&buf, tbl, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, len(tt.expected)-1, n)

			records, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, records)
		})
	}
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.csv")
	n, err := ExportFile(path, hostTable(), AllRows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, readCSV(t, path), 4, "header + 3 rows")
}
