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

package table

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	columnGap      = "  "
	actionsLabel   = "ACTIONS"
	emptyPageLabel = "No records found."
)

// Render writes the current page as a fixed-width text table, followed by
// the pagination footer.
func (t *Table[R]) Render(w io.Writer) error {
	t.mu.RLock()
	page := t.pageLocked()
	state := t.selectAllStateLocked()
	selected := make(map[string]bool, len(t.selected))
	for id := range t.selected {
		selected[id] = true
	}
	selectable := t.opts.Selectable
	loading := t.opts.Loading
	actions := t.actionLabels()
	footer := t.footerLocked()
	t.mu.RUnlock()

	header := make([]string, 0, len(t.columns)+2)
	aligns := make([]Align, 0, len(t.columns)+2)
	minWidths := make([]int, 0, len(t.columns)+2)

	if selectable {
		header = append(header, stateMarker(state))
		aligns = append(aligns, AlignLeft)
		minWidths = append(minWidths, 0)
	}
	for _, c := range t.columns {
		header = append(header, strings.ToUpper(c.Label))
		aligns = append(aligns, c.Align)
		minWidths = append(minWidths, c.MinWidth)
	}
	actionCell := strings.Join(actions, ",")
	if len(actions) > 0 {
		header = append(header, actionsLabel)
		aligns = append(aligns, AlignRight)
		minWidths = append(minWidths, 0)
	}

	body := make([][]string, 0, len(page))
	for _, r := range page {
		line := make([]string, 0, len(header))
		if selectable {
			line = append(line, rowMarker(selected[r.RowID()]))
		}
		for _, c := range t.columns {
			line = append(line, Cell(c, r))
		}
		if len(actions) > 0 {
			line = append(line, actionCell)
		}
		body = append(body, line)
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(minWidths[i], visibleWidth(h))
	}
	for _, line := range body {
		for i, cell := range line {
			widths[i] = max(widths[i], visibleWidth(cell))
		}
	}

	total := 0
	for _, wd := range widths {
		total += wd
	}
	total += len(columnGap) * max(len(widths)-1, 0)

	var sb strings.Builder
	if loading {
		sb.WriteString("Loading...\n")
	}
	sb.WriteString(strings.Repeat("=", total))
	sb.WriteString("\n")
	sb.WriteString(formatLine(header, widths, aligns))
	sb.WriteString(strings.Repeat("-", total))
	sb.WriteString("\n")
	if len(body) == 0 {
		sb.WriteString(emptyPageLabel)
		sb.WriteString("\n")
	}
	for _, line := range body {
		sb.WriteString(formatLine(line, widths, aligns))
	}
	sb.WriteString(strings.Repeat("=", total))
	sb.WriteString("\n")
	sb.WriteString(footer)
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders the table into a string.
func (t *Table[R]) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table[R]) footerLocked() string {
	count := len(t.rows)
	from, to := 0, 0
	if start := t.pageIndex * t.pageSize; count > 0 && t.pageIndex >= 0 && start < count {
		from = start + 1
		to = min(count, start+t.pageSize)
	}
	pages := max((count+t.pageSize-1)/t.pageSize, 1)
	return fmt.Sprintf("Rows per page: %d   %d-%d of %d   page %d/%d",
		t.pageSize, from, to, count, t.pageIndex+1, pages)
}

func stateMarker(s SelectAllState) string {
	switch s {
	case SelectAll:
		return "[x]"
	case SelectSome:
		return "[-]"
	default:
		return "[ ]"
	}
}

func rowMarker(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func formatLine(cells []string, widths []int, aligns []Align) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = pad(c, widths[i], aligns[i])
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ") + "\n"
}

func pad(s string, width int, a Align) string {
	gap := width - visibleWidth(s)
	if gap <= 0 {
		return s
	}
	switch a {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

// visibleWidth counts runes, skipping ANSI escape sequences so coloured
// cells line up with plain ones.
func visibleWidth(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			i++
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	return n
}

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			i++
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}
