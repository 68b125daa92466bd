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

// Package table implements a paginated, optionally selectable view over an
// ordered collection of rows. The table owns no data, only view state:
// page index, page size and the selection set.
package table

import (
	"errors"
	"slices"
	"sync"
)

// PageSizes lists the allowed page sizes. The first entry is the default.
var PageSizes = []int{10, 25, 50, 100}

var (
	// ErrInvalidPageSize is returned when a page size outside PageSizes is requested.
	ErrInvalidPageSize = errors.New("page size not allowed")
	// ErrRowNotFound is returned when an action targets an id absent from the rows.
	ErrRowNotFound = errors.New("row not found")
	// ErrNoAction is returned when an action is invoked that the table does not offer.
	ErrNoAction = errors.New("action not available")
)

// Row is any record with an identifier unique within its collection.
type Row interface {
	RowID() string
}

// SelectAllState is the tri-state of the "select all" control.
type SelectAllState int

const (
	SelectNone SelectAllState = iota
	SelectSome
	SelectAll
)

func (s SelectAllState) String() string {
	switch s {
	case SelectSome:
		return "some"
	case SelectAll:
		return "all"
	default:
		return "none"
	}
}

// Options configures behaviour of a Table.
type Options[R Row] struct {
	Selectable bool
	Actions    bool
	Loading    bool
	PageSize   int // 0 = PageSizes[0]

	OnEdit     func(R)
	OnDelete   func(R)
	OnRowClick func(R)
}

// Table holds the view state for one rendered collection.
// It is safe for concurrent use. Callbacks run without the lock held.
type Table[R Row] struct {
	mu        sync.RWMutex
	columns   []Column[R]
	rows      []R
	opts      Options[R]
	pageIndex int
	pageSize  int
	selected  map[string]struct{}
}

// New creates a table over rows. A nil rows slice is treated as empty.
// An unknown page size in opts falls back to the default.
func New[R Row](columns []Column[R], rows []R, opts Options[R]) *Table[R] {
	size := opts.PageSize
	if !slices.Contains(PageSizes, size) {
		size = PageSizes[0]
	}
	return &Table[R]{
		columns:  columns,
		rows:     slices.Clone(rows),
		opts:     opts,
		pageSize: size,
		selected: make(map[string]struct{}),
	}
}

// Columns returns the column descriptors.
func (t *Table[R]) Columns() []Column[R] {
	return t.columns
}

// SetRows replaces the row collection. The selection is reconciled to the
// ids still present, and the page index is pulled back onto the last page
// if the collection shrank below it.
func (t *Table[R]) SetRows(rows []R) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = slices.Clone(rows)

	present := make(map[string]struct{}, len(t.rows))
	for _, r := range t.rows {
		present[r.RowID()] = struct{}{}
	}
	for id := range t.selected {
		if _, ok := present[id]; !ok {
			delete(t.selected, id)
		}
	}

	if n := len(t.rows); n > 0 && t.pageIndex*t.pageSize >= n {
		t.pageIndex = (n - 1) / t.pageSize
	}
}

// SetLoading toggles the loading indicator.
func (t *Table[R]) SetLoading(loading bool) {
	t.mu.Lock()
	t.opts.Loading = loading
	t.mu.Unlock()
}

// Rows returns a copy of the full row collection.
func (t *Table[R]) Rows() []R {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rows)
}

// Total returns the number of loaded rows.
func (t *Table[R]) Total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// PageIndex returns the zero-based current page.
func (t *Table[R]) PageIndex() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pageIndex
}

// PageSize returns the current page size.
func (t *Table[R]) PageSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pageSize
}

// PageCount returns the number of pages needed for all rows.
func (t *Table[R]) PageCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return (len(t.rows) + t.pageSize - 1) / t.pageSize
}

// Page returns the rows of the current page in their original order.
// An out-of-range page index yields an empty page.
func (t *Table[R]) Page() []R {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pageLocked()
}

func (t *Table[R]) pageLocked() []R {
	start := t.pageIndex * t.pageSize
	if t.pageIndex < 0 || start >= len(t.rows) {
		return []R{}
	}
	end := min(start+t.pageSize, len(t.rows))
	return slices.Clone(t.rows[start:end])
}

// ChangePage sets the page index without bounds validation.
func (t *Table[R]) ChangePage(index int) {
	t.mu.Lock()
	t.pageIndex = index
	t.mu.Unlock()
}

// ChangePageSize sets the page size and resets the page index to 0.
func (t *Table[R]) ChangePageSize(size int) error {
	if !slices.Contains(PageSizes, size) {
		return ErrInvalidPageSize
	}
	t.mu.Lock()
	t.pageSize = size
	t.pageIndex = 0
	t.mu.Unlock()
	return nil
}

// ToggleSelection flips membership of id in the selection set.
// Ids that are not in the row collection are ignored.
func (t *Table[R]) ToggleSelection(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.indexLocked(id); !ok {
		return
	}
	if _, ok := t.selected[id]; ok {
		delete(t.selected, id)
		return
	}
	t.selected[id] = struct{}{}
}

// SelectAll selects every loaded row, not just the current page.
func (t *Table[R]) SelectAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.selected = make(map[string]struct{}, len(t.rows))
	for _, r := range t.rows {
		t.selected[r.RowID()] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (t *Table[R]) ClearSelection() {
	t.mu.Lock()
	t.selected = make(map[string]struct{})
	t.mu.Unlock()
}

// IsSelected reports whether id is in the selection set.
func (t *Table[R]) IsSelected(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.selected[id]
	return ok
}

// Selected returns the selected ids in row order.
func (t *Table[R]) Selected() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.selected))
	for _, r := range t.rows {
		if _, ok := t.selected[r.RowID()]; ok {
			ids = append(ids, r.RowID())
		}
	}
	return ids
}

// SelectedRows returns the selected rows in row order.
func (t *Table[R]) SelectedRows() []R {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]R, 0, len(t.selected))
	for _, r := range t.rows {
		if _, ok := t.selected[r.RowID()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// SelectAllState reports the tri-state of the select-all control.
func (t *Table[R]) SelectAllState() SelectAllState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selectAllStateLocked()
}

func (t *Table[R]) selectAllStateLocked() SelectAllState {
	switch {
	case len(t.selected) == 0:
		return SelectNone
	case len(t.rows) > 0 && len(t.selected) == len(t.rows):
		return SelectAll
	default:
		return SelectSome
	}
}

// Click handles a click on the row with the given id: selectable tables
// toggle the row's selection, others call OnRowClick. Unknown ids are ignored.
func (t *Table[R]) Click(id string) {
	t.mu.Lock()
	i, ok := t.indexLocked(id)
	if !ok {
		t.mu.Unlock()
		return
	}
	if t.opts.Selectable {
		if _, sel := t.selected[id]; sel {
			delete(t.selected, id)
		} else {
			t.selected[id] = struct{}{}
		}
		t.mu.Unlock()
		return
	}
	row, fn := t.rows[i], t.opts.OnRowClick
	t.mu.Unlock()

	if fn != nil {
		fn(row)
	}
}

// Edit invokes OnEdit for the row. Selection and OnRowClick are untouched.
func (t *Table[R]) Edit(id string) error {
	return t.invoke(id, func(o Options[R]) func(R) { return o.OnEdit })
}

// Delete invokes OnDelete for the row. Selection and OnRowClick are untouched.
func (t *Table[R]) Delete(id string) error {
	return t.invoke(id, func(o Options[R]) func(R) { return o.OnDelete })
}

func (t *Table[R]) invoke(id string, pick func(Options[R]) func(R)) error {
	t.mu.RLock()
	fn := pick(t.opts)
	if !t.opts.Actions || fn == nil {
		t.mu.RUnlock()
		return ErrNoAction
	}
	i, ok := t.indexLocked(id)
	if !ok {
		t.mu.RUnlock()
		return ErrRowNotFound
	}
	row := t.rows[i]
	t.mu.RUnlock()

	fn(row)
	return nil
}

// actionLabels lists the per-row actions offered, in display order.
func (t *Table[R]) actionLabels() []string {
	if !t.opts.Actions {
		return nil
	}
	var labels []string
	if t.opts.OnEdit != nil {
		labels = append(labels, "edit")
	}
	if t.opts.OnDelete != nil {
		labels = append(labels, "delete")
	}
	return labels
}

func (t *Table[R]) indexLocked(id string) (int, bool) {
	for i, r := range t.rows {
		if r.RowID() == id {
			return i, true
		}
	}
	return -1, false
}
