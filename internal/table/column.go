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
	"reflect"
)

// Align is the horizontal alignment of a column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Column describes how to extract and display one field across all rows.
type Column[R Row] struct {
	Key      string
	Label    string
	Align    Align
	MinWidth int

	cell func(R) string
}

// Field creates a column showing the raw value returned by get.
// Nil values and nil pointers are shown as empty cells.
func Field[R Row, V any](key, label string, get func(R) V) Column[R] {
	return Column[R]{
		Key:   key,
		Label: label,
		cell: func(r R) string {
			return formatValue(get(r))
		},
	}
}

// Formatted creates a column whose cells are produced by render, which
// receives the typed field value and the whole row.
func Formatted[R Row, V any](key, label string, get func(R) V, render func(V, R) string) Column[R] {
	return Column[R]{
		Key:   key,
		Label: label,
		cell: func(r R) string {
			return render(get(r), r)
		},
	}
}

// WithAlign returns a copy of the column with the given alignment.
func (c Column[R]) WithAlign(a Align) Column[R] {
	c.Align = a
	return c
}

// WithMinWidth returns a copy of the column with the given minimum width.
func (c Column[R]) WithMinWidth(w int) Column[R] {
	c.MinWidth = w
	return c
}

// Cell returns the display value of column c for row r.
func Cell[R Row](c Column[R], r R) string {
	if c.cell == nil {
		return ""
	}
	return c.cell(r)
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return formatValue(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}
