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

package views

import (
	"strings"

	"github.com/fatih/color"
)

type chipStyle struct {
	label string
	attr  color.Attribute
}

var chipStyles = map[string]chipStyle{
	"active":      {"Active", color.FgGreen},
	"success":     {"Success", color.FgGreen},
	"inactive":    {"Inactive", color.FgRed},
	"failed":      {"Failed", color.FgRed},
	"pending":     {"Pending", color.FgYellow},
	"in_progress": {"In Progress", color.FgYellow},
	"maintenance": {"Maintenance", color.FgCyan},
	"read_only":   {"Read Only", color.FgWhite},
	"admin":       {"Admin", color.FgBlue},
	"super_admin": {"Super Admin", color.FgMagenta},
}

// ChipLabel returns the human label of a status value. Unknown values are
// shown as given.
func ChipLabel(status string) string {
	if s, ok := chipStyles[strings.ToLower(status)]; ok {
		return s.label
	}
	return OrEmpty(status)
}

// Chip renders a status value as a coloured label.
func Chip(status string) string {
	s, ok := chipStyles[strings.ToLower(status)]
	if !ok {
		return OrEmpty(status)
	}
	return color.New(s.attr, color.Bold).Sprint(s.label)
}
