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
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/phuonguno98/netbackup/internal/models"
)

// TimeLayout is the display format for timestamps.
const TimeLayout = "Jan 2, 2006 15:04"

// Empty is shown for absent values.
const Empty = "-"

// Location is the zone timestamps are displayed in.
var Location = time.Local

// SetTimezone sets Location from an IANA name. "" and "Local" select the
// system zone.
func SetTimezone(name string) error {
	if name == "" || name == "Local" {
		Location = time.Local
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

// EnableColor turns ANSI colouring on or off for all chips.
func EnableColor(enabled bool) {
	color.NoColor = !enabled
}

// ColorSupported reports whether f is a terminal that should get colours.
func ColorSupported(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// FormatTime renders ts in Location, or Empty for the zero time.
func FormatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return Empty
	}
	return ts.In(Location).Format(TimeLayout)
}

// OrEmpty returns s, or Empty when s is blank.
func OrEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return Empty
	}
	return s
}

// MaskSecret hides a password or key.
func MaskSecret(s string) string {
	if s == "" {
		return Empty
	}
	return "********"
}

// DeviceTypeLabel returns the display label of a device type.
func DeviceTypeLabel(t models.DeviceType) string {
	if t.Valid() {
		return string(t)
	}
	return OrEmpty(string(t))
}
