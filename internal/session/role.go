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

package session

// Role is an administrator role name.
type Role string

const (
	RoleReadOnly   Role = "read_only"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// hierarchy orders roles from lowest to highest privilege.
var hierarchy = []Role{RoleReadOnly, RoleAdmin, RoleSuperAdmin}

// Roles returns all known roles, lowest privilege first.
func Roles() []Role {
	out := make([]Role, len(hierarchy))
	copy(out, hierarchy)
	return out
}

// Rank returns the position of r in the role hierarchy.
func Rank(r Role) (int, bool) {
	for i, h := range hierarchy {
		if h == r {
			return i, true
		}
	}
	return -1, false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := Rank(r)
	return ok
}

// AtLeast reports whether r ranks at or above required.
// Unknown roles on either side never satisfy the check.
func (r Role) AtLeast(required Role) bool {
	have, ok := Rank(r)
	if !ok {
		return false
	}
	need, ok := Rank(required)
	if !ok {
		return false
	}
	return have >= need
}
