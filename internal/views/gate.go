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
	"errors"
	"fmt"

	"github.com/phuonguno98/netbackup/internal/session"
)

// ErrNotLoggedIn is returned by RequireRole when there is no session.
var ErrNotLoggedIn = errors.New("not logged in, run 'netbackup login'")

// PermissionError reports a role too low for an action.
type PermissionError struct {
	Action   Action
	Required session.Role
	Have     session.Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s requires role %s (current role: %s)", e.Action, e.Required, e.Have)
}

// Action is a class of console operation.
type Action string

const (
	ActionView         Action = "view"
	ActionModify       Action = "modify"
	ActionManageAdmins Action = "manage admins"
)

// Actions lists every action, least privileged first.
var Actions = []Action{ActionView, ActionModify, ActionManageAdmins}

// RequiredRole returns the minimum role for a.
func RequiredRole(a Action) session.Role {
	switch a {
	case ActionView:
		return session.RoleReadOnly
	case ActionModify:
		return session.RoleAdmin
	case ActionManageAdmins:
		return session.RoleSuperAdmin
	}
	return ""
}

// Permissions is the part of the session store the gate needs.
type Permissions interface {
	IsAuthenticated() bool
	HasPermission(session.Role) bool
	Current() session.Session
}

// RequireRole fails unless the session may perform a.
func RequireRole(p Permissions, a Action) error {
	if !p.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	required := RequiredRole(a)
	if !p.HasPermission(required) {
		return &PermissionError{Action: a, Required: required, Have: p.Current().Role}
	}
	return nil
}
