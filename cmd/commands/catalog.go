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
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phuonguno98/netbackup/internal/api"
	"github.com/phuonguno98/netbackup/internal/models"
	"github.com/phuonguno98/netbackup/internal/session"
	"github.com/phuonguno98/netbackup/internal/table"
	"github.com/phuonguno98/netbackup/internal/views"
)

var devicesResource = &resource[models.Device, models.DeviceInput]{
	name:     "devices",
	singular: "device",
	aliases:  []string{"device", "dev"},
	idName:   "DEVICE_ID",
	service: func(c *api.Client) service[models.Device, models.DeviceInput] {
		return c.Devices
	},
	columns: func(ctx context.Context, a *app) ([]table.Column[models.Device], error) {
		sites, err := siteNames(ctx, a)
		return views.DeviceColumns(sites), err
	},
	label: func(d models.Device) string {
		return fmt.Sprintf("%s (%s, %s)", d.Name, d.IPAddress, d.Status)
	},
	toInput: func(d models.Device) models.DeviceInput {
		in := models.DeviceInput{
			Name:         d.Name,
			IPAddress:    d.IPAddress,
			Type:         d.Type,
			Status:       d.Status,
			SiteID:       d.SiteID,
			LocationID:   d.LocationID,
			CredentialID: d.CredentialID,
			Config:       d.Config,
		}
		for _, g := range d.Groups {
			in.GroupIDs = append(in.GroupIDs, g.ID)
		}
		return in
	},
	flags: func(fs *pflag.FlagSet) {
		fs.String("name", "", "Device name")
		fs.String("ip", "", "Management IP address")
		fs.String("type", "", "Device type (Switch, Router, Firewall)")
		fs.String("status", "", "Status (active, inactive, pending, maintenance), ignored on create")
		fs.String("site", "", "Site ID")
		fs.String("location", "", "Location ID")
		fs.String("credential", "", "Credential ID")
		fs.StringSlice("group", nil, "Group IDs (repeatable, replaces memberships)")
	},
	apply: func(fs *pflag.FlagSet, in *models.DeviceInput) error {
		setFlag(fs, "name", &in.Name)
		setFlag(fs, "ip", &in.IPAddress)
		setFlag(fs, "type", &in.Type)
		setFlag(fs, "status", &in.Status)
		setFlag(fs, "site", &in.SiteID)
		setFlag(fs, "location", &in.LocationID)
		setFlag(fs, "credential", &in.CredentialID)
		if fs.Changed("group") {
			in.GroupIDs, _ = fs.GetStringSlice("group")
		}
		if in.Type != "" && !in.Type.Valid() {
			return fmt.Errorf("invalid device type %q (must be one of %v)", in.Type, models.DeviceTypes)
		}
		if in.Status != "" && !in.Status.Valid() {
			return fmt.Errorf("invalid device status %q (must be one of %v)", in.Status, models.DeviceStatuses)
		}
		return nil
	},
	view:   views.ActionView,
	modify: views.ActionModify,
}

var sitesResource = &resource[models.Site, models.SiteInput]{
	name:     "sites",
	singular: "site",
	aliases:  []string{"site"},
	idName:   "SITE_ID",
	service: func(c *api.Client) service[models.Site, models.SiteInput] {
		return c.Sites
	},
	columns: func(context.Context, *app) ([]table.Column[models.Site], error) {
		return views.SiteColumns(), nil
	},
	label: func(s models.Site) string {
		return fmt.Sprintf("%s [%s]", s.Name, s.Code)
	},
	toInput: func(s models.Site) models.SiteInput {
		return models.SiteInput{Name: s.Name, Code: s.Code, Description: s.Description, Address: s.Address}
	},
	flags: func(fs *pflag.FlagSet) {
		fs.String("name", "", "Site name")
		fs.String("code", "", "Short site code")
		fs.String("description", "", "Description")
		fs.String("address", "", "Postal address")
	},
	apply: func(fs *pflag.FlagSet, in *models.SiteInput) error {
		setFlag(fs, "name", &in.Name)
		setFlag(fs, "code", &in.Code)
		setFlag(fs, "description", &in.Description)
		setFlag(fs, "address", &in.Address)
		return nil
	},
	view:   views.ActionView,
	modify: views.ActionModify,
}

var locationsResource = &resource[models.Location, models.LocationInput]{
	name:     "locations",
	singular: "location",
	aliases:  []string{"location", "loc"},
	idName:   "LOCATION_ID",
	service: func(c *api.Client) service[models.Location, models.LocationInput] {
		return c.Locations
	},
	columns: func(ctx context.Context, a *app) ([]table.Column[models.Location], error) {
		sites, err := siteNames(ctx, a)
		return views.LocationColumns(sites), err
	},
	label: func(l models.Location) string {
		return fmt.Sprintf("%s (floor %s, room %s)", l.Name, views.OrEmpty(l.Floor), views.OrEmpty(l.Room))
	},
	toInput: func(l models.Location) models.LocationInput {
		return models.LocationInput{Name: l.Name, SiteID: l.SiteID, Floor: l.Floor, Room: l.Room}
	},
	flags: func(fs *pflag.FlagSet) {
		fs.String("name", "", "Location name")
		fs.String("site", "", "Site ID")
		fs.String("floor", "", "Floor")
		fs.String("room", "", "Room")
	},
	apply: func(fs *pflag.FlagSet, in *models.LocationInput) error {
		setFlag(fs, "name", &in.Name)
		setFlag(fs, "site", &in.SiteID)
		setFlag(fs, "floor", &in.Floor)
		setFlag(fs, "room", &in.Room)
		return nil
	},
	list: func(ctx context.Context, a *app, fs *pflag.FlagSet) ([]models.Location, error) {
		if site, _ := fs.GetString("site"); site != "" {
			return a.client.Locations.ListBySite(ctx, site)
		}
		return a.client.Locations.List(ctx)
	},
	listFlags: func(fs *pflag.FlagSet) {
		fs.String("site", "", "Only locations of this site ID")
	},
	view:   views.ActionView,
	modify: views.ActionModify,
}

var groupsResource = &resource[models.DeviceGroup, models.DeviceGroupInput]{
	name:     "groups",
	singular: "group",
	aliases:  []string{"group", "device-groups"},
	idName:   "GROUP_ID",
	service: func(c *api.Client) service[models.DeviceGroup, models.DeviceGroupInput] {
		return c.Groups
	},
	columns: func(context.Context, *app) ([]table.Column[models.DeviceGroup], error) {
		return views.GroupColumns(), nil
	},
	label: func(g models.DeviceGroup) string {
		return fmt.Sprintf("%s (%d devices)", g.Name, len(g.Devices))
	},
	toInput: func(g models.DeviceGroup) models.DeviceGroupInput {
		return models.DeviceGroupInput{Name: g.Name, Description: g.Description}
	},
	flags: func(fs *pflag.FlagSet) {
		fs.String("name", "", "Group name")
		fs.String("description", "", "Description")
	},
	apply: func(fs *pflag.FlagSet, in *models.DeviceGroupInput) error {
		setFlag(fs, "name", &in.Name)
		setFlag(fs, "description", &in.Description)
		return nil
	},
	view:   views.ActionView,
	modify: views.ActionModify,
}

// Credentials are addressed by the ID of the device they belong to.
var credentialsResource = &resource[models.DeviceCredential, models.DeviceCredentialInput]{
	name:     "credentials",
	singular: "credential",
	aliases:  []string{"credential", "creds"},
	idName:   "DEVICE_ID",
	service: func(c *api.Client) service[models.DeviceCredential, models.DeviceCredentialInput] {
		return c.Credentials
	},
	columns: func(ctx context.Context, a *app) ([]table.Column[models.DeviceCredential], error) {
		devices, err := deviceNames(ctx, a)
		return views.CredentialColumns(devices), err
	},
	label: func(c models.DeviceCredential) string {
		return fmt.Sprintf("%s (%s@%s)", c.Name, c.Username, c.DeviceID)
	},
	key: func(c models.DeviceCredential) string { return c.DeviceID },
	// Updates are partial, only changed fields are sent.
	toInput: func(models.DeviceCredential) models.DeviceCredentialInput {
		return models.DeviceCredentialInput{}
	},
	flags: func(fs *pflag.FlagSet) {
		fs.String("name", "", "Credential name")
		fs.String("username", "", "Login username")
		fs.String("password", "", "Login password")
		fs.String("ssh-key", "", "SSH private key")
		fs.String("device", "", "Device ID")
	},
	apply: func(fs *pflag.FlagSet, in *models.DeviceCredentialInput) error {
		setFlag(fs, "name", &in.Name)
		setFlag(fs, "username", &in.Username)
		setFlag(fs, "password", &in.Password)
		setFlag(fs, "ssh-key", &in.SSHKey)
		setFlag(fs, "device", &in.DeviceID)
		return nil
	},
	finish: func(in *models.DeviceCredentialInput, creating bool) error {
		if creating && in.DeviceID == "" {
			return errors.New("--device is required")
		}
		return nil
	},
	view:   views.ActionView,
	modify: views.ActionModify,
}

var adminsResource = &resource[models.Admin, models.AdminInput]{
	name:     "admins",
	singular: "admin",
	aliases:  []string{"admin", "users"},
	idName:   "ADMIN_ID",
	service: func(c *api.Client) service[models.Admin, models.AdminInput] {
		return c.Admins
	},
	columns: func(context.Context, *app) ([]table.Column[models.Admin], error) {
		return views.AdminColumns(), nil
	},
	label: func(a models.Admin) string {
		return fmt.Sprintf("%s (%s)", a.Username, a.Role)
	},
	// Partial update, the password is only sent when changed.
	toInput: func(models.Admin) models.AdminInput {
		return models.AdminInput{}
	},
	flags: func(fs *pflag.FlagSet) {
		fs.String("username", "", "Login name")
		fs.String("password", "", "Password (prompted on create when omitted)")
		fs.String("role", "", "Role ("+strings.Join(roleNames(), ", ")+")")
		fs.String("status", "", "Account status (active, inactive)")
	},
	apply: func(fs *pflag.FlagSet, in *models.AdminInput) error {
		setFlag(fs, "username", &in.Username)
		setFlag(fs, "password", &in.Password)
		setFlag(fs, "role", &in.Role)
		setFlag(fs, "status", &in.Status)
		if in.Role != "" && !session.Role(in.Role).Valid() {
			return fmt.Errorf("invalid role %q (must be one of %s)", in.Role, strings.Join(roleNames(), ", "))
		}
		switch in.Status {
		case "", models.AdminStatusActive, models.AdminStatusInactive:
		default:
			return fmt.Errorf("invalid status %q", in.Status)
		}
		return nil
	},
	finish: func(in *models.AdminInput, creating bool) error {
		if !creating || in.Password != "" {
			return nil
		}
		if !interactive() {
			return errors.New("--password is required")
		}
		return survey.AskOne(&survey.Password{Message: "Password for " + in.Username + ":"}, &in.Password,
			survey.WithValidator(survey.Required))
	},
	view:   views.ActionManageAdmins,
	modify: views.ActionManageAdmins,
}

func init() {
	groups := groupsResource.command()
	groups.AddCommand(groupMemberCmd(true), groupMemberCmd(false))

	rootCmd.AddCommand(
		devicesResource.command(),
		sitesResource.command(),
		locationsResource.command(),
		groups,
		credentialsResource.command(),
		adminsResource.command(),
	)
}

// groupMemberCmd builds add-device or remove-device.
func groupMemberCmd(add bool) *cobra.Command {
	use, short := "remove-device", "Remove devices from a group"
	if add {
		use, short = "add-device", "Add devices to a group"
	}
	return &cobra.Command{
		Use:   use + " GROUP_ID DEVICE_ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireAction(views.ActionModify)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			groupID := args[0]
			for _, deviceID := range args[1:] {
				if add {
					_, err = a.client.Groups.AddDevice(ctx, groupID, deviceID)
				} else {
					err = a.client.Groups.RemoveDevice(ctx, groupID, deviceID)
				}
				if err != nil {
					return a.check(fmt.Errorf("device %s: %w", deviceID, err))
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", use, deviceID)
			}

			group, err := a.client.Groups.Get(ctx, groupID)
			if err != nil {
				return a.check(err)
			}
			return showRecord(cmd.OutOrStdout(), views.GroupColumns(), group)
		},
	}
}

// siteNames and deviceNames resolve ids for display. A lookup failure other
// than a rejected session only costs the names.
func siteNames(ctx context.Context, a *app) (views.Names, error) {
	sites, err := a.client.Sites.List(ctx)
	return views.NamesOf(sites, func(s models.Site) string { return s.Name }), lookupErr("sites", err)
}

func deviceNames(ctx context.Context, a *app) (views.Names, error) {
	devices, err := a.client.Devices.List(ctx)
	return views.NamesOf(devices, func(d models.Device) string { return d.Name }), lookupErr("devices", err)
}

func lookupErr(what string, err error) error {
	if err == nil || api.IsUnauthorized(err) {
		return err
	}
	logger.Warn("Name lookup failed, showing IDs", "resource", what, "error", err)
	return nil
}

func roleNames() []string {
	var out []string
	for _, r := range session.Roles() {
		out = append(out, string(r))
	}
	return out
}
