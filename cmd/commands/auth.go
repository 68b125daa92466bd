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
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phuonguno98/netbackup/internal/config"
	"github.com/phuonguno98/netbackup/internal/views"
)

var (
	// Login command specific flags
	loginUsername string
	loginPassword string
	loginNoSave   bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backup management API",
	Long: `Log in with an administrator account. The session is stored in the session
file and used by every other command until it expires or 'netbackup logout'.

Missing username or password are prompted for when running in a terminal.

Examples:
  # Prompt for credentials
  netbackup login --url http://backup.example.com:8000

  # Non-interactive
  netbackup login -u operator -p "$PASSWORD"`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := connect()
		if err != nil {
			return err
		}
		if !a.session.IsAuthenticated() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Not logged in")
			return nil
		}
		user := a.session.Current().Username
		a.session.Logout(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", user)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account and what it may do",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (visible in the process list, prefer the prompt)")
	loginCmd.Flags().BoolVar(&loginNoSave, "no-save", false, "Do not remember --url in the config file")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if err := promptCredentials(); err != nil {
		return err
	}

	a, err := connect()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sess, err := a.session.Login(ctx, loginUsername, loginPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s (%s)\n",
		a.client.BaseURL(), sess.Username, views.ChipLabel(string(sess.Role)))

	if !loginNoSave && rootCmd.PersistentFlags().Changed("url") {
		v.Set(config.KeyAPIURL, cfg.APIURL)
		path, err := config.Save(v)
		if err != nil {
			logger.Warn("Failed to remember API URL", "error", err)
			return nil
		}
		logger.Debug("Saved API URL", "path", path)
	}
	return nil
}

func promptCredentials() error {
	var qs []*survey.Question
	if strings.TrimSpace(loginUsername) == "" {
		qs = append(qs, &survey.Question{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Username:"},
			Validate: survey.Required,
		})
	}
	if loginPassword == "" {
		qs = append(qs, &survey.Question{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password:"},
			Validate: survey.Required,
		})
	}
	if len(qs) == 0 {
		return nil
	}
	if !interactive() {
		return errors.New("username and password are required")
	}

	answers := struct {
		Username string
		Password string
	}{Username: loginUsername, Password: loginPassword}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	loginUsername, loginPassword = answers.Username, answers.Password
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := connect()
	if err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return views.ErrNotLoggedIn
	}
	sess := a.session.Current()

	allowed := make(map[views.Action]bool, len(views.Actions))
	for _, action := range views.Actions {
		allowed[action] = views.RequireRole(a.session, action) == nil
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		perms := make(map[string]bool, len(allowed))
		for action, ok := range allowed {
			perms[string(action)] = ok
		}
		return printJSON(out, map[string]any{
			"url":         a.client.BaseURL(),
			"username":    sess.Username,
			"role":        sess.Role,
			"permissions": perms,
		})
	}

	fmt.Fprintf(out, "URL       %s\n", a.client.BaseURL())
	fmt.Fprintf(out, "Username  %s\n", sess.Username)
	fmt.Fprintf(out, "Role      %s\n\n", views.Chip(string(sess.Role)))
	for _, action := range views.Actions {
		mark := color.RedString("%-4s", "no")
		if allowed[action] {
			mark = color.GreenString("%-4s", "yes")
		}
		fmt.Fprintf(out, "  %-14s %s (needs %s)\n", action, mark, views.ChipLabel(string(views.RequiredRole(action))))
	}
	return nil
}
