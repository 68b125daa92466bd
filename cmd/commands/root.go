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

// Package commands implements the netbackup command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phuonguno98/netbackup/internal/config"
	"github.com/phuonguno98/netbackup/internal/views"
)

var (
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger

	// Global persistent flags (shared by subcommands)
	cfgFile    string
	outputJSON bool
)

// persistentKeys binds global flags to configuration keys.
var persistentKeys = map[string]string{
	"url":          config.KeyAPIURL,
	"session-file": config.KeySessionFile,
	"timeout":      config.KeyTimeout,
	"log-level":    config.KeyLogLevel,
	"log-file":     config.KeyLogFile,
	"timezone":     config.KeyTimezone,
	"no-color":     config.KeyNoColor,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "netbackup",
	Short: "netbackup - console for the network device backup system",
	Long: `netbackup manages the devices, sites, locations, device groups, credentials
and administrators of a network configuration backup server, and shows its
dashboard and backup history.

Use 'netbackup login' to start a session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = initRuntime

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"Config file (default is $HOME/.config/netbackup/console.yaml)")
	pf.String("url", config.DefaultAPIURL, "Backup management API URL")
	pf.String("session-file", "", "Session file (default is $HOME/.config/netbackup/session.json)")
	pf.Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	pf.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Log file path (empty = stderr)")
	pf.String("timezone", config.DefaultTimezone,
		"Timezone for timestamps (e.g., 'Asia/Ho_Chi_Minh', 'Local')")
	pf.Bool("no-color", false, "Disable coloured output")
	pf.BoolVar(&outputJSON, "json", false, "Output in JSON format")
}

// initRuntime loads configuration and sets up logging and display for
// every command.
func initRuntime(cmd *cobra.Command, _ []string) error {
	var err error
	v, err = config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	for flag, key := range persistentKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	if bind, ok := flagBindings[cmd]; ok {
		for flag, key := range bind {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	logger = InitLogger(cfg.LogLevel, cfg.LogFile)
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "config", cfg.String(), "file", v.ConfigFileUsed())

	if err := views.SetTimezone(cfg.Timezone); err != nil {
		return err
	}
	views.EnableColor(!cfg.NoColor && views.ColorSupported(os.Stdout))
	return nil
}

// flagBindings holds per-command flags that map onto configuration keys.
var flagBindings = map[*cobra.Command]map[string]string{}

// InitLogger initializes and returns a slog.Logger based on the provided settings.
// It is shared by all commands to ensure consistent logging format.
func InitLogger(levelStr, fileStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if fileStr != "" {
		f, err := os.OpenFile(fileStr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		// stdout carries command output
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
