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

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/phuonguno98/netbackup/internal/table"
)

// Config represents console configuration.
type Config struct {
	APIURL      string        // Root URL of the backup management API
	SessionFile string        // Where the login session is persisted
	Timeout     time.Duration // Per-request HTTP timeout
	PageSize    int           // Default rows per page for list commands

	// Logging
	LogLevel string // Log level: debug, info, warn, error
	LogFile  string // Log file path (empty = stderr)

	// Display
	Timezone string // Timezone for timestamps (e.g., "Asia/Ho_Chi_Minh", "Local")
	NoColor  bool   // Disable coloured status chips

	// Development server
	DevAddr           string        // Listen address of `netbackup devserver`
	DevSeedFile       string        // YAML fixtures loaded at startup (empty = built-in)
	DevSecret         string        // HS256 signing key (empty = random per run)
	DevTokenTTL       time.Duration // Lifetime of issued access tokens
	DevAllowedOrigins []string      // CORS origins (empty = *)
}

// Configuration keys, shared by config files, NETBACKUP_* environment
// variables and bound flags.
const (
	KeyAPIURL            = "url"
	KeySessionFile       = "session_file"
	KeyTimeout           = "timeout"
	KeyPageSize          = "page_size"
	KeyLogLevel          = "log_level"
	KeyLogFile           = "log_file"
	KeyTimezone          = "timezone"
	KeyNoColor           = "no_color"
	KeyDevAddr           = "devserver.addr"
	KeyDevSeedFile       = "devserver.seed"
	KeyDevSecret         = "devserver.secret"
	KeyDevTokenTTL       = "devserver.token_ttl"
	KeyDevAllowedOrigins = "devserver.allowed_origins"
)

// Default configuration values.
const (
	DefaultAPIURL      = "http://localhost:8000"
	DefaultTimeout     = 30 * time.Second
	DefaultPageSize    = 10
	DefaultLogLevel    = "info"
	DefaultTimezone    = "Local"
	DefaultDevAddr     = "127.0.0.1:8000"
	DefaultDevTokenTTL = 30 * time.Minute

	EnvPrefix  = "NETBACKUP"
	ConfigName = "console"
)

// DefaultDir returns $HOME/.config/netbackup, falling back to the
// working directory when no home is available.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config", "netbackup")
}

// DefaultSessionFile returns the default session file path.
func DefaultSessionFile() string {
	return filepath.Join(DefaultDir(), "session.json")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeySessionFile, DefaultSessionFile())
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyPageSize, DefaultPageSize)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTimezone, DefaultTimezone)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyDevAddr, DefaultDevAddr)
	v.SetDefault(KeyDevSeedFile, "")
	v.SetDefault(KeyDevSecret, "")
	v.SetDefault(KeyDevTokenTTL, DefaultDevTokenTTL)
	v.SetDefault(KeyDevAllowedOrigins, []string{})
}

// NewViper creates a viper instance reading cfgFile, or console.yaml from
// DefaultDir and the working directory when cfgFile is empty. A missing
// default config file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load builds and validates a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIURL:            strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		SessionFile:       v.GetString(KeySessionFile),
		Timeout:           v.GetDuration(KeyTimeout),
		PageSize:          v.GetInt(KeyPageSize),
		LogLevel:          strings.ToLower(v.GetString(KeyLogLevel)),
		LogFile:           v.GetString(KeyLogFile),
		Timezone:          v.GetString(KeyTimezone),
		NoColor:           v.GetBool(KeyNoColor),
		DevAddr:           v.GetString(KeyDevAddr),
		DevSeedFile:       v.GetString(KeyDevSeedFile),
		DevSecret:         v.GetString(KeyDevSecret),
		DevTokenTTL:       v.GetDuration(KeyDevTokenTTL),
		DevAllowedOrigins: originList(v.GetStringSlice(KeyDevAllowedOrigins)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the persistent settings of v to its config file, or to
// console.yaml in DefaultDir when none was read.
func Save(v *viper.Viper) (string, error) {
	path := v.ConfigFileUsed()
	if path == "" {
		path = filepath.Join(DefaultDir(), ConfigName+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}

// originList accepts either a real list or a single comma-separated value
// as produced by an environment variable.
func originList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, parseCommaSeparated(v)...)
	}
	return out
}

// parseCommaSeparated parses a comma-separated string into a slice of trimmed strings.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ParseCommaSeparated is the exported version of parseCommaSeparated.
func ParseCommaSeparated(s string) []string {
	return parseCommaSeparated(s)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL: %s (scheme must be http or https)", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL: %s (missing host)", c.APIURL)
	}

	if c.SessionFile == "" {
		return errors.New("session file cannot be empty")
	}

	if c.Timeout < 1*time.Second {
		return errors.New("timeout must be at least 1 second")
	}

	if c.Timeout > 5*time.Minute {
		return errors.New("timeout must not exceed 5 minutes")
	}

	if !slices.Contains(table.PageSizes, c.PageSize) {
		return fmt.Errorf("invalid page size: %d (must be one of %v)", c.PageSize, table.PageSizes)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	// Validate Timezone
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %s (%w)", c.Timezone, err)
		}
	}

	if c.DevTokenTTL < 1*time.Minute {
		return errors.New("devserver token TTL must be at least 1 minute")
	}

	if c.DevSeedFile != "" {
		if err := ensureFile(c.DevSeedFile); err != nil {
			return fmt.Errorf("devserver seed check failed: %w", err)
		}
	}

	return nil
}

// ensureFile checks that path exists and is a regular file.
func ensureFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{URL=%s, SessionFile=%s, Timeout=%v, PageSize=%d, Timezone=%s}",
		c.APIURL, c.SessionFile, c.Timeout, c.PageSize, c.Timezone)
}
