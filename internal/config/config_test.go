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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "Single value",
			input:    "http://localhost:5173",
			expected: []string{"http://localhost:5173"},
		},
		{
			name:     "Multiple values",
			input:    "http://a,http://b",
			expected: []string{"http://a", "http://b"},
		},
		{
			name:     "Whitespace handling",
			input:    " http://a , http://b ",
			expected: []string{"http://a", "http://b"},
		},
		{
			name:     "Empty parts",
			input:    "http://a,,http://b",
			expected: []string{"http://a", "http://b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCommaSeparated(tt.input))
		})
	}
}

func validConfig() Config {
	return Config{
		APIURL:      DefaultAPIURL,
		SessionFile: "/tmp/session.json",
		Timeout:     DefaultTimeout,
		PageSize:    DefaultPageSize,
		LogLevel:    "info",
		DevTokenTTL: DefaultDevTokenTTL,
	}
}

func TestConfig_Validate(t *testing.T) {
	tempDir := t.TempDir()
	seed := filepath.Join(tempDir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("sites: []\n"), 0o600))

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "Valid Config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "Invalid URL Scheme",
			mutate:  func(c *Config) { c.APIURL = "ftp://backup.local" },
			wantErr: true,
		},
		{
			name:    "URL Without Host",
			mutate:  func(c *Config) { c.APIURL = "http://" },
			wantErr: true,
		},
		{
			name:    "Empty Session File",
			mutate:  func(c *Config) { c.SessionFile = "" },
			wantErr: true,
		},
		{
			name:    "Invalid Timeout (Too small)",
			mutate:  func(c *Config) { c.Timeout = 500 * time.Millisecond },
			wantErr: true,
		},
		{
			name:    "Invalid Timeout (Too large)",
			mutate:  func(c *Config) { c.Timeout = 10 * time.Minute },
			wantErr: true,
		},
		{
			name:    "Invalid Page Size",
			mutate:  func(c *Config) { c.PageSize = 20 },
			wantErr: true,
		},
		{
			name:    "Page Size 100",
			mutate:  func(c *Config) { c.PageSize = 100 },
			wantErr: false,
		},
		{
			name:    "Invalid Log Level",
			mutate:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
		{
			name:    "Valid Timezone",
			mutate:  func(c *Config) { c.Timezone = "UTC" },
			wantErr: false,
		},
		{
			name:    "Invalid Timezone",
			mutate:  func(c *Config) { c.Timezone = "Invalid/Timezone" },
			wantErr: true,
		},
		{
			name:    "Short Token TTL",
			mutate:  func(c *Config) { c.DevTokenTTL = 10 * time.Second },
			wantErr: true,
		},
		{
			name:    "Existing Seed File",
			mutate:  func(c *Config) { c.DevSeedFile = seed },
			wantErr: false,
		},
		{
			name:    "Missing Seed File",
			mutate:  func(c *Config) { c.DevSeedFile = filepath.Join(tempDir, "nope.yaml") },
			wantErr: true,
		},
		{
			name:    "Seed Is Directory",
			mutate:  func(c *Config) { c.DevSeedFile = tempDir },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultSessionFile(t *testing.T) {
	path := DefaultSessionFile()
	require.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, "session.json"), path)
}

func TestLoad_Defaults(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit missing file")

	t.Setenv("HOME", t.TempDir())
	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultDevTokenTTL, cfg.DevTokenTTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	content := `url: https://backup.example.com/
page_size: 25
timeout: 10s
log_level: DEBUG
devserver:
  token_ttl: 5m
  allowed_origins:
    - http://localhost:5173
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("NETBACKUP_PAGE_SIZE", "50")
	t.Setenv("NETBACKUP_DEVSERVER_ADDR", ":9000")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://backup.example.com", cfg.APIURL, "trailing slash trimmed")
	assert.Equal(t, 50, cfg.PageSize, "env override")
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.DevAddr)
	assert.Equal(t, 5*time.Minute, cfg.DevTokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.DevAllowedOrigins)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NETBACKUP_PAGE_SIZE", "7")
	v, err := NewViper("")
	require.NoError(t, err)
	_, err = Load(v)
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: http://old:8000\n"), 0o600))
	v, err := NewViper(path)
	require.NoError(t, err)
	v.Set(KeyAPIURL, "http://new:8000")

	saved, err := Save(v)
	require.NoError(t, err)
	assert.Equal(t, path, saved)

	reloaded, err := NewViper(path)
	require.NoError(t, err)
	assert.Equal(t, "http://new:8000", reloaded.GetString(KeyAPIURL))
}
