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
	"fmt"
	"net"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/phuonguno98/netbackup/internal/config"
	"github.com/phuonguno98/netbackup/internal/devserver"
	"github.com/phuonguno98/netbackup/pkg/version"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local backup management API for development",
	Long: `Run an in-memory implementation of the backup management API, seeded with
fixture data. Every console command works against it, which makes it useful
for trying the console and for integration tests.

Seeded accounts (username/password):
  superadmin/superadmin  super_admin
  operator/operator      admin
  viewer/viewer          read_only

Prometheus metrics are served at /metrics.

Examples:
  # Start on the default address
  netbackup devserver

  # Own fixtures and a stable signing key
  netbackup devserver --addr :9000 --seed fixtures.yaml --secret change-me`,
	Args: cobra.NoArgs,
	RunE: runDevserver,
}

func init() {
	rootCmd.AddCommand(devserverCmd)
	fs := devserverCmd.Flags()
	fs.String("addr", config.DefaultDevAddr, "HTTP listen address")
	fs.String("seed", "", "YAML fixture file (default: built-in fixtures)")
	fs.String("secret", "", "Token signing secret (default: random per run)")
	fs.Duration("token-ttl", config.DefaultDevTokenTTL, "Access token lifetime")
	fs.StringSlice("allowed-origins", nil, "CORS origins allowed to call the API (default: any)")

	flagBindings[devserverCmd] = map[string]string{
		"addr":            config.KeyDevAddr,
		"seed":            config.KeyDevSeedFile,
		"secret":          config.KeyDevSecret,
		"token-ttl":       config.KeyDevTokenTTL,
		"allowed-origins": config.KeyDevAllowedOrigins,
	}
}

func runDevserver(cmd *cobra.Command, _ []string) error {
	logger.Info("Starting development API",
		"version", version.Info(),
		"addr", cfg.DevAddr,
	)

	seed, err := devserver.LoadSeed(cfg.DevSeedFile)
	if err != nil {
		return err
	}
	clock := clockwork.NewRealClock()
	store := devserver.NewStore(clock, logger)
	if err := seed.Apply(store); err != nil {
		return fmt.Errorf("failed to load fixtures: %w", err)
	}

	server, err := devserver.NewServer(store, devserver.Options{
		Secret:         []byte(cfg.DevSecret),
		TokenTTL:       cfg.DevTokenTTL,
		AllowedOrigins: cfg.DevAllowedOrigins,
		Clock:          clock,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	serverURL := localURL(cfg.DevAddr)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nDevelopment API is running!\n")
	fmt.Fprintf(out, "URL: %s\n", serverURL)
	fmt.Fprintf(out, "Log in with: netbackup login --url %s\n\n", serverURL)

	return server.ListenAndServe(ctx, cfg.DevAddr)
}

// localURL turns a listen address into a URL a local client can reach.
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}
