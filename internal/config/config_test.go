package config_test

import (
	"errors"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/dantte-lp/goradius/internal/config"
)

// writeConfig creates a YAML config file.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "goradius.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen.AuthPort != 1812 {
		t.Errorf("auth port = %d, want 1812", cfg.Listen.AuthPort)
	}
	if cfg.Listen.AcctPort != 1813 {
		t.Errorf("acct port = %d, want 1813", cfg.Listen.AcctPort)
	}
	if cfg.Admin.Addr != ":9812" {
		t.Errorf("admin addr = %q", cfg.Admin.Addr)
	}
	if cfg.Admin.MetricsPath != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Admin.MetricsPath)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if !cfg.Dictionary.Builtin {
		t.Error("builtin dictionary disabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
listen:
  addr: 127.0.0.1
  auth_port: 11812
  acct_port: 0
admin:
  addr: ":19812"
log:
  level: debug
  format: text
users_file: /etc/goradius/users
clients:
  - network: 10.0.0.0/24
    secret: xyzzy5461
  - network: 192.0.2.7
    secret: other
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen.Addr != "127.0.0.1" || cfg.Listen.AuthPort != 11812 {
		t.Errorf("listen = %+v", cfg.Listen)
	}
	if cfg.Listen.AcctPort != 0 {
		t.Errorf("acct port = %d, want 0 (disabled)", cfg.Listen.AcctPort)
	}
	if cfg.Admin.MetricsPath != "/metrics" {
		t.Errorf("metrics path default lost: %q", cfg.Admin.MetricsPath)
	}
	if cfg.UsersFile != "/etc/goradius/users" {
		t.Errorf("users file = %q", cfg.UsersFile)
	}
	if len(cfg.Clients) != 2 {
		t.Fatalf("clients = %d, want 2", len(cfg.Clients))
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:    "empty admin addr",
			mutate:  func(c *config.Config) { c.Admin.Addr = "" },
			wantErr: config.ErrEmptyAdminAddr,
		},
		{
			name:    "zero auth port",
			mutate:  func(c *config.Config) { c.Listen.AuthPort = 0 },
			wantErr: config.ErrZeroAuthPort,
		},
		{
			name:    "bad listen addr",
			mutate:  func(c *config.Config) { c.Listen.Addr = "not-an-address" },
			wantErr: config.ErrInvalidListenAddr,
		},
		{
			name: "client without secret",
			mutate: func(c *config.Config) {
				c.Clients = []config.ClientConfig{{Network: "10.0.0.1"}}
			},
			wantErr: config.ErrClientNoSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			if err := config.Validate(cfg); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate: %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientTable(t *testing.T) {
	t.Parallel()

	table, err := config.BuildClientTable([]config.ClientConfig{
		{Network: "10.0.0.0/8", Secret: "wide"},
		{Network: "10.1.0.0/16", Secret: "narrow"},
		{Network: "192.0.2.7", Secret: "host"},
	})
	if err != nil {
		t.Fatalf("BuildClientTable: %v", err)
	}

	tests := []struct {
		addr string
		want string
	}{
		{"10.2.3.4", "wide"},
		{"10.1.3.4", "narrow"}, // longest prefix wins
		{"192.0.2.7", "host"},
		{"203.0.113.9", ""},
	}

	for _, tt := range tests {
		got := table.Secret(netip.MustParseAddr(tt.addr))
		if tt.want == "" {
			if got != nil {
				t.Errorf("Secret(%s) = %q, want nil", tt.addr, got)
			}
			continue
		}
		if string(got) != tt.want {
			t.Errorf("Secret(%s) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := config.ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
