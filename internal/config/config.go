// Package config manages goradius daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete goradius configuration.
type Config struct {
	Listen     ListenConfig     `koanf:"listen"`
	Admin      AdminConfig      `koanf:"admin"`
	Log        LogConfig        `koanf:"log"`
	Dictionary DictionaryConfig `koanf:"dictionary"`
	UsersFile  string           `koanf:"users_file"`
	Clients    []ClientConfig   `koanf:"clients"`
}

// ListenConfig holds the UDP listener configuration.
type ListenConfig struct {
	// Addr is the local IP address to bind to. Empty means all.
	Addr string `koanf:"addr"`

	// AuthPort is the authentication port (RFC 2865: 1812).
	AuthPort uint16 `koanf:"auth_port"`

	// AcctPort is the accounting port (RFC 2866: 1813).
	// Zero disables the accounting listener.
	AcctPort uint16 `koanf:"acct_port"`
}

// AdminConfig holds the admin HTTP endpoint configuration: Prometheus
// metrics, health, and the decode API.
type AdminConfig struct {
	// Addr is the HTTP listen address (e.g., ":9812").
	Addr string `koanf:"addr"`

	// MetricsPath is the URL path for the metrics endpoint.
	MetricsPath string `koanf:"metrics_path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`

	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// DictionaryConfig holds the attribute dictionary sources.
type DictionaryConfig struct {
	// Builtin enables the compiled-in RFC base dictionary.
	Builtin bool `koanf:"builtin"`

	// Files are extra dictionary text files, loaded in order on top of
	// the builtin set.
	Files []string `koanf:"files"`
}

// ClientConfig maps a client network to its shared secret.
type ClientConfig struct {
	// Network is the client address or CIDR prefix (e.g., "10.0.0.0/24").
	Network string `koanf:"network"`

	// Secret is the RADIUS shared secret for the network.
	Secret string `koanf:"secret"`
}

// Prefix parses the Network string, accepting a bare address as a
// single-host prefix.
func (cc ClientConfig) Prefix() (netip.Prefix, error) {
	if strings.Contains(cc.Network, "/") {
		p, err := netip.ParsePrefix(cc.Network)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("parse client network %q: %w", cc.Network, err)
		}
		return p, nil
	}

	addr, err := netip.ParseAddr(cc.Network)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("parse client address %q: %w", cc.Network, err)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// -------------------------------------------------------------------------
// Client Table
// -------------------------------------------------------------------------

// ClientTable resolves source addresses to shared secrets. Longest prefix
// wins when networks overlap.
type ClientTable struct {
	entries []clientEntry
}

type clientEntry struct {
	prefix netip.Prefix
	secret []byte
}

// BuildClientTable compiles the configured client list.
func BuildClientTable(clients []ClientConfig) (*ClientTable, error) {
	t := &ClientTable{entries: make([]clientEntry, 0, len(clients))}

	for i, cc := range clients {
		p, err := cc.Prefix()
		if err != nil {
			return nil, fmt.Errorf("clients[%d]: %w", i, err)
		}
		t.entries = append(t.entries, clientEntry{prefix: p, secret: []byte(cc.Secret)})
	}

	return t, nil
}

// Secret returns the shared secret for addr, or nil if no client network
// contains it.
func (t *ClientTable) Secret(addr netip.Addr) []byte {
	var (
		best    []byte
		bestLen = -1
	)
	for _, e := range t.entries {
		if e.prefix.Contains(addr) && e.prefix.Bits() > bestLen {
			best = e.secret
			bestLen = e.prefix.Bits()
		}
	}
	return best
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
//
// Ports follow RFC 2865 Section 3 and RFC 2866 Section 3: 1812 for
// authentication, 1813 for accounting.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			AuthPort: 1812,
			AcctPort: 1813,
		},
		Admin: AdminConfig{
			Addr:        ":9812",
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Dictionary: DictionaryConfig{
			Builtin: true,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for goradius configuration.
// Variables are named GORADIUS_<section>_<key>, e.g., GORADIUS_ADMIN_ADDR.
const envPrefix = "GORADIUS_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GORADIUS_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping (single-word keys only; multi-word keys
// like listen.auth_port are file-configurable):
//
//	GORADIUS_LISTEN_ADDR  -> listen.addr
//	GORADIUS_ADMIN_ADDR   -> admin.addr
//	GORADIUS_LOG_LEVEL    -> log.level
//	GORADIUS_LOG_FORMAT   -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults first.
	if err := loadDefaults(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	// Load YAML file on top of defaults.
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	// Load environment variable overrides on top of YAML.
	// GORADIUS_ADMIN_ADDR -> admin.addr (strip prefix, lowercase, _ -> .).
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GORADIUS_ADMIN_ADDR -> admin.addr.
// Strips the GORADIUS_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"listen.addr":        defaults.Listen.Addr,
		"listen.auth_port":   defaults.Listen.AuthPort,
		"listen.acct_port":   defaults.Listen.AcctPort,
		"admin.addr":         defaults.Admin.Addr,
		"admin.metrics_path": defaults.Admin.MetricsPath,
		"log.level":          defaults.Log.Level,
		"log.format":         defaults.Log.Format,
		"dictionary.builtin": defaults.Dictionary.Builtin,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyAdminAddr indicates the admin HTTP address is empty.
	ErrEmptyAdminAddr = errors.New("admin.addr must not be empty")

	// ErrZeroAuthPort indicates the authentication port is zero.
	ErrZeroAuthPort = errors.New("listen.auth_port must be >= 1")

	// ErrInvalidListenAddr indicates the listen address does not parse.
	ErrInvalidListenAddr = errors.New("listen.addr is invalid")

	// ErrClientNoSecret indicates a client entry without a secret.
	ErrClientNoSecret = errors.New("client secret must not be empty")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Admin.Addr == "" {
		return ErrEmptyAdminAddr
	}

	if cfg.Listen.AuthPort == 0 {
		return ErrZeroAuthPort
	}

	if cfg.Listen.Addr != "" {
		if _, err := netip.ParseAddr(cfg.Listen.Addr); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
		}
	}

	for i, cc := range cfg.Clients {
		if _, err := cc.Prefix(); err != nil {
			return fmt.Errorf("clients[%d]: %w", i, err)
		}
		if cc.Secret == "" {
			return fmt.Errorf("clients[%d] network %q: %w", i, cc.Network, ErrClientNoSecret)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
