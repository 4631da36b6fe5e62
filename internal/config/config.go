// Package config builds the immutable runtime configuration for gatewatch.
//
// Values are layered: defaults, then the YAML file, then environment
// variables, then command-line overrides. The result is validated once and
// not modified afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

// Defaults
const (
	DefaultGatewayURL     = gateway.DefaultBaseURL
	DefaultTransport      = string(gateway.ModeRPC)
	DefaultTimeoutMs      = 10000
	DefaultListenAddr     = "127.0.0.1:3000"
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 20
	DefaultSyncInterval   = 5 * time.Minute
	DefaultConfigName     = ".gatewatch.yaml"
)

// Config holds the gatewatch configuration
type Config struct {
	// GatewayURL is the gateway base URL
	GatewayURL string `yaml:"gateway_url"`

	// Token is the optional gateway bearer token
	Token string `yaml:"token,omitempty"`

	// Transport selects the wire generation: rpc, tools or ws
	Transport string `yaml:"transport"`

	// TimeoutMs is the per-call timeout in milliseconds
	TimeoutMs int `yaml:"timeout_ms"`

	// MinGatewayVersion is an optional version constraint checked during the
	// ws handshake (e.g. ">= 2026.1")
	MinGatewayVersion string `yaml:"min_gateway_version,omitempty"`

	// DBPath is the usage snapshot database
	DBPath string `yaml:"db"`

	// SyncInterval is how often `serve` snapshots sessions into DBPath
	SyncInterval time.Duration `yaml:"sync_interval"`

	// Dashboard settings
	ListenAddr     string  `yaml:"listen"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Source is the config file that was read, if any
	Source string `yaml:"-"`
}

// Overrides are command-line values; empty fields leave the config as is.
type Overrides struct {
	GatewayURL string
	Token      string
	Transport  string
	DBPath     string
	ListenAddr string
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		GatewayURL:     DefaultGatewayURL,
		Transport:      DefaultTransport,
		TimeoutMs:      DefaultTimeoutMs,
		DBPath:         defaultDBPath(),
		SyncInterval:   DefaultSyncInterval,
		ListenAddr:     DefaultListenAddr,
		RateLimitRPS:   DefaultRateLimitRPS,
		RateLimitBurst: DefaultRateLimitBurst,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gatewatch.db"
	}
	return filepath.Join(home, ".gatewatch", "usage.db")
}

// DefaultPath returns $HOME/.gatewatch.yaml, or "" when there is no home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultConfigName)
}

// Load builds the configuration. When path is empty the default file is
// used if it exists; an explicit path must exist.
func Load(path string, o Overrides) (*Config, error) {
	return load(path, o, os.LookupEnv)
}

func load(path string, o Overrides, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		err := cfg.readFile(path)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// The default file is optional.
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		default:
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.Source = path
	return nil
}

// applyEnv reads GATEWATCH_* variables; the OPENCLAW_* names are accepted
// for the gateway URL and token.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v := firstEnv(lookup, "GATEWATCH_GATEWAY_URL", "OPENCLAW_GATEWAY_URL"); v != "" {
		c.GatewayURL = v
	}
	if v := firstEnv(lookup, "GATEWATCH_GATEWAY_TOKEN", "OPENCLAW_GATEWAY_TOKEN"); v != "" {
		c.Token = v
	}
	if v := firstEnv(lookup, "GATEWATCH_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := firstEnv(lookup, "GATEWATCH_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GATEWATCH_TIMEOUT_MS: %w", err)
		}
		c.TimeoutMs = ms
	}
	if v := firstEnv(lookup, "GATEWATCH_DB"); v != "" {
		c.DBPath = v
	}
	if v := firstEnv(lookup, "GATEWATCH_LISTEN"); v != "" {
		c.ListenAddr = v
	}
	return nil
}

func (c *Config) apply(o Overrides) {
	if o.GatewayURL != "" {
		c.GatewayURL = o.GatewayURL
	}
	if o.Token != "" {
		c.Token = o.Token
	}
	if o.Transport != "" {
		c.Transport = o.Transport
	}
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
	if o.ListenAddr != "" {
		c.ListenAddr = o.ListenAddr
	}
}

func firstEnv(lookup func(string) (string, bool), keys ...string) string {
	for _, k := range keys {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.GatewayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidGatewayURL, c.GatewayURL)
	}
	if _, err := gateway.ParseMode(c.Transport); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTransport, c.Transport)
	}
	if c.TimeoutMs <= 0 {
		return ErrInvalidTimeout
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// Mode returns the validated transport mode.
func (c *Config) Mode() gateway.Mode {
	m, _ := gateway.ParseMode(c.Transport)
	return m
}

// Timeout returns the per-call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// GatewayConfig converts the configuration into a gateway client config.
func (c *Config) GatewayConfig(clientVersion string, debug func(format string, args ...any)) gateway.Config {
	return gateway.Config{
		BaseURL:          c.GatewayURL,
		Token:            c.Token,
		Mode:             c.Mode(),
		Timeout:          c.Timeout(),
		ClientVersion:    clientVersion,
		MinServerVersion: c.MinGatewayVersion,
		DebugFunc:        debug,
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Token != "" {
		out.Token = "********"
	}
	return out
}
