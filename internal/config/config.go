// Package config loads orgtree settings from a YAML file with environment
// overrides. Command-line flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the full set of settings.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Client ClientConfig `yaml:"client"`
	TUI    TUIConfig    `yaml:"tui"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the hierarchy store HTTP API.
type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	// Seed fills an empty store with the sample org chart on start.
	Seed *bool `yaml:"seed"`
}

// ClientConfig configures how the CLI and TUI reach the store API.
type ClientConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

type TUIConfig struct {
	// Glyphs selects the tree glyph set ("unicode" or "ascii").
	Glyphs string `yaml:"glyphs"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs from interactive commands. Empty disables them there.
	File string `yaml:"file"`
}

const (
	defaultListenAddr      = "127.0.0.1:8000"
	defaultBaseURL         = "http://127.0.0.1:8000/api"
	defaultClientTimeout   = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Dir returns the directory holding the config file and the default SQLite
// database. ORGTREE_CONFIG_DIR overrides it.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("ORGTREE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".orgtree"), nil
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the settings used when no file exists.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	seed := true
	return &Config{
		Server: ServerConfig{ListenAddr: defaultListenAddr},
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(dir, "employee_hierarchy.db"),
			Seed:       &seed,
		},
		Client: ClientConfig{BaseURL: defaultBaseURL},
		TUI:    TUIConfig{Glyphs: "unicode"},
		Log:    LogConfig{Level: "info"},
	}, nil
}

// Load reads the config at path on top of the defaults, then applies
// environment overrides. With an empty path the default location is used and
// a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Server.ListenAddr, "ORGTREE_LISTEN_ADDR")
	set(&c.Store.Driver, "ORGTREE_STORE_DRIVER")
	set(&c.Store.SQLitePath, "ORGTREE_SQLITE_PATH")
	set(&c.Store.PostgresDSN, "ORGTREE_POSTGRES_DSN")
	set(&c.Client.BaseURL, "ORGTREE_API")
	set(&c.Client.TimeoutRaw, "ORGTREE_CLIENT_TIMEOUT")
	set(&c.TUI.Glyphs, "ORGTREE_GLYPHS")
	set(&c.Log.Level, "ORGTREE_LOG_LEVEL")
	set(&c.Log.File, "ORGTREE_LOG_FILE")
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	d, err := parseDurationOr(c.Server.ShutdownTimeoutRaw, defaultShutdownTimeout)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	c.Server.ShutdownTimeout = d

	if err := c.Store.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Client.validateAndNormalize(); err != nil {
		return err
	}

	c.TUI.Glyphs = strings.ToLower(strings.TrimSpace(c.TUI.Glyphs))
	switch c.TUI.Glyphs {
	case "":
		c.TUI.Glyphs = "unicode"
	case "unicode", "ascii":
	default:
		return fmt.Errorf("config: tui.glyphs must be unicode or ascii, got %q", c.TUI.Glyphs)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

func (s *StoreConfig) validateAndNormalize() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case "", "sqlite":
		s.Driver = "sqlite"
		if s.SQLitePath == "" {
			return fmt.Errorf("config: store.sqlite_path must be set")
		}
	case "postgres":
		if s.PostgresDSN == "" {
			return fmt.Errorf("config: store.postgres_dsn must be set when store.driver is postgres")
		}
	default:
		return fmt.Errorf("config: store.driver must be sqlite or postgres, got %q", s.Driver)
	}
	if s.Seed == nil {
		seed := true
		s.Seed = &seed
	}
	return nil
}

func (c *ClientConfig) validateAndNormalize() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("config: client.base_url must be set")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: client.base_url must be an http(s) url, got %q", c.BaseURL)
	}
	d, err := parseDurationOr(c.TimeoutRaw, defaultClientTimeout)
	if err != nil {
		return fmt.Errorf("config: client.timeout: %w", err)
	}
	c.Timeout = d
	return nil
}

// SeedEnabled reports whether an empty store should be seeded.
func (s StoreConfig) SeedEnabled() bool { return s.Seed == nil || *s.Seed }

func parseDurationOr(raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}
