// Package config loads and validates the CyberTask TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that unmarshals from TOML strings like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Database Database `toml:"database"`
	Server   Server   `toml:"server"`
	Log      Log      `toml:"log"`
}

type Database struct {
	Path string `toml:"path"`
}

type Server struct {
	Bind            string   `toml:"bind"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// UseCases enables one log line per service call.
	UseCases bool `toml:"use_cases"`
}

const (
	DefaultPath = "~/.cybertask/config.toml"
	defaultDB   = "~/.cybertask/cybertask.db"
	defaultBind = "127.0.0.1:8080"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the TOML file at path, applies defaults and environment
// overrides, then validates. A missing file is not an error when optional
// is set; the defaults are used instead.
func Load(path string, optional bool) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(ExpandHome(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDB
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = defaultBind
	}
	if cfg.Server.ShutdownTimeout.Duration == 0 {
		cfg.Server.ShutdownTimeout.Duration = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// applyEnv lets the environment win over the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CYBERTASK_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CYBERTASK_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("CYBERTASK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func validate(cfg *Config) error {
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", cfg.Log.Format)
	}
	if cfg.Server.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if !strings.Contains(cfg.Server.Bind, ":") {
		return fmt.Errorf("server.bind %q must be host:port", cfg.Server.Bind)
	}
	return nil
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return 0, fmt.Errorf("log.level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

// NewLogger builds the slog logger described by the [log] section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
