// Package config loads engine configuration.
//
// Values are layered in priority order:
//  1. Defaults
//  2. Config file (.toml, .yaml or .yml), if one is given or named by TODO_CONFIG
//  3. Environment variables (TODO_*)
//  4. Command-line flags, applied by the caller before Validate
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/JamesPrial/todo-engine/internal/logging"
	"github.com/JamesPrial/todo-engine/internal/scheduler"
	"github.com/JamesPrial/todo-engine/internal/storage"
)

// Default values.
const (
	DefaultDataDir  = "~/.todo-engine"
	DefaultHTTPAddr = "127.0.0.1:8080"
)

// Config holds the full configuration for the engine and its front ends.
type Config struct {
	// DataDir holds the JSON and SQLite state files.
	DataDir string `toml:"data_dir" yaml:"data_dir"`

	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `toml:"scheduler" yaml:"scheduler"`
	Reminder  ReminderConfig  `toml:"reminder" yaml:"reminder"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	HTTP      HTTPConfig      `toml:"http" yaml:"http"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend     string `toml:"backend" yaml:"backend"`
	JSONPath    string `toml:"json_path" yaml:"json_path"`
	SQLitePath  string `toml:"sqlite_path" yaml:"sqlite_path"`
	PostgresURL string `toml:"postgres_url" yaml:"postgres_url"`
}

// SchedulerConfig controls the promotion loop.
type SchedulerConfig struct {
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
}

// ReminderConfig controls the periodic reminder loop. Whether reminders are
// on is engine state, not configuration.
type ReminderConfig struct {
	Interval Duration `toml:"interval" yaml:"interval"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// HTTPConfig controls the HTTP API listener.
type HTTPConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Storage: StorageConfig{Backend: storage.BackendJSON},
		Scheduler: SchedulerConfig{
			PollInterval: Duration(scheduler.DefaultPollInterval),
		},
		Reminder: ReminderConfig{
			Interval: Duration(scheduler.DefaultReminderInterval),
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		HTTP: HTTPConfig{Addr: DefaultHTTPAddr},
	}
}

// Load builds a Config from defaults, the config file at path and the
// environment. An empty path falls back to TODO_CONFIG; if that is unset too
// no file is read. getenv defaults to os.Getenv.
//
// Load does not call Validate so that callers can apply flags first.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfig)
	}
	if path != "" {
		if err := LoadFile(cfg, ExpandPath(path)); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.DataDir = ExpandPath(cfg.DataDir)
	return cfg, nil
}

// LoadFile decodes the file at path over cfg. The format follows the file
// extension.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty YAML file decodes to io.EOF; treat it as no overrides.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case storage.BackendJSON, storage.BackendSQLite, storage.BackendMemory:
	case storage.BackendPostgres:
		if strings.TrimSpace(c.Storage.PostgresURL) == "" {
			return fmt.Errorf("storage.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}

	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler.poll_interval must be positive, got %s", c.Scheduler.PollInterval)
	}
	if c.Reminder.Interval <= 0 {
		return fmt.Errorf("reminder.interval must be positive, got %s", c.Reminder.Interval)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// StorageOptions maps the config onto storage.Open options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.Storage.Backend,
		DataDir:     c.DataDir,
		JSONPath:    c.Storage.JSONPath,
		SQLitePath:  c.Storage.SQLitePath,
		PostgresURL: c.Storage.PostgresURL,
	}
}

// LogOptions maps the config onto logging options with the given prefix.
func (c *Config) LogOptions(prefix string) logging.Options {
	opts := logging.DefaultOptions()
	opts.Level = c.Log.Level
	opts.Format = c.Log.Format
	opts.Prefix = prefix
	return opts
}

// PollInterval returns the scheduler poll interval.
func (c *Config) PollInterval() time.Duration { return time.Duration(c.Scheduler.PollInterval) }

// ReminderInterval returns the reminder interval.
func (c *Config) ReminderInterval() time.Duration { return time.Duration(c.Reminder.Interval) }

// ExpandPath expands environment variables and a leading ~ in p.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") ||
		(runtime.GOOS == "windows" && strings.HasPrefix(expanded, "~\\")) {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		if expanded == "~" {
			return home
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}
