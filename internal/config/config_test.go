package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JamesPrial/todo-engine/internal/config"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func Test_Default(t *testing.T) {
	t.Parallel()
	cfg := config.Default()

	if cfg.Storage.Backend != "json" {
		t.Errorf("Storage.Backend = %q, want json", cfg.Storage.Backend)
	}
	if cfg.PollInterval() != 60*time.Second {
		t.Errorf("PollInterval() = %s, want 60s", cfg.PollInterval())
	}
	if cfg.ReminderInterval() != 30*time.Minute {
		t.Errorf("ReminderInterval() = %s, want 30m", cfg.ReminderInterval())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func Test_Load_NoFileNoEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := config.Load("", envMap(nil))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".todo-engine"); cfg.DataDir != want {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, want)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func Test_Load_TOML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "todo.toml", `
data_dir = "/var/lib/todo"

[storage]
backend = "sqlite"
sqlite_path = "engine.db"

[scheduler]
poll_interval = "15s"

[reminder]
interval = "45m"

[log]
level = "debug"
format = "json"
`)

	cfg, err := config.Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.DataDir != "/var/lib/todo" || cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath != "engine.db" {
		t.Errorf("storage settings not applied: %+v", cfg)
	}
	if cfg.PollInterval() != 15*time.Second || cfg.ReminderInterval() != 45*time.Minute {
		t.Errorf("intervals = %s / %s", cfg.PollInterval(), cfg.ReminderInterval())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.HTTP.Addr != config.DefaultHTTPAddr {
		t.Errorf("unset HTTP.Addr should keep its default, got %q", cfg.HTTP.Addr)
	}
}

func Test_Load_YAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "todo.yaml", `
storage:
  backend: postgres
  postgres_url: postgres://u:p@localhost/todo
reminder:
  interval: 10m
http:
  addr: ":9090"
`)

	cfg, err := config.Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "postgres" || cfg.Storage.PostgresURL == "" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.ReminderInterval() != 10*time.Minute {
		t.Errorf("ReminderInterval() = %s", cfg.ReminderInterval())
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func Test_Load_EmptyYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "todo.yml", "")
	if _, err := config.Load(path, envMap(nil)); err != nil {
		t.Fatalf("Load() of empty YAML unexpected error: %v", err)
	}
}

func Test_Load_FileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown toml key", "todo.toml", "colour = \"blue\"\n"},
		{"bad toml duration", "todo.toml", "[scheduler]\npoll_interval = \"soon\"\n"},
		{"unknown yaml key", "todo.yaml", "colour: blue\n"},
		{"bad yaml duration", "todo.yaml", "reminder:\n  interval: often\n"},
		{"unsupported extension", "todo.ini", "x=1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, tt.file, tt.content)
			if _, err := config.Load(path, envMap(nil)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func Test_Load_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"), envMap(nil)); err == nil {
		t.Error("Load() of a missing explicit file should fail")
	}
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

func Test_Load_EnvOverridesFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "todo.toml", "[storage]\nbackend = \"sqlite\"\n")

	cfg, err := config.Load(path, envMap(map[string]string{
		config.EnvStorageBackend:   "memory",
		config.EnvDataDir:          "/tmp/todo-data",
		config.EnvJSONPath:         "state.json",
		config.EnvPollInterval:     "5s",
		config.EnvReminderInterval: "1h",
		config.EnvLogLevel:         "warn",
		config.EnvHTTPAddr:         ":1234",
	}))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("env should win over file, Backend = %q", cfg.Storage.Backend)
	}
	if cfg.DataDir != "/tmp/todo-data" || cfg.Storage.JSONPath != "state.json" {
		t.Errorf("paths = %q, %q", cfg.DataDir, cfg.Storage.JSONPath)
	}
	if cfg.PollInterval() != 5*time.Second || cfg.ReminderInterval() != time.Hour {
		t.Errorf("intervals = %s / %s", cfg.PollInterval(), cfg.ReminderInterval())
	}
	if cfg.Log.Level != "warn" || cfg.HTTP.Addr != ":1234" {
		t.Errorf("Log.Level = %q, HTTP.Addr = %q", cfg.Log.Level, cfg.HTTP.Addr)
	}
}

func Test_Load_ConfigPathFromEnv(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "todo.toml", "[log]\nlevel = \"error\"\n")

	cfg, err := config.Load("", envMap(map[string]string{config.EnvConfig: path}))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func Test_Load_BadEnvDuration(t *testing.T) {
	t.Parallel()
	_, err := config.Load("", envMap(map[string]string{config.EnvPollInterval: "60"}))
	if err == nil || !strings.Contains(err.Error(), config.EnvPollInterval) {
		t.Errorf("Load() error = %v, want mention of %s", err, config.EnvPollInterval)
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func Test_Validate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"zero poll interval", func(c *config.Config) { c.Scheduler.PollInterval = 0 }, "poll_interval"},
		{"negative reminder interval", func(c *config.Config) { c.Reminder.Interval = config.Duration(-time.Second) }, "reminder.interval"},
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "redis" }, "unknown backend"},
		{"postgres without url", func(c *config.Config) { c.Storage.Backend = "postgres" }, "postgres_url"},
		{"uppercase backend", func(c *config.Config) { c.Storage.Backend = "SQLITE" }, ""},
		{"empty data dir", func(c *config.Config) { c.DataDir = " " }, "data_dir"},
		{"bad log level", func(c *config.Config) { c.Log.Level = "chatty" }, "log.level"},
		{"bad log format", func(c *config.Config) { c.Log.Format = "yaml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func Test_StorageOptions(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.DataDir = "/data"
	cfg.Storage = config.StorageConfig{Backend: "sqlite", SQLitePath: "x.db", JSONPath: "x.json", PostgresURL: "postgres://"}

	opts := cfg.StorageOptions()
	if opts.Backend != "sqlite" || opts.DataDir != "/data" || opts.SQLitePath != "x.db" ||
		opts.JSONPath != "x.json" || opts.PostgresURL != "postgres://" {
		t.Errorf("StorageOptions() = %+v", opts)
	}
}

func Test_Duration_Text(t *testing.T) {
	t.Parallel()
	var d config.Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if time.Duration(d) != 90*time.Second {
		t.Errorf("Duration = %s", d)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %q", text)
	}
}
