package config

import "fmt"

// Environment variables read by Load.
const (
	EnvConfig           = "TODO_CONFIG"
	EnvDataDir          = "TODO_DATA_DIR"
	EnvStorageBackend   = "TODO_STORAGE_BACKEND"
	EnvJSONPath         = "TODO_LOG_PATH"
	EnvSQLitePath       = "TODO_SQLITE_PATH"
	EnvPostgresURL      = "TODO_POSTGRES_URL"
	EnvPollInterval     = "TODO_POLL_INTERVAL"
	EnvReminderInterval = "TODO_REMINDER_INTERVAL"
	EnvLogLevel         = "TODO_LOG_LEVEL"
	EnvLogFormat        = "TODO_LOG_FORMAT"
	EnvHTTPAddr         = "TODO_HTTP_ADDR"
)

// applyEnv overrides cfg with every non-empty TODO_* variable.
func applyEnv(cfg *Config, getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvDataDir, &cfg.DataDir},
		{EnvStorageBackend, &cfg.Storage.Backend},
		{EnvJSONPath, &cfg.Storage.JSONPath},
		{EnvSQLitePath, &cfg.Storage.SQLitePath},
		{EnvPostgresURL, &cfg.Storage.PostgresURL},
		{EnvLogLevel, &cfg.Log.Level},
		{EnvLogFormat, &cfg.Log.Format},
		{EnvHTTPAddr, &cfg.HTTP.Addr},
	}
	for _, s := range strs {
		if v := getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{EnvPollInterval, &cfg.Scheduler.PollInterval},
		{EnvReminderInterval, &cfg.Reminder.Interval},
	}
	for _, d := range durations {
		if v := getenv(d.key); v != "" {
			if err := d.dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
		}
	}
	return nil
}
