package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/JamesPrial/todo-engine/internal/pathutil"
)

// Backend type names accepted by Open.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Default file names inside the data directory.
const (
	DefaultJSONFile   = "todo_data.json"
	DefaultSQLiteFile = "todo.db"
)

// Options selects and locates a backend.
type Options struct {
	// Backend is one of "json" (default), "sqlite", "postgres" or "memory".
	Backend string

	// DataDir holds the JSON and SQLite files. Custom paths must stay inside it.
	DataDir string

	// JSONPath overrides <DataDir>/todo_data.json.
	JSONPath string

	// SQLitePath overrides <DataDir>/todo.db.
	SQLitePath string

	// PostgresURL is required for the postgres backend.
	PostgresURL string
}

// Open returns the backend described by opts.
//
// Returns an error if the backend type is unknown, a custom path escapes
// DataDir, or the database schema cannot be initialized.
func Open(ctx context.Context, opts Options) (Backend, error) {
	backendType := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backendType == "" {
		backendType = BackendJSON
	}

	switch backendType {
	case BackendJSON:
		path, err := pathutil.DataFile(opts.DataDir, opts.JSONPath, DefaultJSONFile)
		if err != nil {
			return nil, fmt.Errorf("failed to determine JSON state path: %w", err)
		}
		return NewJSONBackend(path), nil

	case BackendSQLite:
		path, err := pathutil.DataFile(opts.DataDir, opts.SQLitePath, DefaultSQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("failed to determine SQLite database path: %w", err)
		}
		return NewSQLiteBackend(path)

	case BackendPostgres:
		if strings.TrimSpace(opts.PostgresURL) == "" {
			return nil, fmt.Errorf("postgres backend requires a connection URL")
		}
		return NewPostgresBackend(ctx, opts.PostgresURL)

	case BackendMemory:
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %q. Expected 'json', 'sqlite', 'postgres' or 'memory'", backendType)
	}
}
