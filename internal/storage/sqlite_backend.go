package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // register sqlite driver
)

// schemaDDL defines the database schema for the SQLite backend.
//
// Each collection gets its own table; position preserves insertion order.
// Scalar engine fields live as key/value rows in engine_meta.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS tasks (
    position INTEGER NOT NULL,
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    priority TEXT NOT NULL,
    created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS completed_tasks (
    position INTEGER NOT NULL,
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    priority TEXT NOT NULL,
    created TEXT NOT NULL,
    completed TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scheduled_tasks (
    position INTEGER NOT NULL,
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    created TEXT NOT NULL,
    target_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS engine_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// engine_meta keys.
const (
	metaStreakCount       = "streak_count"
	metaLastCompletedDate = "last_completed_date"
	metaReminderEnabled   = "reminder_enabled"
)

// SQLiteBackend implements Backend using SQLite.
//
// Save rewrites all tables inside one transaction. Uses WAL mode so readers
// such as the sqlite3 shell do not block the engine.
type SQLiteBackend struct {
	// DBPath is the absolute path to the SQLite database file.
	DBPath string
}

// NewSQLiteBackend creates a new SQLiteBackend and initializes the database schema.
//
// Parent directories are created automatically. Returns an error if schema
// creation fails.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	backend := &SQLiteBackend{
		DBPath: dbPath,
	}

	if err := backend.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return backend, nil
}

// Name returns "sqlite".
func (b *SQLiteBackend) Name() string { return "sqlite" }

// connect opens a new database connection with WAL mode enabled.
//
// Creates parent directories if needed.
func (b *SQLiteBackend) connect(ctx context.Context) (*sql.DB, error) {
	dir := filepath.Dir(b.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", b.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return db, nil
}

// ensureSchema creates the database schema if it doesn't exist.
func (b *SQLiteBackend) ensureSchema(ctx context.Context) error {
	db, err := b.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}

	return nil
}

// Load reads all tables into a State.
//
// An empty database yields EmptyState.
func (b *SQLiteBackend) Load(ctx context.Context) (State, error) {
	db, err := b.connect(ctx)
	if err != nil {
		return State{}, err
	}
	defer func() { _ = db.Close() }()

	doc := Document{ReminderEnabled: EmptyState().ReminderEnabled}

	rows, err := db.QueryContext(ctx, `SELECT id, text, priority, created FROM tasks ORDER BY position`)
	if err != nil {
		return State{}, fmt.Errorf("failed to query tasks: %w", err)
	}
	for rows.Next() {
		var r TaskRecord
		if err := rows.Scan(&r.ID, &r.Text, &r.Priority, &r.Created); err != nil {
			_ = rows.Close()
			return State{}, fmt.Errorf("failed to scan task: %w", err)
		}
		doc.Tasks = append(doc.Tasks, r)
	}
	if err := closeRows(rows); err != nil {
		return State{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT id, text, priority, created, completed FROM completed_tasks ORDER BY position`)
	if err != nil {
		return State{}, fmt.Errorf("failed to query completed tasks: %w", err)
	}
	for rows.Next() {
		var r CompletedRecord
		if err := rows.Scan(&r.ID, &r.Text, &r.Priority, &r.Created, &r.Completed); err != nil {
			_ = rows.Close()
			return State{}, fmt.Errorf("failed to scan completed task: %w", err)
		}
		doc.CompletedTasks = append(doc.CompletedTasks, r)
	}
	if err := closeRows(rows); err != nil {
		return State{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT id, text, created, target_time FROM scheduled_tasks ORDER BY position`)
	if err != nil {
		return State{}, fmt.Errorf("failed to query scheduled tasks: %w", err)
	}
	for rows.Next() {
		var r ScheduledRecord
		if err := rows.Scan(&r.ID, &r.Text, &r.Created, &r.TargetTime); err != nil {
			_ = rows.Close()
			return State{}, fmt.Errorf("failed to scan scheduled task: %w", err)
		}
		doc.ScheduledTasks = append(doc.ScheduledTasks, r)
	}
	if err := closeRows(rows); err != nil {
		return State{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT key, value FROM engine_meta`)
	if err != nil {
		return State{}, fmt.Errorf("failed to query engine meta: %w", err)
	}
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return State{}, fmt.Errorf("failed to scan engine meta: %w", err)
		}
		meta[k] = v
	}
	if err := closeRows(rows); err != nil {
		return State{}, err
	}
	if err := applyMeta(&doc, meta); err != nil {
		return State{}, err
	}

	return Decode(doc)
}

// Save replaces every row in a single transaction.
func (b *SQLiteBackend) Save(ctx context.Context, st State) error {
	db, err := b.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"tasks", "completed_tasks", "scheduled_tasks", "engine_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	doc := Encode(st)
	for i, r := range doc.Tasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (position, id, text, priority, created) VALUES (?, ?, ?, ?, ?)`,
			i, r.ID, r.Text, r.Priority, r.Created,
		); err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
	}
	for i, r := range doc.CompletedTasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO completed_tasks (position, id, text, priority, created, completed) VALUES (?, ?, ?, ?, ?, ?)`,
			i, r.ID, r.Text, r.Priority, r.Created, r.Completed,
		); err != nil {
			return fmt.Errorf("failed to insert completed task: %w", err)
		}
	}
	for i, r := range doc.ScheduledTasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scheduled_tasks (position, id, text, created, target_time) VALUES (?, ?, ?, ?, ?)`,
			i, r.ID, r.Text, r.Created, r.TargetTime,
		); err != nil {
			return fmt.Errorf("failed to insert scheduled task: %w", err)
		}
	}
	for k, v := range metaOf(doc) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO engine_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to insert engine meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	iterErr := rows.Err()
	closeErr := rows.Close()
	if iterErr != nil {
		return fmt.Errorf("error iterating rows: %w", iterErr)
	}
	return closeErr
}

// metaOf flattens the scalar document fields into engine_meta rows.
// A missing last_completed_date is stored as an empty string.
func metaOf(doc Document) map[string]string {
	last := ""
	if doc.LastCompletedDate != nil {
		last = *doc.LastCompletedDate
	}
	return map[string]string{
		metaStreakCount:       strconv.Itoa(doc.StreakCount),
		metaLastCompletedDate: last,
		metaReminderEnabled:   strconv.FormatBool(doc.ReminderEnabled),
	}
}

// applyMeta is the inverse of metaOf. Absent keys keep doc's values.
func applyMeta(doc *Document, meta map[string]string) error {
	if v, ok := meta[metaStreakCount]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", metaStreakCount, v, err)
		}
		doc.StreakCount = n
	}
	if v, ok := meta[metaLastCompletedDate]; ok && v != "" {
		d := v
		doc.LastCompletedDate = &d
	}
	if v, ok := meta[metaReminderEnabled]; ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", metaReminderEnabled, v, err)
		}
		doc.ReminderEnabled = enabled
	}
	return nil
}
