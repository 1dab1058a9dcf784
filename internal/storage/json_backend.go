package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JSONBackend implements Backend using a single JSON file.
//
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so a crash mid-write never leaves a truncated document.
type JSONBackend struct {
	// Path is the absolute path to the state file.
	Path string
}

// NewJSONBackend creates a JSONBackend for the given file path.
// Parent directories are created on the first Save.
func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{Path: path}
}

// Name returns "json".
func (b *JSONBackend) Name() string { return "json" }

// Load reads and validates the state file.
//
// A missing file yields EmptyState. A file that fails schema validation or
// decoding is an error; the engine then starts empty without overwriting the
// file until the next mutation.
func (b *JSONBackend) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return EmptyState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}

	if err := ValidateDocument(data); err != nil {
		return State{}, err
	}

	// Outer fields shadow the embedded ones so absent flags can be told apart
	// from false, and the legacy desktop reminder key is honored.
	var wire struct {
		Document
		ReminderEnabled     *bool `json:"reminder_enabled"`
		WaterReminderActive *bool `json:"water_reminder_active"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return State{}, fmt.Errorf("decode state file: %w", err)
	}

	doc := wire.Document
	switch {
	case wire.ReminderEnabled != nil:
		doc.ReminderEnabled = *wire.ReminderEnabled
	case wire.WaterReminderActive != nil:
		doc.ReminderEnabled = *wire.WaterReminderActive
	default:
		doc.ReminderEnabled = EmptyState().ReminderEnabled
	}

	return Decode(doc)
}

// Save atomically replaces the state file.
//
// Writes JSON with 2-space indentation and a trailing newline.
func (b *JSONBackend) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(Encode(st), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".todo-state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
