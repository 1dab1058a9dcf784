// Package app wires configuration, logging, storage and the engine together
// for the command-line entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/JamesPrial/todo-engine/internal/clock"
	"github.com/JamesPrial/todo-engine/internal/config"
	"github.com/JamesPrial/todo-engine/internal/engine"
	"github.com/JamesPrial/todo-engine/internal/logging"
	"github.com/JamesPrial/todo-engine/internal/notify"
	"github.com/JamesPrial/todo-engine/internal/storage"
)

// Options configures New.
type Options struct {
	// Config must be non-nil. It is validated by New.
	Config *config.Config

	// Prefix labels log lines (e.g. "todo", "mcp-server").
	Prefix string

	// LogWriter defaults to os.Stderr.
	LogWriter io.Writer

	// Clock defaults to the wall clock.
	Clock clock.Clock

	// Sinks receive every event in addition to the queue and the log.
	Sinks []notify.Sink

	// QuietEvents keeps events out of the log. One-shot CLI commands set it.
	QuietEvents bool
}

// App is a loaded engine plus the pieces built around it.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend storage.Backend
	Engine  *engine.Engine

	// Events buffers loop events for pull-based callers.
	Events *notify.Queue

	// LoadErr is the *storage.IOError from the initial load, if any. The
	// engine is running on empty state when it is set.
	LoadErr error
}

// New builds the logger, opens the backend and loads engine state.
//
// A load failure does not fail New; it is logged and kept in LoadErr.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logOpts := cfg.LogOptions(opts.Prefix)
	logOpts.Writer = opts.LogWriter
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	queue := notify.NewQueue(notify.DefaultQueueSize)
	sinks := notify.Fanout{queue}
	if !opts.QuietEvents {
		sinks = append(sinks, notify.LogSink{Logger: logger})
	}
	sinks = append(sinks, opts.Sinks...)

	eng := engine.New(engine.Options{
		Clock:            opts.Clock,
		Backend:          backend,
		Sink:             sinks,
		Logger:           logger,
		PollInterval:     cfg.PollInterval(),
		ReminderInterval: cfg.ReminderInterval(),
	})

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		Engine:  eng,
		Events:  queue,
	}
	if err := eng.Load(ctx); err != nil {
		var ioErr *storage.IOError
		if !errors.As(err, &ioErr) {
			return nil, err
		}
		a.LoadErr = err
	}
	return a, nil
}

// Start launches the engine's background loops.
func (a *App) Start(ctx context.Context) error {
	return a.Engine.Start(ctx)
}

// Close shuts the engine down, flushing state to the backend.
func (a *App) Close(ctx context.Context) error {
	return a.Engine.Shutdown(ctx)
}
