// Package scheduler runs the engine's background loops.
//
// A Loop calls its tick function once per interval on its own goroutine.
// A failing or panicking tick is logged and the loop carries on; only Stop
// or cancellation of the context passed to Start ends it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("loop already running")

// TickFunc is one iteration of a Loop.
type TickFunc func(ctx context.Context) error

// Loop is a restartable ticker loop.
type Loop struct {
	name     string
	interval time.Duration
	tick     TickFunc
	logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop returns a stopped Loop. A nil logger discards output.
func NewLoop(name string, interval time.Duration, tick TickFunc, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{
		name:     name,
		interval: interval,
		tick:     tick,
		logger:   logger.With("loop", name),
	}
}

// Name returns the loop's name.
func (l *Loop) Name() string { return l.name }

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration { return l.interval }

// Start launches the loop goroutine and returns immediately. The first tick
// fires one interval after Start.
func (l *Loop) Start(ctx context.Context) error {
	if l.interval <= 0 {
		return fmt.Errorf("%s loop: interval must be positive, got %s", l.name, l.interval)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go l.run(ctx, done)
	l.logger.Debug("started", "interval", l.interval)
	return nil
}

// Stop cancels the loop and waits for an in-progress tick to finish.
// Stopping a loop that is not running is a no-op.
func (l *Loop) Stop() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	<-done
	l.logger.Debug("stopped")
	return nil
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done != nil
}

// Tick runs one iteration now on the caller's goroutine. A panic in the
// tick function is recovered and returned as an error.
func (l *Loop) Tick(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s loop: panic: %v", l.name, rec)
			l.logger.Error("tick panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	return l.tick(ctx)
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil && ctx.Err() == nil {
				l.logger.Warn("tick failed", "err", err)
			}
		}
	}
}
