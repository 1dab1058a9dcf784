package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JamesPrial/todo-engine/internal/clock"
	"github.com/JamesPrial/todo-engine/internal/notify"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// Default intervals, matching the desktop app this engine replaces.
const (
	DefaultPollInterval     = 60 * time.Second
	DefaultReminderInterval = 30 * time.Minute
)

// Promoter moves due scheduled tasks into the active list.
//
// PromoteDue may return promoted tasks together with an error when the
// promotion happened but could not be persisted.
type Promoter interface {
	PromoteDue(ctx context.Context) ([]task.Task, error)
}

// ReminderSource reports whether periodic reminders are wanted.
type ReminderSource interface {
	ReminderEnabled() bool
}

// NewPromotionLoop polls p every interval and emits one ScheduledTaskDue
// event per promoted task.
func NewPromotionLoop(p Promoter, sink notify.Sink, interval time.Duration, logger *log.Logger) *Loop {
	if sink == nil {
		sink = notify.Discard
	}
	return NewLoop("promotion", interval, func(ctx context.Context) error {
		promoted, err := p.PromoteDue(ctx)
		for _, t := range promoted {
			sink.Notify(notify.ScheduledTaskDue(t, t.Created))
		}
		return err
	}, logger)
}

// NewReminderLoop emits a PeriodicReminder every interval while src has
// reminders enabled. The flag is read at each tick.
func NewReminderLoop(src ReminderSource, sink notify.Sink, clk clock.Clock, interval time.Duration, logger *log.Logger) *Loop {
	if sink == nil {
		sink = notify.Discard
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return NewLoop("reminder", interval, func(context.Context) error {
		if src.ReminderEnabled() {
			sink.Notify(notify.PeriodicReminder(clk.Now()))
		}
		return nil
	}, logger)
}
