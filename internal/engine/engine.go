// Package engine is the single entry point callers use to drive the to-do
// engine.
//
// One mutex guards the task store, the streak tracker, the reminder flag and
// the set of pending promotions. Every mutation takes a snapshot under that
// mutex and persists it outside of it; saves are ordered by a sequence number
// so an older snapshot never overwrites a newer one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JamesPrial/todo-engine/internal/clock"
	"github.com/JamesPrial/todo-engine/internal/notify"
	"github.com/JamesPrial/todo-engine/internal/scheduler"
	"github.com/JamesPrial/todo-engine/internal/storage"
	"github.com/JamesPrial/todo-engine/internal/streak"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// ErrClosed is returned by mutations after Shutdown.
var ErrClosed = errors.New("engine is closed")

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Clock   clock.Clock
	Backend storage.Backend
	Sink    notify.Sink
	Logger  *log.Logger

	PollInterval     time.Duration
	ReminderInterval time.Duration

	// IDFunc overrides task id generation.
	IDFunc func() string
}

// Engine is safe for concurrent use.
type Engine struct {
	clock            clock.Clock
	backend          storage.Backend
	sink             notify.Sink
	logger           *log.Logger
	pollInterval     time.Duration
	reminderInterval time.Duration

	mu       sync.Mutex
	store    *task.Store
	streak   *streak.Tracker
	reminder bool
	pending  map[string]struct{}
	closed   bool
	seq      uint64
	loops    []*scheduler.Loop

	saveMu   sync.Mutex
	savedSeq uint64
}

// snapshot is a state copy tagged with the mutation that produced it.
type snapshot struct {
	seq   uint64
	state storage.State
}

// New creates an Engine with empty state. Call Load to read persisted state.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Backend == nil {
		opts.Backend = storage.NewMemoryBackend()
	}
	if opts.Sink == nil {
		opts.Sink = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = scheduler.DefaultPollInterval
	}
	if opts.ReminderInterval <= 0 {
		opts.ReminderInterval = scheduler.DefaultReminderInterval
	}

	var storeOpts []task.StoreOption
	if opts.IDFunc != nil {
		storeOpts = append(storeOpts, task.WithIDFunc(opts.IDFunc))
	}

	empty := storage.EmptyState()
	return &Engine{
		clock:            opts.Clock,
		backend:          opts.Backend,
		sink:             opts.Sink,
		logger:           opts.Logger,
		pollInterval:     opts.PollInterval,
		reminderInterval: opts.ReminderInterval,
		store:            task.NewStore(opts.Clock, storeOpts...),
		streak:           streak.NewTracker(empty.Streak),
		reminder:         empty.ReminderEnabled,
		pending:          make(map[string]struct{}),
	}
}

// Load replaces in-memory state with what the backend holds.
//
// If the backend fails, the engine keeps running on empty state and the
// failure is returned as a *storage.IOError for the caller to report.
func (e *Engine) Load(ctx context.Context) error {
	st, err := e.backend.Load(ctx)
	if err != nil {
		err = storage.Wrap("load", e.backend, err)
		e.logger.Error("failed to load state, starting empty", "backend", e.backend.Name(), "err", err)
		st = storage.EmptyState()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.store.Restore(task.Snapshot{Tasks: st.Tasks, Completed: st.Completed, Scheduled: st.Scheduled})
	e.streak.Restore(st.Streak)
	e.reminder = st.ReminderEnabled
	e.pending = make(map[string]struct{})

	if err == nil {
		e.logger.Info("state loaded",
			"backend", e.backend.Name(),
			"tasks", len(st.Tasks),
			"scheduled", len(st.Scheduled),
			"completed", len(st.Completed),
			"streak", st.Streak.Count)
	}
	return err
}

// Start launches the promotion and reminder loops. Events go to the sink
// given in Options.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.loops != nil {
		e.mu.Unlock()
		return scheduler.ErrRunning
	}

	loops := []*scheduler.Loop{
		scheduler.NewPromotionLoop(e, e.sink, e.pollInterval, e.logger),
		scheduler.NewReminderLoop(e, e.sink, e.clock, e.reminderInterval, e.logger),
	}
	for i, l := range loops {
		if err := l.Start(ctx); err != nil {
			e.mu.Unlock()
			// Ticks take e.mu, so stop without holding it.
			for _, started := range loops[:i] {
				_ = started.Stop()
			}
			return fmt.Errorf("failed to start %s loop: %w", l.Name(), err)
		}
	}
	e.loops = loops
	e.mu.Unlock()
	return nil
}

// Shutdown stops the loops, waits for them, writes a final snapshot and
// closes the engine. Calling it again is a no-op.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	loops := e.loops
	e.loops = nil
	e.mu.Unlock()

	for _, l := range loops {
		_ = l.Stop()
	}

	e.mu.Lock()
	e.closed = true
	snap := e.snapshotLocked()
	e.mu.Unlock()

	err := e.persist(ctx, snap)
	e.logger.Info("engine shut down", "backend", e.backend.Name())
	return err
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// AddTask appends a new active task.
func (e *Engine) AddTask(ctx context.Context, text string, priority task.Priority) (task.Task, error) {
	var added task.Task
	err := e.mutate(ctx, func() (bool, error) {
		t, err := e.store.Add(text, priority)
		if err != nil {
			return false, err
		}
		added = t
		return true, nil
	})
	if err != nil && added.ID == "" {
		return task.Task{}, err
	}
	return added, err
}

// CompleteTask moves an active task to the completed collection and records
// the completion on the streak.
func (e *Engine) CompleteTask(ctx context.Context, id string) (task.CompletedTask, error) {
	var done task.CompletedTask
	err := e.mutate(ctx, func() (bool, error) {
		ct, err := e.store.Complete(id)
		if err != nil {
			return false, err
		}
		done = ct
		e.streak.RecordCompletion(streak.Today(e.clock))
		return true, nil
	})
	if err != nil && done.ID == "" {
		return task.CompletedTask{}, err
	}
	return done, err
}

// DeleteTask removes an active task.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	return e.mutate(ctx, func() (bool, error) {
		return true, e.store.Delete(id)
	})
}

// EditTask replaces the text of an active task.
func (e *Engine) EditTask(ctx context.Context, id, newText string) (task.Task, error) {
	var edited task.Task
	err := e.mutate(ctx, func() (bool, error) {
		t, err := e.store.Edit(id, newText)
		if err != nil {
			return false, err
		}
		edited = t
		return true, nil
	})
	if err != nil && edited.ID == "" {
		return task.Task{}, err
	}
	return edited, err
}

// ScheduleTask adds a task that becomes active at target.
func (e *Engine) ScheduleTask(ctx context.Context, text string, target time.Time) (task.ScheduledTask, error) {
	var scheduled task.ScheduledTask
	err := e.mutate(ctx, func() (bool, error) {
		s, err := e.store.Schedule(text, target)
		if err != nil {
			return false, err
		}
		scheduled = s
		return true, nil
	})
	if err != nil && scheduled.ID == "" {
		return task.ScheduledTask{}, err
	}
	return scheduled, err
}

// CancelScheduledTask removes a scheduled task before it fires.
func (e *Engine) CancelScheduledTask(ctx context.Context, id string) error {
	return e.mutate(ctx, func() (bool, error) {
		return true, e.store.CancelScheduled(id)
	})
}

// ToggleReminder turns the periodic reminder on or off. The change applies
// from the next reminder tick.
func (e *Engine) ToggleReminder(ctx context.Context, enabled bool) error {
	return e.mutate(ctx, func() (bool, error) {
		if e.reminder == enabled {
			return false, nil
		}
		e.reminder = enabled
		return true, nil
	})
}

// ClearCompleted empties the completed collection and returns how many
// entries were removed.
func (e *Engine) ClearCompleted(ctx context.Context) (int, error) {
	var n int
	err := e.mutate(ctx, func() (bool, error) {
		n = e.store.ClearCompleted()
		return n > 0, nil
	})
	return n, err
}

// PromoteDue moves every scheduled task whose target has passed into the
// active list and marks it pending until ResolvePromotion is called.
//
// The promoted tasks are returned even when persisting them fails.
func (e *Engine) PromoteDue(ctx context.Context) ([]task.Task, error) {
	promoted := []task.Task{}
	err := e.mutate(ctx, func() (bool, error) {
		promoted = e.store.PromoteDue(e.clock.Now())
		for _, t := range promoted {
			e.pending[t.ID] = struct{}{}
		}
		return len(promoted) > 0, nil
	})
	if len(promoted) > 0 {
		e.logger.Info("promoted scheduled tasks", "count", len(promoted))
	}
	return promoted, err
}

// ResolvePromotion records the user's answer to a ScheduledTaskDue event.
//
// Accepting keeps the task active. Declining removes it from the active
// list; if it is already gone (completed or deleted) nothing else happens.
// Returns a *task.NotFoundError if id is not a pending promotion.
func (e *Engine) ResolvePromotion(ctx context.Context, id string, accepted bool) error {
	return e.mutate(ctx, func() (bool, error) {
		if _, ok := e.pending[id]; !ok {
			return false, &task.NotFoundError{Collection: task.CollectionPending, ID: id}
		}
		delete(e.pending, id)
		if accepted {
			return false, nil
		}
		if err := e.store.Delete(id); err != nil {
			if errors.Is(err, task.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}

// mutate runs fn under the state lock and, if fn reports a change, persists
// a snapshot after releasing it.
func (e *Engine) mutate(ctx context.Context, fn func() (bool, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	changed, err := fn()
	if err != nil || !changed {
		e.mu.Unlock()
		return err
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	return e.persist(ctx, snap)
}

// snapshotLocked must be called with e.mu held.
func (e *Engine) snapshotLocked() snapshot {
	e.seq++
	s := e.store.Snapshot()
	return snapshot{
		seq: e.seq,
		state: storage.State{
			Tasks:           s.Tasks,
			Completed:       s.Completed,
			Scheduled:       s.Scheduled,
			Streak:          e.streak.State(),
			ReminderEnabled: e.reminder,
		},
	}
}

// persist saves snap unless a newer snapshot has already been written.
// Failures are logged and returned as *storage.IOError; in-memory state is
// kept either way.
func (e *Engine) persist(ctx context.Context, snap snapshot) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if snap.seq <= e.savedSeq {
		return nil
	}
	if err := e.backend.Save(ctx, snap.state); err != nil {
		err = storage.Wrap("save", e.backend, err)
		e.logger.Error("failed to save state", "backend", e.backend.Name(), "seq", snap.seq, "err", err)
		return err
	}
	e.savedSeq = snap.seq
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Tasks returns active tasks, High priority first.
func (e *Engine) Tasks() []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Tasks()
}

// Search returns active tasks whose text contains query, ignoring case.
func (e *Engine) Search(query string) []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Search(query)
}

// Completed returns completed tasks, most recent first.
func (e *Engine) Completed() []task.CompletedTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Completed()
}

// Scheduled returns scheduled tasks by target time.
func (e *Engine) Scheduled() []task.ScheduledTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Scheduled()
}

// Streak returns the current streak.
func (e *Engine) Streak() streak.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.State()
}

// ReminderEnabled reports whether periodic reminders are on.
func (e *Engine) ReminderEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reminder
}

// PendingPromotions returns promoted tasks that are still active and still
// awaiting ResolvePromotion, oldest first.
func (e *Engine) PendingPromotions() []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []task.Task{}
	for _, t := range e.store.Tasks() {
		if _, ok := e.pending[t.ID]; ok {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// BackendName names the storage backend in use.
func (e *Engine) BackendName() string { return e.backend.Name() }
