// Package storage persists engine state.
//
// The engine hands a complete State to Backend.Save after every mutation and
// reads it back once at startup with Backend.Load. Every backend stores the
// same logical document (see Document); they differ only in the medium.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/JamesPrial/todo-engine/internal/streak"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// State is everything the engine persists.
type State struct {
	Tasks           []task.Task
	Completed       []task.CompletedTask
	Scheduled       []task.ScheduledTask
	Streak          streak.State
	ReminderEnabled bool
}

// EmptyState is the state of a fresh install. Reminders start enabled.
func EmptyState() State {
	return State{ReminderEnabled: true}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Tasks:           append([]task.Task(nil), s.Tasks...),
		Completed:       append([]task.CompletedTask(nil), s.Completed...),
		Scheduled:       append([]task.ScheduledTask(nil), s.Scheduled...),
		Streak:          streak.State{Count: s.Streak.Count},
		ReminderEnabled: s.ReminderEnabled,
	}
	if s.Streak.LastCompleted != nil {
		d := *s.Streak.LastCompleted
		out.Streak.LastCompleted = &d
	}
	return out
}

// Backend defines the contract for engine state persistence.
//
// Implementations must replace the stored state wholesale on Save so that
// the last successful Save wins. The engine serializes calls to Save.
type Backend interface {
	// Name identifies the backend in logs and errors (e.g. "json").
	Name() string

	// Load reads the stored state.
	//
	// Returns EmptyState and a nil error when nothing has been stored yet.
	// Returns an error if the medium cannot be read or holds an invalid
	// document.
	Load(ctx context.Context) (State, error)

	// Save atomically replaces the stored state with st.
	Save(ctx context.Context, st State) error
}

// IOError reports a failed Load or Save. The engine's in-memory state stays
// authoritative when one is returned.
type IOError struct {
	Op      string
	Backend string
	Err     error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s backend: %s state: %v", e.Backend, e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Wrap returns err as an *IOError for backend b, or nil if err is nil.
// Errors that already are IOErrors are returned unchanged.
func Wrap(op string, b Backend, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Backend: b.Name(), Err: err}
}
