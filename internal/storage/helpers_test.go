package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/JamesPrial/todo-engine/internal/storage"
	"github.com/JamesPrial/todo-engine/internal/streak"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// ---------------------------------------------------------------------------
// Shared fixtures
// ---------------------------------------------------------------------------

// minute builds a local timestamp at minute precision, which is what the
// document preserves for created/completed.
func minute(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

// sampleState returns a state touching every persisted field.
func sampleState() storage.State {
	last := streak.Date{Year: 2024, Month: time.March, Day: 1}
	return storage.State{
		Tasks: []task.Task{
			{ID: "a1", Text: "Buy milk", Priority: task.PriorityHigh, Created: minute(2024, 3, 1, 8, 0)},
			{ID: "a2", Text: "Read \"Dune\"", Priority: task.PriorityLow, Created: minute(2024, 3, 1, 8, 5)},
		},
		Completed: []task.CompletedTask{
			{
				Task:      task.Task{ID: "c1", Text: "Walk dog", Priority: task.PriorityMedium, Created: minute(2024, 2, 29, 7, 0)},
				Completed: minute(2024, 3, 1, 9, 30),
			},
		},
		Scheduled: []task.ScheduledTask{
			{ID: "s1", Text: "Call dentist", Created: minute(2024, 3, 1, 8, 0), Target: time.Date(2024, 3, 2, 9, 0, 15, 0, time.Local)},
		},
		Streak:          streak.State{Count: 3, LastCompleted: &last},
		ReminderEnabled: false,
	}
}

// requireEqualState compares two states field by field.
func requireEqualState(t *testing.T, want, got storage.State) {
	t.Helper()

	if len(got.Tasks) != len(want.Tasks) {
		t.Fatalf("len(Tasks) = %d, want %d", len(got.Tasks), len(want.Tasks))
	}
	for i := range want.Tasks {
		w, g := want.Tasks[i], got.Tasks[i]
		if g.ID != w.ID || g.Text != w.Text || g.Priority != w.Priority || !g.Created.Equal(w.Created) {
			t.Errorf("Tasks[%d] = %+v, want %+v", i, g, w)
		}
	}

	if len(got.Completed) != len(want.Completed) {
		t.Fatalf("len(Completed) = %d, want %d", len(got.Completed), len(want.Completed))
	}
	for i := range want.Completed {
		w, g := want.Completed[i], got.Completed[i]
		if g.ID != w.ID || g.Text != w.Text || g.Priority != w.Priority ||
			!g.Created.Equal(w.Created) || !g.Completed.Equal(w.Completed) {
			t.Errorf("Completed[%d] = %+v, want %+v", i, g, w)
		}
	}

	if len(got.Scheduled) != len(want.Scheduled) {
		t.Fatalf("len(Scheduled) = %d, want %d", len(got.Scheduled), len(want.Scheduled))
	}
	for i := range want.Scheduled {
		w, g := want.Scheduled[i], got.Scheduled[i]
		if g.ID != w.ID || g.Text != w.Text || !g.Created.Equal(w.Created) || !g.Target.Equal(w.Target) {
			t.Errorf("Scheduled[%d] = %+v, want %+v", i, g, w)
		}
	}

	if got.Streak.Count != want.Streak.Count {
		t.Errorf("Streak.Count = %d, want %d", got.Streak.Count, want.Streak.Count)
	}
	switch {
	case want.Streak.LastCompleted == nil && got.Streak.LastCompleted != nil:
		t.Errorf("Streak.LastCompleted = %v, want nil", *got.Streak.LastCompleted)
	case want.Streak.LastCompleted != nil && (got.Streak.LastCompleted == nil || *got.Streak.LastCompleted != *want.Streak.LastCompleted):
		t.Errorf("Streak.LastCompleted = %v, want %v", got.Streak.LastCompleted, *want.Streak.LastCompleted)
	}
	if got.ReminderEnabled != want.ReminderEnabled {
		t.Errorf("ReminderEnabled = %v, want %v", got.ReminderEnabled, want.ReminderEnabled)
	}
}

// exerciseBackend runs the behavior every Backend must share.
func exerciseBackend(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	empty, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on fresh backend: %v", err)
	}
	requireEqualState(t, storage.EmptyState(), empty)

	want := sampleState()
	if err := b.Save(ctx, want); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after Save: %v", err)
	}
	requireEqualState(t, want, got)

	// Save replaces wholesale: a smaller state must not leave stale rows.
	smaller := storage.EmptyState()
	smaller.Tasks = want.Tasks[:1]
	if err := b.Save(ctx, smaller); err != nil {
		t.Fatalf("second Save() unexpected error: %v", err)
	}
	got, err = b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after second Save: %v", err)
	}
	requireEqualState(t, smaller, got)
}
