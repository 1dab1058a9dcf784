package task_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/JamesPrial/todo-engine/internal/clock"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)

// newTestStore returns a Store on a fake clock with sequential ids
// ("t1", "t2", ...).
func newTestStore(t *testing.T) (*task.Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(baseTime)
	n := 0
	s := task.NewStore(clk, task.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}))
	return s, clk
}

func mustAdd(t *testing.T, s *task.Store, text string, p task.Priority) task.Task {
	t.Helper()
	got, err := s.Add(text, p)
	if err != nil {
		t.Fatalf("Add(%q) unexpected error: %v", text, err)
	}
	return got
}

// ---------------------------------------------------------------------------
// ParsePriority
// ---------------------------------------------------------------------------

func Test_ParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    task.Priority
		wantErr bool
	}{
		{"High", task.PriorityHigh, false},
		{"high", task.PriorityHigh, false},
		{"  MEDIUM ", task.PriorityMedium, false},
		{"low", task.PriorityLow, false},
		{"", task.PriorityMedium, false},
		{"urgent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := task.ParsePriority(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriority(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, task.ErrValidation) {
				t.Errorf("ParsePriority(%q) error = %v, want ErrValidation", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePriority(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func Test_ParseTarget(t *testing.T) {
	t.Parallel()
	want := time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local)

	for _, in := range []string{"2024-03-02 09:00", "2024-03-02 09:00:00", "2024-03-02T09:00", " 2024-03-02T09:00:00 "} {
		got, err := task.ParseTarget(in)
		if err != nil {
			t.Errorf("ParseTarget(%q) unexpected error: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTarget(%q) = %v, want %v", in, got, want)
		}
	}

	utc, err := task.ParseTarget("2024-03-02T09:00:00Z")
	if err != nil || !utc.Equal(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseTarget(RFC3339) = %v, %v", utc, err)
	}

	if _, err := task.ParseTarget("tomorrow"); !errors.Is(err, task.ErrValidation) {
		t.Errorf("ParseTarget(tomorrow) error = %v, want ErrValidation", err)
	}
}

// ---------------------------------------------------------------------------
// Add / Complete / Delete / Edit
// ---------------------------------------------------------------------------

func Test_Store_Add_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		priority task.Priority
		wantErr  error
	}{
		{"empty text", "", task.PriorityHigh, task.ErrValidation},
		{"whitespace text", "   \t", task.PriorityHigh, task.ErrValidation},
		{"bad priority", "ok", task.Priority("Urgent"), task.ErrValidation},
		{"valid", "Buy milk", task.PriorityLow, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestStore(t)
			_, err := s.Add(tt.text, tt.priority)
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
			}
			wantLen := 0
			if tt.wantErr == nil {
				wantLen = 1
			}
			if got := len(s.Tasks()); got != wantLen {
				t.Errorf("len(Tasks()) = %d, want %d", got, wantLen)
			}
		})
	}
}

func Test_Store_Add_TrimsText(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	got := mustAdd(t, s, "  Buy milk  ", task.PriorityHigh)
	if got.Text != "Buy milk" {
		t.Errorf("Text = %q, want %q", got.Text, "Buy milk")
	}
	if !got.Created.Equal(baseTime) {
		t.Errorf("Created = %v, want %v", got.Created, baseTime)
	}
}

func Test_Store_AddThenComplete(t *testing.T) {
	t.Parallel()
	s, clk := newTestStore(t)

	added := mustAdd(t, s, "Buy milk", task.PriorityHigh)
	clk.Advance(3 * time.Minute)

	ct, err := s.Complete(added.ID)
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if ct.ID != added.ID || ct.Text != "Buy milk" || ct.Priority != task.PriorityHigh {
		t.Errorf("Complete() = %+v, want fields copied from %+v", ct, added)
	}
	if ct.Completed.Before(ct.Created) {
		t.Errorf("Completed %v is before Created %v", ct.Completed, ct.Created)
	}
	if _, ok := s.Get(added.ID); ok {
		t.Error("task still active after Complete()")
	}
	if got := len(s.Completed()); got != 1 {
		t.Errorf("len(Completed()) = %d, want 1", got)
	}
}

func Test_Store_Complete_ClockSkewKeepsOrder(t *testing.T) {
	t.Parallel()
	s, clk := newTestStore(t)

	added := mustAdd(t, s, "skewed", task.PriorityLow)
	clk.Advance(-2 * time.Hour)

	ct, err := s.Complete(added.ID)
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if !ct.Completed.Equal(ct.Created) {
		t.Errorf("Completed = %v, want clamped to Created %v", ct.Completed, ct.Created)
	}
}

func Test_Store_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		op   func(s *task.Store) error
	}{
		{"complete", func(s *task.Store) error { _, err := s.Complete("missing"); return err }},
		{"delete", func(s *task.Store) error { return s.Delete("missing") }},
		{"edit", func(s *task.Store) error { _, err := s.Edit("missing", "text"); return err }},
		{"cancel scheduled", func(s *task.Store) error { return s.CancelScheduled("missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestStore(t)
			mustAdd(t, s, "present", task.PriorityMedium)

			err := tt.op(s)
			if !errors.Is(err, task.ErrNotFound) {
				t.Fatalf("error = %v, want ErrNotFound", err)
			}
			var nf *task.NotFoundError
			if !errors.As(err, &nf) || nf.ID != "missing" {
				t.Errorf("error = %#v, want *NotFoundError for id %q", err, "missing")
			}
			if got := len(s.Tasks()); got != 1 {
				t.Errorf("len(Tasks()) = %d after failed op, want 1", got)
			}
		})
	}
}

func Test_Store_Edit(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	added := mustAdd(t, s, "old", task.PriorityLow)

	if _, err := s.Edit(added.ID, "  "); !errors.Is(err, task.ErrValidation) {
		t.Fatalf("Edit(empty) error = %v, want ErrValidation", err)
	}
	if got, _ := s.Get(added.ID); got.Text != "old" {
		t.Errorf("text changed by rejected edit: %q", got.Text)
	}

	edited, err := s.Edit(added.ID, "new")
	if err != nil {
		t.Fatalf("Edit() unexpected error: %v", err)
	}
	if edited.Text != "new" || edited.Priority != task.PriorityLow || !edited.Created.Equal(added.Created) {
		t.Errorf("Edit() = %+v, want only text changed", edited)
	}
}

func Test_Store_Delete(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a", task.PriorityLow)
	b := mustAdd(t, s, "b", task.PriorityLow)

	if err := s.Delete(a.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Errorf("Tasks() = %+v, want only %q", tasks, b.ID)
	}
	if len(s.Completed()) != 0 {
		t.Error("Delete() must not produce a completed task")
	}
}

// ---------------------------------------------------------------------------
// Schedule / Cancel / PromoteDue
// ---------------------------------------------------------------------------

func Test_Store_Schedule_TargetMustBeFuture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  time.Time
		wantErr bool
	}{
		{"past", baseTime.Add(-time.Hour), true},
		{"exactly now", baseTime, true},
		{"one second ahead", baseTime.Add(time.Second), false},
		{"next day", time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local), false},
		{"days earlier", time.Date(2024, 2, 28, 0, 0, 0, 0, time.Local), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestStore(t)
			st, err := s.Schedule("Call dentist", tt.target)
			if tt.wantErr {
				if !errors.Is(err, task.ErrValidation) {
					t.Fatalf("Schedule() error = %v, want ErrValidation", err)
				}
				if len(s.Scheduled()) != 0 {
					t.Error("rejected schedule mutated the store")
				}
				return
			}
			if err != nil {
				t.Fatalf("Schedule() unexpected error: %v", err)
			}
			got := s.Scheduled()
			if len(got) != 1 || got[0].ID != st.ID || !got[0].Target.Equal(tt.target) {
				t.Errorf("Scheduled() = %+v, want the new task", got)
			}
		})
	}
}

func Test_Store_Schedule_EmptyText(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	if _, err := s.Schedule(" ", baseTime.Add(time.Hour)); !errors.Is(err, task.ErrValidation) {
		t.Errorf("Schedule(empty) error = %v, want ErrValidation", err)
	}
}

func Test_Store_CancelScheduled(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	st, err := s.Schedule("x", baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("Schedule() unexpected error: %v", err)
	}
	if err := s.CancelScheduled(st.ID); err != nil {
		t.Fatalf("CancelScheduled() unexpected error: %v", err)
	}
	if len(s.Scheduled()) != 0 {
		t.Error("scheduled task still present after cancel")
	}
	if err := s.CancelScheduled(st.ID); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("second CancelScheduled() error = %v, want ErrNotFound", err)
	}
}

func Test_Store_PromoteDue_OneSecondPast(t *testing.T) {
	t.Parallel()
	s, clk := newTestStore(t)

	target := baseTime.Add(time.Minute)
	st, err := s.Schedule("Water plants", target)
	if err != nil {
		t.Fatalf("Schedule() unexpected error: %v", err)
	}

	now := target.Add(time.Second)
	clk.Set(now)
	promoted := s.PromoteDue(now)

	if len(promoted) != 1 {
		t.Fatalf("PromoteDue() returned %d tasks, want 1", len(promoted))
	}
	p := promoted[0]
	if p.Text != "Water plants" || p.Priority != task.PriorityHigh || p.ID != st.ID {
		t.Errorf("promoted = %+v, want High priority copy of %+v", p, st)
	}
	if len(s.Scheduled()) != 0 {
		t.Error("promoted task still in scheduled collection")
	}
	if got, ok := s.Get(st.ID); !ok || got.Text != "Water plants" {
		t.Errorf("Get(%q) = %+v, %v; want active task", st.ID, got, ok)
	}
}

func Test_Store_PromoteDue_NothingDue(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	if _, err := s.Schedule("later", baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("Schedule() unexpected error: %v", err)
	}
	promoted := s.PromoteDue(baseTime)
	if promoted == nil || len(promoted) != 0 {
		t.Errorf("PromoteDue() = %#v, want empty non-nil slice", promoted)
	}
	if len(s.Scheduled()) != 1 {
		t.Error("future task was removed")
	}
}

func Test_Store_PromoteDue_ClockJumpPromotesAllDue(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	for i, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour, 48 * time.Hour} {
		if _, err := s.Schedule(fmt.Sprintf("job %d", i), baseTime.Add(offset)); err != nil {
			t.Fatalf("Schedule() unexpected error: %v", err)
		}
	}

	promoted := s.PromoteDue(baseTime.Add(5 * time.Hour))
	if len(promoted) != 3 {
		t.Fatalf("PromoteDue() returned %d tasks, want 3", len(promoted))
	}
	wantOrder := []string{"job 1", "job 2", "job 0"}
	for i, want := range wantOrder {
		if promoted[i].Text != want {
			t.Errorf("promoted[%d].Text = %q, want %q", i, promoted[i].Text, want)
		}
	}
	if got := len(s.Scheduled()); got != 1 {
		t.Errorf("len(Scheduled()) = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// Ordering, search, ids, snapshots
// ---------------------------------------------------------------------------

func Test_Store_Tasks_SortedByPriority(t *testing.T) {
	t.Parallel()
	s, clk := newTestStore(t)
	mustAdd(t, s, "low", task.PriorityLow)
	clk.Advance(time.Minute)
	mustAdd(t, s, "high", task.PriorityHigh)
	clk.Advance(time.Minute)
	mustAdd(t, s, "medium", task.PriorityMedium)
	clk.Advance(time.Minute)
	mustAdd(t, s, "high 2", task.PriorityHigh)

	var got []string
	for _, tk := range s.Tasks() {
		got = append(got, tk.Text)
	}
	want := []string{"high", "high 2", "medium", "low"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Tasks() order = %v, want %v", got, want)
	}
}

func Test_Store_Search(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	mustAdd(t, s, "Buy milk", task.PriorityLow)
	mustAdd(t, s, "buy bread", task.PriorityHigh)
	mustAdd(t, s, "Call mom", task.PriorityHigh)

	got := s.Search("BUY")
	if len(got) != 2 || got[0].Text != "buy bread" || got[1].Text != "Buy milk" {
		t.Errorf("Search(BUY) = %+v", got)
	}
	if len(s.Search("")) != 3 {
		t.Error("empty query should match every task")
	}
}

func Test_Store_Completed_MostRecentFirst(t *testing.T) {
	t.Parallel()
	s, clk := newTestStore(t)
	a := mustAdd(t, s, "a", task.PriorityLow)
	b := mustAdd(t, s, "b", task.PriorityLow)
	if _, err := s.Complete(a.ID); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	if _, err := s.Complete(b.ID); err != nil {
		t.Fatal(err)
	}

	got := s.Completed()
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("Completed() order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, b.ID, a.ID)
	}
	if n := s.ClearCompleted(); n != 2 {
		t.Errorf("ClearCompleted() = %d, want 2", n)
	}
	if len(s.Completed()) != 0 {
		t.Error("completed collection not empty after ClearCompleted()")
	}
}

func Test_Store_IDsUniqueAcrossCollections(t *testing.T) {
	t.Parallel()
	clk := clock.NewFake(baseTime)
	// Generator that repeats every value twice to force collisions.
	seq := []string{"a", "a", "b", "b", "c", "c", "d"}
	i := 0
	s := task.NewStore(clk, task.WithIDFunc(func() string {
		id := seq[i]
		i++
		return id
	}))

	t1 := mustAdd(t, s, "one", task.PriorityLow)
	if _, err := s.Complete(t1.ID); err != nil {
		t.Fatal(err)
	}
	st, err := s.Schedule("two", baseTime.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	t3 := mustAdd(t, s, "three", task.PriorityLow)

	seen := map[string]bool{t1.ID: true}
	for _, id := range []string{st.ID, t3.ID} {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func Test_Store_SnapshotIsACopy(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a", task.PriorityLow)

	snap := s.Snapshot()
	if _, err := s.Edit(a.ID, "changed"); err != nil {
		t.Fatal(err)
	}
	if snap.Tasks[0].Text != "a" {
		t.Errorf("snapshot mutated by later edit: %q", snap.Tasks[0].Text)
	}

	other, _ := newTestStore(t)
	other.Restore(snap)
	if got, ok := other.Get(a.ID); !ok || got.Text != "a" {
		t.Errorf("Restore() lost task: %+v, %v", got, ok)
	}
}
