package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JamesPrial/todo-engine/internal/streak"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// Timestamp layouts of the persisted document, in local time.
const (
	TimestampLayout = "2006-01-02 15:04"
	TargetLayout    = "2006-01-02 15:04:05"
)

// TaskRecord is the persisted form of task.Task.
type TaskRecord struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Priority string `json:"priority"`
	Created  string `json:"created"`
}

// CompletedRecord is the persisted form of task.CompletedTask.
type CompletedRecord struct {
	TaskRecord
	Completed string `json:"completed"`
}

// ScheduledRecord is the persisted form of task.ScheduledTask.
type ScheduledRecord struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Created    string `json:"created"`
	TargetTime string `json:"target_time"`

	// Datetime is the target field name used by legacy desktop documents.
	// It is read on load and never written.
	Datetime string `json:"datetime,omitempty"`
}

// Document is the single persisted document shared by all backends.
type Document struct {
	Tasks             []TaskRecord      `json:"tasks"`
	CompletedTasks    []CompletedRecord `json:"completed_tasks"`
	ScheduledTasks    []ScheduledRecord `json:"scheduled_tasks"`
	StreakCount       int               `json:"streak_count"`
	LastCompletedDate *string           `json:"last_completed_date"`
	ReminderEnabled   bool              `json:"reminder_enabled"`
}

// Encode converts st into its persisted form. Slices are never nil so they
// serialize as [] rather than null.
func Encode(st State) Document {
	doc := Document{
		Tasks:           make([]TaskRecord, 0, len(st.Tasks)),
		CompletedTasks:  make([]CompletedRecord, 0, len(st.Completed)),
		ScheduledTasks:  make([]ScheduledRecord, 0, len(st.Scheduled)),
		StreakCount:     st.Streak.Count,
		ReminderEnabled: st.ReminderEnabled,
	}
	for _, t := range st.Tasks {
		doc.Tasks = append(doc.Tasks, encodeTask(t))
	}
	for _, ct := range st.Completed {
		doc.CompletedTasks = append(doc.CompletedTasks, CompletedRecord{
			TaskRecord: encodeTask(ct.Task),
			Completed:  formatTimestamp(ct.Completed),
		})
	}
	for _, s := range st.Scheduled {
		doc.ScheduledTasks = append(doc.ScheduledTasks, ScheduledRecord{
			ID:         s.ID,
			Text:       s.Text,
			Created:    formatTimestamp(s.Created),
			TargetTime: s.Target.In(time.Local).Format(TargetLayout),
		})
	}
	if st.Streak.LastCompleted != nil {
		d := st.Streak.LastCompleted.String()
		doc.LastCompletedDate = &d
	}
	return doc
}

// Decode converts a persisted document into State.
//
// Records without an id, or whose id repeats an earlier record, get a fresh
// uuid so ids stay unique across the three collections.
func Decode(doc Document) (State, error) {
	st := State{ReminderEnabled: doc.ReminderEnabled}
	seen := make(map[string]bool)
	uniq := func(id string) string {
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		return id
	}

	for i, r := range doc.Tasks {
		t, err := decodeTask(r)
		if err != nil {
			return State{}, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		t.ID = uniq(t.ID)
		st.Tasks = append(st.Tasks, t)
	}
	for i, r := range doc.CompletedTasks {
		t, err := decodeTask(r.TaskRecord)
		if err != nil {
			return State{}, fmt.Errorf("completed_tasks[%d]: %w", i, err)
		}
		completed, err := parseTimestamp(r.Completed)
		if err != nil {
			return State{}, fmt.Errorf("completed_tasks[%d].completed: %w", i, err)
		}
		if completed.Before(t.Created) {
			completed = t.Created
		}
		t.ID = uniq(t.ID)
		st.Completed = append(st.Completed, task.CompletedTask{Task: t, Completed: completed})
	}
	for i, r := range doc.ScheduledTasks {
		s, err := decodeScheduled(r)
		if err != nil {
			return State{}, fmt.Errorf("scheduled_tasks[%d]: %w", i, err)
		}
		s.ID = uniq(s.ID)
		st.Scheduled = append(st.Scheduled, s)
	}

	if doc.StreakCount < 0 {
		return State{}, fmt.Errorf("streak_count must not be negative, got %d", doc.StreakCount)
	}
	st.Streak.Count = doc.StreakCount
	if doc.LastCompletedDate != nil && *doc.LastCompletedDate != "" {
		d, err := streak.ParseDate(*doc.LastCompletedDate)
		if err != nil {
			return State{}, fmt.Errorf("last_completed_date: %w", err)
		}
		st.Streak.LastCompleted = &d
	}
	return st, nil
}

func encodeTask(t task.Task) TaskRecord {
	return TaskRecord{
		ID:       t.ID,
		Text:     t.Text,
		Priority: string(t.Priority),
		Created:  formatTimestamp(t.Created),
	}
}

func decodeTask(r TaskRecord) (task.Task, error) {
	if r.Text == "" {
		return task.Task{}, fmt.Errorf("text is empty")
	}
	p, err := task.ParsePriority(r.Priority)
	if err != nil {
		return task.Task{}, err
	}
	created, err := parseTimestamp(r.Created)
	if err != nil {
		return task.Task{}, fmt.Errorf("created: %w", err)
	}
	return task.Task{ID: r.ID, Text: r.Text, Priority: p, Created: created}, nil
}

func decodeScheduled(r ScheduledRecord) (task.ScheduledTask, error) {
	if r.Text == "" {
		return task.ScheduledTask{}, fmt.Errorf("text is empty")
	}
	raw := r.TargetTime
	if raw == "" {
		raw = r.Datetime
	}
	target, err := parseTimestamp(raw)
	if err != nil {
		return task.ScheduledTask{}, fmt.Errorf("target_time: %w", err)
	}
	created, err := parseTimestamp(r.Created)
	if err != nil {
		return task.ScheduledTask{}, fmt.Errorf("created: %w", err)
	}
	return task.ScheduledTask{ID: r.ID, Text: r.Text, Created: created, Target: target}, nil
}

func formatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// parseTimestamp accepts both the minute and the second layouts.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TargetLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, expected %q", s, TimestampLayout)
	}
	return t, nil
}
