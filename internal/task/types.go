// Package task defines the task model and the store that owns the active,
// completed and scheduled collections.
//
// The store enforces the collection invariants (unique ids, non-empty text,
// strictly-future schedule targets) but is not safe for concurrent use. The
// engine serializes every call through a single lock.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency of an active task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DefaultPriority is used when a caller does not pick one.
const DefaultPriority = PriorityMedium

// ParsePriority converts user input into a Priority.
//
// Matching is case-insensitive and ignores surrounding whitespace. An empty
// string yields DefaultPriority. Any other value is a ValidationError.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPriority, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q, expected High, Medium or Low", s)}
	}
}

// targetLayouts are the accepted input forms for a schedule target, most
// specific first. Forms without a zone are read in local time.
var targetLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTarget parses a schedule target typed by a user. Returns a
// ValidationError on field "target_time" if no layout matches.
func ParseTarget(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range targetLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "target_time", Message: fmt.Sprintf("cannot parse %q, expected YYYY-MM-DD HH:MM[:SS]", s)}
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// rank orders priorities for display, High first.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Task is an active to-do item.
type Task struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Priority Priority  `json:"priority"`
	Created  time.Time `json:"created"`
}

// CompletedTask is a Task that was finished. It is immutable once created.
type CompletedTask struct {
	Task
	Completed time.Time `json:"completed"`
}

// ScheduledTask is a task waiting for its target time. When due it is
// promoted into the active collection with PriorityHigh.
type ScheduledTask struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
	Target  time.Time `json:"target_time"`
}
