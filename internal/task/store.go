package task

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JamesPrial/todo-engine/internal/clock"
)

// Snapshot is a deep copy of the three collections.
type Snapshot struct {
	Tasks     []Task
	Completed []CompletedTask
	Scheduled []ScheduledTask
}

// Store owns the active, completed and scheduled collections.
type Store struct {
	clock clock.Clock
	newID func() string

	active    []Task
	completed []CompletedTask
	scheduled []ScheduledTask
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithIDFunc replaces the uuid generator. Tests use it for stable ids.
func WithIDFunc(fn func() string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates an empty Store reading time from clk.
func NewStore(clk clock.Clock, opts ...StoreOption) *Store {
	s := &Store{
		clock: clk,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a new active task.
func (s *Store) Add(text string, priority Priority) (Task, error) {
	text, err := cleanText(text)
	if err != nil {
		return Task{}, err
	}
	if !priority.Valid() {
		return Task{}, &ValidationError{Field: "priority", Message: "must be High, Medium or Low"}
	}

	t := Task{
		ID:       s.uniqueID(),
		Text:     text,
		Priority: priority,
		Created:  s.clock.Now(),
	}
	s.active = append(s.active, t)
	return t, nil
}

// Complete moves an active task into the completed collection.
//
// The completion timestamp never precedes the creation timestamp, even if the
// clock moved backwards since the task was created.
func (s *Store) Complete(id string) (CompletedTask, error) {
	i := s.activeIndex(id)
	if i < 0 {
		return CompletedTask{}, &NotFoundError{Collection: CollectionActive, ID: id}
	}

	t := s.active[i]
	now := s.clock.Now()
	if now.Before(t.Created) {
		now = t.Created
	}
	ct := CompletedTask{Task: t, Completed: now}

	s.active = append(s.active[:i], s.active[i+1:]...)
	s.completed = append(s.completed, ct)
	return ct, nil
}

// Delete discards an active task.
func (s *Store) Delete(id string) error {
	i := s.activeIndex(id)
	if i < 0 {
		return &NotFoundError{Collection: CollectionActive, ID: id}
	}
	s.active = append(s.active[:i], s.active[i+1:]...)
	return nil
}

// Edit replaces the text of an active task.
func (s *Store) Edit(id, newText string) (Task, error) {
	text, err := cleanText(newText)
	if err != nil {
		return Task{}, err
	}
	i := s.activeIndex(id)
	if i < 0 {
		return Task{}, &NotFoundError{Collection: CollectionActive, ID: id}
	}
	s.active[i].Text = text
	return s.active[i], nil
}

// Schedule registers a task to be promoted at target.
// target must be strictly after the clock's current time.
func (s *Store) Schedule(text string, target time.Time) (ScheduledTask, error) {
	text, err := cleanText(text)
	if err != nil {
		return ScheduledTask{}, err
	}
	now := s.clock.Now()
	if !target.After(now) {
		return ScheduledTask{}, &ValidationError{
			Field:   "target_time",
			Message: "scheduled time must be in the future",
		}
	}

	st := ScheduledTask{
		ID:      s.uniqueID(),
		Text:    text,
		Created: now,
		Target:  target,
	}
	s.scheduled = append(s.scheduled, st)
	return st, nil
}

// CancelScheduled removes a scheduled task before it is promoted.
func (s *Store) CancelScheduled(id string) error {
	for i := range s.scheduled {
		if s.scheduled[i].ID == id {
			s.scheduled = append(s.scheduled[:i], s.scheduled[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Collection: CollectionScheduled, ID: id}
}

// PromoteDue moves every scheduled task whose target is at or before now into
// the active collection with PriorityHigh, in target order. The promoted task
// keeps the scheduled task's id. Returns an empty slice when nothing is due.
func (s *Store) PromoteDue(now time.Time) []Task {
	var due []ScheduledTask
	kept := s.scheduled[:0]
	for _, st := range s.scheduled {
		if !st.Target.After(now) {
			due = append(due, st)
			continue
		}
		kept = append(kept, st)
	}
	// Zero the tail so removed entries are not retained by the backing array.
	for i := len(kept); i < len(s.scheduled); i++ {
		s.scheduled[i] = ScheduledTask{}
	}
	s.scheduled = kept

	sort.SliceStable(due, func(i, j int) bool { return due[i].Target.Before(due[j].Target) })

	promoted := make([]Task, 0, len(due))
	for _, st := range due {
		t := Task{
			ID:       st.ID,
			Text:     st.Text,
			Priority: PriorityHigh,
			Created:  now,
		}
		s.active = append(s.active, t)
		promoted = append(promoted, t)
	}
	return promoted
}

// ClearCompleted empties the completed collection and returns how many
// entries were removed.
func (s *Store) ClearCompleted() int {
	n := len(s.completed)
	s.completed = nil
	return n
}

// Get returns the active task with the given id.
func (s *Store) Get(id string) (Task, bool) {
	i := s.activeIndex(id)
	if i < 0 {
		return Task{}, false
	}
	return s.active[i], true
}

// Tasks returns the active tasks ordered by priority (High first), then by
// creation time.
func (s *Store) Tasks() []Task {
	out := append([]Task(nil), s.active...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.rank(), out[j].Priority.rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Search returns the active tasks whose text contains query, ignoring case,
// in the same order as Tasks. An empty query matches everything.
func (s *Store) Search(query string) []Task {
	q := strings.ToLower(strings.TrimSpace(query))
	all := s.Tasks()
	if q == "" {
		return all
	}
	out := make([]Task, 0, len(all))
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Text), q) {
			out = append(out, t)
		}
	}
	return out
}

// Completed returns completed tasks, most recent first.
func (s *Store) Completed() []CompletedTask {
	out := make([]CompletedTask, len(s.completed))
	for i, ct := range s.completed {
		out[len(s.completed)-1-i] = ct
	}
	return out
}

// Scheduled returns scheduled tasks ordered by target time.
func (s *Store) Scheduled() []ScheduledTask {
	out := append([]ScheduledTask(nil), s.scheduled...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Target.Before(out[j].Target) })
	return out
}

// Snapshot returns a deep copy of the collections in insertion order.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Tasks:     append([]Task(nil), s.active...),
		Completed: append([]CompletedTask(nil), s.completed...),
		Scheduled: append([]ScheduledTask(nil), s.scheduled...),
	}
}

// Restore replaces the collections with a copy of snap.
func (s *Store) Restore(snap Snapshot) {
	s.active = append([]Task(nil), snap.Tasks...)
	s.completed = append([]CompletedTask(nil), snap.Completed...)
	s.scheduled = append([]ScheduledTask(nil), snap.Scheduled...)
}

func (s *Store) activeIndex(id string) int {
	for i := range s.active {
		if s.active[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueID draws ids until one is unused in every collection. With uuids
// the loop body runs once; injected generators may collide.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if !s.hasID(id) {
			return id
		}
	}
}

func (s *Store) hasID(id string) bool {
	if s.activeIndex(id) >= 0 {
		return true
	}
	for _, ct := range s.completed {
		if ct.ID == id {
			return true
		}
	}
	for _, st := range s.scheduled {
		if st.ID == id {
			return true
		}
	}
	return false
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ValidationError{Field: "text", Message: "must not be empty"}
	}
	return text, nil
}
