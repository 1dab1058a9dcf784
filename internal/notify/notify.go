// Package notify carries engine events to whoever presents them.
//
// Delivery is fire-and-forget: Notify must not block the caller. Decisions
// about a ScheduledTaskDue event come back through the engine's
// ResolvePromotion, never through the sink.
package notify

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JamesPrial/todo-engine/internal/task"
)

// Kind identifies an event type.
type Kind string

const (
	KindScheduledTaskDue Kind = "scheduled_task_due"
	KindPeriodicReminder Kind = "periodic_reminder"
)

// Event is a notification emitted by the background loops.
type Event struct {
	Kind Kind       `json:"kind"`
	Task *task.Task `json:"task,omitempty"`
	At   time.Time  `json:"at"`
}

// ScheduledTaskDue builds the event for a freshly promoted task.
func ScheduledTaskDue(t task.Task, at time.Time) Event {
	return Event{Kind: KindScheduledTaskDue, Task: &t, At: at}
}

// PeriodicReminder builds the recurring reminder event.
func PeriodicReminder(at time.Time) Event {
	return Event{Kind: KindPeriodicReminder, At: at}
}

// Sink receives events.
type Sink interface {
	Notify(Event)
}

// Func adapts a function to Sink.
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = Func(func(Event) {})

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) Notify(e Event) {
	for _, s := range f {
		s.Notify(e)
	}
}

// LogSink writes events to a logger.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Notify(e Event) {
	switch e.Kind {
	case KindScheduledTaskDue:
		if e.Task != nil {
			s.Logger.Info("scheduled task due", "id", e.Task.ID, "text", e.Task.Text)
			return
		}
		s.Logger.Info("scheduled task due")
	case KindPeriodicReminder:
		s.Logger.Info("reminder: time to drink water")
	default:
		s.Logger.Debug("event", "kind", e.Kind)
	}
}

// DefaultQueueSize is the capacity used when NewQueue gets a non-positive size.
const DefaultQueueSize = 256

// Queue buffers events until a caller drains them. When full, the oldest
// event is dropped so Notify never blocks.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	size    int
	dropped int
}

// NewQueue returns a queue holding at most size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{size: size}
}

func (q *Queue) Notify(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= q.size {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, e)
}

// Drain returns every buffered event, oldest first, and empties the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	if out == nil {
		out = make([]Event, 0)
	}
	return out
}

// Dropped reports how many events were discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
