// Package streak tracks the number of consecutive calendar days with at least
// one completed task.
package streak

// State is the persisted streak.
type State struct {
	Count         int   `json:"streak_count"`
	LastCompleted *Date `json:"last_completed_date"`
}

// Tracker is a day-granularity state machine over State. It is not safe for
// concurrent use.
type Tracker struct {
	state State
}

// NewTracker returns a tracker resumed from st. Negative counts are clamped
// to zero.
func NewTracker(st State) *Tracker {
	t := &Tracker{}
	t.Restore(st)
	return t
}

// RecordCompletion registers a completion on today and reports whether the
// state changed.
//
// A second completion on the same day is a no-op. The day after the last
// completion extends the streak; any other day, including one earlier than
// the last completion, starts a new streak of 1.
func (t *Tracker) RecordCompletion(today Date) bool {
	last := t.state.LastCompleted
	switch {
	case last == nil:
		t.state.Count = 1
	case today == *last:
		return false
	case today == last.AddDays(1):
		t.state.Count++
	default:
		t.state.Count = 1
	}
	d := today
	t.state.LastCompleted = &d
	return true
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	st := State{Count: t.state.Count}
	if t.state.LastCompleted != nil {
		d := *t.state.LastCompleted
		st.LastCompleted = &d
	}
	return st
}

// Restore replaces the tracker state with a copy of st.
func (t *Tracker) Restore(st State) {
	if st.Count < 0 {
		st.Count = 0
	}
	t.state = State{Count: st.Count}
	if st.LastCompleted != nil {
		d := *st.LastCompleted
		t.state.LastCompleted = &d
	}
}
