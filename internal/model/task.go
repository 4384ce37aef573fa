package model

// TaskStatus is the completion state of a task. Anything other than "done"
// is treated as active by the evaluation engine.
type TaskStatus string

const (
	TaskStatusTodo TaskStatus = "todo"
	TaskStatusDone TaskStatus = "done"
)

// DefaultDurationMin is assumed when a task carries no explicit duration.
const DefaultDurationMin = 60

// MinDurationMin is the floor applied when a reschedule derives a duration
// from a start/end pair.
const MinDurationMin = 15

// Location is an optional place attached to a task. Lat and Lng are
// pointers so that "not set" is distinguishable from coordinate zero.
type Location struct {
	Label string   `json:"label,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

// Task is the evaluation-relevant projection of a user task. Field names
// match the persisted document format. Unknown fields supplied by callers
// are ignored (structural matching).
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title,omitempty"`
	Status         TaskStatus `json:"status,omitempty"`
	ScheduledStart string     `json:"scheduledStart,omitempty"` // ISO-8601
	DueAt          string     `json:"dueAt,omitempty"`          // ISO-8601
	DurationMin    *int       `json:"durationMin,omitempty"`
	Memo           string     `json:"memo,omitempty"`
	Location       *Location  `json:"location,omitempty"`
}

// Done reports whether the task is completed.
func (t Task) Done() bool {
	return t.Status == TaskStatusDone
}

// Duration returns the task's duration in minutes, defaulting when unset.
func (t Task) Duration() int {
	if t.DurationMin != nil {
		return *t.DurationMin
	}
	return DefaultDurationMin
}

// HasLocation reports whether the task carries a usable location: a
// non-empty label, or both coordinates present.
func (t Task) HasLocation() bool {
	if t.Location == nil {
		return false
	}
	if t.Location.Label != "" {
		return true
	}
	return t.Location.Lat != nil && t.Location.Lng != nil
}
