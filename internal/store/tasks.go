package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/ashita-ai/tsukimi/internal/model"
)

const tasksDocKey = "tasks"

// TaskSnapshot is the persisted task-store document.
type TaskSnapshot struct {
	Version int          `json:"version"`
	Tasks   []model.Task `json:"tasks"`
}

// TaskInput is the caller-supplied portion of a new task.
type TaskInput struct {
	Title       string
	DueAt       string
	DurationMin *int
	Memo        string
	Location    *model.Location
}

// TaskPatch is a partial update over a task's simple fields. Nil fields
// are left unchanged.
type TaskPatch struct {
	Title       *string
	Status      *model.TaskStatus
	DurationMin *int
	Memo        *string
}

// Tasks owns the task collection. Same discipline as Rules: in-memory
// single-writer state, full-snapshot best-effort persistence after every
// mutation.
type Tasks struct {
	mu    sync.RWMutex
	tasks []model.Task

	db     Persister
	logger *slog.Logger
}

// NewTasks creates a task store backed by the given persister (nil for
// in-memory only).
func NewTasks(db Persister, logger *slog.Logger) *Tasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tasks{db: db, logger: logger}
}

// Hydrate loads the persisted task list once. Malformed records are
// dropped individually; any load error leaves the store empty.
func (s *Tasks) Hydrate(ctx context.Context) {
	if s.db == nil {
		return
	}

	doc, ok, err := s.db.Load(ctx, tasksDocKey)
	if err != nil {
		s.logger.Warn("task snapshot load failed", "error", err)
		return
	}
	if !ok {
		return
	}

	var head struct {
		Version int               `json:"version"`
		Tasks   []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		s.logger.Warn("task snapshot unreadable, starting empty", "error", err)
		return
	}
	if head.Version != SnapshotVersion {
		s.logger.Warn("task snapshot version mismatch, discarding",
			"stored", head.Version, "current", SnapshotVersion)
		return
	}

	kept := make([]model.Task, 0, len(head.Tasks))
	for _, raw := range head.Tasks {
		var t model.Task
		if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" {
			s.logger.Warn("dropping malformed task record")
			continue
		}
		kept = append(kept, t)
	}

	s.mu.Lock()
	s.tasks = kept
	s.mu.Unlock()
}

// Add creates a new task in "todo" state and prepends it to the list.
func (s *Tasks) Add(ctx context.Context, in TaskInput) model.Task {
	t := model.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Status:      model.TaskStatusTodo,
		DueAt:       in.DueAt,
		DurationMin: in.DurationMin,
		Memo:        in.Memo,
		Location:    in.Location,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]model.Task{t}, s.tasks...)
	s.persistLocked(ctx)
	return t
}

// Update applies a partial patch. Returns false if the task is not found.
func (s *Tasks) Update(ctx context.Context, taskID string, patch TaskPatch) bool {
	return s.mutate(ctx, taskID, func(t *model.Task) {
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.DurationMin != nil {
			t.DurationMin = patch.DurationMin
		}
		if patch.Memo != nil {
			t.Memo = *patch.Memo
		}
	})
}

// ToggleDone flips a task between todo and done.
func (s *Tasks) ToggleDone(ctx context.Context, taskID string) bool {
	return s.mutate(ctx, taskID, func(t *model.Task) {
		if t.Status == model.TaskStatusDone {
			t.Status = model.TaskStatusTodo
		} else {
			t.Status = model.TaskStatusDone
		}
	})
}

// Schedule sets a task's scheduled start, keeping its duration.
func (s *Tasks) Schedule(ctx context.Context, taskID, startISO string) bool {
	return s.mutate(ctx, taskID, func(t *model.Task) {
		t.ScheduledStart = startISO
	})
}

// Reschedule sets a task's start and re-derives its duration from the
// start/end pair, floored at MinDurationMin.
func (s *Tasks) Reschedule(ctx context.Context, taskID, startISO, endISO string) bool {
	start, okS := model.ParseTimestamp(startISO, nil)
	end, okE := model.ParseTimestamp(endISO, nil)

	return s.mutate(ctx, taskID, func(t *model.Task) {
		t.ScheduledStart = startISO
		if okS && okE {
			d := int(math.Round(end.Sub(start).Minutes()))
			if d < model.MinDurationMin {
				d = model.MinDurationMin
			}
			t.DurationMin = &d
		}
	})
}

// SetDue updates the deadline; an empty string clears it.
func (s *Tasks) SetDue(ctx context.Context, taskID, dueISO string) bool {
	return s.mutate(ctx, taskID, func(t *model.Task) {
		t.DueAt = dueISO
	})
}

// SetLocation updates the location; nil clears it.
func (s *Tasks) SetLocation(ctx context.Context, taskID string, loc *model.Location) bool {
	return s.mutate(ctx, taskID, func(t *model.Task) {
		t.Location = loc
	})
}

// Delete removes a task by id. No-op if not found.
func (s *Tasks) Delete(ctx context.Context, taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != taskID {
			next = append(next, t)
		}
	}
	if len(next) == len(s.tasks) {
		return false
	}
	s.tasks = next
	s.persistLocked(ctx)
	return true
}

// Get returns the task with the given id.
func (s *Tasks) Get(taskID string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return model.Task{}, false
}

// List returns a copy of the full task snapshot.
func (s *Tasks) List() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Tasks) mutate(ctx context.Context, taskID string, apply func(*model.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			apply(&s.tasks[i])
			s.persistLocked(ctx)
			return true
		}
	}
	return false
}

func (s *Tasks) persistLocked(ctx context.Context) {
	if s.db == nil {
		return
	}
	doc, err := json.Marshal(TaskSnapshot{Version: SnapshotVersion, Tasks: s.tasks})
	if err != nil {
		s.logger.Warn("task snapshot marshal failed", "error", err)
		return
	}
	if err := s.db.Save(ctx, tasksDocKey, doc); err != nil {
		s.logger.Warn("task snapshot save failed", "error", err)
	}
}
