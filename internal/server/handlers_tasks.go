package server

import (
	"net/http"

	"github.com/ashita-ai/tsukimi/internal/model"
	"github.com/ashita-ai/tsukimi/internal/store"
)

// HandleListTasks handles GET /v1/tasks.
func (h *Handlers) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.tasks.List())
}

// HandleCreateTask handles POST /v1/tasks.
func (h *Handlers) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "title is required")
		return
	}

	task := h.tasks.Add(r.Context(), store.TaskInput{
		Title:       req.Title,
		DueAt:       req.DueAt,
		DurationMin: req.DurationMin,
		Memo:        req.Memo,
		Location:    req.Location,
	})
	writeJSON(w, r, http.StatusCreated, task)
}

// HandleGetTask handles GET /v1/tasks/{task_id}.
func (h *Handlers) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.tasks.Get(r.PathValue("task_id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	writeJSON(w, r, http.StatusOK, task)
}

// HandleUpdateTask handles PATCH /v1/tasks/{task_id}.
func (h *Handlers) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTaskRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Status != nil && *req.Status != model.TaskStatusTodo && *req.Status != model.TaskStatusDone {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "status must be todo or done")
		return
	}

	taskID := r.PathValue("task_id")
	if !h.tasks.Update(r.Context(), taskID, store.TaskPatch{
		Title:       req.Title,
		Status:      req.Status,
		DurationMin: req.DurationMin,
		Memo:        req.Memo,
	}) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	h.writeTask(w, r, taskID)
}

// HandleDeleteTask handles DELETE /v1/tasks/{task_id}.
func (h *Handlers) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if !h.tasks.Delete(r.Context(), r.PathValue("task_id")) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleDone handles POST /v1/tasks/{task_id}/done.
func (h *Handlers) HandleToggleDone(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")
	if !h.tasks.ToggleDone(r.Context(), taskID) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	h.writeTask(w, r, taskID)
}

// HandleScheduleTask handles POST /v1/tasks/{task_id}/schedule. With an
// end timestamp the duration is re-derived from the pair; without one the
// existing duration is kept.
func (h *Handlers) HandleScheduleTask(w http.ResponseWriter, r *http.Request) {
	var req model.ScheduleTaskRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if _, ok := model.ParseTimestamp(req.Start, h.loc); !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "start must be an ISO-8601 timestamp")
		return
	}

	taskID := r.PathValue("task_id")
	var ok bool
	if req.End != "" {
		ok = h.tasks.Reschedule(r.Context(), taskID, req.Start, req.End)
	} else {
		ok = h.tasks.Schedule(r.Context(), taskID, req.Start)
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	h.writeTask(w, r, taskID)
}

// HandleSetDue handles POST /v1/tasks/{task_id}/due. An empty dueAt
// clears the deadline.
func (h *Handlers) HandleSetDue(w http.ResponseWriter, r *http.Request) {
	var req model.SetDueRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.DueAt != "" {
		if _, ok := model.ParseTimestamp(req.DueAt, h.loc); !ok {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "dueAt must be an ISO-8601 timestamp")
			return
		}
	}

	taskID := r.PathValue("task_id")
	if !h.tasks.SetDue(r.Context(), taskID, req.DueAt) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	h.writeTask(w, r, taskID)
}

// HandleSetLocation handles POST /v1/tasks/{task_id}/location. A null
// location clears it.
func (h *Handlers) HandleSetLocation(w http.ResponseWriter, r *http.Request) {
	var req model.SetLocationRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	taskID := r.PathValue("task_id")
	if !h.tasks.SetLocation(r.Context(), taskID, req.Location) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	h.writeTask(w, r, taskID)
}

func (h *Handlers) writeTask(w http.ResponseWriter, r *http.Request, taskID string) {
	task, ok := h.tasks.Get(taskID)
	if !ok {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "task not found")
		return
	}
	writeJSON(w, r, http.StatusOK, task)
}
