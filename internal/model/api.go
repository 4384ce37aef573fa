package model

import "time"

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// RuleTypeInfo describes one catalog entry for GET /v1/rule-types.
type RuleTypeInfo struct {
	Type        RuleType           `json:"type"`
	Label       string             `json:"label"`
	Description string             `json:"description"`
	Defaults    map[string]float64 `json:"defaults"`
}

// RuleView is a rule instance with its rendered one-line summary.
type RuleView struct {
	Rule
	Summary string `json:"summary"`
}

// RuleListResponse is the response for GET /v1/months/{month}/rules.
// AtCap tells the UI to disable the add-rule affordance; an at-cap add is
// a silent no-op, not an error.
type RuleListResponse struct {
	MonthKey MonthKey   `json:"monthKey"`
	Rules    []RuleView `json:"rules"`
	AtCap    bool       `json:"atCap"`
}

// CreateRuleRequest is the request body for POST /v1/months/{month}/rules.
type CreateRuleRequest struct {
	Type RuleType `json:"type"`
}

// UpdateRuleRequest is the request body for PATCH /v1/months/{month}/rules/{id}.
type UpdateRuleRequest struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// WarningsResponse is the response for GET /v1/months/{month}/warnings.
type WarningsResponse struct {
	MonthKey       MonthKey            `json:"monthKey"`
	Warnings       []Warning           `json:"warnings"`
	WarnCount      int                 `json:"warnCount"`
	InfoCount      int                 `json:"infoCount"`
	SeverityByTask map[string]Severity `json:"severityByTask"`
}

// CreateTaskRequest is the request body for POST /v1/tasks.
type CreateTaskRequest struct {
	Title       string    `json:"title"`
	DueAt       string    `json:"dueAt,omitempty"`
	DurationMin *int      `json:"durationMin,omitempty"`
	Memo        string    `json:"memo,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// UpdateTaskRequest is the request body for PATCH /v1/tasks/{id}.
// Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string     `json:"title,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	DurationMin *int        `json:"durationMin,omitempty"`
	Memo        *string     `json:"memo,omitempty"`
}

// ScheduleTaskRequest is the request body for POST /v1/tasks/{id}/schedule.
// End is optional; when present the duration is re-derived from the pair.
type ScheduleTaskRequest struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// SetDueRequest is the request body for POST /v1/tasks/{id}/due.
// An empty DueAt clears the deadline.
type SetDueRequest struct {
	DueAt string `json:"dueAt"`
}

// SetLocationRequest is the request body for POST /v1/tasks/{id}/location.
// A nil location clears it.
type SetLocationRequest struct {
	Location *Location `json:"location"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Store   string `json:"store"`
	Uptime  int64  `json:"uptime_seconds"`
}
