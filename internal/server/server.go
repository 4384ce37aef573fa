package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashita-ai/tsukimi/internal/store"
)

// Server is the Tsukimi HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Config holds all dependencies and configuration for creating a Server.
type Config struct {
	// Required dependencies.
	Rules  *store.Rules
	Tasks  *store.Tasks
	DB     *store.DB // optional; used only for health reporting
	Logger *slog.Logger

	// Evaluation settings.
	Location *time.Location

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg Config) *Server {
	h := newHandlers(cfg)

	mux := http.NewServeMux()

	// Catalog and health (read-only, no body).
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /v1/rule-types", h.HandleRuleTypes)

	// Month-scoped rules.
	mux.HandleFunc("GET /v1/months/{month}/rules", h.HandleListRules)
	mux.HandleFunc("POST /v1/months/{month}/rules", h.HandleAddRule)
	mux.HandleFunc("PATCH /v1/months/{month}/rules/{rule_id}", h.HandleUpdateRule)
	mux.HandleFunc("PATCH /v1/months/{month}/rules/{rule_id}/params", h.HandleUpdateParams)
	mux.HandleFunc("DELETE /v1/months/{month}/rules/{rule_id}", h.HandleDeleteRule)

	// Evaluation.
	mux.HandleFunc("GET /v1/months/{month}/warnings", h.HandleWarnings)

	// Tasks.
	mux.HandleFunc("GET /v1/tasks", h.HandleListTasks)
	mux.HandleFunc("POST /v1/tasks", h.HandleCreateTask)
	mux.HandleFunc("GET /v1/tasks/{task_id}", h.HandleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{task_id}", h.HandleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{task_id}", h.HandleDeleteTask)
	mux.HandleFunc("POST /v1/tasks/{task_id}/done", h.HandleToggleDone)
	mux.HandleFunc("POST /v1/tasks/{task_id}/schedule", h.HandleScheduleTask)
	mux.HandleFunc("POST /v1/tasks/{task_id}/due", h.HandleSetDue)
	mux.HandleFunc("POST /v1/tasks/{task_id}/location", h.HandleSetLocation)

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
