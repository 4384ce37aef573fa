package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/tsukimi/internal/engine"
	"github.com/ashita-ai/tsukimi/internal/model"
	"github.com/ashita-ai/tsukimi/internal/store"
	"github.com/ashita-ai/tsukimi/internal/telemetry"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	rules     *store.Rules
	tasks     *store.Tasks
	db        *store.DB
	loc       *time.Location
	logger    *slog.Logger
	startedAt time.Time
	version   string
	maxBody   int64
}

func newHandlers(cfg Config) *Handlers {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{
		rules:     cfg.Rules,
		tasks:     cfg.Tasks,
		db:        cfg.DB,
		loc:       loc,
		logger:    cfg.Logger,
		startedAt: time.Now(),
		version:   cfg.Version,
		maxBody:   cfg.MaxRequestBodyBytes,
	}
}

var evalMeter = telemetry.Meter("tsukimi/engine")

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	storeStatus := "memory"
	if h.db != nil {
		storeStatus = "ok"
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			storeStatus = "unavailable"
		}
	}

	writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Store:   storeStatus,
		Uptime:  int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleWarnings handles GET /v1/months/{month}/warnings: evaluates the
// month's rules against the current task snapshot and returns the ordered
// warning list plus presentation aggregates.
func (h *Handlers) HandleWarnings(w http.ResponseWriter, r *http.Request) {
	monthKey, ok := h.monthKeyFromRequest(w, r)
	if !ok {
		return
	}

	warnings := engine.Evaluate(monthKey, h.rules.ForMonth(monthKey), h.tasks.List(),
		engine.WithLocation(h.loc))
	summary := engine.Summarize(warnings)

	if counter, err := evalMeter.Int64Counter("tsukimi.evaluations"); err == nil {
		counter.Add(r.Context(), 1, otelmetric.WithAttributes(
			attribute.String("month", string(monthKey)),
		))
	}
	if hist, err := evalMeter.Int64Histogram("tsukimi.warnings_per_evaluation"); err == nil {
		hist.Record(r.Context(), int64(len(warnings)))
	}

	writeJSON(w, r, http.StatusOK, model.WarningsResponse{
		MonthKey:       monthKey,
		Warnings:       warnings,
		WarnCount:      summary.WarnCount,
		InfoCount:      summary.InfoCount,
		SeverityByTask: summary.SeverityByTask,
	})
}

// monthKeyFromRequest extracts and validates the {month} path value. The
// literal "current" resolves to the month of the present instant in the
// configured location.
func (h *Handlers) monthKeyFromRequest(w http.ResponseWriter, r *http.Request) (model.MonthKey, bool) {
	raw := r.PathValue("month")
	if raw == "current" {
		return model.MonthKeyOf(time.Now().In(h.loc)), true
	}

	monthKey := model.MonthKey(raw)
	if !monthKey.Valid() {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput,
			"month must be a YYYY-MM key")
		return "", false
	}
	return monthKey, true
}
