package server

import (
	"net/http"

	"github.com/ashita-ai/tsukimi/internal/model"
	"github.com/ashita-ai/tsukimi/internal/rules"
	"github.com/ashita-ai/tsukimi/internal/store"
)

// HandleRuleTypes handles GET /v1/rule-types.
func (h *Handlers) HandleRuleTypes(w http.ResponseWriter, r *http.Request) {
	out := make([]model.RuleTypeInfo, 0, len(model.RuleTypes()))
	for _, t := range model.RuleTypes() {
		def := rules.Get(t)
		out = append(out, model.RuleTypeInfo{
			Type:        t,
			Label:       def.Label,
			Description: def.Description,
			Defaults:    def.Defaults,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// HandleListRules handles GET /v1/months/{month}/rules.
func (h *Handlers) HandleListRules(w http.ResponseWriter, r *http.Request) {
	monthKey, ok := h.monthKeyFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, h.ruleList(monthKey))
}

// HandleAddRule handles POST /v1/months/{month}/rules. Adding past the
// per-month cap is a silent no-op by design: the response carries the
// unchanged list and atCap so the UI can disable the affordance.
func (h *Handlers) HandleAddRule(w http.ResponseWriter, r *http.Request) {
	monthKey, ok := h.monthKeyFromRequest(w, r)
	if !ok {
		return
	}

	var req model.CreateRuleRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if !model.ValidRuleType(req.Type) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput,
			"unknown rule type")
		return
	}

	h.rules.Add(r.Context(), monthKey, req.Type)
	writeJSON(w, r, http.StatusOK, h.ruleList(monthKey))
}

// HandleUpdateRule handles PATCH /v1/months/{month}/rules/{rule_id}.
func (h *Handlers) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	monthKey, ok := h.monthKeyFromRequest(w, r)
	if !ok {
		return
	}

	var req model.UpdateRuleRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	h.rules.UpdateRule(r.Context(), monthKey, r.PathValue("rule_id"),
		store.RulePatch{Enabled: req.Enabled})
	writeJSON(w, r, http.StatusOK, h.ruleList(monthKey))
}

// HandleUpdateParams handles PATCH /v1/months/{month}/rules/{rule_id}/params.
// Non-finite values arrive as JSON strings or not at all, so a plain
// number map is enough here; the store drops anything outside the type's
// schema.
func (h *Handlers) HandleUpdateParams(w http.ResponseWriter, r *http.Request) {
	monthKey, ok := h.monthKeyFromRequest(w, r)
	if !ok {
		return
	}

	var patch map[string]float64
	if err := decodeJSON(w, r, &patch, h.maxBody); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	h.rules.UpdateParams(r.Context(), monthKey, r.PathValue("rule_id"), patch)
	writeJSON(w, r, http.StatusOK, h.ruleList(monthKey))
}

// HandleDeleteRule handles DELETE /v1/months/{month}/rules/{rule_id}.
func (h *Handlers) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	monthKey, ok := h.monthKeyFromRequest(w, r)
	if !ok {
		return
	}
	h.rules.Remove(r.Context(), monthKey, r.PathValue("rule_id"))
	writeJSON(w, r, http.StatusOK, h.ruleList(monthKey))
}

func (h *Handlers) ruleList(monthKey model.MonthKey) model.RuleListResponse {
	stored := h.rules.ForMonth(monthKey)
	views := make([]model.RuleView, 0, len(stored))
	for _, rl := range stored {
		views = append(views, model.RuleView{Rule: rl, Summary: rules.Summary(rl)})
	}
	return model.RuleListResponse{
		MonthKey: monthKey,
		Rules:    views,
		AtCap:    h.rules.AtCap(monthKey),
	}
}
