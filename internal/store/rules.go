package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ashita-ai/tsukimi/internal/model"
	"github.com/ashita-ai/tsukimi/internal/rules"
)

// SnapshotVersion tags the persisted rule snapshot format. A stored
// snapshot with any other version is discarded on hydrate — no migration
// is attempted.
const SnapshotVersion = 1

const rulesDocKey = "month-rules"

// RuleSnapshot is the persisted rule-store document.
type RuleSnapshot struct {
	Version int                             `json:"version"`
	ByMonth map[model.MonthKey][]model.Rule `json:"byMonth"`
}

// RulePatch is a partial update over a rule's mutable non-param fields.
type RulePatch struct {
	Enabled *bool
}

// Rules owns rule instances keyed by month, enforces the per-month cap,
// and persists a full snapshot after every mutation. Persistence is
// best-effort: a failed write is logged and swallowed, and the in-memory
// state remains authoritative.
type Rules struct {
	mu      sync.RWMutex
	byMonth map[model.MonthKey][]model.Rule

	db        Persister
	logger    *slog.Logger
	nowMillis func() int64
}

// NewRules creates a rule store backed by the given persister (nil for
// in-memory only).
func NewRules(db Persister, logger *slog.Logger) *Rules {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rules{
		byMonth:   map[model.MonthKey][]model.Rule{},
		db:        db,
		logger:    logger,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Hydrate loads the persisted snapshot once. A version mismatch discards
// the whole snapshot; a malformed rule record is dropped from its month's
// list only. The load path never fails the caller: on any error the store
// simply starts empty.
func (s *Rules) Hydrate(ctx context.Context) {
	if s.db == nil {
		return
	}

	doc, ok, err := s.db.Load(ctx, rulesDocKey)
	if err != nil {
		s.logger.Warn("rule snapshot load failed", "error", err)
		return
	}
	if !ok {
		return
	}

	var head struct {
		Version int                              `json:"version"`
		ByMonth map[model.MonthKey]json.RawMessage `json:"byMonth"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		s.logger.Warn("rule snapshot unreadable, starting empty", "error", err)
		return
	}
	if head.Version != SnapshotVersion {
		s.logger.Warn("rule snapshot version mismatch, discarding",
			"stored", head.Version, "current", SnapshotVersion)
		return
	}

	byMonth := map[model.MonthKey][]model.Rule{}
	for monthKey, raw := range head.ByMonth {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		kept := make([]model.Rule, 0, len(items))
		for _, item := range items {
			r, ok := decodeRule(item)
			if !ok {
				s.logger.Warn("dropping malformed rule record", "month", monthKey)
				continue
			}
			kept = append(kept, r)
		}
		byMonth[monthKey] = kept
	}

	s.mu.Lock()
	s.byMonth = byMonth
	s.mu.Unlock()
}

// decodeRule validates one persisted rule record: field types, a known
// type tag, finite numeric params, and param keys exactly matching the
// type's schema.
func decodeRule(raw json.RawMessage) (model.Rule, bool) {
	var rec struct {
		ID        *string            `json:"id"`
		Type      *model.RuleType    `json:"type"`
		Enabled   *bool              `json:"enabled"`
		Params    map[string]float64 `json:"params"`
		CreatedAt *int64             `json:"createdAt"`
		UpdatedAt *int64             `json:"updatedAt"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Rule{}, false
	}
	if rec.ID == nil || *rec.ID == "" || rec.Type == nil || rec.Enabled == nil ||
		rec.Params == nil || rec.CreatedAt == nil || rec.UpdatedAt == nil {
		return model.Rule{}, false
	}
	if !model.ValidRuleType(*rec.Type) {
		return model.Rule{}, false
	}
	schema := rules.ParamKeys(*rec.Type)
	if len(rec.Params) != len(schema) {
		return model.Rule{}, false
	}
	for _, key := range schema {
		v, ok := rec.Params[key]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Rule{}, false
		}
	}
	return model.Rule{
		ID:        *rec.ID,
		Type:      *rec.Type,
		Enabled:   *rec.Enabled,
		Params:    rec.Params,
		CreatedAt: *rec.CreatedAt,
		UpdatedAt: *rec.UpdatedAt,
	}, true
}

// Add appends a new rule of the given type, created from catalog defaults.
// Silently ignored at the per-month cap: no mutation, no persistence write.
func (s *Rules) Add(ctx context.Context, monthKey model.MonthKey, t model.RuleType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.byMonth[monthKey]
	if len(current) >= rules.MaxPerMonth {
		return
	}
	s.byMonth[monthKey] = append(current, rules.New(t))
	s.persistLocked(ctx)
}

// UpdateRule applies a partial patch over a rule's non-param fields and
// bumps updatedAt. No-op if the rule is not found.
func (s *Rules) UpdateRule(ctx context.Context, monthKey model.MonthKey, ruleID string, patch RulePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(monthKey, ruleID)
	if idx < 0 {
		return
	}
	r := s.byMonth[monthKey][idx]
	if patch.Enabled != nil {
		r.Enabled = *patch.Enabled
	}
	r.UpdatedAt = s.nowMillis()
	s.byMonth[monthKey][idx] = r
	s.persistLocked(ctx)
}

// UpdateParams merges a partial numeric patch into a rule's parameter bag
// and bumps updatedAt. Non-finite values and keys outside the rule type's
// schema are silently dropped, never written. No-op if the rule is not
// found.
func (s *Rules) UpdateParams(ctx context.Context, monthKey model.MonthKey, ruleID string, patch map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(monthKey, ruleID)
	if idx < 0 {
		return
	}
	r := s.byMonth[monthKey][idx].Clone()
	for k, v := range patch {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !rules.ValidParamKey(r.Type, k) {
			continue
		}
		r.Params[k] = v
	}
	r.UpdatedAt = s.nowMillis()
	s.byMonth[monthKey][idx] = r
	s.persistLocked(ctx)
}

// Remove deletes a rule by id. No-op if not found.
func (s *Rules) Remove(ctx context.Context, monthKey model.MonthKey, ruleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.byMonth[monthKey]
	next := current[:0:0]
	for _, r := range current {
		if r.ID != ruleID {
			next = append(next, r)
		}
	}
	if len(next) == len(current) {
		return
	}
	s.byMonth[monthKey] = next
	s.persistLocked(ctx)
}

// ForMonth returns copies of the month's rules in insertion order.
func (s *Rules) ForMonth(monthKey model.MonthKey) []model.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.byMonth[monthKey]
	out := make([]model.Rule, 0, len(current))
	for _, r := range current {
		out = append(out, r.Clone())
	}
	return out
}

// Count returns the number of rules stored for the month.
func (s *Rules) Count(monthKey model.MonthKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMonth[monthKey])
}

// AtCap reports whether the month has reached the rule cap.
func (s *Rules) AtCap(monthKey model.MonthKey) bool {
	return s.Count(monthKey) >= rules.MaxPerMonth
}

func (s *Rules) indexLocked(monthKey model.MonthKey, ruleID string) int {
	for i, r := range s.byMonth[monthKey] {
		if r.ID == ruleID {
			return i
		}
	}
	return -1
}

// persistLocked writes the full snapshot, best-effort. Must be called with
// the write lock held.
func (s *Rules) persistLocked(ctx context.Context) {
	if s.db == nil {
		return
	}
	doc, err := json.Marshal(RuleSnapshot{Version: SnapshotVersion, ByMonth: s.byMonth})
	if err != nil {
		s.logger.Warn("rule snapshot marshal failed", "error", err)
		return
	}
	if err := s.db.Save(ctx, rulesDocKey, doc); err != nil {
		s.logger.Warn("rule snapshot save failed", "error", err)
	}
}
