// Package rules is the static rule catalog: per-type labels, descriptions,
// default parameters and summary rendering, plus the factory that mints new
// rule instances. The catalog is pure lookup — no state, no I/O.
package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/tsukimi/internal/model"
)

// MaxPerMonth is the hard cap on rule instances per month key.
const MaxPerMonth = 3

// Def describes one rule type: how it presents and what it defaults to.
type Def struct {
	Label       string
	Description string
	Defaults    map[string]float64
}

var defs = map[model.RuleType]Def{
	model.RuleNoTaskAfterHour: {
		Label:       "No tasks after a cutoff hour",
		Description: "Violated when any task starts at or after the configured hour (guards against overbooked evenings).",
		Defaults:    map[string]float64{"hour": 22},
	},
	model.RuleWeekdayMaxTasks: {
		Label:       "Weekday daily task limit",
		Description: "Violated when a weekday carries more tasks than the configured maximum.",
		Defaults:    map[string]float64{"max": 5},
	},
	model.RuleMaxContinuousWork: {
		Label:       "Maximum continuous work",
		Description: "Violated when back-to-back work exceeds the limit without a long enough break.",
		Defaults:    map[string]float64{"maxWorkMin": 180, "breakMin": 10},
	},
	model.RuleStartDeadlineDaysBefore: {
		Label:       "Start deadline tasks early",
		Description: "Warns when a task with a deadline is not scheduled to start the configured number of days beforehand.",
		Defaults:    map[string]float64{"days": 7},
	},
	model.RuleSleepBlock: {
		Label:       "Protect the sleep block",
		Description: "Violated when a task overlaps the configured sleep hours (wraps past midnight when needed).",
		Defaults:    map[string]float64{"startHour": 1, "endHour": 8},
	},
	model.RuleAutoTravelBuffer: {
		Label:       "Travel buffer between located tasks",
		Description: "Advisory when two located tasks on the same day leave less than the configured gap for travel.",
		Defaults:    map[string]float64{"bufferMin": 15},
	},
}

// Get returns the definition for a rule type. The type set is closed and
// validated at every boundary, so an unknown type here is a contract
// violation, not an input error.
func Get(t model.RuleType) Def {
	def, ok := defs[t]
	if !ok {
		panic(fmt.Sprintf("rules: unknown rule type %q", t))
	}
	return def
}

// ParamKeys returns the exact parameter schema for a rule type, sorted.
func ParamKeys(t model.RuleType) []string {
	def := Get(t)
	keys := make([]string, 0, len(def.Defaults))
	for k := range def.Defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidParamKey reports whether key belongs to the type's schema.
func ValidParamKey(t model.RuleType, key string) bool {
	_, ok := Get(t).Defaults[key]
	return ok
}

// Summary renders a rule instance to a one-line human-readable string with
// its live parameter values substituted in.
func Summary(r model.Rule) string {
	switch r.Type {
	case model.RuleNoTaskAfterHour:
		return fmt.Sprintf("no tasks starting at or after %d:00", r.Param("hour"))
	case model.RuleWeekdayMaxTasks:
		return fmt.Sprintf("at most %d tasks per weekday", r.Param("max"))
	case model.RuleMaxContinuousWork:
		return fmt.Sprintf("continuous work up to %d min (break %d min)", r.Param("maxWorkMin"), r.Param("breakMin"))
	case model.RuleStartDeadlineDaysBefore:
		return fmt.Sprintf("start deadline tasks %d days early", r.Param("days"))
	case model.RuleSleepBlock:
		return fmt.Sprintf("keep %d:00-%d:00 free for sleep", r.Param("startHour"), r.Param("endHour"))
	case model.RuleAutoTravelBuffer:
		return fmt.Sprintf("travel buffer of %d min around located tasks", r.Param("bufferMin"))
	}
	panic(fmt.Sprintf("rules: unknown rule type %q", r.Type))
}

// New mints a fully-initialized rule instance of the given type: fresh id,
// enabled, type defaults copied, createdAt = updatedAt = now. It never
// produces an instance whose parameter keys diverge from the type schema.
func New(t model.RuleType) model.Rule {
	def := Get(t)
	params := make(map[string]float64, len(def.Defaults))
	for k, v := range def.Defaults {
		params[k] = v
	}
	now := time.Now().UnixMilli()
	return model.Rule{
		ID:        uuid.New().String(),
		Type:      t,
		Enabled:   true,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
