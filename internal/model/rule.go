package model

// RuleType is the closed set of scheduling-constraint categories. A rule's
// type never changes after creation. The tag strings are part of the
// persisted snapshot format.
type RuleType string

const (
	RuleNoTaskAfterHour         RuleType = "NO_TASK_AFTER_HOUR"
	RuleWeekdayMaxTasks         RuleType = "WEEKDAY_MAX_TASKS"
	RuleMaxContinuousWork       RuleType = "MAX_CONTINUOUS_WORK"
	RuleStartDeadlineDaysBefore RuleType = "START_DEADLINE_TASK_DAYS_BEFORE"
	RuleSleepBlock              RuleType = "SLEEP_BLOCK"
	RuleAutoTravelBuffer        RuleType = "AUTO_TRAVEL_BUFFER"
)

// RuleTypes returns every known rule type in declaration order.
func RuleTypes() []RuleType {
	return []RuleType{
		RuleNoTaskAfterHour,
		RuleWeekdayMaxTasks,
		RuleMaxContinuousWork,
		RuleStartDeadlineDaysBefore,
		RuleSleepBlock,
		RuleAutoTravelBuffer,
	}
}

// ValidRuleType reports whether t is one of the six known tags.
func ValidRuleType(t RuleType) bool {
	switch t {
	case RuleNoTaskAfterHour, RuleWeekdayMaxTasks, RuleMaxContinuousWork,
		RuleStartDeadlineDaysBefore, RuleSleepBlock, RuleAutoTravelBuffer:
		return true
	}
	return false
}

// Rule is a configurable scheduling constraint scoped to one month.
// Params holds the type-specific numeric parameters; its keys must exactly
// match the catalog schema for the rule's type. Timestamps are epoch
// milliseconds, matching the persisted format.
type Rule struct {
	ID        string             `json:"id"`
	Type      RuleType           `json:"type"`
	Enabled   bool               `json:"enabled"`
	Params    map[string]float64 `json:"params"`
	CreatedAt int64              `json:"createdAt"`
	UpdatedAt int64              `json:"updatedAt"`
}

// Param returns the named parameter as an int. Missing keys return zero;
// the catalog factory and the store's schema filtering guarantee presence
// for well-formed rules.
func (r Rule) Param(key string) int {
	return int(r.Params[key])
}

// Clone returns a deep copy so that callers can hand rules out without
// sharing the params map.
func (r Rule) Clone() Rule {
	out := r
	out.Params = make(map[string]float64, len(r.Params))
	for k, v := range r.Params {
		out.Params[k] = v
	}
	return out
}
