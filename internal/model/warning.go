package model

// Severity classifies a warning: "warn" is a violation, "info" an advisory.
type Severity string

const (
	SeverityWarn Severity = "warn"
	SeverityInfo Severity = "info"
)

// SeverityRank orders severities for dominance checks: warn > info > none.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityWarn:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// MaxSeverity returns the higher-ranked of two severities.
func MaxSeverity(a, b Severity) Severity {
	if SeverityRank(a) >= SeverityRank(b) {
		return a
	}
	return b
}

// Warning is a diagnostic emitted by the evaluation engine. Warnings are
// pure derived data: never persisted, always recomputed from the current
// rules and tasks. The ID is built deterministically from the month key,
// rule id, rule type and disambiguating context, so re-evaluating identical
// input yields byte-identical ids (downstream UI diffing depends on this).
type Warning struct {
	ID       string   `json:"id"`
	MonthKey MonthKey `json:"monthKey"`
	RuleID   string   `json:"ruleId"`
	RuleType RuleType `json:"ruleType"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	TaskIDs  []string `json:"taskIds,omitempty"`
	DateKey  DayKey   `json:"dateKey,omitempty"`
}
