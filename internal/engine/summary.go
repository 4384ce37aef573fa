package engine

import "github.com/ashita-ai/tsukimi/internal/model"

// Summary is the derived presentation state over a warning list: aggregate
// counts per severity and the highest severity implicating each task.
// Pure derived data, recomputed on every input change.
type Summary struct {
	WarnCount      int
	InfoCount      int
	SeverityByTask map[string]model.Severity
}

// Summarize computes the presentation summary for a warning list. A task
// absent from SeverityByTask has no warnings; warn dominates info.
func Summarize(warnings []model.Warning) Summary {
	s := Summary{SeverityByTask: map[string]model.Severity{}}
	for _, w := range warnings {
		switch w.Severity {
		case model.SeverityWarn:
			s.WarnCount++
		case model.SeverityInfo:
			s.InfoCount++
		}
		for _, id := range w.TaskIDs {
			s.SeverityByTask[id] = model.MaxSeverity(s.SeverityByTask[id], w.Severity)
		}
	}
	return s
}
