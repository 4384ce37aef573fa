package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashita-ai/tsukimi/internal/engine"
	"github.com/ashita-ai/tsukimi/internal/model"
)

func TestSummarize(t *testing.T) {
	ws := []model.Warning{
		{Severity: model.SeverityWarn, TaskIDs: []string{"t1", "t2"}},
		{Severity: model.SeverityInfo, TaskIDs: []string{"t2", "t3"}},
		{Severity: model.SeverityWarn, TaskIDs: []string{"t4"}},
	}

	s := engine.Summarize(ws)

	assert.Equal(t, 2, s.WarnCount)
	assert.Equal(t, 1, s.InfoCount)
	assert.Equal(t, map[string]model.Severity{
		"t1": model.SeverityWarn,
		"t2": model.SeverityWarn, // warn wins over info for the same task
		"t3": model.SeverityInfo,
		"t4": model.SeverityWarn,
	}, s.SeverityByTask)
}

func TestSummarize_Empty(t *testing.T) {
	s := engine.Summarize(nil)

	assert.Zero(t, s.WarnCount)
	assert.Zero(t, s.InfoCount)
	assert.Empty(t, s.SeverityByTask)
}
