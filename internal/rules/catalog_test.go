package rules_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/tsukimi/internal/model"
	"github.com/ashita-ai/tsukimi/internal/rules"
)

func TestCatalogDefaults(t *testing.T) {
	tests := []struct {
		ruleType model.RuleType
		defaults map[string]float64
	}{
		{model.RuleNoTaskAfterHour, map[string]float64{"hour": 22}},
		{model.RuleWeekdayMaxTasks, map[string]float64{"max": 5}},
		{model.RuleMaxContinuousWork, map[string]float64{"maxWorkMin": 180, "breakMin": 10}},
		{model.RuleStartDeadlineDaysBefore, map[string]float64{"days": 7}},
		{model.RuleSleepBlock, map[string]float64{"startHour": 1, "endHour": 8}},
		{model.RuleAutoTravelBuffer, map[string]float64{"bufferMin": 15}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ruleType), func(t *testing.T) {
			def := rules.Get(tt.ruleType)
			assert.Equal(t, tt.defaults, def.Defaults)
			assert.NotEmpty(t, def.Label)
			assert.NotEmpty(t, def.Description)
		})
	}
}

func TestCatalogCoversEveryType(t *testing.T) {
	for _, rt := range model.RuleTypes() {
		require.NotPanics(t, func() { rules.Get(rt) }, string(rt))
	}
}

func TestGetPanicsOnUnknownType(t *testing.T) {
	assert.Panics(t, func() { rules.Get("BOGUS") })
}

func TestParamKeys(t *testing.T) {
	assert.Equal(t, []string{"breakMin", "maxWorkMin"}, rules.ParamKeys(model.RuleMaxContinuousWork))
	assert.Equal(t, []string{"hour"}, rules.ParamKeys(model.RuleNoTaskAfterHour))

	assert.True(t, rules.ValidParamKey(model.RuleSleepBlock, "startHour"))
	assert.False(t, rules.ValidParamKey(model.RuleSleepBlock, "hour"))
}

func TestNew(t *testing.T) {
	r := rules.New(model.RuleSleepBlock)

	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.RuleSleepBlock, r.Type)
	assert.True(t, r.Enabled)
	assert.Equal(t, map[string]float64{"startHour": 1, "endHour": 8}, r.Params)
	assert.NotZero(t, r.CreatedAt)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)

	// The instance owns its params; mutating it must not touch the catalog.
	r.Params["startHour"] = 3
	assert.Equal(t, float64(1), rules.Get(model.RuleSleepBlock).Defaults["startHour"])
}

func TestSummary(t *testing.T) {
	mk := func(rt model.RuleType, params map[string]float64) model.Rule {
		return model.Rule{ID: "r1", Type: rt, Enabled: true, Params: params}
	}

	tests := []struct {
		name string
		rule model.Rule
		want string
	}{
		{"after hour", mk(model.RuleNoTaskAfterHour, map[string]float64{"hour": 21}), "no tasks starting at or after 21:00"},
		{"weekday max", mk(model.RuleWeekdayMaxTasks, map[string]float64{"max": 4}), "at most 4 tasks per weekday"},
		{"continuous work", mk(model.RuleMaxContinuousWork, map[string]float64{"maxWorkMin": 120, "breakMin": 15}), "continuous work up to 120 min (break 15 min)"},
		{"start deadline", mk(model.RuleStartDeadlineDaysBefore, map[string]float64{"days": 3}), "start deadline tasks 3 days early"},
		{"sleep block", mk(model.RuleSleepBlock, map[string]float64{"startHour": 23, "endHour": 7}), "keep 23:00-7:00 free for sleep"},
		{"travel buffer", mk(model.RuleAutoTravelBuffer, map[string]float64{"bufferMin": 20}), "travel buffer of 20 min around located tasks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Summary(tt.rule))
		})
	}

	assert.Panics(t, func() { rules.Summary(model.Rule{Type: "BOGUS"}) })
}
