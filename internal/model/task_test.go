package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashita-ai/tsukimi/internal/model"
)

func TestTaskDuration(t *testing.T) {
	zero := 0
	ninety := 90

	tests := []struct {
		name string
		task model.Task
		want int
	}{
		{"unset defaults", model.Task{}, model.DefaultDurationMin},
		{"explicit value", model.Task{DurationMin: &ninety}, 90},
		{"explicit zero is honored", model.Task{DurationMin: &zero}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Duration())
		})
	}
}

func TestTaskHasLocation(t *testing.T) {
	lat, lng := 35.68, 139.76

	tests := []struct {
		name string
		loc  *model.Location
		want bool
	}{
		{"nil location", nil, false},
		{"empty location", &model.Location{}, false},
		{"label only", &model.Location{Label: "office"}, true},
		{"both coordinates", &model.Location{Lat: &lat, Lng: &lng}, true},
		{"lat only", &model.Location{Lat: &lat}, false},
		{"lng only", &model.Location{Lng: &lng}, false},
		{"zero coordinates still count", &model.Location{Lat: new(float64), Lng: new(float64)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Task{Location: tt.loc}.HasLocation())
		})
	}
}

func TestTaskDone(t *testing.T) {
	assert.False(t, model.Task{Status: model.TaskStatusTodo}.Done())
	assert.False(t, model.Task{}.Done())
	assert.True(t, model.Task{Status: model.TaskStatusDone}.Done())
}

func TestRuleClone(t *testing.T) {
	orig := model.Rule{
		ID:      "r1",
		Type:    model.RuleNoTaskAfterHour,
		Enabled: true,
		Params:  map[string]float64{"hour": 22},
	}

	c := orig.Clone()
	c.Params["hour"] = 23

	assert.Equal(t, float64(22), orig.Params["hour"])
}

func TestValidRuleType(t *testing.T) {
	for _, rt := range model.RuleTypes() {
		assert.True(t, model.ValidRuleType(rt), string(rt))
	}
	assert.False(t, model.ValidRuleType("BOGUS"))
	assert.False(t, model.ValidRuleType(""))
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, model.SeverityWarn, model.MaxSeverity(model.SeverityWarn, model.SeverityInfo))
	assert.Equal(t, model.SeverityWarn, model.MaxSeverity(model.SeverityInfo, model.SeverityWarn))
	assert.Equal(t, model.SeverityInfo, model.MaxSeverity("", model.SeverityInfo))
	assert.Equal(t, model.SeverityWarn, model.MaxSeverity(model.SeverityWarn, model.SeverityWarn))
}
