// Package engine evaluates a month's scheduling rules against a task
// snapshot and derives ordered warnings. Evaluation is a pure function: it
// reads only its arguments, performs no I/O, and is safe to re-run in full
// whenever rules or tasks change.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/ashita-ai/tsukimi/internal/model"
)

// Option configures an evaluation run.
type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation sets the reference location for all local-calendar math:
// zone-less timestamps parse in it, zoned timestamps are converted into it,
// and hours, weekdays, day keys and sleep blocks are computed in it.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// entry is a task projected with resolved start/end instants. All
// time-based checks operate on these.
type entry struct {
	task        model.Task
	start, end  time.Time
	durationMin int
}

// Evaluate applies the month's enabled rules to the task snapshot and
// returns the ordered warning list. Disabled rules and out-of-month tasks
// are filtered here; malformed timestamps exclude their task from the
// scheduled projection without aborting the run.
func Evaluate(monthKey model.MonthKey, ruleSet []model.Rule, tasks []model.Task, opts ...Option) []model.Warning {
	o := options{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	var enabled []model.Rule
	for _, r := range ruleSet {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}

	// A task is in scope when either its scheduled start or its due instant
	// falls in the month.
	var scoped []model.Task
	for _, t := range tasks {
		if model.InMonth(t.ScheduledStart, monthKey) || model.InMonth(t.DueAt, monthKey) {
			scoped = append(scoped, t)
		}
	}

	var scheduled []entry
	for _, t := range scoped {
		s, ok := model.ParseTimestamp(t.ScheduledStart, o.loc)
		if !ok {
			continue
		}
		d := t.Duration()
		scheduled = append(scheduled, entry{
			task:        t,
			start:       s,
			end:         s.Add(time.Duration(d) * time.Minute),
			durationMin: d,
		})
	}

	var warnings []model.Warning
	for _, rule := range enabled {
		switch rule.Type {
		case model.RuleNoTaskAfterHour:
			warnings = append(warnings, checkNoTaskAfterHour(monthKey, rule, scheduled)...)
		case model.RuleWeekdayMaxTasks:
			warnings = append(warnings, checkWeekdayMaxTasks(monthKey, rule, scheduled)...)
		case model.RuleMaxContinuousWork:
			warnings = append(warnings, checkMaxContinuousWork(monthKey, rule, scheduled)...)
		case model.RuleStartDeadlineDaysBefore:
			warnings = append(warnings, checkStartDeadline(monthKey, rule, scoped, o.loc)...)
		case model.RuleSleepBlock:
			warnings = append(warnings, checkSleepBlock(monthKey, rule, scheduled, o.loc)...)
		case model.RuleAutoTravelBuffer:
			warnings = append(warnings, checkTravelBuffer(monthKey, rule, scheduled)...)
		default:
			// The type set is closed and validated at the boundary.
			panic(fmt.Sprintf("engine: unknown rule type %q", rule.Type))
		}
	}

	sortWarnings(warnings)
	return warnings
}

// sortWarnings orders warnings for display: warn before info, then by day
// key when both warnings are day-scoped, otherwise by message. The sort is
// stable, so equal inputs always produce identical output order.
func sortWarnings(ws []model.Warning) {
	rank := func(s model.Severity) int {
		if s == model.SeverityWarn {
			return 0
		}
		return 1
	}
	sort.SliceStable(ws, func(i, j int) bool {
		if rank(ws[i].Severity) != rank(ws[j].Severity) {
			return rank(ws[i].Severity) < rank(ws[j].Severity)
		}
		if ws[i].DateKey != "" && ws[j].DateKey != "" {
			return ws[i].DateKey < ws[j].DateKey
		}
		return ws[i].Message < ws[j].Message
	})
}

// makeID builds a deterministic warning identifier from context fields.
// Re-evaluating unchanged input must yield byte-identical ids.
func makeID(parts ...string) string {
	id := "warn"
	for _, p := range parts {
		id += "_" + p
	}
	return id
}

// minutesBetween returns the rounded minute distance from a to b.
func minutesBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Minutes()))
}

func isWeekday(t time.Time) bool {
	w := t.Weekday()
	return w >= time.Monday && w <= time.Friday
}

// overlap is the half-open interval test: [aStart,aEnd) ∩ [bStart,bEnd) ≠ ∅.
func overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func checkNoTaskAfterHour(monthKey model.MonthKey, rule model.Rule, scheduled []entry) []model.Warning {
	hour := rule.Param("hour")

	var ids []string
	for _, e := range scheduled {
		if e.start.Hour() >= hour {
			ids = append(ids, e.task.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []model.Warning{{
		ID:       makeID(string(monthKey), rule.ID, string(model.RuleNoTaskAfterHour)),
		MonthKey: monthKey,
		RuleID:   rule.ID,
		RuleType: rule.Type,
		Severity: model.SeverityWarn,
		Message:  fmt.Sprintf("%d task(s) start at or after %d:00", len(ids), hour),
		TaskIDs:  ids,
	}}
}

func checkWeekdayMaxTasks(monthKey model.MonthKey, rule model.Rule, scheduled []entry) []model.Warning {
	max := rule.Param("max")

	byDay := map[model.DayKey][]string{}
	for _, e := range scheduled {
		if e.task.Done() || !isWeekday(e.start) {
			continue
		}
		dk := model.DayKeyOf(e.start)
		byDay[dk] = append(byDay[dk], e.task.ID)
	}

	var out []model.Warning
	for _, dk := range sortedDays(byDay) {
		ids := byDay[dk]
		if len(ids) <= max {
			continue
		}
		out = append(out, model.Warning{
			ID:       makeID(string(monthKey), rule.ID, string(model.RuleWeekdayMaxTasks), string(dk)),
			MonthKey: monthKey,
			RuleID:   rule.ID,
			RuleType: rule.Type,
			Severity: model.SeverityWarn,
			Message:  fmt.Sprintf("weekday %s has %d tasks (limit %d)", dk, len(ids), max),
			TaskIDs:  ids,
			DateKey:  dk,
		})
	}
	return out
}

func checkMaxContinuousWork(monthKey model.MonthKey, rule model.Rule, scheduled []entry) []model.Warning {
	maxWorkMin := rule.Param("maxWorkMin")
	breakMin := rule.Param("breakMin")

	type span struct {
		s, e time.Time
		id   string
	}
	byDay := map[model.DayKey][]span{}
	for _, e := range scheduled {
		if e.task.Done() {
			continue
		}
		dk := model.DayKeyOf(e.start)
		byDay[dk] = append(byDay[dk], span{s: e.start, e: e.end, id: e.task.ID})
	}

	var out []model.Warning
	emit := func(dk model.DayKey, runLen int, ids []string, idTail string) {
		out = append(out, model.Warning{
			ID:       makeID(string(monthKey), rule.ID, string(model.RuleMaxContinuousWork), string(dk), idTail),
			MonthKey: monthKey,
			RuleID:   rule.ID,
			RuleType: rule.Type,
			Severity: model.SeverityWarn,
			Message:  fmt.Sprintf("%s has %d continuous minutes of work (limit %d, break %d)", dk, runLen, maxWorkMin, breakMin),
			TaskIDs:  ids,
			DateKey:  dk,
		})
	}

	for _, dk := range sortedDays(byDay) {
		spans := byDay[dk]
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].s.Before(spans[j].s) })

		runStart := spans[0].s
		runEnd := spans[0].e
		runIDs := []string{spans[0].id}

		for i := 1; i < len(spans); i++ {
			cur := spans[i]
			gap := minutesBetween(runEnd, cur.s)

			// A gap of at least breakMin closes the run; shorter gaps keep
			// it continuous.
			if gap >= breakMin {
				runLen := minutesBetween(runStart, runEnd)
				if runLen > maxWorkMin {
					emit(dk, runLen, runIDs, strconv.Itoa(runLen))
				}
				runStart = cur.s
				runEnd = cur.e
				runIDs = []string{cur.id}
				continue
			}

			if cur.e.After(runEnd) {
				runEnd = cur.e
			}
			runIDs = append(runIDs, cur.id)
		}

		runLen := minutesBetween(runStart, runEnd)
		if runLen > maxWorkMin {
			emit(dk, runLen, runIDs, "tail")
		}
	}
	return out
}

func checkStartDeadline(monthKey model.MonthKey, rule model.Rule, scoped []model.Task, loc *time.Location) []model.Warning {
	days := rule.Param("days")

	var out []model.Warning
	for _, t := range scoped {
		if t.DueAt == "" || t.Done() {
			continue
		}
		due, ok := model.ParseTimestamp(t.DueAt, loc)
		if !ok {
			continue
		}

		// "days" counts full 24-hour periods before the due instant, not
		// calendar days.
		threshold := due.Add(-time.Duration(days) * 24 * time.Hour)

		start, ok := model.ParseTimestamp(t.ScheduledStart, loc)
		if ok && !start.After(threshold) {
			continue
		}

		dueDay := t.DueAt
		if len(dueDay) > 10 {
			dueDay = dueDay[:10]
		}
		out = append(out, model.Warning{
			ID:       makeID(string(monthKey), rule.ID, "START_DEADLINE", t.ID),
			MonthKey: monthKey,
			RuleID:   rule.ID,
			RuleType: rule.Type,
			Severity: model.SeverityWarn,
			Message:  fmt.Sprintf("task due %s is not scheduled to start %d day(s) before its deadline", dueDay, days),
			TaskIDs:  []string{t.ID},
		})
	}
	return out
}

func checkSleepBlock(monthKey model.MonthKey, rule model.Rule, scheduled []entry, loc *time.Location) []model.Warning {
	startHour := rule.Param("startHour")
	endHour := rule.Param("endHour")

	var ids []string
	for _, e := range scheduled {
		if e.task.Done() {
			continue
		}
		if overlapsSleepBlock(e.start, e.end, startHour, endHour, loc) {
			ids = append(ids, e.task.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []model.Warning{{
		ID:       makeID(string(monthKey), rule.ID, string(model.RuleSleepBlock)),
		MonthKey: monthKey,
		RuleID:   rule.ID,
		RuleType: rule.Type,
		Severity: model.SeverityWarn,
		Message:  fmt.Sprintf("%d task(s) overlap the sleep block (%d:00-%d:00)", len(ids), startHour, endHour),
		TaskIDs:  ids,
	}}
}

// overlapsSleepBlock tests the task interval against the sleep interval
// constructed for the previous, current and next calendar day relative to
// the task's start. A block with endHour <= startHour wraps into the next
// day (23:00-7:00 spans midnight; 1:00-8:00 does not).
func overlapsSleepBlock(taskStart, taskEnd time.Time, startHour, endHour int, loc *time.Location) bool {
	y, m, d := taskStart.In(loc).Date()

	for off := -1; off <= 1; off++ {
		s := time.Date(y, m, d+off, startHour, 0, 0, 0, loc)
		e := time.Date(y, m, d+off, endHour, 0, 0, 0, loc)
		if endHour <= startHour {
			e = e.AddDate(0, 0, 1)
		}
		if overlap(taskStart, taskEnd, s, e) {
			return true
		}
	}
	return false
}

func checkTravelBuffer(monthKey model.MonthKey, rule model.Rule, scheduled []entry) []model.Warning {
	bufferMin := rule.Param("bufferMin")

	type span struct {
		s, e time.Time
		id   string
	}
	byDay := map[model.DayKey][]span{}
	for _, e := range scheduled {
		if e.task.Done() || !e.task.HasLocation() {
			continue
		}
		dk := model.DayKeyOf(e.start)
		byDay[dk] = append(byDay[dk], span{s: e.start, e: e.end, id: e.task.ID})
	}

	var out []model.Warning
	for _, dk := range sortedDays(byDay) {
		spans := byDay[dk]
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].s.Before(spans[j].s) })

		for i := 0; i+1 < len(spans); i++ {
			a, b := spans[i], spans[i+1]
			gap := minutesBetween(a.e, b.s)
			if gap >= bufferMin {
				continue
			}
			out = append(out, model.Warning{
				ID:       makeID(string(monthKey), rule.ID, "TRAVEL_BUFFER", string(dk), strconv.Itoa(i)),
				MonthKey: monthKey,
				RuleID:   rule.ID,
				RuleType: rule.Type,
				Severity: model.SeverityInfo,
				Message:  fmt.Sprintf("%s: %d minutes between located tasks (recommended %d or more)", dk, gap, bufferMin),
				TaskIDs:  []string{a.id, b.id},
				DateKey:  dk,
			})
		}
	}
	return out
}

// sortedDays returns the map's day keys in ascending order so that per-day
// checks emit in a deterministic order regardless of map iteration.
func sortedDays[V any](m map[model.DayKey]V) []model.DayKey {
	keys := make([]model.DayKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
