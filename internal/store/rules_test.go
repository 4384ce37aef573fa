package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/tsukimi/internal/model"
	"github.com/ashita-ai/tsukimi/internal/rules"
	"github.com/ashita-ai/tsukimi/internal/store"
)

const month = model.MonthKey("2026-01")

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memPersister keeps snapshots in a map and counts writes, so tests can
// assert that no-op mutations skip persistence.
type memPersister struct {
	docs  map[string][]byte
	saves int
}

func newMemPersister() *memPersister {
	return &memPersister{docs: map[string][]byte{}}
}

func (p *memPersister) Load(_ context.Context, key string) ([]byte, bool, error) {
	doc, ok := p.docs[key]
	return doc, ok, nil
}

func (p *memPersister) Save(_ context.Context, key string, doc []byte) error {
	p.saves++
	cp := make([]byte, len(doc))
	copy(cp, doc)
	p.docs[key] = cp
	return nil
}

// failingPersister refuses every operation.
type failingPersister struct{}

func (failingPersister) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (failingPersister) Save(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestRulesAdd(t *testing.T) {
	ctx := context.Background()
	s := store.NewRules(newMemPersister(), discard)

	s.Add(ctx, month, model.RuleNoTaskAfterHour)

	got := s.ForMonth(month)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, model.RuleNoTaskAfterHour, got[0].Type)
	assert.True(t, got[0].Enabled)
	assert.Equal(t, map[string]float64{"hour": 22}, got[0].Params)
	assert.Equal(t, got[0].CreatedAt, got[0].UpdatedAt)
}

func TestRulesAddCap(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := store.NewRules(p, discard)

	s.Add(ctx, month, model.RuleNoTaskAfterHour)
	s.Add(ctx, month, model.RuleSleepBlock)
	s.Add(ctx, month, model.RuleWeekdayMaxTasks)
	require.True(t, s.AtCap(month))

	before := s.ForMonth(month)
	savesBefore := p.saves

	s.Add(ctx, month, model.RuleAutoTravelBuffer)

	assert.Equal(t, rules.MaxPerMonth, s.Count(month))
	assert.Equal(t, before, s.ForMonth(month), "an add at the cap must not touch existing rules")
	assert.Equal(t, savesBefore, p.saves, "an add at the cap must not persist")

	// The cap is per month key.
	other := model.MonthKey("2026-02")
	s.Add(ctx, other, model.RuleAutoTravelBuffer)
	assert.Equal(t, 1, s.Count(other))
}

func TestRulesUpdateRule(t *testing.T) {
	ctx := context.Background()
	s := store.NewRules(newMemPersister(), discard)

	s.Add(ctx, month, model.RuleNoTaskAfterHour)
	id := s.ForMonth(month)[0].ID

	enabled := false
	s.UpdateRule(ctx, month, id, store.RulePatch{Enabled: &enabled})

	got := s.ForMonth(month)[0]
	assert.False(t, got.Enabled)
	assert.GreaterOrEqual(t, got.UpdatedAt, got.CreatedAt)

	// Unknown id is a no-op.
	before := s.ForMonth(month)
	s.UpdateRule(ctx, month, "nope", store.RulePatch{Enabled: &enabled})
	assert.Equal(t, before, s.ForMonth(month))
}

func TestRulesUpdateParams(t *testing.T) {
	ctx := context.Background()
	s := store.NewRules(newMemPersister(), discard)

	s.Add(ctx, month, model.RuleSleepBlock)
	id := s.ForMonth(month)[0].ID

	t.Run("schema keys are merged", func(t *testing.T) {
		s.UpdateParams(ctx, month, id, map[string]float64{"startHour": 23})
		got := s.ForMonth(month)[0]
		assert.Equal(t, map[string]float64{"startHour": 23, "endHour": 8}, got.Params)
	})

	t.Run("non-schema keys are dropped", func(t *testing.T) {
		s.UpdateParams(ctx, month, id, map[string]float64{"bogus": 5, "hour": 9})
		got := s.ForMonth(month)[0]
		assert.Equal(t, map[string]float64{"startHour": 23, "endHour": 8}, got.Params)
	})

	t.Run("non-finite values are dropped", func(t *testing.T) {
		s.UpdateParams(ctx, month, id, map[string]float64{
			"startHour": math.NaN(),
			"endHour":   math.Inf(1),
		})
		got := s.ForMonth(month)[0]
		assert.Equal(t, map[string]float64{"startHour": 23, "endHour": 8}, got.Params)
	})
}

func TestRulesRemove(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := store.NewRules(p, discard)

	s.Add(ctx, month, model.RuleNoTaskAfterHour)
	s.Add(ctx, month, model.RuleSleepBlock)
	id := s.ForMonth(month)[0].ID

	s.Remove(ctx, month, id)

	got := s.ForMonth(month)
	require.Len(t, got, 1)
	assert.Equal(t, model.RuleSleepBlock, got[0].Type)

	// Removing a missing id neither mutates nor persists.
	savesBefore := p.saves
	s.Remove(ctx, month, "nope")
	assert.Equal(t, 1, s.Count(month))
	assert.Equal(t, savesBefore, p.saves)
}

func TestRulesHydrate(t *testing.T) {
	ctx := context.Background()

	goodRule := `{"id":"r1","type":"NO_TASK_AFTER_HOUR","enabled":true,"params":{"hour":22},"createdAt":1,"updatedAt":1}`

	t.Run("round trip through the persister", func(t *testing.T) {
		p := newMemPersister()
		first := store.NewRules(p, discard)
		first.Add(ctx, month, model.RuleMaxContinuousWork)

		second := store.NewRules(p, discard)
		second.Hydrate(ctx)

		assert.Equal(t, first.ForMonth(month), second.ForMonth(month))
	})

	t.Run("version mismatch discards the whole snapshot", func(t *testing.T) {
		p := newMemPersister()
		require.NoError(t, p.Save(ctx, "month-rules",
			[]byte(`{"version":2,"byMonth":{"2026-01":[`+goodRule+`]}}`)))

		s := store.NewRules(p, discard)
		s.Hydrate(ctx)

		assert.Zero(t, s.Count(month))
	})

	t.Run("malformed records are dropped individually", func(t *testing.T) {
		missingEnabled := `{"id":"r2","type":"SLEEP_BLOCK","params":{"startHour":1,"endHour":8},"createdAt":1,"updatedAt":1}`
		unknownType := `{"id":"r3","type":"BOGUS","enabled":true,"params":{},"createdAt":1,"updatedAt":1}`
		wrongSchema := `{"id":"r4","type":"NO_TASK_AFTER_HOUR","enabled":true,"params":{"hour":22,"extra":1},"createdAt":1,"updatedAt":1}`

		p := newMemPersister()
		require.NoError(t, p.Save(ctx, "month-rules",
			[]byte(`{"version":1,"byMonth":{"2026-01":[`+goodRule+`,`+missingEnabled+`,`+unknownType+`,`+wrongSchema+`]}}`)))

		s := store.NewRules(p, discard)
		s.Hydrate(ctx)

		got := s.ForMonth(month)
		require.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].ID)
	})

	t.Run("unreadable snapshot starts empty", func(t *testing.T) {
		p := newMemPersister()
		require.NoError(t, p.Save(ctx, "month-rules", []byte(`{not json`)))

		s := store.NewRules(p, discard)
		s.Hydrate(ctx)
		assert.Zero(t, s.Count(month))
	})

	t.Run("load failure starts empty", func(t *testing.T) {
		s := store.NewRules(failingPersister{}, discard)
		require.NotPanics(t, func() { s.Hydrate(ctx) })
		assert.Zero(t, s.Count(month))
	})
}

func TestRulesPersistenceFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	s := store.NewRules(failingPersister{}, discard)

	require.NotPanics(t, func() {
		s.Add(ctx, month, model.RuleNoTaskAfterHour)
	})

	// In-memory state stays authoritative.
	assert.Equal(t, 1, s.Count(month))
}

func TestRulesInMemoryOnly(t *testing.T) {
	ctx := context.Background()
	s := store.NewRules(nil, discard)

	s.Add(ctx, month, model.RuleNoTaskAfterHour)
	assert.Equal(t, 1, s.Count(month))
}

func TestDBRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tsukimi.db")

	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, ok, err := db.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Save(ctx, "k", []byte(`{"v":1}`)))
	require.NoError(t, db.Save(ctx, "k", []byte(`{"v":2}`)))

	doc, ok, err := db.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(doc))

	assert.NoError(t, db.Ping(ctx))
}

func TestRulesSQLitePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tsukimi.db")

	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()

	first := store.NewRules(db, discard)
	first.Add(ctx, month, model.RuleAutoTravelBuffer)
	first.UpdateParams(ctx, month, first.ForMonth(month)[0].ID, map[string]float64{"bufferMin": 20})

	second := store.NewRules(db, discard)
	second.Hydrate(ctx)

	got := second.ForMonth(month)
	require.Len(t, got, 1)
	assert.Equal(t, float64(20), got[0].Params["bufferMin"])
	assert.Equal(t, first.ForMonth(month), got)
}
