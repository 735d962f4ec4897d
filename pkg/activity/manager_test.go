package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/identifier"
	"github.com/entrhq/chronos/pkg/models"
	"github.com/entrhq/chronos/pkg/store"
)

// fakeClock pins the manager's clock to a settable instant.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) install(t *testing.T) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return c.current }
	t.Cleanup(func() { timeNow = orig })
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ids, err := identifier.NewGenerator("short")
	require.NoError(t, err)
	return NewManager(store.NewFileStore(t.TempDir()), ids)
}

func TestStartAssignsIDAndTimestamp(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	clock.install(t)
	m := newTestManager(t)

	a, err := m.Start("debugging", "feature-implementation", "fix login flow", []string{"auth"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, clock.current, a.StartedAt)
	assert.Equal(t, models.StatusOngoing, a.Status())
	assert.Nil(t, a.EndedAt)

	report, err := m.Elapsed(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.ElapsedSeconds)
}

func TestStartValidation(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name         string
		activityType string
		scope        string
		description  string
	}{
		{"empty activity type", "", "debugging", "desc"},
		{"empty description", "debugging", "debugging", ""},
		{"unknown scope", "debugging", "yak-shaving", "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Start(tt.activityType, tt.scope, tt.description, nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}

func TestStartIDsUniqueAcrossStore(t *testing.T) {
	m := newTestManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		a, err := m.Start("debugging", "debugging", "work", nil)
		require.NoError(t, err)
		require.False(t, seen[a.ID])
		seen[a.ID] = true
	}
}

func TestEndComputesDuration(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	clock.install(t)
	m := newTestManager(t)

	a, err := m.Start("debugging", "feature-implementation", "fix login flow", nil)
	require.NoError(t, err)

	clock.advance(5 * time.Minute)

	report, err := m.Elapsed(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), report.ElapsedSeconds)
	assert.Equal(t, "5m 0s", report.ElapsedTime)
	assert.Equal(t, models.StatusOngoing, report.Status)

	ended, err := m.End(a.ID, "fixed", "stale token")
	require.NoError(t, err)
	require.NotNil(t, ended.DurationSeconds)
	assert.Equal(t, int64(300), *ended.DurationSeconds)
	assert.Equal(t, "fixed", ended.Result)
	assert.Equal(t, "stale token", ended.Notes)
	assert.Equal(t, models.StatusCompleted, ended.Status())
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, a.StartedAt.Add(5*time.Minute), *ended.EndedAt)
}

func TestEndTwiceIsConflictAndLeavesRecordUnchanged(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	clock.install(t)
	m := newTestManager(t)

	a, err := m.Start("debugging", "debugging", "work", nil)
	require.NoError(t, err)

	clock.advance(time.Minute)
	first, err := m.End(a.ID, "done", "")
	require.NoError(t, err)

	clock.advance(time.Hour)
	_, err = m.End(a.ID, "again", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	report, err := m.Elapsed(a.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.DurationSeconds, report.ElapsedSeconds)
	assert.Equal(t, first.EndedAt, report.EndedAt)
}

func TestEndNotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.End("missing", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestElapsedOnCompletedDoesNotRecompute(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	clock.install(t)
	m := newTestManager(t)

	a, err := m.Start("debugging", "debugging", "work", nil)
	require.NoError(t, err)
	clock.advance(30 * time.Second)
	_, err = m.End(a.ID, "", "")
	require.NoError(t, err)

	clock.advance(48 * time.Hour)
	report, err := m.Elapsed(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), report.ElapsedSeconds)
	assert.Equal(t, models.StatusCompleted, report.Status)
	assert.Nil(t, report.CurrentTime)
}

func TestApplyPartialUpdate(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Start("debugging", "debugging", "original description", []string{"one"})
	require.NoError(t, err)

	notes := "added reproduction steps"
	updated, err := m.Apply(a.ID, Update{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, notes, updated.Notes)
	// Everything unspecified stays untouched.
	assert.Equal(t, a.ActivityType, updated.ActivityType)
	assert.Equal(t, a.TaskScope, updated.TaskScope)
	assert.Equal(t, a.Description, updated.Description)
	assert.Equal(t, a.Tags, updated.Tags)
	assert.Equal(t, a.StartedAt, updated.StartedAt)
	assert.Equal(t, a.ID, updated.ID)
}

func TestApplyAfterCompletionAllowed(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Start("debugging", "debugging", "work", nil)
	require.NoError(t, err)
	_, err = m.End(a.ID, "done", "")
	require.NoError(t, err)

	result := "done, verified in staging"
	updated, err := m.Apply(a.ID, Update{Result: &result})
	require.NoError(t, err)
	assert.Equal(t, result, updated.Result)
	assert.Equal(t, models.StatusCompleted, updated.Status())
}

func TestApplyValidation(t *testing.T) {
	m := newTestManager(t)
	a, err := m.Start("debugging", "debugging", "work", nil)
	require.NoError(t, err)

	empty := ""
	_, err = m.Apply(a.ID, Update{ActivityType: &empty})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	bad := "not-a-scope"
	_, err = m.Apply(a.ID, Update{TaskScope: &bad})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	notes := "x"
	_, err = m.Apply("missing", Update{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestListOrderingAndFilters(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	clock.install(t)
	m := newTestManager(t)

	first, err := m.Start("debugging", "debugging", "first", nil)
	require.NoError(t, err)
	clock.advance(time.Hour)

	second, err := m.Start("planning", "epic-planning", "second", nil)
	require.NoError(t, err)
	clock.advance(time.Hour)

	third, err := m.Start("debugging", "testing-tasks", "third", nil)
	require.NoError(t, err)

	_, err = m.End(second.ID, "", "")
	require.NoError(t, err)

	t.Run("no filters returns all ascending", func(t *testing.T) {
		got, err := m.List(Filter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
		assert.Equal(t, third.ID, got[2].ID)
	})

	t.Run("activity type", func(t *testing.T) {
		got, err := m.List(Filter{ActivityType: "debugging"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, third.ID, got[1].ID)
	})

	t.Run("task scope", func(t *testing.T) {
		got, err := m.List(Filter{TaskScope: "epic-planning"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})

	t.Run("status ongoing", func(t *testing.T) {
		got, err := m.List(Filter{Status: models.StatusOngoing})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, a := range got {
			assert.Nil(t, a.EndedAt)
		}
	})

	t.Run("date range over startedAt", func(t *testing.T) {
		from := first.StartedAt.Add(30 * time.Minute)
		to := third.StartedAt.Add(-30 * time.Minute)
		got, err := m.List(Filter{StartDate: &from, EndDate: &to})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := m.List(Filter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
	})

	t.Run("conjunctive filters with no match", func(t *testing.T) {
		got, err := m.List(Filter{ActivityType: "planning", Status: models.StatusOngoing})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("invalid filter enums are validation errors", func(t *testing.T) {
		_, err := m.List(Filter{Status: "paused"})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

		_, err = m.List(Filter{TaskScope: "nope"})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m 0s"},
		{200, "3m 20s"},
		{3600, "1h 0m 0s"},
		{3905, "1h 5m 5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds))
	}
}
