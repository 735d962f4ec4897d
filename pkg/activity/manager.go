// Package activity implements the activity lifecycle: opening a unit of
// work, querying its elapsed duration, closing it with a result, and
// amending or listing historical records.
package activity

import (
	"sort"
	"time"

	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/identifier"
	"github.com/entrhq/chronos/pkg/models"
	"github.com/entrhq/chronos/pkg/store"
)

var timeNow = time.Now // injected for testability

// Manager coordinates activity operations over the record store. Each
// operation is one store read or one read-modify-write cycle; no state
// is held between calls.
type Manager struct {
	store *store.FileStore
	ids   *identifier.Generator
}

// NewManager creates an activity manager.
func NewManager(s *store.FileStore, ids *identifier.Generator) *Manager {
	return &Manager{store: s, ids: ids}
}

// now returns the current UTC time at second resolution, matching the
// precision of the persisted timestamps.
func now() time.Time {
	return timeNow().UTC().Truncate(time.Second)
}

// Start opens a new activity and persists it. The returned record
// carries the freshly assigned id.
func (m *Manager) Start(activityType, taskScope, description string, tags []string) (*models.Activity, error) {
	if activityType == "" {
		return nil, apperrors.NewValidationError("activityType must not be empty")
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description must not be empty")
	}
	scope, err := models.ParseTaskScope(taskScope)
	if err != nil {
		return nil, err
	}

	a := &models.Activity{
		ID:           m.ids.NewID(),
		ActivityType: activityType,
		TaskScope:    scope,
		Description:  description,
		Tags:         tags,
		StartedAt:    now(),
	}

	_, err = m.store.Mutate(func(doc *models.Document) error {
		if _, exists := doc.Activities[a.ID]; exists {
			return apperrors.NewConflictError("generated activity id %s already exists", a.ID)
		}
		doc.Activities[a.ID] = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// End completes an ongoing activity, computing and storing its final
// duration. Ending twice is a conflict and leaves the record unchanged.
func (m *Manager) End(id, result, notes string) (*models.Activity, error) {
	var ended *models.Activity
	_, err := m.store.Mutate(func(doc *models.Document) error {
		a, ok := doc.Activities[id]
		if !ok {
			return apperrors.NewNotFoundError("activity log", id)
		}
		if a.Completed() {
			return apperrors.NewConflictError("activity log %s is already completed", id)
		}

		endedAt := now()
		if endedAt.Before(a.StartedAt) {
			// Wall clock stepped backwards; keep durations non-negative.
			endedAt = a.StartedAt
		}
		duration := int64(endedAt.Sub(a.StartedAt) / time.Second)

		a.EndedAt = &endedAt
		a.DurationSeconds = &duration
		a.Result = result
		a.Notes = notes
		ended = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ended, nil
}

// ElapsedReport describes how long an activity has been (or was) open.
type ElapsedReport struct {
	ActivityID     string     `json:"activityId"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
	CurrentTime    *time.Time `json:"currentTime,omitempty"`
	ElapsedTime    string     `json:"elapsedTime"`
	ElapsedSeconds int64      `json:"elapsedSeconds"`
	Status         string     `json:"status"`
}

// Elapsed reports the elapsed time for an activity. A completed
// activity returns its stored final duration; this call never
// recomputes it against the current time.
func (m *Manager) Elapsed(id string) (*ElapsedReport, error) {
	doc, err := m.store.Read()
	if err != nil {
		return nil, err
	}
	a, ok := doc.Activities[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("activity log", id)
	}

	report := &ElapsedReport{
		ActivityID: a.ID,
		StartedAt:  a.StartedAt,
		Status:     a.Status(),
	}
	if a.Completed() {
		report.EndedAt = a.EndedAt
		report.ElapsedSeconds = *a.DurationSeconds
	} else {
		current := now()
		elapsed := current.Sub(a.StartedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		report.CurrentTime = &current
		report.ElapsedSeconds = int64(elapsed / time.Second)
	}
	report.ElapsedTime = FormatDuration(report.ElapsedSeconds)
	return report, nil
}

// Update is a partial patch: only non-nil fields are applied. The id
// and start timestamp are immutable and have no corresponding field.
type Update struct {
	ActivityType *string
	TaskScope    *string
	Description  *string
	Tags         *[]string
	Result       *string
	Notes        *string
}

// Apply updates an activity in place, permitted on both ongoing and
// completed records. Unspecified fields are left untouched.
func (m *Manager) Apply(id string, upd Update) (*models.Activity, error) {
	if upd.ActivityType != nil && *upd.ActivityType == "" {
		return nil, apperrors.NewValidationError("activityType must not be empty")
	}
	if upd.Description != nil && *upd.Description == "" {
		return nil, apperrors.NewValidationError("description must not be empty")
	}
	var scope models.TaskScope
	if upd.TaskScope != nil {
		parsed, err := models.ParseTaskScope(*upd.TaskScope)
		if err != nil {
			return nil, err
		}
		scope = parsed
	}

	var updated *models.Activity
	_, err := m.store.Mutate(func(doc *models.Document) error {
		a, ok := doc.Activities[id]
		if !ok {
			return apperrors.NewNotFoundError("activity log", id)
		}
		if upd.ActivityType != nil {
			a.ActivityType = *upd.ActivityType
		}
		if upd.TaskScope != nil {
			a.TaskScope = scope
		}
		if upd.Description != nil {
			a.Description = *upd.Description
		}
		if upd.Tags != nil {
			a.Tags = *upd.Tags
		}
		if upd.Result != nil {
			a.Result = *upd.Result
		}
		if upd.Notes != nil {
			a.Notes = *upd.Notes
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Filter narrows a listing; all fields are optional and conjunctive.
type Filter struct {
	ActivityType string
	TaskScope    string
	Status       string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
}

func (f Filter) validate() (models.TaskScope, error) {
	var scope models.TaskScope
	if f.TaskScope != "" {
		parsed, err := models.ParseTaskScope(f.TaskScope)
		if err != nil {
			return "", err
		}
		scope = parsed
	}
	if f.Status != "" && f.Status != models.StatusOngoing && f.Status != models.StatusCompleted {
		return "", apperrors.NewValidationError(
			"invalid status filter %q: must be %q or %q",
			f.Status, models.StatusOngoing, models.StatusCompleted)
	}
	if f.Limit < 0 {
		return "", apperrors.NewValidationError("limit must not be negative")
	}
	return scope, nil
}

func (f Filter) matches(a *models.Activity, scope models.TaskScope) bool {
	if f.ActivityType != "" && a.ActivityType != f.ActivityType {
		return false
	}
	if f.TaskScope != "" && a.TaskScope != scope {
		return false
	}
	if f.Status != "" && a.Status() != f.Status {
		return false
	}
	if f.StartDate != nil && a.StartedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && a.StartedAt.After(*f.EndDate) {
		return false
	}
	return true
}

// List returns matching activities ordered by start time ascending.
// No match yields an empty slice, never an error.
func (m *Manager) List(f Filter) ([]*models.Activity, error) {
	scope, err := f.validate()
	if err != nil {
		return nil, err
	}

	doc, err := m.store.Read()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Activity, 0, len(doc.Activities))
	for _, a := range doc.Activities {
		if f.matches(a, scope) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
