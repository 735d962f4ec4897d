// Package reminder implements scheduled point-in-time notes: creating
// them and polling for which are due or coming up. Polling is pure — a
// reminder is never consumed or flagged by being reported, so a past-due
// reminder keeps appearing until the caller explicitly handles it.
package reminder

import (
	"sort"
	"time"

	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/identifier"
	"github.com/entrhq/chronos/pkg/models"
	"github.com/entrhq/chronos/pkg/store"
)

var timeNow = time.Now // injected for testability

// DefaultUpcomingMinutes is the look-ahead window when the caller does
// not specify one.
const DefaultUpcomingMinutes = 60

// Manager coordinates reminder operations over the record store.
type Manager struct {
	store *store.FileStore
	ids   *identifier.Generator
}

// NewManager creates a reminder manager.
func NewManager(s *store.FileStore, ids *identifier.Generator) *Manager {
	return &Manager{store: s, ids: ids}
}

// Create schedules a reminder. The time must be RFC 3339 with an
// explicit offset; a time in the past is allowed and simply reports as
// already due. relatedTaskID is stored as a weak reference without any
// existence check.
func (m *Manager) Create(reminderTime, message, relatedTaskID string) (*models.Reminder, error) {
	if message == "" {
		return nil, apperrors.NewValidationError("message must not be empty")
	}
	when, err := time.Parse(time.RFC3339, reminderTime)
	if err != nil {
		return nil, apperrors.NewValidationError(
			"invalid reminderTime %q: expected RFC 3339 with timezone offset, e.g. 2025-09-11T14:00:00+08:00", reminderTime)
	}

	r := &models.Reminder{
		ID:            m.ids.NewID(),
		ReminderTime:  when,
		Message:       message,
		RelatedTaskID: relatedTaskID,
		CreatedAt:     timeNow().UTC().Truncate(time.Second),
	}

	_, err = m.store.Mutate(func(doc *models.Document) error {
		if _, exists := doc.Reminders[r.ID]; exists {
			return apperrors.NewConflictError("generated reminder id %s already exists", r.ID)
		}
		doc.Reminders[r.ID] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DueReport splits reminders into those already due and those falling
// inside the upcoming window. Both lists are ordered by reminder time
// ascending.
type DueReport struct {
	Due      []*models.Reminder `json:"due"`
	Upcoming []*models.Reminder `json:"upcoming"`
}

// CheckDue reports reminders due now (reminderTime <= now) and upcoming
// within (now, now+upcomingMinutes]. Repeated polling is idempotent.
func (m *Manager) CheckDue(upcomingMinutes int) (*DueReport, error) {
	if upcomingMinutes < 0 {
		return nil, apperrors.NewValidationError("upcomingMinutes must not be negative")
	}

	doc, err := m.store.Read()
	if err != nil {
		return nil, err
	}

	now := timeNow()
	cutoff := now.Add(time.Duration(upcomingMinutes) * time.Minute)

	report := &DueReport{
		Due:      []*models.Reminder{},
		Upcoming: []*models.Reminder{},
	}
	for _, r := range doc.Reminders {
		switch {
		case !r.ReminderTime.After(now):
			report.Due = append(report.Due, r)
		case !r.ReminderTime.After(cutoff):
			report.Upcoming = append(report.Upcoming, r)
		}
	}

	byTime := func(rs []*models.Reminder) {
		sort.Slice(rs, func(i, j int) bool {
			if rs[i].ReminderTime.Equal(rs[j].ReminderTime) {
				return rs[i].ID < rs[j].ID
			}
			return rs[i].ReminderTime.Before(rs[j].ReminderTime)
		})
	}
	byTime(report.Due)
	byTime(report.Upcoming)
	return report, nil
}
