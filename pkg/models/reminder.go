package models

import "time"

// Reminder is a scheduled point-in-time note. RelatedTaskID is a weak
// reference to an activity: lookup only, dangling values are tolerated.
type Reminder struct {
	ID            string    `json:"id"`
	ReminderTime  time.Time `json:"reminderTime"`
	Message       string    `json:"message"`
	RelatedTaskID string    `json:"relatedTaskId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
