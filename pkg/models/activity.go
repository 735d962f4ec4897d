// Package models defines the persisted record types and the root store
// document shared by the activity and reminder managers.
package models

import (
	"strings"
	"time"

	apperrors "github.com/entrhq/chronos/pkg/errors"
)

// TaskScope categorizes the kind of work an activity belongs to.
type TaskScope string

const (
	ScopeEpicPlanning            TaskScope = "epic-planning"
	ScopeFeatureImplementation   TaskScope = "feature-implementation"
	ScopeComponentImplementation TaskScope = "component-implementation"
	ScopeDebugging               TaskScope = "debugging"
	ScopeIntegrationTasks        TaskScope = "integration-tasks"
	ScopeOptimizationTasks       TaskScope = "optimization-tasks"
	ScopeSetupTasks              TaskScope = "setup-tasks"
	ScopeTestingTasks            TaskScope = "testing-tasks"
)

// TaskScopes lists every recognized scope, in declaration order.
var TaskScopes = []TaskScope{
	ScopeEpicPlanning,
	ScopeFeatureImplementation,
	ScopeComponentImplementation,
	ScopeDebugging,
	ScopeIntegrationTasks,
	ScopeOptimizationTasks,
	ScopeSetupTasks,
	ScopeTestingTasks,
}

// TaskScopeValues returns the scopes as plain strings, for schema enums.
func TaskScopeValues() []string {
	out := make([]string, len(TaskScopes))
	for i, s := range TaskScopes {
		out[i] = string(s)
	}
	return out
}

// ParseTaskScope validates a task scope string.
func ParseTaskScope(s string) (TaskScope, error) {
	scope := TaskScope(s)
	for _, known := range TaskScopes {
		if scope == known {
			return scope, nil
		}
	}
	return "", apperrors.NewValidationError(
		"unrecognized task_scope %q: must be one of %s",
		s, strings.Join(TaskScopeValues(), ", "))
}

// Activity status values, derived from EndedAt rather than stored.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

// Activity is a tracked unit of work. ID and StartedAt are immutable
// after creation; EndedAt and DurationSeconds are set exactly once when
// the activity completes.
type Activity struct {
	ID              string     `json:"id"`
	ActivityType    string     `json:"activityType"`
	TaskScope       TaskScope  `json:"taskScope"`
	Description     string     `json:"description"`
	Tags            []string   `json:"tags,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds *int64     `json:"durationSeconds,omitempty"`
	Result          string     `json:"result,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// Completed reports whether the activity has ended.
func (a *Activity) Completed() bool {
	return a.EndedAt != nil
}

// Status derives the activity status from its end timestamp.
func (a *Activity) Status() string {
	if a.Completed() {
		return StatusCompleted
	}
	return StatusOngoing
}
