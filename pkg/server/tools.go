package server

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/entrhq/chronos/pkg/models"
)

// Tool names, kept stable for clients of the original protocol.
const (
	toolGetCurrentTime     = "get_current_time"
	toolConvertTime        = "convert_time"
	toolStartActivityLog   = "start_activity_log"
	toolEndActivityLog     = "end_activity_log"
	toolGetElapsedTime     = "get_elapsed_time"
	toolGetActivityLogs    = "get_activity_logs"
	toolUpdateActivityLog  = "update_activity_log"
	toolCreateTimeReminder = "create_time_reminder"
	toolCheckTimeReminders = "check_time_reminders"
)

func (s *Server) registerTools() {
	scopes := models.TaskScopeValues()

	s.mcp.AddTool(mcp.NewTool(toolGetCurrentTime,
		mcp.WithDescription("Get current time (defaults to system time, supports any timezone)"),
		mcp.WithString("timezone",
			mcp.Required(),
			mcp.Description("Timezone to display. Use 'system' or 'local' for the user's local time, or IANA names like 'America/New_York', 'Europe/London', 'UTC'."),
		),
	), s.withTimeout(s.handleGetCurrentTime))

	s.mcp.AddTool(mcp.NewTool(toolConvertTime,
		mcp.WithDescription("Convert time between timezones (defaults to system time for source/target)"),
		mcp.WithString("source_timezone",
			mcp.Required(),
			mcp.Description("Source timezone: 'system', 'local', or an IANA name."),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Time to convert in 24-hour format (HH:MM)"),
		),
		mcp.WithString("target_timezone",
			mcp.Required(),
			mcp.Description("Target timezone: 'system', 'local', or an IANA name."),
		),
	), s.withTimeout(s.handleConvertTime))

	s.mcp.AddTool(mcp.NewTool(toolStartActivityLog,
		mcp.WithDescription("Start a new activity log with a server timestamp and a unique activity ID"),
		mcp.WithString("activityType",
			mcp.Required(),
			mcp.Description("Type of activity being performed (e.g. 'code_review', 'debugging', 'planning')"),
		),
		mcp.WithString("task_scope",
			mcp.Required(),
			mcp.Description("Scope of the task"),
			mcp.Enum(scopes...),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Detailed description of the activity"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for categorizing the activity"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.withTimeout(s.handleStartActivityLog))

	s.mcp.AddTool(mcp.NewTool(toolEndActivityLog,
		mcp.WithDescription("End an activity log with a server timestamp and compute its final duration. Ending an already-completed activity is a conflict."),
		mcp.WithString("activityId",
			mcp.Required(),
			mcp.Description("Unique identifier of the activity log to end"),
		),
		mcp.WithString("result",
			mcp.Description("Result or outcome of the activity"),
		),
		mcp.WithString("notes",
			mcp.Description("Notes for traceability and session continuity: what was accomplished, key decisions, challenges, and context for future sessions."),
		),
	), s.withTimeout(s.handleEndActivityLog))

	s.mcp.AddTool(mcp.NewTool(toolGetElapsedTime,
		mcp.WithDescription("Get the elapsed time for an ongoing or completed activity"),
		mcp.WithString("activityId",
			mcp.Required(),
			mcp.Description("Unique identifier of the activity log"),
		),
	), s.withTimeout(s.handleGetElapsedTime))

	s.mcp.AddTool(mcp.NewTool(toolGetActivityLogs,
		mcp.WithDescription("Retrieve activity logs with optional filtering, ordered by start time ascending"),
		mcp.WithString("activityType",
			mcp.Description("Filter by activity type (exact match)"),
		),
		mcp.WithString("task_scope",
			mcp.Description("Filter by task scope"),
			mcp.Enum(scopes...),
		),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum(models.StatusOngoing, models.StatusCompleted),
		),
		mcp.WithString("startDate",
			mcp.Description("Only activities started at or after this RFC 3339 timestamp"),
		),
		mcp.WithString("endDate",
			mcp.Description("Only activities started at or before this RFC 3339 timestamp"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of logs to return"),
		),
	), s.withTimeout(s.handleGetActivityLogs))

	s.mcp.AddTool(mcp.NewTool(toolUpdateActivityLog,
		mcp.WithDescription("Update an existing activity log. Only the provided fields change; id and startedAt are immutable."),
		mcp.WithString("activityId",
			mcp.Required(),
			mcp.Description("Unique identifier of the activity log to update"),
		),
		mcp.WithString("activityType", mcp.Description("Updated activity type")),
		mcp.WithString("task_scope",
			mcp.Description("Updated task scope"),
			mcp.Enum(scopes...),
		),
		mcp.WithString("description", mcp.Description("Updated description")),
		mcp.WithArray("tags",
			mcp.Description("Updated tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("result", mcp.Description("Updated result")),
		mcp.WithString("notes",
			mcp.Description("Updated traceability notes: document progress, changes in approach, and insights so future sessions can continue seamlessly."),
		),
	), s.withTimeout(s.handleUpdateActivityLog))

	s.mcp.AddTool(mcp.NewTool(toolCreateTimeReminder,
		mcp.WithDescription("Create a time-based reminder. A past time is allowed and reports as already due."),
		mcp.WithString("reminderTime",
			mcp.Required(),
			mcp.Description("Reminder time in RFC 3339 format with an explicit timezone offset, e.g. '2025-09-11T14:00:00+08:00'"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Reminder message"),
		),
		mcp.WithString("relatedTaskId",
			mcp.Description("ID of a related activity (weak reference; no existence check)"),
		),
	), s.withTimeout(s.handleCreateTimeReminder))

	s.mcp.AddTool(mcp.NewTool(toolCheckTimeReminders,
		mcp.WithDescription("Check for due and upcoming reminders. Polling never consumes a reminder; a due one stays due until explicitly handled."),
		mcp.WithNumber("upcomingMinutes",
			mcp.Description("Report upcoming reminders due within this many minutes (default: 60)"),
		),
	), s.withTimeout(s.handleCheckTimeReminders))
}
