package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/chronos/pkg/activity"
	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/models"
	"github.com/entrhq/chronos/pkg/reminder"
)

// withTimeout bounds a tool call by the configured deadline and reports
// a structured timeout error instead of hanging the client.
func (s *Server) withTimeout(h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		type outcome struct {
			result *mcp.CallToolResult
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := h(ctx, req)
			done <- outcome{result, err}
		}()

		select {
		case <-ctx.Done():
			slog.Error("tool call timed out", "tool", req.Params.Name, "timeout", s.timeout)
			return errorResult(apperrors.NewTimeoutError(
				"tool %s timed out after %s", req.Params.Name, s.timeout)), nil
		case out := <-done:
			return out.result, out.err
		}
	}
}

// errorResult renders a typed error as a structured tool error with a
// machine-readable kind. Errors are data here, not protocol failures.
func errorResult(err error) *mcp.CallToolResult {
	payload := map[string]any{
		"kind":    string(apperrors.KindOf(err)),
		"message": apperrors.MessageOf(err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && len(appErr.Details) > 0 {
		payload["details"] = appErr.Details
	}
	b, marshalErr := json.Marshal(map[string]any{"error": payload})
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(b))
}

// textResult renders any payload as pretty-printed JSON text content.
func textResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(&apperrors.AppError{
			Kind: apperrors.KindInternal, Message: "encode result", Cause: err,
		})
	}
	return mcp.NewToolResultText(string(b))
}

// activityPayload is the wire shape of an activity: the stored record
// plus the derived status and a human-readable duration.
type activityPayload struct {
	*models.Activity
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
}

func toActivityPayload(a *models.Activity) activityPayload {
	p := activityPayload{Activity: a, Status: a.Status()}
	if a.DurationSeconds != nil {
		p.Duration = activity.FormatDuration(*a.DurationSeconds)
	}
	return p
}

func (s *Server) handleGetCurrentTime(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("timezone")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: timezone")), nil
	}
	result, err := s.tz.Current(name)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(result), nil
}

func (s *Server) handleConvertTime(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source_timezone")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: source_timezone")), nil
	}
	clock, err := req.RequireString("time")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: time")), nil
	}
	target, err := req.RequireString("target_timezone")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: target_timezone")), nil
	}

	result, err := s.tz.Convert(source, clock, target)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(result), nil
}

func (s *Server) handleStartActivityLog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	activityType, err := req.RequireString("activityType")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: activityType")), nil
	}
	taskScope, err := req.RequireString("task_scope")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: task_scope")), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: description")), nil
	}

	var tags []string
	if raw, ok := req.GetArguments()["tags"]; ok {
		tags, err = toStringSlice(raw)
		if err != nil {
			return errorResult(err), nil
		}
	}

	a, err := s.activities.Start(activityType, taskScope, description, tags)
	if err != nil {
		return errorResult(err), nil
	}
	slog.Info("activity started", "id", a.ID, "type", a.ActivityType, "scope", a.TaskScope)
	return textResult(toActivityPayload(a)), nil
}

func (s *Server) handleEndActivityLog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("activityId")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: activityId")), nil
	}

	a, err := s.activities.End(id, req.GetString("result", ""), req.GetString("notes", ""))
	if err != nil {
		return errorResult(err), nil
	}
	slog.Info("activity ended", "id", a.ID, "durationSeconds", *a.DurationSeconds)
	return textResult(toActivityPayload(a)), nil
}

func (s *Server) handleGetElapsedTime(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("activityId")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: activityId")), nil
	}

	report, err := s.activities.Elapsed(id)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(report), nil
}

func (s *Server) handleGetActivityLogs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := activity.Filter{
		ActivityType: req.GetString("activityType", ""),
		TaskScope:    req.GetString("task_scope", ""),
		Status:       req.GetString("status", ""),
		Limit:        req.GetInt("limit", 0),
	}

	if raw := req.GetString("startDate", ""); raw != "" {
		t, err := parseTimestamp("startDate", raw)
		if err != nil {
			return errorResult(err), nil
		}
		filter.StartDate = &t
	}
	if raw := req.GetString("endDate", ""); raw != "" {
		t, err := parseTimestamp("endDate", raw)
		if err != nil {
			return errorResult(err), nil
		}
		filter.EndDate = &t
	}

	logs, err := s.activities.List(filter)
	if err != nil {
		return errorResult(err), nil
	}

	payloads := make([]activityPayload, len(logs))
	for i, a := range logs {
		payloads[i] = toActivityPayload(a)
	}
	return textResult(payloads), nil
}

func (s *Server) handleUpdateActivityLog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("activityId")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: activityId")), nil
	}

	args := req.GetArguments()
	var upd activity.Update
	for field, dst := range map[string]**string{
		"activityType": &upd.ActivityType,
		"task_scope":   &upd.TaskScope,
		"description":  &upd.Description,
		"result":       &upd.Result,
		"notes":        &upd.Notes,
	} {
		v, ok := args[field]
		if !ok {
			continue
		}
		str, err := toString(field, v)
		if err != nil {
			return errorResult(err), nil
		}
		*dst = &str
	}
	if v, ok := args["tags"]; ok {
		tags, err := toStringSlice(v)
		if err != nil {
			return errorResult(err), nil
		}
		upd.Tags = &tags
	}

	a, err := s.activities.Apply(id, upd)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(toActivityPayload(a)), nil
}

func (s *Server) handleCreateTimeReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminderTime, err := req.RequireString("reminderTime")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: reminderTime")), nil
	}
	message, err := req.RequireString("message")
	if err != nil {
		return errorResult(apperrors.NewValidationError("missing required argument: message")), nil
	}

	r, err := s.reminders.Create(reminderTime, message, req.GetString("relatedTaskId", ""))
	if err != nil {
		return errorResult(err), nil
	}
	slog.Info("reminder created", "id", r.ID, "at", r.ReminderTime)
	return textResult(r), nil
}

func (s *Server) handleCheckTimeReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.reminders.CheckDue(req.GetInt("upcomingMinutes", reminder.DefaultUpcomingMinutes))
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(report), nil
}

func parseTimestamp(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(
			"invalid %s %q: expected RFC 3339 timestamp", field, raw)
	}
	return t, nil
}

func toString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", apperrors.NewValidationError("%s must be a string", field)
	}
	return s, nil
}

func toStringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, len(vv))
		for i, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, apperrors.NewValidationError("tags must be an array of strings")
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, apperrors.NewValidationError("tags must be an array of strings")
	}
}
