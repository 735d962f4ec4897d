// Package server wires the chronos components into an MCP server.
// This is the composition root: it creates nothing domain-specific
// itself, it only registers tools that delegate to the managers.
package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/chronos/pkg/activity"
	"github.com/entrhq/chronos/pkg/config"
	"github.com/entrhq/chronos/pkg/reminder"
	"github.com/entrhq/chronos/pkg/timezone"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Server exposes the activity, reminder and timezone operations as MCP
// tools over the stdio transport.
type Server struct {
	mcp        *server.MCPServer
	activities *activity.Manager
	reminders  *reminder.Manager
	tz         *timezone.Service
	timeout    time.Duration
}

// New creates the MCP server with all nine tools registered.
func New(cfg *config.Config, activities *activity.Manager, reminders *reminder.Manager, tz *timezone.Service) *Server {
	s := &Server{
		activities: activities,
		reminders:  reminders,
		tz:         tz,
		timeout:    cfg.Timeout(),
	}

	s.mcp = server.NewMCPServer(
		"chronos",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(tz.LocalName())),
	)
	s.registerTools()
	return s
}

// ServeStdio runs the server over stdin/stdout until the context is
// canceled or the client disconnects. Logs go to stderr only; stdout
// belongs to the protocol.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func serverInstructions(localZone string) string {
	return `You have access to chronos, a local activity-tracking and reminder server.

Use start_activity_log before beginning a unit of work and end_activity_log
when it completes; the id returned by start identifies the activity in every
later call. Activities survive process restarts, so an id from a previous
session remains valid. Durations are computed by the server — never estimate
them yourself.

When ending or updating an activity, write substantive notes: what was
accomplished, key decisions, and anything a future session needs to continue
the work.

Reminders are never consumed by polling: check_time_reminders keeps
reporting a past-due reminder until it is explicitly handled.

The local system timezone is ` + localZone + `; pass 'system' or 'local' to the
time tools to use it.`
}
