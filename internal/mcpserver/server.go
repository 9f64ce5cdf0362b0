// Package mcpserver exposes the daemon's schedule as MCP tools so an LLM
// assistant can set and manage alarms and reminders.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ringdown/chimed/internal/apiclient"
	"github.com/ringdown/chimed/internal/httpapi"
	"github.com/ringdown/chimed/internal/item"
)

const (
	serverName    = "chimed"
	serverVersion = "1.0.0"
)

// Server is the MCP server for alarm and reminder management. It is a thin
// adapter over the daemon's HTTP API.
type Server struct {
	mcpServer *server.MCPServer
	api       *apiclient.Client
}

// NewServer creates a new MCP server backed by the given daemon client.
func NewServer(api *apiclient.Client) *Server {
	s := &Server{
		api: api,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	// set_alarm
	s.mcpServer.AddTool(
		mcp.NewTool("set_alarm",
			mcp.WithDescription("Set an alarm. Time accepts clock times (\"7:30am\", \"15:04\"), relative expressions (\"in 20 minutes\") and day words (\"tomorrow at 7\", \"monday at 8am\")"),
			mcp.WithString("time", mcp.Required(), mcp.Description("When the alarm should ring")),
			mcp.WithString("name", mcp.Description("Optional alarm name")),
			mcp.WithString("repeat", mcp.Description("Repeat policy: once, daily, weekdays, weekends, weekly (default: once)")),
			mcp.WithString("days", mcp.Description("Comma-separated days for weekly repeat (mon,tue,wed,thu,fri,sat,sun)")),
			mcp.WithString("message", mcp.Description("Optional message spoken when the alarm rings")),
			mcp.WithString("sound", mcp.Description("Optional sound name or file")),
		),
		s.handleSetAlarm,
	)

	// set_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("set_reminder",
			mcp.WithDescription("Set a named reminder. Time accepts the same expressions as set_alarm"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Reminder name, announced when it fires")),
			mcp.WithString("time", mcp.Required(), mcp.Description("When the reminder should fire")),
			mcp.WithString("repeat", mcp.Description("Repeat policy: once, daily, weekdays, weekends, weekly (default: once)")),
			mcp.WithString("days", mcp.Description("Comma-separated days for weekly repeat")),
			mcp.WithString("message", mcp.Description("Optional extra message")),
			mcp.WithString("sound", mcp.Description("Optional sound name or file")),
		),
		s.handleSetReminder,
	)

	// list_items
	s.mcpServer.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("List all alarms and reminders, optionally filtered by kind"),
			mcp.WithString("kind", mcp.Description("Filter: alarm, reminder, or empty for both")),
		),
		s.handleListItems,
	)

	// stop_item
	s.mcpServer.AddTool(
		mcp.NewTool("stop_item",
			mcp.WithDescription("Stop a ringing alarm or reminder. Recurring items re-arm for their next occurrence"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
			mcp.WithString("kind", mcp.Description("Expected kind: alarm or reminder. The stop is refused if it does not match")),
		),
		s.handleStopItem,
	)

	// snooze_item
	s.mcpServer.AddTool(
		mcp.NewTool("snooze_item",
			mcp.WithDescription("Snooze an alarm or reminder for a number of minutes"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
			mcp.WithNumber("minutes", mcp.Description("Minutes to snooze (default: 9)")),
			mcp.WithString("kind", mcp.Description("Expected kind: alarm or reminder")),
		),
		s.handleSnoozeItem,
	)

	// edit_item
	s.mcpServer.AddTool(
		mcp.NewTool("edit_item",
			mcp.WithDescription("Edit an alarm or reminder's name, time, message, sound, repeat or enabled state"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
			mcp.WithString("name", mcp.Description("New display name (the id stays the same)")),
			mcp.WithString("time", mcp.Description("New time expression")),
			mcp.WithString("message", mcp.Description("New message")),
			mcp.WithString("sound", mcp.Description("New sound")),
			mcp.WithString("repeat", mcp.Description("New repeat policy")),
			mcp.WithString("days", mcp.Description("New comma-separated days for weekly repeat")),
			mcp.WithBoolean("enabled", mcp.Description("Enable or disable the item")),
		),
		s.handleEditItem,
	)

	// delete_item
	s.mcpServer.AddTool(
		mcp.NewTool("delete_item",
			mcp.WithDescription("Delete an alarm or reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
			mcp.WithString("kind", mcp.Description("Expected kind: alarm or reminder")),
		),
		s.handleDeleteItem,
	)

	// stop_all
	s.mcpServer.AddTool(
		mcp.NewTool("stop_all",
			mcp.WithDescription("Stop everything that is currently ringing"),
		),
		s.handleStopAll,
	)

	// delete_all
	s.mcpServer.AddTool(
		mcp.NewTool("delete_all",
			mcp.WithDescription("Delete all alarms, all reminders, or everything"),
			mcp.WithString("kind", mcp.Description("Limit to one kind: alarm or reminder")),
		),
		s.handleDeleteAll,
	)
}

func (s *Server) handleSetAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	when := req.GetString("time", "")
	if when == "" {
		return mcp.NewToolResultError("time is required"), nil
	}

	it, err := s.api.CreateAlarm(ctx, httpapi.CreateRequest{
		Name:    req.GetString("name", ""),
		When:    when,
		Repeat:  req.GetString("repeat", ""),
		Days:    splitDays(req.GetString("days", "")),
		Message: req.GetString("message", ""),
		Sound:   req.GetString("sound", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set alarm: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Alarm %s set for %s.", it.ID, it.ScheduledTime.Format("Monday 3:04 PM"))), nil
}

func (s *Server) handleSetReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	when := req.GetString("time", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	if when == "" {
		return mcp.NewToolResultError("time is required"), nil
	}

	it, err := s.api.CreateReminder(ctx, httpapi.CreateRequest{
		Name:    name,
		When:    when,
		Repeat:  req.GetString("repeat", ""),
		Days:    splitDays(req.GetString("days", "")),
		Message: req.GetString("message", ""),
		Sound:   req.GetString("sound", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %q set for %s.", it.DisplayName, it.ScheduledTime.Format("Monday 3:04 PM"))), nil
}

func (s *Server) handleListItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.api.List(ctx, item.Kind(req.GetString("kind", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list items: %v", err)), nil
	}

	if len(items) == 0 {
		return mcp.NewToolResultText("No alarms or reminders set."), nil
	}

	output, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleStopItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	it, err := s.api.Stop(ctx, id, item.Kind(req.GetString("kind", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stop item: %v", err)), nil
	}
	if it.ID == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing to stop: %s does not exist.", id)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s stopped.", it.DisplayName)), nil
}

func (s *Server) handleSnoozeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	minutes := int(req.GetFloat("minutes", 9))
	it, err := s.api.Snooze(ctx, id, minutes, item.Kind(req.GetString("kind", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to snooze item: %v", err)), nil
	}
	if it.ID == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing to snooze: %s does not exist.", id)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s snoozed until %s.", it.DisplayName, it.ScheduledTime.Format("3:04 PM"))), nil
}

func (s *Server) handleEditItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	var edit httpapi.EditRequest
	if v := req.GetString("name", ""); v != "" {
		edit.Name = &v
	}
	if v := req.GetString("time", ""); v != "" {
		edit.When = &v
	}
	if v := req.GetString("message", ""); v != "" {
		edit.Message = &v
	}
	if v := req.GetString("sound", ""); v != "" {
		edit.Sound = &v
	}
	if v := req.GetString("repeat", ""); v != "" {
		edit.Repeat = &v
	}
	if v := req.GetString("days", ""); v != "" {
		days := splitDays(v)
		edit.Days = &days
	}
	if v := req.GetBool("enabled", true); !v {
		edit.Enabled = &v
	}

	it, err := s.api.Edit(ctx, id, edit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to edit item: %v", err)), nil
	}

	output, _ := json.MarshalIndent(it, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleDeleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	if err := s.api.Delete(ctx, id, item.Kind(req.GetString("kind", ""))); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete item: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s deleted.", id)), nil
}

func (s *Server) handleStopAll(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.api.StopAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stop all: %v", err)), nil
	}
	if n == 0 {
		return mcp.NewToolResultText("Nothing was ringing."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stopped %d ringing item(s).", n)), nil
}

func (s *Server) handleDeleteAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.api.DeleteAll(ctx, item.Kind(req.GetString("kind", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete all: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d item(s).", n)), nil
}

func splitDays(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	days := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			days = append(days, p)
		}
	}
	return days
}
