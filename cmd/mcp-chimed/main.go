// Command mcp-chimed exposes a running chimed daemon as MCP tools.
//
// An LLM assistant connected over stdio can set alarms and reminders, list
// the schedule, and stop, snooze, edit or delete items.
//
// Usage:
//
//	./mcp-chimed          # Start MCP server (stdio)
//	./mcp-chimed --help   # Show help
//
// Environment:
//
//	CHIMED_API_URL  Base URL of the chimed daemon (default: http://localhost:8595)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ringdown/chimed/internal/apiclient"
	"github.com/ringdown/chimed/internal/mcpserver"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	api := apiclient.New(os.Getenv("CHIMED_API_URL"))
	s := mcpserver.NewServer(api)

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Chimed Server - Alarm and reminder management via MCP protocol

USAGE:
    mcp-chimed          Start MCP server (communicates via stdio)
    mcp-chimed --help   Show this help

ENVIRONMENT:
    CHIMED_API_URL  Base URL of the chimed daemon
                    Default: http://localhost:8595

TOOLS:
    set_alarm     Set an alarm (time, name, repeat, days, message, sound)
    set_reminder  Set a named reminder
    list_items    List alarms and reminders
    stop_item     Stop a ringing item (recurring items re-arm)
    snooze_item   Snooze an item for a number of minutes
    edit_item     Edit an item's name, time, message, sound, repeat or enabled state
    delete_item   Delete an item permanently
    stop_all      Stop everything currently ringing
    delete_all    Delete all items, optionally limited to one kind

CONFIGURATION:
    Add to your MCP client config:
    {
      "mcpServers": {
        "chimed": {
          "command": "/path/to/mcp-chimed",
          "args": []
        }
      }
    }`)
}
