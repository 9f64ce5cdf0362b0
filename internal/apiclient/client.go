// Package apiclient is the HTTP client for the chimed daemon API, shared by
// the CLI and the MCP adapter.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ringdown/chimed/internal/httpapi"
	"github.com/ringdown/chimed/internal/item"
)

const defaultBaseURL = "http://localhost:8595"

// Client talks to a running chimed daemon.
type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a client for the daemon at baseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: baseURL,
	}
}

// CreateAlarm schedules a new alarm.
func (c *Client) CreateAlarm(ctx context.Context, req httpapi.CreateRequest) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPost, "/api/alarms", req, &it)
	return it, err
}

// CreateReminder schedules a new reminder.
func (c *Client) CreateReminder(ctx context.Context, req httpapi.CreateRequest) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPost, "/api/reminders", req, &it)
	return it, err
}

// List returns all items, optionally filtered by kind.
func (c *Client) List(ctx context.Context, kind item.Kind) ([]item.Item, error) {
	path := "/api/items"
	if kind != "" {
		path += "?kind=" + string(kind)
	}
	var items []item.Item
	err := c.do(ctx, http.MethodGet, path, nil, &items)
	return items, err
}

// Get returns one item by id.
func (c *Client) Get(ctx context.Context, id string) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodGet, "/api/items/"+id, nil, &it)
	return it, err
}

// Stop stops a ringing or scheduled item.
func (c *Client) Stop(ctx context.Context, id string, kind item.Kind) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPost, actionPath(id, "stop", kind), struct{}{}, &it)
	return it, err
}

// Snooze re-arms an item a few minutes out.
func (c *Client) Snooze(ctx context.Context, id string, minutes int, kind item.Kind) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPost, actionPath(id, "snooze", kind), httpapi.SnoozeRequest{Minutes: minutes}, &it)
	return it, err
}

// Edit applies a partial update.
func (c *Client) Edit(ctx context.Context, id string, req httpapi.EditRequest) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPatch, "/api/items/"+id, req, &it)
	return it, err
}

// Delete removes an item.
func (c *Client) Delete(ctx context.Context, id string, kind item.Kind) error {
	path := "/api/items/" + id
	if kind != "" {
		path += "?kind=" + string(kind)
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// StopAll stops everything currently ringing and reports how many items it
// silenced.
func (c *Client) StopAll(ctx context.Context) (int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodPost, "/api/stop_all", struct{}{}, &out); err != nil {
		return 0, err
	}
	return out["stopped"], nil
}

// DeleteAll removes every item of a kind ("" for all) and reports the count.
func (c *Client) DeleteAll(ctx context.Context, kind item.Kind) (int, error) {
	path := "/api/delete_all"
	if kind != "" {
		path += "?kind=" + string(kind)
	}
	var out map[string]int
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return 0, err
	}
	return out["deleted"], nil
}

// Health pings the daemon.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func actionPath(id, action string, kind item.Kind) string {
	path := "/api/items/" + id + "/" + action
	if kind != "" {
		path += "?kind=" + string(kind)
	}
	return path
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
