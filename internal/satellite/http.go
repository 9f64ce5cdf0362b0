package satellite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultPollInterval = 500 * time.Millisecond

// HTTPClient implements Client against a satellite's HTTP control API.
// State changes are delivered by polling; the satellite firmware has no
// push channel.
type HTTPClient struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
}

// NewHTTPClient creates a client for the satellite at baseURL.
func NewHTTPClient(baseURL string, pollInterval time.Duration) *HTTPClient {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:      baseURL,
		pollInterval: pollInterval,
	}
}

type speakRequest struct {
	Target string `json:"target,omitempty"`
	Text   string `json:"text"`
}

type playRequest struct {
	Target string `json:"target,omitempty"`
	Media  string `json:"media"`
}

type stateResponse struct {
	State string `json:"state"`
}

// Speak announces text through the satellite's TTS.
func (c *HTTPClient) Speak(ctx context.Context, target, text string) error {
	return c.post(ctx, "/api/speak", speakRequest{Target: target, Text: text})
}

// Play starts media playback without waiting for it to finish.
func (c *HTTPClient) Play(ctx context.Context, target, mediaPath string) error {
	return c.post(ctx, "/api/play", playRequest{Target: target, Media: mediaPath})
}

// CurrentState reports the satellite's pipeline state. Transport failures
// come back as StateUnknown with the error.
func (c *HTTPClient) CurrentState(ctx context.Context) (State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/state", nil)
	if err != nil {
		return StateUnknown, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return StateUnknown, fmt.Errorf("satellite unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return StateUnknown, fmt.Errorf("satellite returned %d: %s", resp.StatusCode, string(body))
	}

	var sr stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return StateUnknown, fmt.Errorf("failed to decode state: %w", err)
	}

	switch State(sr.State) {
	case StateIdle, StateResponding, StateListening:
		return State(sr.State), nil
	default:
		return StateUnknown, nil
	}
}

// Subscribe polls the satellite and emits a value whenever the state
// changes. The channel closes when ctx is done.
func (c *HTTPClient) Subscribe(ctx context.Context) (<-chan State, error) {
	ch := make(chan State, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		last := State("")
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st, err := c.CurrentState(ctx)
				if err != nil {
					st = StateUnknown
				}
				if st == last {
					continue
				}
				last = st
				select {
				case ch <- st:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("satellite unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("satellite returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
