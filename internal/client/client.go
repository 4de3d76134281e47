// Package client is the Go client for the remedyd HTTP API, used by
// remedyctl and the watch dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// Client talks to a remedyd daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the daemon at baseURL (e.g.
// "http://localhost:9482").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remedyd returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling remedyd: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var echoErr struct {
			Message string `json:"message"`
		}
		message := string(raw)
		if json.Unmarshal(raw, &echoErr) == nil && echoErr.Message != "" {
			message = echoErr.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Health reports the daemon's health, mode and kill switch state.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitAlert posts one alert for processing and returns its ID.
func (c *Client) SubmitAlert(ctx context.Context, source, severity, message, host string, labels map[string]string) (string, error) {
	req := map[string]any{
		"source":   source,
		"severity": severity,
		"message":  message,
		"host":     host,
		"labels":   labels,
	}
	var resp struct {
		AlertID string `json:"alert_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/alerts", req, &resp); err != nil {
		return "", err
	}
	return resp.AlertID, nil
}

// Statistics returns the engine counters.
func (c *Client) Statistics(ctx context.Context) (*engine.Statistics, error) {
	var out engine.Statistics
	if err := c.do(ctx, http.MethodGet, "/api/v1/statistics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingApprovals lists actions awaiting sign-off, oldest first.
func (c *Client) PendingApprovals(ctx context.Context) ([]engine.PendingApproval, error) {
	var out []engine.PendingApproval
	if err := c.do(ctx, http.MethodGet, "/api/v1/approvals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve approves one pending action.
func (c *Client) Approve(ctx context.Context, actionID, by string) error {
	req := map[string]string{"by": by}
	return c.do(ctx, http.MethodPost, "/api/v1/approvals/"+actionID+"/approve", req, nil)
}

// Reject rejects one pending action.
func (c *Client) Reject(ctx context.Context, actionID, by, reason string) error {
	req := map[string]string{"by": by, "reason": reason}
	return c.do(ctx, http.MethodPost, "/api/v1/approvals/"+actionID+"/reject", req, nil)
}

// History returns up to limit audit entries, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]engine.AuditEntry, error) {
	path := "/api/v1/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []engine.AuditEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetMode switches the daemon's oversight mode.
func (c *Client) SetMode(ctx context.Context, mode string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/mode", map[string]string{"mode": mode}, nil)
}

// SetKillSwitch enables or disables the global kill switch.
func (c *Client) SetKillSwitch(ctx context.Context, enabled bool) error {
	path := "/api/v1/killswitch/disable"
	if enabled {
		path = "/api/v1/killswitch/enable"
	}
	return c.do(ctx, http.MethodPost, path, nil, nil)
}
