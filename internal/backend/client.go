// Package backend provides the HTTP client for the backend domain service:
// user records, scan-code resolution, activity eligibility and
// scavenger-hunt hints. Every call is a single attempt with no retry; the
// caller decides how a failure surfaces to the user.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	domerrors "github.com/andybot/andybot-go/internal/errors"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
)

// Client calls the backend domain service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
		metrics: m,
	}
}

// UserExists reports whether the backend knows the given user id.
func (c *Client) UserExists(ctx context.Context, userID string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	path := fmt.Sprintf("/users/%s/exists", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, "user_exists", path, nil, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// CreateUser registers a new user with the backend.
func (c *Client) CreateUser(ctx context.Context, userID, firstName string) error {
	in := map[string]string{"id": userID, "first_name": firstName}
	return c.do(ctx, http.MethodPost, "create_user", "/users", in, nil)
}

// GetUser fetches a user record.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var out User
	path := fmt.Sprintf("/users/%s", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, "get_user", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScanCode resolves a scanned referral code for a user.
func (c *Client) ScanCode(ctx context.Context, userID, code string) (*ScanResponse, error) {
	in := map[string]string{"user_id": userID, "code": code}
	var out ScanResponse
	if err := c.do(ctx, http.MethodPost, "scan_code", "/scan", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableActivities fetches the activities currently available to a user.
func (c *Client) AvailableActivities(ctx context.Context, userID string) ([]AvailableActivity, error) {
	var out []AvailableActivity
	path := fmt.Sprintf("/users/%s/activities", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, "available_activities", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableEvents fetches the scheduled events currently available to a user.
func (c *Client) AvailableEvents(ctx context.Context, userID string) ([]AvailableEvent, error) {
	var out []AvailableEvent
	path := fmt.Sprintf("/users/%s/events", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, "available_events", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScavengerHuntHint fetches the hint for a clue number. The clue number is
// passed through verbatim; malformed input surfaces as a backend failure.
func (c *Client) ScavengerHuntHint(ctx context.Context, clueNumber string) (*Hint, error) {
	var out Hint
	path := fmt.Sprintf("/scavengerhunt/hints/%s", url.PathEscape(clueNumber))
	if err := c.do(ctx, http.MethodGet, "scavengerhunt_hint", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one request/response round trip. Non-2xx statuses and
// transport failures become *errors.BackendError.
func (c *Client) do(ctx context.Context, method, endpoint, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(endpoint, "error", start)
		return domerrors.NewBackendError(endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		c.record(endpoint, "not_found", start)
		return domerrors.NewBackendError(endpoint, resp.StatusCode, domerrors.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(endpoint, "error", start)
		return domerrors.NewBackendError(endpoint, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.record(endpoint, "error", start)
			return domerrors.NewBackendError(endpoint, resp.StatusCode,
				fmt.Errorf("decode response: %w", err))
		}
	}

	c.record(endpoint, "success", start)
	return nil
}

func (c *Client) record(endpoint, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordBackendRequest(endpoint, status, time.Since(start).Seconds())
	}
}
