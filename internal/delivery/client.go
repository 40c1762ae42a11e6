// Package delivery implements the reply port against the hosting
// conversational runtime. The runtime owns template rendering, message
// transport and activity turn-taking; this client only hands it narrow
// fire-and-forget requests.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	domerrors "github.com/andybot/andybot-go/internal/errors"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
	"github.com/andybot/andybot-go/internal/reply"
)

// Client sends replies and flow-start requests to the hosting runtime.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewClient creates a delivery client for the given runtime base URL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
		metrics: m,
	}
}

// Reply sends a named templated reply to a user.
func (c *Client) Reply(ctx context.Context, userID string, r reply.Reply) error {
	body := map[string]any{
		"recipient_id": userID,
		"template":     r.Template,
	}
	if r.Data != nil {
		body["data"] = r.Data
	}

	err := c.post(ctx, "/messages", body)
	c.recordReply(r.Template, err)
	if err != nil {
		return domerrors.NewDeliveryError(r.Template, err)
	}
	return nil
}

// SendTemplate sends a raw generic template payload to a user.
func (c *Client) SendTemplate(ctx context.Context, userID string, tpl reply.GenericTemplate, opts reply.SendOptions) error {
	body := map[string]any{
		"recipient_id": userID,
		"payload":      tpl,
	}
	if opts.TypingMs > 0 {
		body["typing_ms"] = opts.TypingMs
	}

	err := c.post(ctx, "/templates", body)
	c.recordReply(tpl.TemplateType, err)
	if err != nil {
		return domerrors.NewDeliveryError(tpl.TemplateType, err)
	}
	return nil
}

// StartFlow asks the runtime to begin driving a conversational flow
// (trivia questions, poll options) for an activity.
func (c *Client) StartFlow(ctx context.Context, flow, conversationID, userID, activityID string) error {
	body := map[string]any{
		"flow":            flow,
		"conversation_id": conversationID,
		"recipient_id":    userID,
		"activity_id":     activityID,
	}
	return c.post(ctx, "/flows", body)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func (c *Client) recordReply(template string, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordReply(template, status)
}

// Compile-time check that Client satisfies the reply port.
var _ reply.Port = (*Client)(nil)
