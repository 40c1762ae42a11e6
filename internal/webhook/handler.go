// Package webhook provides the Messenger-style webhook HTTP surface:
// the GET verification handshake and the POST event batches that feed the
// event router.
package webhook

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
	"github.com/andybot/andybot-go/internal/ratelimit"
)

// maxEventsPerBatch caps one webhook delivery to keep a hostile batch from
// monopolizing the process.
const maxEventsPerBatch = 100

// Dispatcher routes one inbound event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev event.Event)
}

// Payload is a webhook event batch.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one page entry in a webhook batch.
type Entry struct {
	Messaging []Messaging `json:"messaging"`
}

// Messaging is one raw messaging event.
type Messaging struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message,omitempty"`
	Postback *event.Postback `json:"postback,omitempty"`
	Referral *event.Referral `json:"referral,omitempty"`
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	VerifyToken string
	Dispatcher  Dispatcher
	UserLimiter *ratelimit.PerKeyLimiter
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

// Handler handles webhook HTTP requests and hands events to the router.
type Handler struct {
	verifyToken string
	dispatcher  Dispatcher
	userLimiter *ratelimit.PerKeyLimiter
	logger      *logger.Logger
	metrics     *metrics.Metrics
	wg          sync.WaitGroup
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		verifyToken: cfg.VerifyToken,
		dispatcher:  cfg.Dispatcher,
		userLimiter: cfg.UserLimiter,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Verify is the Gin handler for the GET verification handshake.
// The challenge is echoed only when the mode and token match.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}

	h.logger.Warn("Webhook verification failed")
	c.Status(http.StatusForbidden)
}

// Receive is the Gin handler for POST event batches. The platform expects
// an immediate 200; events are processed asynchronously.
func (h *Handler) Receive(c *gin.Context) {
	var payload Payload
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		h.logger.WithError(err).Warn("Malformed webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	c.Status(http.StatusOK)

	events := h.collect(payload)
	if len(events) == 0 {
		return
	}

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()

		for _, ev := range events {
			h.process(ev)
		}
	})
}

// collect flattens a batch into dispatchable events, applying the batch cap
// and the per-user rate limit.
func (h *Handler) collect(payload Payload) []event.Event {
	events := make([]event.Event, 0, len(payload.Entry))
	for _, entry := range payload.Entry {
		for _, m := range entry.Messaging {
			ev, ok := toEvent(m)
			if !ok {
				continue
			}
			if h.userLimiter != nil && !h.userLimiter.Allow(ev.User.ID) {
				h.logger.WithUserID(ev.User.ID).Warn("User rate limit exceeded")
				if h.metrics != nil {
					h.metrics.RecordRateLimiterDrop("user")
				}
				continue
			}
			events = append(events, ev)
			if len(events) >= maxEventsPerBatch {
				h.logger.WithField("limit", maxEventsPerBatch).
					Warn("Too many events in webhook batch; truncating")
				return events
			}
		}
	}
	return events
}

// process dispatches one event under a fresh request id.
func (h *Handler) process(ev event.Event) {
	requestID := uuid.NewString()
	log := h.logger.WithRequestID(requestID).WithUserID(ev.User.ID)
	log.WithField("event_type", string(ev.Type)).Debug("Dispatching event")

	// The HTTP request is already answered; processing runs on its own
	// background context.
	h.dispatcher.Dispatch(context.Background(), ev)
}

// toEvent maps a raw messaging entry to the event model. Entries without a
// recognizable shape are skipped.
func toEvent(m Messaging) (event.Event, bool) {
	ev := event.Event{
		User: event.User{ID: m.Sender.ID},
	}
	if ev.User.ID == "" {
		return event.Event{}, false
	}

	switch {
	case m.Postback != nil:
		ev.Type = event.TypePostback
		ev.Raw.Postback = m.Postback
	case m.Message != nil:
		ev.Type = event.TypeMessage
		ev.Raw.Text = m.Message.Text
	case m.Referral != nil:
		ev.Type = event.TypeReferral
		ev.Raw.Referral = m.Referral
	default:
		return event.Event{}, false
	}

	return ev, true
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
