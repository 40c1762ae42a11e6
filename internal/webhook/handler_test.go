package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/ratelimit"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []event.Event
}

func (d *fakeDispatcher) Dispatch(_ context.Context, ev event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *fakeDispatcher) dispatched() []event.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]event.Event(nil), d.events...)
}

func setupHandler(t *testing.T, limiter *ratelimit.PerKeyLimiter) (*Handler, *fakeDispatcher, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dispatcher := &fakeDispatcher{}
	h := NewHandler(HandlerConfig{
		VerifyToken: "verify-token",
		Dispatcher:  dispatcher,
		UserLimiter: limiter,
		Logger:      logger.NewWithWriter("error", io.Discard),
	})

	engine := gin.New()
	engine.GET("/webhook", h.Verify)
	engine.POST("/webhook", h.Receive)
	return h, dispatcher, engine
}

// drain waits for async processing so dispatched events can be inspected.
func drain(t *testing.T, h *Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
}

func postPayload(t *testing.T, engine *gin.Engine, payload Payload) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to encode payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func messageEntry(userID, text string) Messaging {
	var m Messaging
	m.Sender.ID = userID
	m.Message = &struct {
		Text string `json:"text"`
	}{Text: text}
	return m
}

func TestVerifyHandshake(t *testing.T) {
	t.Parallel()

	_, _, engine := setupHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "12345" {
		t.Errorf("Expected challenge echoed back, got %q", w.Body.String())
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	t.Parallel()

	_, _, engine := setupHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestVerifyRejectsBadMode(t *testing.T) {
	t.Parallel()

	_, _, engine := setupHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=unsubscribe&hub.verify_token=verify-token", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestReceiveMalformedBody(t *testing.T) {
	t.Parallel()

	_, _, engine := setupHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestReceiveDispatchesAsync(t *testing.T) {
	t.Parallel()

	h, dispatcher, engine := setupHandler(t, nil)

	payload := Payload{
		Object: "page",
		Entry: []Entry{
			{Messaging: []Messaging{messageEntry("user-1", "hello")}},
		},
	}

	w := postPayload(t, engine, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	drain(t, h)

	events := dispatcher.dispatched()
	if len(events) != 1 {
		t.Fatalf("Expected 1 dispatched event, got %d", len(events))
	}
	if events[0].Type != event.TypeMessage {
		t.Errorf("Expected message event, got %q", events[0].Type)
	}
	if events[0].User.ID != "user-1" {
		t.Errorf("Unexpected user id %q", events[0].User.ID)
	}
	if events[0].Raw.Text != "hello" {
		t.Errorf("Unexpected text %q", events[0].Raw.Text)
	}
}

func TestReceivePostbackPrecedence(t *testing.T) {
	t.Parallel()

	h, dispatcher, engine := setupHandler(t, nil)

	m := messageEntry("user-1", "ignored")
	m.Postback = &event.Postback{Payload: "GET_STARTED"}

	postPayload(t, engine, Payload{Object: "page", Entry: []Entry{{Messaging: []Messaging{m}}}})
	drain(t, h)

	events := dispatcher.dispatched()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type != event.TypePostback {
		t.Errorf("Expected postback to win over message, got %q", events[0].Type)
	}
	if events[0].Payload() != "GET_STARTED" {
		t.Errorf("Unexpected payload %q", events[0].Payload())
	}
}

func TestReceiveReferralEvent(t *testing.T) {
	t.Parallel()

	h, dispatcher, engine := setupHandler(t, nil)

	var m Messaging
	m.Sender.ID = "user-1"
	m.Referral = &event.Referral{Ref: "stamp-hall-a"}

	postPayload(t, engine, Payload{Object: "page", Entry: []Entry{{Messaging: []Messaging{m}}}})
	drain(t, h)

	events := dispatcher.dispatched()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type != event.TypeReferral {
		t.Errorf("Expected referral event, got %q", events[0].Type)
	}
	if ref := events[0].ReferralCode(); ref == nil || ref.Ref != "stamp-hall-a" {
		t.Errorf("Unexpected referral %+v", ref)
	}
}

func TestReceiveSkipsUnrecognizedEntries(t *testing.T) {
	t.Parallel()

	h, dispatcher, engine := setupHandler(t, nil)

	var empty Messaging
	empty.Sender.ID = "user-1" // no message, postback or referral
	var noSender Messaging
	noSender.Message = &struct {
		Text string `json:"text"`
	}{Text: "hello"}

	payload := Payload{Object: "page", Entry: []Entry{
		{Messaging: []Messaging{empty, noSender, messageEntry("user-2", "hi")}},
	}}

	postPayload(t, engine, payload)
	drain(t, h)

	events := dispatcher.dispatched()
	if len(events) != 1 {
		t.Fatalf("Expected only the well-formed event, got %d", len(events))
	}
	if events[0].User.ID != "user-2" {
		t.Errorf("Unexpected user id %q", events[0].User.ID)
	}
}

func TestReceiveAppliesUserRateLimit(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyConfig{
		MaxTokens:  2,
		RefillRate: 0.001,
	})
	defer limiter.Stop()

	h, dispatcher, engine := setupHandler(t, limiter)

	entries := make([]Messaging, 5)
	for i := range entries {
		entries[i] = messageEntry("user-1", fmt.Sprintf("msg %d", i))
	}

	postPayload(t, engine, Payload{Object: "page", Entry: []Entry{{Messaging: entries}}})
	drain(t, h)

	if got := len(dispatcher.dispatched()); got != 2 {
		t.Errorf("Expected 2 events within the rate limit, got %d", got)
	}
}

func TestReceiveCapsBatchSize(t *testing.T) {
	t.Parallel()

	h, dispatcher, engine := setupHandler(t, nil)

	entries := make([]Messaging, maxEventsPerBatch+20)
	for i := range entries {
		entries[i] = messageEntry(fmt.Sprintf("user-%d", i), "hello")
	}

	postPayload(t, engine, Payload{Object: "page", Entry: []Entry{{Messaging: entries}}})
	drain(t, h)

	if got := len(dispatcher.dispatched()); got != maxEventsPerBatch {
		t.Errorf("Expected batch capped at %d, got %d", maxEventsPerBatch, got)
	}
}

func TestShutdownTimesOut(t *testing.T) {
	t.Parallel()

	h := NewHandler(HandlerConfig{
		VerifyToken: "verify-token",
		Dispatcher:  &fakeDispatcher{},
		Logger:      logger.NewWithWriter("error", io.Discard),
	})

	h.wg.Add(1)
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.Shutdown(ctx); err == nil {
		t.Error("Expected Shutdown to time out while work is pending")
	}
}
