package router

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"

	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/reply"
)

type fakePort struct {
	mu      sync.Mutex
	replies []reply.Reply
}

func (p *fakePort) Reply(_ context.Context, _ string, r reply.Reply) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, r)
	return nil
}

func (p *fakePort) SendTemplate(context.Context, string, reply.GenericTemplate, reply.SendOptions) error {
	return nil
}

func (p *fakePort) sent() []reply.Reply {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]reply.Reply(nil), p.replies...)
}

func testRouter() (*Router, *fakePort) {
	port := &fakePort{}
	return New(port, logger.NewWithWriter("error", io.Discard), nil), port
}

func textEvent(text string) event.Event {
	return event.Event{
		Type: event.TypeMessage,
		User: event.User{ID: "user-1"},
		Raw:  event.Raw{Text: text},
	}
}

func TestDispatchFirstMatchWins(t *testing.T) {
	t.Parallel()

	r, _ := testRouter()

	var called []string
	r.Hear(regexp.MustCompile(`GET_STARTED`), "first", func(context.Context, event.Event) error {
		called = append(called, "first")
		return nil
	})
	r.Hear(regexp.MustCompile(`STARTED`), "second", func(context.Context, event.Event) error {
		called = append(called, "second")
		return nil
	})

	r.Dispatch(context.Background(), textEvent("GET_STARTED"))

	if len(called) != 1 || called[0] != "first" {
		t.Errorf("Expected only the first binding to run, got %v", called)
	}
}

func TestDispatchFallback(t *testing.T) {
	t.Parallel()

	r, _ := testRouter()

	r.Hear(regexp.MustCompile(`GET_STARTED`), "get_started", func(context.Context, event.Event) error {
		t.Error("Binding should not match")
		return nil
	})

	fallbackCalled := false
	r.Fallback("scan_fallback", func(context.Context, event.Event) error {
		fallbackCalled = true
		return nil
	})

	r.Dispatch(context.Background(), textEvent("random chatter"))

	if !fallbackCalled {
		t.Error("Expected fallback to run for an unmatched event")
	}
}

func TestDispatchIgnoresNonDispatchable(t *testing.T) {
	t.Parallel()

	r, _ := testRouter()

	r.Fallback("scan_fallback", func(context.Context, event.Event) error {
		t.Error("Fallback must not run for non-dispatchable events")
		return nil
	})

	ev := textEvent("anything")
	ev.Type = "delivery_receipt"
	r.Dispatch(context.Background(), ev)
}

func TestDispatchNoFallbackRegistered(t *testing.T) {
	t.Parallel()

	r, port := testRouter()

	// Should not panic and not reply
	r.Dispatch(context.Background(), textEvent("unmatched"))

	if len(port.sent()) != 0 {
		t.Errorf("Expected no replies, got %v", port.sent())
	}
}

func TestDispatchHandlerErrorSendsErrorReply(t *testing.T) {
	t.Parallel()

	r, port := testRouter()

	r.Hear(regexp.MustCompile(`BOOM`), "boom", func(context.Context, event.Event) error {
		return errors.New("handler exploded")
	})

	r.Dispatch(context.Background(), textEvent("BOOM"))

	sent := port.sent()
	if len(sent) != 1 || sent[0].Template != reply.TemplateError {
		t.Errorf("Expected a single #error reply, got %v", sent)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	t.Parallel()

	r, port := testRouter()

	r.Hear(regexp.MustCompile(`PANIC`), "panic", func(context.Context, event.Event) error {
		panic("handler lost it")
	})

	// Must not propagate the panic
	r.Dispatch(context.Background(), textEvent("PANIC"))

	sent := port.sent()
	if len(sent) != 1 || sent[0].Template != reply.TemplateError {
		t.Errorf("Expected a single #error reply after panic, got %v", sent)
	}
}

func TestDispatchMatchesPostbackPayload(t *testing.T) {
	t.Parallel()

	r, _ := testRouter()

	matched := false
	r.Hear(regexp.MustCompile(`START_ACTIVITY:`), "start_activity", func(_ context.Context, ev event.Event) error {
		matched = true
		if got := ev.PayloadArg(); got != "trivia-42" {
			t.Errorf("Expected payload arg 'trivia-42', got %q", got)
		}
		return nil
	})

	ev := event.Event{
		Type: event.TypePostback,
		User: event.User{ID: "user-1"},
		Raw: event.Raw{
			Postback: &event.Postback{Payload: "START_ACTIVITY:trivia-42"},
		},
	}
	r.Dispatch(context.Background(), ev)

	if !matched {
		t.Error("Expected the postback payload to match")
	}
}
