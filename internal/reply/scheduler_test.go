package reply

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/andybot/andybot-go/internal/logger"
)

// recordingPort collects sent replies in order.
type recordingPort struct {
	mu      sync.Mutex
	replies []Reply
	err     error
}

func (p *recordingPort) Reply(_ context.Context, _ string, r Reply) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, r)
	return p.err
}

func (p *recordingPort) SendTemplate(context.Context, string, GenericTemplate, SendOptions) error {
	return nil
}

func (p *recordingPort) sent() []Reply {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Reply(nil), p.replies...)
}

func testScheduler(port Port) *Scheduler {
	return NewScheduler(port, logger.NewWithWriter("error", io.Discard), nil)
}

func TestScheduleReturnsImmediately(t *testing.T) {
	t.Parallel()

	port := &recordingPort{}
	s := testScheduler(port)

	start := time.Now()
	s.Schedule("user-1", Scheduled{Reply: New(TemplateText), Delay: 100 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Schedule blocked for %v", elapsed)
	}

	if len(port.sent()) != 0 {
		t.Error("Expected no replies before the delay elapsed")
	}
}

func TestScheduleBatchOrder(t *testing.T) {
	t.Parallel()

	port := &recordingPort{}
	s := testScheduler(port)

	s.Schedule("user-1",
		Scheduled{Reply: New(TemplateText).With("text", "first"), Delay: 10 * time.Millisecond},
		Scheduled{Reply: New(TemplateActivities), Delay: 60 * time.Millisecond},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	sent := port.sent()
	if len(sent) != 2 {
		t.Fatalf("Expected 2 replies, got %d", len(sent))
	}
	if sent[0].Template != TemplateText {
		t.Errorf("Expected text reply first, got %q", sent[0].Template)
	}
	if sent[1].Template != TemplateActivities {
		t.Errorf("Expected activities reply second, got %q", sent[1].Template)
	}
}

func TestScheduleZeroDelay(t *testing.T) {
	t.Parallel()

	port := &recordingPort{}
	s := testScheduler(port)

	s.Schedule("user-1", Scheduled{Reply: New(TemplateText)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	if len(port.sent()) != 1 {
		t.Errorf("Expected a zero-delay reply to fire, got %d", len(port.sent()))
	}
}

func TestScheduleSendFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	port := &recordingPort{err: errors.New("runtime down")}
	s := testScheduler(port)

	s.Schedule("user-1", Scheduled{Reply: New(TemplateText), Delay: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	if len(port.sent()) != 1 {
		t.Error("Expected the failing send to have been attempted")
	}
}

func TestWaitTimesOut(t *testing.T) {
	t.Parallel()

	port := &recordingPort{}
	s := testScheduler(port)

	s.Schedule("user-1", Scheduled{Reply: New(TemplateText), Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestWaitWithNothingScheduled(t *testing.T) {
	t.Parallel()

	s := testScheduler(&recordingPort{})
	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait() failed: %v", err)
	}
}
