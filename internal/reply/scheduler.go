package reply

import (
	"context"
	"sync"
	"time"

	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
)

// Scheduled is a reply paired with its own send delay.
type Scheduled struct {
	Reply Reply
	Delay time.Duration
}

// Scheduler issues replies after independent per-reply delays without
// blocking the caller. There is no cancellation: once scheduled, a reply
// fires unless the process ends first. Scheduled sends are best-effort,
// at-most-once and lost on crash.
//
// The scheduler never reorders a batch; callers pick delay values so the
// intended order holds (e.g. 500ms before 2000ms). Ordering across separate
// Schedule calls is not guaranteed.
type Scheduler struct {
	port    Port
	logger  *logger.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewScheduler creates a reply scheduler delivering through port.
func NewScheduler(port Port, log *logger.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		port:    port,
		logger:  log,
		metrics: m,
	}
}

// Schedule queues each reply in the batch on its own timer and returns
// immediately. Send failures are logged, never surfaced.
func (s *Scheduler) Schedule(userID string, batch ...Scheduled) {
	for _, item := range batch {
		item := item
		s.wg.Add(1)
		if s.metrics != nil {
			s.metrics.ScheduledRepliesPending.Inc()
		}
		time.AfterFunc(item.Delay, func() {
			defer s.wg.Done()
			if s.metrics != nil {
				s.metrics.ScheduledRepliesPending.Dec()
			}
			// The triggering event's context is long gone by the time the
			// timer fires; sends run against a fresh background context.
			if err := s.port.Reply(context.Background(), userID, item.Reply); err != nil {
				s.logger.WithError(err).
					WithUserID(userID).
					WithField("template", item.Reply.Template).
					Warn("Failed to send scheduled reply")
			}
		})
	}
}

// Wait blocks until all scheduled replies have fired or the context is
// canceled. Used during graceful shutdown.
func (s *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
