// Package router dispatches inbound events to named handlers by pattern.
// It holds an ordered binding table built at startup plus one fallback
// handler for unmatched referral-carrying events. No error escapes the
// router: a failing or panicking handler is logged, reported and answered
// with the generic error reply.
package router

import (
	"context"
	"fmt"
	"regexp"

	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
	"github.com/andybot/andybot-go/internal/reply"
	"github.com/andybot/andybot-go/internal/sentry"
)

// HandlerFunc processes one inbound event.
type HandlerFunc func(ctx context.Context, ev event.Event) error

type binding struct {
	pattern *regexp.Regexp
	name    string
	fn      HandlerFunc
}

// Router matches event payloads against bindings in registration order.
type Router struct {
	bindings     []binding
	fallback     HandlerFunc
	fallbackName string
	port         reply.Port
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

// New creates an empty router. Error replies go through port.
func New(port reply.Port, log *logger.Logger, m *metrics.Metrics) *Router {
	return &Router{
		port:    port,
		logger:  log,
		metrics: m,
	}
}

// Hear registers a pattern binding. Bindings are evaluated in registration
// order; the first match wins.
func (r *Router) Hear(pattern *regexp.Regexp, name string, fn HandlerFunc) {
	r.bindings = append(r.bindings, binding{pattern: pattern, name: name, fn: fn})
}

// Fallback registers the handler for events that match no binding.
// Only message, postback and referral events reach it.
func (r *Router) Fallback(name string, fn HandlerFunc) {
	r.fallback = fn
	r.fallbackName = name
}

// Dispatch routes one event. It never returns an error; handler failures
// are converted into the generic error reply.
func (r *Router) Dispatch(ctx context.Context, ev event.Event) {
	b, ok := r.match(ev.Payload())
	if !ok {
		if r.fallback == nil || !ev.Dispatchable() {
			if r.metrics != nil {
				r.metrics.RecordEvent("none", "ignored")
			}
			return
		}
		b = binding{name: r.fallbackName, fn: r.fallback}
	}

	r.invoke(ctx, ev, b)
}

// match returns the first binding whose pattern matches the payload.
func (r *Router) match(payload string) (binding, bool) {
	for _, b := range r.bindings {
		if b.pattern.MatchString(payload) {
			return b, true
		}
	}
	return binding{}, false
}

// invoke runs a handler under the catch-all guard.
func (r *Router) invoke(ctx context.Context, ev event.Event, b binding) {
	log := r.logger.WithHandler(b.name).WithUserID(ev.User.ID)

	err := r.safeCall(ctx, ev, b.fn)
	if err == nil {
		if r.metrics != nil {
			r.metrics.RecordEvent(b.name, "success")
		}
		log.Debug("Event handled")
		return
	}

	if r.metrics != nil {
		r.metrics.RecordEvent(b.name, "error")
	}
	log.WithError(err).Error("Handler failed")
	sentry.CaptureExceptionWithContext(ctx, err)

	if replyErr := r.port.Reply(ctx, ev.User.ID, reply.New(reply.TemplateError)); replyErr != nil {
		log.WithError(replyErr).Warn("Failed to send error reply")
	}
}

// safeCall invokes fn, converting panics into errors.
func (r *Router) safeCall(ctx context.Context, ev event.Event, fn HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return fn(ctx, ev)
}
