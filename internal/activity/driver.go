package activity

import (
	"context"

	"github.com/andybot/andybot-go/internal/event"
)

// Driver runs the turn-taking of one activity type (trivia, poll). Drivers
// live in the hosting runtime; the Manager only hands them the fresh
// Conversation and the triggering event.
type Driver interface {
	Drive(ctx context.Context, convo *Conversation, ev event.Event, activityID string) error
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, convo *Conversation, ev event.Event, activityID string) error

// Drive calls f.
func (f DriverFunc) Drive(ctx context.Context, convo *Conversation, ev event.Event, activityID string) error {
	return f(ctx, convo, ev, activityID)
}
