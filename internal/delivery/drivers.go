package delivery

import (
	"context"

	"github.com/andybot/andybot-go/internal/activity"
	"github.com/andybot/andybot-go/internal/event"
)

// Drivers returns the activity drivers backed by the hosting runtime's
// flows. Only trivia and poll have flows; scavenger-hunt turns are driven
// by scan codes instead.
func Drivers(c *Client) map[string]activity.Driver {
	forward := func(flow string) activity.Driver {
		return activity.DriverFunc(func(ctx context.Context, convo *activity.Conversation, ev event.Event, activityID string) error {
			return c.StartFlow(ctx, flow, convo.ID, ev.User.ID, activityID)
		})
	}

	return map[string]activity.Driver{
		activity.TypeTrivia: forward("trivia"),
		activity.TypePoll:   forward("poll"),
	}
}
