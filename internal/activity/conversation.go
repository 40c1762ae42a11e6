package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Termination reasons.
const (
	ReasonAborted = "aborted"
)

// Conversation is the handle for a user's single active timed activity.
// It is created by the Manager and terminated exactly once, either
// explicitly or by being superseded.
type Conversation struct {
	ID         string
	UserID     string
	ActivityID string
	StartedAt  time.Time

	mu      sync.Mutex
	stopped bool
	reason  string
}

func newConversation(userID, activityID string) *Conversation {
	return &Conversation{
		ID:         uuid.NewString(),
		UserID:     userID,
		ActivityID: activityID,
		StartedAt:  time.Now(),
	}
}

// Stop terminates the conversation with the given reason.
// Subsequent calls are no-ops; the first reason wins.
func (c *Conversation) Stop(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.reason = reason
}

// Stopped reports whether the conversation has been terminated, and why.
func (c *Conversation) Stopped() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped, c.reason
}
