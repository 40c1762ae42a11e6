package activity

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/andybot/andybot-go/internal/backend"
	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
	"github.com/andybot/andybot-go/internal/reply"
)

// Suggestion list caps. Stopping an activity offers one more entry than the
// begin-adventure list.
const (
	maxSuggestions     = 9
	maxStopSuggestions = 10
)

// Lister fetches the activities currently available to a user.
type Lister interface {
	AvailableActivities(ctx context.Context, userID string) ([]backend.AvailableActivity, error)
}

// ManagerConfig holds the collaborators of a Manager.
type ManagerConfig struct {
	Lister  Lister
	Port    reply.Port
	Drivers map[string]Driver
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Manager owns the "at most one active timed activity per user" invariant.
// All state transitions for one user happen under that user's lock, so two
// rapid events for the same user can never create two conversations.
type Manager struct {
	lister  Lister
	port    reply.Port
	drivers map[string]Driver
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	active map[string]*Conversation
}

// NewManager creates an activity lifecycle manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		lister:  cfg.Lister,
		port:    cfg.Port,
		drivers: cfg.Drivers,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		locks:   make(map[string]*sync.Mutex),
		active:  make(map[string]*Conversation),
	}
}

// Start begins the named activity for the event's user. An already active
// conversation is aborted first. Validation failures are returned to the
// caller (surfacing as a generic error reply); driver failures are logged
// and never fatal.
func (m *Manager) Start(ctx context.Context, ev event.Event, activityID string) error {
	activityType, err := ParseID(activityID)
	if err != nil {
		return err
	}

	userID := ev.User.ID
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if existing := m.current(userID); existing != nil {
		m.abort(existing)
	}

	convo := newConversation(userID, activityID)
	m.setCurrent(userID, convo)
	if m.metrics != nil {
		m.metrics.ConversationsActive.Inc()
	}

	m.logger.WithUserID(userID).
		WithField("activity_id", activityID).
		WithField("conversation_id", convo.ID).
		Info("Conversation started")

	driver, ok := m.drivers[activityType]
	if !ok {
		m.logger.WithUserID(userID).
			WithField("activity_type", activityType).
			Error("No driver registered for activity type")
		return nil
	}

	if err := driver.Drive(ctx, convo, ev, activityID); err != nil {
		m.logger.WithError(err).
			WithUserID(userID).
			WithField("activity_id", activityID).
			Error("Activity driver failed")
	}

	return nil
}

// Stop terminates the user's active conversation with reason "aborted".
// With no active conversation it replies #no_activity and does nothing
// else. When notify is true it additionally sends #activity_ended followed
// by a fresh shuffled suggestion list.
func (m *Manager) Stop(ctx context.Context, ev event.Event, notify bool) error {
	userID := ev.User.ID
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	convo := m.current(userID)
	if convo == nil {
		return m.port.Reply(ctx, userID, reply.New(reply.TemplateNoActivity))
	}

	m.abort(convo)
	m.logger.WithUserID(userID).
		WithField("conversation_id", convo.ID).
		Info("Conversation stopped")

	if !notify {
		return nil
	}

	if err := m.port.Reply(ctx, userID, reply.New(reply.TemplateActivityEnded)); err != nil {
		return err
	}

	return m.suggest(ctx, userID, maxStopSuggestions)
}

// ListAvailable sends the user a shuffled list of available activities
// (the "begin adventure" entry point).
func (m *Manager) ListAvailable(ctx context.Context, ev event.Event) error {
	return m.suggest(ctx, ev.User.ID, maxSuggestions)
}

// Active returns the user's active conversation, or nil.
func (m *Manager) Active(userID string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[userID]
}

// suggest fetches, shuffles and caps the user's available activities and
// replies with #activities.
func (m *Manager) suggest(ctx context.Context, userID string, limit int) error {
	activities, err := m.lister.AvailableActivities(ctx, userID)
	if err != nil {
		return err
	}

	activities = lo.Shuffle(activities)
	if len(activities) > limit {
		activities = activities[:limit]
	}

	return m.port.Reply(ctx, userID,
		reply.New(reply.TemplateActivities).With("activities", activities))
}

// abort terminates a conversation and clears it from the active set.
// Caller holds the user lock.
func (m *Manager) abort(convo *Conversation) {
	convo.Stop(ReasonAborted)
	m.mu.Lock()
	delete(m.active, convo.UserID)
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ConversationsActive.Dec()
	}
}

func (m *Manager) current(userID string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[userID]
}

func (m *Manager) setCurrent(userID string, convo *Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[userID] = convo
}

// userLock returns the mutex serializing start/stop for one user.
func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}
