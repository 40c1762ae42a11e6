// Package handlers implements the named event handlers: onboarding,
// activity start/stop, event listings, scavenger-hunt hints and the
// referral fallback. Register wires them into the router's dispatch table.
package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/samber/lo"

	"github.com/andybot/andybot-go/internal/backend"
	"github.com/andybot/andybot-go/internal/catalog"
	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/reply"
	"github.com/andybot/andybot-go/internal/router"
)

// Platform limit for carousel elements.
const maxTemplateElements = 10

// Payload patterns, matched in registration order (first match wins).
var (
	patGetStarted        = regexp.MustCompile(`(?i)GET_STARTED`)
	patStartActivity     = regexp.MustCompile(`START_ACTIVITY:`)
	patSeeEvents         = regexp.MustCompile(`SEE_EVENTS`)
	patScavengerHuntHint = regexp.MustCompile(`SCAVENGER_HUNT_HINT:`)
	patHowToPlay         = regexp.MustCompile(`HOW_TO_PLAY`)
	patBeginAdventure    = regexp.MustCompile(`BEGIN_ADVENTURE`)
	patStopConvo         = regexp.MustCompile(`STOP_CONVO`)
	patPrizes            = regexp.MustCompile(`PRIZES`)
)

// Backend is the domain-service surface the handlers need.
type Backend interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateUser(ctx context.Context, userID, firstName string) error
	GetUser(ctx context.Context, userID string) (*backend.User, error)
	AvailableEvents(ctx context.Context, userID string) ([]backend.AvailableEvent, error)
	ScavengerHuntHint(ctx context.Context, clueNumber string) (*backend.Hint, error)
}

// Lifecycle is the activity-manager surface the handlers need.
type Lifecycle interface {
	Start(ctx context.Context, ev event.Event, activityID string) error
	Stop(ctx context.Context, ev event.Event, notify bool) error
	ListAvailable(ctx context.Context, ev event.Event) error
}

// Resolver classifies referral codes.
type Resolver interface {
	Resolve(ctx context.Context, ev event.Event, ref *event.Referral) error
}

// Deps holds the collaborators of the handler set.
type Deps struct {
	Backend    Backend
	Catalog    *catalog.Catalog
	Port       reply.Port
	Resolver   Resolver
	Activities Lifecycle
	StaticURL  string
	Logger     *logger.Logger
}

// Set is the full set of named handlers.
type Set struct {
	deps Deps
}

// New creates the handler set.
func New(d Deps) *Set {
	return &Set{deps: d}
}

// Register installs all bindings and the fallback on the router.
func (s *Set) Register(r *router.Router) {
	r.Hear(patGetStarted, "get_started", s.GetStarted)
	r.Hear(patStartActivity, "start_activity", s.StartActivity)
	r.Hear(patSeeEvents, "see_events", s.SeeEvents)
	r.Hear(patScavengerHuntHint, "scavenger_hunt_hint", s.ScavengerHuntHint)
	r.Hear(patHowToPlay, "how_to_play", s.HowToPlay)
	r.Hear(patBeginAdventure, "begin_adventure", s.BeginAdventure)
	r.Hear(patStopConvo, "stop_convo", s.StopConvo)
	r.Hear(patPrizes, "prizes", s.Prizes)
	r.Fallback("scan_fallback", s.ScanFallback)
}

// GetStarted welcomes a new or returning user, then resolves any referral
// attached to the tap (top-level or nested under the postback).
func (s *Set) GetStarted(ctx context.Context, ev event.Event) error {
	userID := ev.User.ID

	exists, err := s.deps.Backend.UserExists(ctx, userID)
	if err != nil {
		return err
	}

	if !exists {
		if err := s.deps.Port.Reply(ctx, userID, reply.New(reply.TemplateWelcome)); err != nil {
			return err
		}
		// Registration is fire-and-forget; a failure must not take down
		// the welcome flow.
		if err := s.deps.Backend.CreateUser(ctx, userID, ev.User.FirstName); err != nil {
			s.deps.Logger.WithError(err).WithUserID(userID).Error("Failed to create user")
		}
	} else {
		user, err := s.deps.Backend.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.deps.Port.Reply(ctx, userID,
			reply.New(reply.TemplateWelcomeBack).With("user", user)); err != nil {
			return err
		}
	}

	return s.deps.Resolver.Resolve(ctx, ev, ev.ReferralCode())
}

// StartActivity begins the activity named after the payload colon.
func (s *Set) StartActivity(ctx context.Context, ev event.Event) error {
	return s.deps.Activities.Start(ctx, ev, ev.PayloadArg())
}

// StopConvo stops the active conversation with notification.
func (s *Set) StopConvo(ctx context.Context, ev event.Event) error {
	return s.deps.Activities.Stop(ctx, ev, true)
}

// BeginAdventure replies with a shuffled activity suggestion list.
func (s *Set) BeginAdventure(ctx context.Context, ev event.Event) error {
	return s.deps.Activities.ListAvailable(ctx, ev)
}

// HowToPlay replies with the static how-to-play content.
func (s *Set) HowToPlay(ctx context.Context, ev event.Event) error {
	return s.deps.Port.Reply(ctx, ev.User.ID,
		reply.New(reply.TemplateHowToPlay).With("howtoplay", s.deps.Catalog.HowToPlay))
}

// Prizes replies with the static prizes content.
func (s *Set) Prizes(ctx context.Context, ev event.Event) error {
	return s.deps.Port.Reply(ctx, ev.User.ID, reply.New(reply.TemplatePrizes))
}

// ScavengerHuntHint fetches and replies with the hint for the clue number
// in the payload. The clue number is not validated beyond the split.
func (s *Set) ScavengerHuntHint(ctx context.Context, ev event.Event) error {
	hint, err := s.deps.Backend.ScavengerHuntHint(ctx, ev.PayloadArg())
	if err != nil {
		return err
	}
	return s.deps.Port.Reply(ctx, ev.User.ID,
		reply.New(reply.TemplateScavengerHuntHint).With("hint", hint.Hint))
}

// SeeEvents sends a carousel of the user's available scheduled events,
// shown behind a two second typing indicator. Events without a schedule
// image in the catalog are dropped.
func (s *Set) SeeEvents(ctx context.Context, ev event.Event) error {
	events, err := s.deps.Backend.AvailableEvents(ctx, ev.User.ID)
	if err != nil {
		return err
	}
	if len(events) > maxTemplateElements {
		events = events[:maxTemplateElements]
	}

	elements := lo.FilterMap(events, func(e backend.AvailableEvent, _ int) (reply.TemplateElement, bool) {
		image, ok := s.deps.Catalog.FindScheduleImage(e.EventID)
		if !ok {
			s.deps.Logger.WithField("event_id", e.EventID).Warn("Event missing schedule image")
			return reply.TemplateElement{}, false
		}
		return reply.TemplateElement{
			Title:    e.Title,
			Subtitle: e.Subtitle,
			ImageURL: fmt.Sprintf("%simg/%s?time=7", s.deps.StaticURL, image),
			Buttons: []reply.TemplateButton{
				{Type: "web_url", URL: e.Link, Title: "Details"},
			},
		}, true
	})

	tpl := reply.GenericTemplate{
		TemplateType: "generic",
		Elements:     elements,
	}
	return s.deps.Port.SendTemplate(ctx, ev.User.ID, tpl, reply.SendOptions{TypingMs: 2000})
}

// ScanFallback handles events that matched no pattern but may carry a
// referral code. The router has already filtered for eligible event types.
func (s *Set) ScanFallback(ctx context.Context, ev event.Event) error {
	return s.deps.Resolver.Resolve(ctx, ev, ev.ReferralCode())
}
