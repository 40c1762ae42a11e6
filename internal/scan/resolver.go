// Package scan resolves opaque referral/scan codes into domain outcomes:
// stamp unlocks, venue check-ins, activity triggers and scavenger-hunt
// clues. The interpretation branches are mutually exclusive and evaluated
// in priority order; the first matching branch wins.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/andybot/andybot-go/internal/backend"
	"github.com/andybot/andybot-go/internal/catalog"
	domerrors "github.com/andybot/andybot-go/internal/errors"
	"github.com/andybot/andybot-go/internal/event"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
	"github.com/andybot/andybot-go/internal/reply"
)

// Delays for scheduled replies. The activity list always trails the
// followup text so a prior message renders first.
const (
	followupDelay     = 500 * time.Millisecond
	activityListDelay = 2000 * time.Millisecond
)

const maxSuggestions = 9

// Scanner is the backend surface the resolver needs.
type Scanner interface {
	ScanCode(ctx context.Context, userID, code string) (*backend.ScanResponse, error)
	AvailableActivities(ctx context.Context, userID string) ([]backend.AvailableActivity, error)
}

// Batcher schedules a batch of delayed replies for a user.
type Batcher interface {
	Schedule(userID string, batch ...reply.Scheduled)
}

// Resolver classifies scan codes and emits the corresponding replies.
type Resolver struct {
	scanner   Scanner
	catalog   *catalog.Catalog
	port      reply.Port
	scheduler Batcher
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewResolver creates a scan resolver.
func NewResolver(scanner Scanner, cat *catalog.Catalog, port reply.Port, scheduler Batcher, log *logger.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		scanner:   scanner,
		catalog:   cat,
		port:      port,
		scheduler: scheduler,
		logger:    log,
		metrics:   m,
	}
}

// Resolve classifies the referral attached to an event and emits the
// outcome's replies. A nil or empty referral is a no-op. Backend failures
// are returned to the caller; the event router converts them into the
// generic error reply.
func (r *Resolver) Resolve(ctx context.Context, ev event.Event, ref *event.Referral) error {
	if ref == nil || ref.Ref == "" {
		return nil
	}

	userID := ev.User.ID
	resp, err := r.scanner.ScanCode(ctx, userID, ref.Ref)
	if err != nil {
		return err
	}
	if resp == nil {
		return r.unclassified(userID, ref.Ref)
	}

	// 1. Stamp unlock, with the daily limit suppressing it.
	if resp.Stamp != nil {
		return r.resolveStamp(ctx, userID, resp)
	}

	if resp.Scan == nil {
		return r.unclassified(userID, ref.Ref)
	}

	switch resp.Scan.Type {
	case backend.ScanTypeCheckin:
		return r.resolveCheckin(ctx, userID)
	case backend.ScanTypeActivity:
		return r.resolveActivity(userID, resp.Scan)
	case backend.ScanTypeScavengerHunt:
		return r.resolveScavengerHunt(ctx, userID, resp.ScavengerHunt, ref.Ref)
	default:
		return r.unclassified(userID, ref.Ref)
	}
}

// resolveStamp handles a stamp-carrying scan response.
func (r *Resolver) resolveStamp(ctx context.Context, userID string, resp *backend.ScanResponse) error {
	if resp.Stamp.Error == backend.StampErrDailyLimit {
		r.recordOutcome("daily_limit")
		return r.port.Reply(ctx, userID, reply.New(reply.TemplateDailyScanLimit))
	}

	if resp.Code == nil {
		return fmt.Errorf("stamp scan without code ref: %w", domerrors.ErrUnknownScanOutcome)
	}
	stamp, ok := r.catalog.FindStamp(resp.Code.Ref)
	if !ok {
		return fmt.Errorf("stamp %q: %w", resp.Code.Ref, domerrors.ErrNotFound)
	}

	r.recordOutcome("stamp")
	return r.port.Reply(ctx, userID,
		reply.New(reply.TemplateStampUnlock).
			With("image", stamp.SplashImage).
			With("text", "You unlocked a stamp!"))
}

// resolveCheckin handles arrival at a venue: a shuffled activity list,
// delayed so the check-in message renders first.
func (r *Resolver) resolveCheckin(ctx context.Context, userID string) error {
	activities, err := r.scanner.AvailableActivities(ctx, userID)
	if err != nil {
		return err
	}

	activities = lo.Shuffle(activities)
	if len(activities) > maxSuggestions {
		activities = activities[:maxSuggestions]
	}

	r.recordOutcome("checkin")
	r.scheduler.Schedule(userID, reply.Scheduled{
		Reply: reply.New(reply.TemplateActivities).With("activities", activities),
		Delay: activityListDelay,
	})
	return nil
}

// resolveActivity handles a scan that triggers one or more activities.
// Unknown activity ids are dropped from the list. The optional followup
// text is scheduled ahead of the activity list.
func (r *Resolver) resolveActivity(userID string, scan *backend.ScanInfo) error {
	triggered := lo.FilterMap(scan.Trigger, func(id string, _ int) (catalog.Activity, bool) {
		a, ok := r.catalog.FindActivity(id)
		if !ok {
			r.logger.WithUserID(userID).
				WithField("activity_id", id).
				Warn("Triggered activity not in catalog")
		}
		return a, ok
	})

	batch := make([]reply.Scheduled, 0, 2)
	if scan.Followup != "" {
		batch = append(batch, reply.Scheduled{
			Reply: reply.New(reply.TemplateText).With("text", scan.Followup),
			Delay: followupDelay,
		})
	}
	batch = append(batch, reply.Scheduled{
		Reply: reply.New(reply.TemplateActivities).With("activities", triggered),
		Delay: activityListDelay,
	})

	r.recordOutcome("activity")
	r.scheduler.Schedule(userID, batch...)
	return nil
}

// resolveScavengerHunt picks the clue template. The branches are checked in
// priority order and each is terminal: first clue, last clue, clue with
// followup, plain clue.
func (r *Resolver) resolveScavengerHunt(ctx context.Context, userID string, clue *backend.ScavengerHuntClue, code string) error {
	if clue == nil {
		return r.unclassified(userID, code)
	}

	var template string
	switch {
	case clue.ClueNumber == 0:
		template = reply.TemplateFirstClue
	case clue.LastClue:
		template = reply.TemplateLastClue
	case clue.Followup != "":
		template = reply.TemplateFollowupClue
	default:
		template = reply.TemplateClue
	}

	r.recordOutcome("scavengerhunt")
	return r.port.Reply(ctx, userID, reply.Reply{
		Template: template,
		Data: map[string]any{
			"clueNumber": clue.ClueNumber,
			"lastClue":   clue.LastClue,
			"clue":       clue.Clue,
			"followup":   clue.Followup,
		},
	})
}

// unclassified records a scan response that matched no outcome shape.
// No reply is sent; the gap is surfaced through logs and metrics only.
func (r *Resolver) unclassified(userID, code string) error {
	r.recordOutcome("unclassified")
	r.logger.WithUserID(userID).
		WithField("code", code).
		Warn("Scan response matched no outcome")
	return nil
}

func (r *Resolver) recordOutcome(kind string) {
	if r.metrics != nil {
		r.metrics.RecordScanOutcome(kind)
	}
}
