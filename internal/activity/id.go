// Package activity owns timed activities: identifier validation, the
// per-user Conversation handle and the lifecycle manager that enforces the
// single-active-conversation invariant.
package activity

import (
	"fmt"
	"slices"
	"strings"

	domerrors "github.com/andybot/andybot-go/internal/errors"
)

// Valid activity types. An activity identifier is "type-instance",
// e.g. "trivia-42".
const (
	TypePoll          = "poll"
	TypeTrivia        = "trivia"
	TypeScavengerHunt = "scavengerhunt"
)

var validTypes = []string{TypePoll, TypeTrivia, TypeScavengerHunt}

// ParseID validates an activity identifier and returns its type prefix.
// The identifier must contain a separator and the prefix must be a known
// activity type.
func ParseID(id string) (string, error) {
	activityType, _, ok := strings.Cut(id, "-")
	if !ok {
		return "", fmt.Errorf("%w: %q has no type separator", domerrors.ErrInvalidActivity, id)
	}
	if !slices.Contains(validTypes, activityType) {
		return "", fmt.Errorf("%w: unknown type %q", domerrors.ErrInvalidActivity, activityType)
	}
	return activityType, nil
}
