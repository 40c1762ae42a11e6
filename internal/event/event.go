// Package event defines the inbound event model delivered by the hosting
// conversational runtime (Messenger-style webhook payloads).
package event

import "strings"

// Type classifies an inbound event.
type Type string

// Event types eligible for dispatch.
const (
	TypeMessage  Type = "message"
	TypePostback Type = "postback"
	TypeReferral Type = "referral"
)

// User identifies the sender of an event.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
}

// Referral carries an opaque scan/referral code attached to an event.
type Referral struct {
	Ref    string `json:"ref"`
	Source string `json:"source,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Postback carries a button tap payload, optionally with a nested referral
// (Get Started taps triggered by a scan code).
type Postback struct {
	Payload  string    `json:"payload"`
	Referral *Referral `json:"referral,omitempty"`
}

// Raw holds the platform-specific parts of an event.
type Raw struct {
	Text     string    `json:"text,omitempty"`
	Referral *Referral `json:"referral,omitempty"`
	Postback *Postback `json:"postback,omitempty"`
}

// Event is a single inbound platform event.
type Event struct {
	Type Type `json:"type"`
	User User `json:"user"`
	Raw  Raw  `json:"raw"`
}

// Payload returns the textual identifier used for pattern matching:
// the postback payload if present, otherwise the message text.
func (e Event) Payload() string {
	if e.Raw.Postback != nil && e.Raw.Postback.Payload != "" {
		return e.Raw.Postback.Payload
	}
	return e.Raw.Text
}

// PayloadArg returns the part of the payload after the first colon,
// e.g. "trivia-42" for "START_ACTIVITY:trivia-42". Empty if there is none.
func (e Event) PayloadArg() string {
	_, arg, ok := strings.Cut(e.Payload(), ":")
	if !ok {
		return ""
	}
	return arg
}

// ReferralCode returns the referral attached to the event: the top-level
// referral if present, otherwise one nested under a postback. Nil if neither
// is set.
func (e Event) ReferralCode() *Referral {
	if e.Raw.Referral != nil {
		return e.Raw.Referral
	}
	if e.Raw.Postback != nil && e.Raw.Postback.Referral != nil {
		return e.Raw.Postback.Referral
	}
	return nil
}

// Dispatchable reports whether the event type may reach the fallback handler.
func (e Event) Dispatchable() bool {
	switch e.Type {
	case TypeMessage, TypePostback, TypeReferral:
		return true
	default:
		return false
	}
}
