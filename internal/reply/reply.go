// Package reply defines the outbound reply model: named templated replies,
// the delivery port interface and the delayed-reply scheduler.
package reply

import "context"

// Named template keys rendered by the hosting runtime.
const (
	TemplateWelcome           = "#welcome"
	TemplateWelcomeBack       = "#welcome-back"
	TemplateError             = "#error"
	TemplateHowToPlay         = "#how_to_play"
	TemplatePrizes            = "#prizes"
	TemplateText              = "#text"
	TemplateActivities        = "#activities"
	TemplateActivityEnded     = "#activity_ended"
	TemplateNoActivity        = "#no_activity"
	TemplateDailyScanLimit    = "#daily_scan_limit_reached"
	TemplateStampUnlock       = "#stamp_unlock"
	TemplateScavengerHuntHint = "#scavengerhunt-hint"
	TemplateFirstClue         = "#scavengerhunt-firstclue"
	TemplateLastClue          = "#scavengerhunt-lastclue"
	TemplateFollowupClue      = "#scavengerhunt-followup-clue"
	TemplateClue              = "#scavengerhunt-clue"
)

// Reply is a named templated reply with an optional data payload.
type Reply struct {
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// New creates a reply for the given template key.
func New(template string) Reply {
	return Reply{Template: template}
}

// With returns a copy of the reply with one data field set.
func (r Reply) With(key string, value any) Reply {
	data := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		data[k] = v
	}
	data[key] = value
	r.Data = data
	return r
}

// TemplateButton is a button inside a generic template element.
type TemplateButton struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title"`
}

// TemplateElement is one carousel card of a generic template.
type TemplateElement struct {
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
	Buttons  []TemplateButton `json:"buttons,omitempty"`
}

// GenericTemplate is a raw carousel payload sent outside the named-template
// path (platform limit: 10 elements).
type GenericTemplate struct {
	TemplateType string            `json:"template_type"`
	Elements     []TemplateElement `json:"elements"`
}

// SendOptions tunes a template send.
type SendOptions struct {
	// TypingMs shows a typing indicator for the given duration before the
	// message is rendered.
	TypingMs int
}

// Port delivers replies to a user through the hosting runtime.
// Sends are fire-and-forget; ordering is only guaranteed within a single
// caller's sequential calls.
type Port interface {
	// Reply sends a named templated reply.
	Reply(ctx context.Context, userID string, r Reply) error

	// SendTemplate sends a raw generic template payload.
	SendTemplate(ctx context.Context, userID string, tpl GenericTemplate, opts SendOptions) error
}
