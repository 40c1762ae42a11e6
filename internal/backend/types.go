package backend

// Scan types returned by the backend scan service.
const (
	ScanTypeCheckin       = "checkin"
	ScanTypeActivity      = "activity"
	ScanTypeScavengerHunt = "scavengerhunt"
)

// StampErrDailyLimit is the stamp error value that suppresses an unlock.
const StampErrDailyLimit = "DailyLimitReached"

// User is a bot user record owned by the backend service.
type User struct {
	ID                    string   `json:"id"`
	FirstName             string   `json:"first_name"`
	Stamps                []string `json:"stamps,omitempty"`
	CompletedActivities   []string `json:"completed_activities,omitempty"`
	ScavengerHuntProgress int      `json:"scavengerhunt_progress,omitempty"`
}

// StampResult is the stamp portion of a scan response. A non-empty Error
// suppresses the unlock.
type StampResult struct {
	Error string `json:"error,omitempty"`
}

// CodeRef echoes the scanned code back from the backend.
type CodeRef struct {
	Ref string `json:"ref"`
}

// ScanInfo classifies a non-stamp scan.
type ScanInfo struct {
	Type     string   `json:"type"`
	Trigger  []string `json:"trigger,omitempty"`
	Followup string   `json:"followup,omitempty"`
}

// ScavengerHuntClue is the scavenger-hunt portion of a scan response.
type ScavengerHuntClue struct {
	ClueNumber int    `json:"clueNumber"`
	LastClue   bool   `json:"lastClue"`
	Clue       string `json:"clue,omitempty"`
	Followup   string `json:"followup,omitempty"`
}

// ScanResponse is the backend's classification of a scanned code.
// At most one outcome shape is meaningful per response; the stamp shape
// takes priority over the scan type.
type ScanResponse struct {
	Stamp         *StampResult       `json:"stamp,omitempty"`
	Code          *CodeRef           `json:"code,omitempty"`
	Scan          *ScanInfo          `json:"scan,omitempty"`
	ScavengerHunt *ScavengerHuntClue `json:"scavengerhunt,omitempty"`
}

// AvailableActivity is one entry of a user's current activity suggestions.
type AvailableActivity struct {
	Activity string `json:"activity"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image,omitempty"`
	Link     string `json:"link,omitempty"`
}

// AvailableEvent is one entry of the museum event schedule for a user.
type AvailableEvent struct {
	EventID  string `json:"eventId"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Hint is a scavenger-hunt hint for a clue number.
type Hint struct {
	Hint string `json:"hint"`
}
