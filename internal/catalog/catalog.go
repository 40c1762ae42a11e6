// Package catalog provides the static activity content catalog: display
// metadata for activities, stamps and scheduled events. It is read-only
// lookup data loaded once at startup.
package catalog

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Activity is the display metadata for one activity.
type Activity struct {
	Activity string `json:"activity"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Stamp maps a stamp id to its unlock splash image.
type Stamp struct {
	StampID     string `json:"stamp_id"`
	SplashImage string `json:"splash_image"`
}

// ScheduleEntry maps a scheduled event id to its card image.
type ScheduleEntry struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Catalog is the full static content catalog.
type Catalog struct {
	Manifest  []Activity      `json:"manifest"`
	Stamps    []Stamp         `json:"stamps"`
	Schedule  []ScheduleEntry `json:"schedule"`
	HowToPlay map[string]any  `json:"howtoplay"`
}

// Load reads and parses the catalog JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return &c, nil
}

// FindActivity looks up an activity by id.
func (c *Catalog) FindActivity(id string) (Activity, bool) {
	return lo.Find(c.Manifest, func(a Activity) bool {
		return a.Activity == id
	})
}

// FindStamp looks up a stamp by stamp id.
func (c *Catalog) FindStamp(stampID string) (Stamp, bool) {
	return lo.Find(c.Stamps, func(s Stamp) bool {
		return s.StampID == stampID
	})
}

// FindScheduleImage looks up the card image for a scheduled event id.
func (c *Catalog) FindScheduleImage(eventID string) (string, bool) {
	entry, ok := lo.Find(c.Schedule, func(s ScheduleEntry) bool {
		return s.ID == eventID
	})
	if !ok {
		return "", false
	}
	return entry.Image, true
}
