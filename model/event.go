package model

import "time"

// Event represents one scheduled programming slot: a named set with a time
// window, an ordered track list (insertion order = playback order) and an
// optional cover image.
type Event struct {
	ID        string    `json:"id"`                 // assigned at creation, immutable
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	StartTime time.Time `json:"startTime"`          // UTC instant
	EndTime   time.Time `json:"endTime"`            // UTC instant, strictly after StartTime
	Tracks    []Track   `json:"tracks"`             // non-empty through the validated creation path
	CoverURL  string    `json:"coverUrl,omitempty"`
}

// Expired reports whether the event's window has fully passed at the given
// instant.
func (e *Event) Expired(now time.Time) bool {
	return !e.EndTime.After(now)
}

// AssetLocators returns every object-storage locator the event references:
// all track URLs plus the cover, deduplicated, in track order.
func (e *Event) AssetLocators() []string {
	seen := make(map[string]bool, len(e.Tracks)+1)
	locators := make([]string, 0, len(e.Tracks)+1)
	for _, t := range e.Tracks {
		if t.URL == "" || seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		locators = append(locators, t.URL)
	}
	if e.CoverURL != "" && !seen[e.CoverURL] {
		locators = append(locators, e.CoverURL)
	}
	return locators
}
