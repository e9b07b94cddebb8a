package model

// Track represents one uploaded audio file already committed to object
// storage. Tracks are attached to events by value: the catalog references
// them, it never mutates them.
type Track struct {
	ID       string  `json:"trackId"`           // assigned at upload time, immutable
	Name     string  `json:"trackName"`         // display name
	URL      string  `json:"trackUrl"`          // absolute locator in object storage, immutable
	Duration float64 `json:"duration"`          // duration in seconds, never negative
	Bitrate  float64 `json:"bitrate,omitempty"` // kbps, optional
	Size     int64   `json:"size,omitempty"`    // bytes, optional
}
