package clock

import (
	"fmt"
	"time"
)

// WallClockLayout is the wall-clock representation used by operators and the
// playback client: local date and time, minute granularity, no explicit zone.
const WallClockLayout = "2006-01-02T15:04"

// offsetLayout renders an instant with an explicit numeric offset suffix,
// used for derived end-times.
const offsetLayout = "2006-01-02T15:04:05-07:00"

// Normalizer converts wall-clock input expressed in one fixed, non-DST UTC
// offset to and from canonical UTC instants. The offset never changes at
// runtime, so ToLocal is a perfect inverse of ToUTC at minute granularity.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer builds a Normalizer for a fixed offset string such as
// "+01:00" or "-05:30".
func NewNormalizer(offset string) (*Normalizer, error) {
	seconds, err := parseOffset(offset)
	if err != nil {
		return nil, err
	}
	return &Normalizer{loc: time.FixedZone("UTC"+offset, seconds)}, nil
}

// parseOffset parses "+HH:MM" / "-HH:MM" into seconds east of UTC.
func parseOffset(offset string) (int, error) {
	if len(offset) != 6 || (offset[0] != '+' && offset[0] != '-') || offset[3] != ':' {
		return 0, fmt.Errorf("invalid UTC offset %q, expected form +HH:MM", offset)
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(offset[1:], "%02d:%02d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("invalid UTC offset %q: %w", offset, err)
	}
	if hours > 14 || minutes > 59 {
		return 0, fmt.Errorf("invalid UTC offset %q: out of range", offset)
	}
	seconds := hours*3600 + minutes*60
	if offset[0] == '-' {
		seconds = -seconds
	}
	return seconds, nil
}

// ToUTC parses a wall-clock string in the fixed local offset and returns the
// canonical UTC instant.
func (n *Normalizer) ToUTC(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing wall-clock value")
	}
	t, err := time.ParseInLocation(WallClockLayout, value, n.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid wall-clock value %q, expected %s: %w", value, WallClockLayout, err)
	}
	return t.UTC(), nil
}

// ToLocal renders a UTC instant back into the wall-clock representation.
// ToLocal(ToUTC(s)) == s for every valid s.
func (n *Normalizer) ToLocal(t time.Time) string {
	return t.In(n.loc).Format(WallClockLayout)
}

// FormatWithOffset renders an instant in the local zone with an explicit
// numeric offset suffix. Used when an end-time is derived rather than
// user-supplied.
func (n *Normalizer) FormatWithOffset(t time.Time) string {
	return t.In(n.loc).Format(offsetLayout)
}

// ParseTimestamp accepts either an RFC3339 instant or a wall-clock string in
// the fixed local offset, returning the canonical UTC instant.
func (n *Normalizer) ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return n.ToUTC(value)
}

// DeriveEnd computes an end instant from a start instant plus a total track
// duration in seconds.
func DeriveEnd(start time.Time, totalSeconds float64) time.Time {
	return start.Add(time.Duration(totalSeconds * float64(time.Second)))
}
