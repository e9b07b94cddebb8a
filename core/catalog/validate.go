package catalog

import (
	"fmt"
	"math"
	"strings"

	"CadenceFM/model"
)

// normalizeString validates a payload field that must be a non-empty string
// and returns it trimmed.
func normalizeString(v interface{}, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", newValidationError(field, "must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", newValidationError(field, "must not be empty")
	}
	return s, nil
}

// normalizeTracks validates an untyped payload field claimed to be the track
// list and returns a normalized copy. Only recognized fields are carried
// through; anything else in the payload is dropped so arbitrary input never
// reaches persisted storage.
func normalizeTracks(v interface{}) ([]model.Track, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, newValidationError("tracks", "must be an array")
	}
	if len(raw) == 0 {
		return nil, newValidationError("tracks", "must contain at least one track")
	}

	tracks := make([]model.Track, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, elem := range raw {
		obj, ok := elem.(map[string]interface{})
		if !ok {
			return nil, newValidationError("tracks", fmt.Sprintf("element %d must be an object", i))
		}

		var t model.Track
		var err error
		if t.ID, err = trackString(obj, i, "trackId"); err != nil {
			return nil, err
		}
		if t.Name, err = trackString(obj, i, "trackName"); err != nil {
			return nil, err
		}
		if t.URL, err = trackString(obj, i, "trackUrl"); err != nil {
			return nil, err
		}
		if t.Duration, err = trackNumber(obj, i, "duration", true); err != nil {
			return nil, err
		}
		if t.Bitrate, err = trackNumber(obj, i, "bitrate", false); err != nil {
			return nil, err
		}
		size, err := trackNumber(obj, i, "size", false)
		if err != nil {
			return nil, err
		}
		t.Size = int64(size)

		if seen[t.ID] {
			return nil, newValidationError("tracks", fmt.Sprintf("duplicate trackId %q", t.ID))
		}
		seen[t.ID] = true
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func trackString(obj map[string]interface{}, idx int, key string) (string, error) {
	s, ok := obj[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", newValidationError("tracks", fmt.Sprintf("element %d: %s must be a non-empty string", idx, key))
	}
	return strings.TrimSpace(s), nil
}

// trackNumber validates a numeric track field. Required fields must be
// present; optional fields default to zero when absent. Either way the value
// must be a finite, non-negative number.
func trackNumber(obj map[string]interface{}, idx int, key string, required bool) (float64, error) {
	v, present := obj[key]
	if !present {
		if required {
			return 0, newValidationError("tracks", fmt.Sprintf("element %d: %s is required", idx, key))
		}
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, newValidationError("tracks", fmt.Sprintf("element %d: %s must be a finite number", idx, key))
	}
	if f < 0 {
		return 0, newValidationError("tracks", fmt.Sprintf("element %d: %s must not be negative", idx, key))
	}
	return f, nil
}

// normalizeCover validates the optional cover reference. Absent or empty
// clears the field; a non-empty string (trimmed) sets it; any other type is
// rejected.
func normalizeCover(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", newValidationError("coverUrl", "must be a string")
	}
	return strings.TrimSpace(s), nil
}
