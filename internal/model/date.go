package model

import (
	"encoding/json"
	"time"
)

// dateLayouts are tried in order when parsing a timestamp from a source
// batch. Feeds are inconsistent about precision and separators.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate attempts to interpret a raw payload value as a point in time.
// It returns nil when the value is absent, null, or unparsable; it never
// returns an error. Absence is data, consumed by the validation rules.
func ParseDate(v any) *time.Time {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return &val
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return &t
			}
		}
		return nil
	case json.Number:
		// Numeric timestamps are interpreted as unix seconds.
		secs, err := val.Int64()
		if err != nil {
			return nil
		}
		t := time.Unix(secs, 0).UTC()
		return &t
	default:
		return nil
	}
}
