package lecture

import (
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp accepts RFC3339 and a few zone-less layouts, which are read as UTC.
// Results are truncated to microseconds, the finest precision every backend keeps.
func ParseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC().Truncate(time.Microsecond), true
		}
	}
	return time.Time{}, false
}

// ParseInterval parses both ends and checks end > start.
func ParseInterval(start, end string) (Interval, error) {
	s, ok := ParseTimestamp(start)
	if !ok {
		return Interval{}, invalidField("start_time", "timestamp", "must be a valid timestamp")
	}

	e, ok := ParseTimestamp(end)
	if !ok {
		return Interval{}, invalidField("end_time", "timestamp", "must be a valid timestamp")
	}

	iv := Interval{Start: s, End: e}
	if !iv.Valid() {
		return Interval{}, invalidField("end_time", "gtfield", "must be after start_time")
	}

	return iv, nil
}
