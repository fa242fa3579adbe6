package lecture

import (
	"errors"
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	base := Interval{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "partial_tail", other: Interval{Start: at(10, 30), End: at(11, 30)}, want: true},
		{name: "partial_head", other: Interval{Start: at(9, 30), End: at(10, 30)}, want: true},
		{name: "contained", other: Interval{Start: at(10, 15), End: at(10, 45)}, want: true},
		{name: "containing", other: Interval{Start: at(9, 0), End: at(12, 0)}, want: true},
		{name: "back_to_back_after", other: Interval{Start: at(11, 0), End: at(12, 0)}, want: false},
		{name: "back_to_back_before", other: Interval{Start: at(9, 0), End: at(10, 0)}, want: false},
		{name: "disjoint", other: Interval{Start: at(13, 0), End: at(14, 0)}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Fatalf("Overlaps got %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Fatalf("Overlaps is not symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{name: "rfc3339", start: "2026-03-02T10:00:00Z", end: "2026-03-02T11:00:00Z"},
		{name: "offset", start: "2026-03-02T10:00:00+02:00", end: "2026-03-02T10:30:00Z"},
		{name: "zoneless", start: "2026-03-02T10:00", end: "2026-03-02 11:00:00"},
		{name: "equal", start: "2026-03-02T10:00:00Z", end: "2026-03-02T10:00:00Z", wantErr: true},
		{name: "reversed", start: "2026-03-02T11:00:00Z", end: "2026-03-02T10:00:00Z", wantErr: true},
		{name: "garbage_start", start: "tomorrow", end: "2026-03-02T10:00:00Z", wantErr: true},
		{name: "garbage_end", start: "2026-03-02T10:00:00Z", end: "later", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			iv, err := ParseInterval(tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !iv.Valid() {
				t.Fatalf("parsed interval should be valid: %+v", iv)
			}
			if iv.Start.Location() != time.UTC {
				t.Fatalf("expected UTC start, got %v", iv.Start.Location())
			}
		})
	}
}

func TestListFilterMatches(t *testing.T) {
	l := Lecture{CourseID: "c1", InstructorID: "i1"}

	if !(ListFilter{}).Matches(l) {
		t.Fatalf("empty filter should match everything")
	}
	if !ByCourse("c1").Matches(l) || ByCourse("c2").Matches(l) {
		t.Fatalf("course filter mismatch")
	}
	if !ByInstructor("i1").Matches(l) || ByInstructor("i2").Matches(l) {
		t.Fatalf("instructor filter mismatch")
	}
}

func TestParseTimestampPrecision(t *testing.T) {
	got, ok := ParseTimestamp("2300-01-01T10:00:00.123456789Z")
	if !ok {
		t.Fatalf("expected far-future timestamp to parse")
	}

	want := time.Date(2300, 1, 1, 10, 0, 0, 123456000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
