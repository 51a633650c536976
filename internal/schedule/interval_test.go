package schedule

import (
	"errors"
	"testing"
)

func TestNewIntervalValidation(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
		wantErr    bool
	}{
		{"valid morning block", 540, 600, false},
		{"full day", 0, 1440, false},
		{"zero length", 600, 600, true},
		{"inverted", 660, 600, true},
		{"negative start", -10, 60, true},
		{"end past midnight", 1380, 1500, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInterval(tc.start, tc.end)
			if tc.wantErr && !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("NewInterval(%d, %d) = %v, want ErrInvalidInterval", tc.start, tc.end, err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("NewInterval(%d, %d) unexpected error: %v", tc.start, tc.end, err)
			}
		})
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	a := Interval{Start: 540, End: 600} // 09:00-10:00
	b := Interval{Start: 600, End: 660} // 10:00-11:00

	// Back-to-back intervals share a boundary minute but no time.
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatal("back-to-back intervals must not overlap")
	}

	c := Interval{Start: 570, End: 630}
	if !a.Overlaps(c) || !c.Overlaps(a) {
		t.Fatal("partially overlapping intervals must overlap")
	}
	if !a.Overlaps(a) {
		t.Fatal("an interval overlaps itself")
	}

	inner := Interval{Start: 550, End: 560}
	if !a.Overlaps(inner) || !inner.Overlaps(a) {
		t.Fatal("contained interval must overlap")
	}
}

func TestContainsEndExclusive(t *testing.T) {
	iv := Interval{Start: 540, End: 600}
	if !iv.Contains(540) {
		t.Fatal("start minute is inside")
	}
	if !iv.Contains(599) {
		t.Fatal("last minute is inside")
	}
	if iv.Contains(600) {
		t.Fatal("end minute is exclusive")
	}
	if iv.Contains(539) {
		t.Fatal("minute before start is outside")
	}
}

func TestDurations(t *testing.T) {
	iv := Interval{Start: 540, End: 690} // 2.5h
	if got := iv.DurationMinutes(); got != 150 {
		t.Fatalf("DurationMinutes = %d, want 150", got)
	}
	if got := iv.DurationHours(); got != 2.5 {
		t.Fatalf("DurationHours = %v, want 2.5", got)
	}
}

func TestStringAndParse(t *testing.T) {
	iv := Interval{Start: 540, End: 615}
	if got := iv.String(); got != "09:00-10:15" {
		t.Fatalf("String = %q", got)
	}

	m, err := ParseMinute("09:30")
	if err != nil || m != 570 {
		t.Fatalf("ParseMinute(09:30) = %d, %v", m, err)
	}
	if m, err := ParseMinute("24:00"); err != nil || m != 1440 {
		t.Fatalf("ParseMinute(24:00) = %d, %v; end of day must parse", m, err)
	}
	for _, bad := range []string{"25:00", "12:60", "noon", ""} {
		if _, err := ParseMinute(bad); err == nil {
			t.Fatalf("ParseMinute(%q) accepted invalid input", bad)
		}
	}
}
