package heatmap

import (
	"math"
	"testing"
)

func ptr(s string) *string {
	return &s
}

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		minutes float64
		ok      bool
	}{
		{"whole hours and change", "3720s", 62.0, true},
		{"ten minutes", "600s", 10.0, true},
		{"zero seconds", "0s", 0.0, true},
		{"fractional minutes", "90s", 1.5, true},
		{"not a duration", "not-a-duration", 0, false},
		{"suffix only", "s", 0, false},
		{"missing suffix", "3720", 0, false},
		{"negative seconds", "-60s", 0, false},
		{"explicit plus sign", "+60s", 0, false},
		{"embedded space", "60 s", 0, false},
		{"fractional seconds", "3.5s", 0, false},
		{"wrong unit", "60m", 0, false},
		{"empty string", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minutes, ok := ParseDurationMinutes(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseDurationMinutes(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && math.Abs(minutes-tt.minutes) > 1e-9 {
				t.Errorf("ParseDurationMinutes(%q) = %v, want %v", tt.raw, minutes, tt.minutes)
			}
		})
	}
}

func TestDirectionLabel(t *testing.T) {
	tests := []struct {
		code  string
		label string
	}{
		{"H2W", "Home → Work"},
		{"W2H", "Work → Home"},
		{"X2Y", "X2Y"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DirectionLabel(tt.code); got != tt.label {
			t.Errorf("DirectionLabel(%q) = %q, want %q", tt.code, got, tt.label)
		}
	}
}

func TestNormalizeFiltersUnusableSamples(t *testing.T) {
	samples := []RawSample{
		{DateLocal: "2026-01-05", DepartureRFC3339: "2026-01-05T08:00:00-08:00", Direction: "H2W", Duration: ptr("600s")},
		{DateLocal: "2026-01-05", DepartureRFC3339: "2026-01-05T08:15:00-08:00", Direction: "H2W", Duration: nil},
		{DateLocal: "2026-01-05", DepartureRFC3339: "2026-01-05T08:30:00-08:00", Direction: "H2W", Duration: ptr("pending")},
		{DateLocal: "2026-01-05", DepartureRFC3339: "not-a-timestamp", Direction: "H2W", Duration: ptr("600s")},
		{DateLocal: "2026-01-05", DepartureRFC3339: "2026-01-05T17:00:00-08:00", Direction: "W2H", Duration: ptr("1800s")},
	}

	normalized := Normalize(samples)
	if len(normalized) != 2 {
		t.Fatalf("Normalize returned %d samples, want 2", len(normalized))
	}

	first := normalized[0]
	if first.Minutes != 10.0 {
		t.Errorf("Minutes = %v, want 10.0", first.Minutes)
	}
	if first.DirectionLabel != "Home → Work" {
		t.Errorf("DirectionLabel = %q, want %q", first.DirectionLabel, "Home → Work")
	}
	if first.Weekday != "Mon" {
		t.Errorf("Weekday = %q, want Mon", first.Weekday)
	}
	if first.TimeOfDay != "08:00" {
		t.Errorf("TimeOfDay = %q, want 08:00", first.TimeOfDay)
	}

	second := normalized[1]
	if second.DirectionLabel != "Work → Home" {
		t.Errorf("DirectionLabel = %q, want %q", second.DirectionLabel, "Work → Home")
	}
	if second.TimeOfDay != "17:00" {
		t.Errorf("TimeOfDay = %q, want 17:00", second.TimeOfDay)
	}
}

func TestNormalizeKeepsTimestampZone(t *testing.T) {
	// Local time is just past midnight Monday while the UTC instant is
	// still Sunday. Weekday and time-of-day must follow the offset the
	// timestamp carries.
	samples := []RawSample{
		{DepartureRFC3339: "2026-01-05T00:30:00+02:00", Direction: "H2W", Duration: ptr("300s")},
	}

	normalized := Normalize(samples)
	if len(normalized) != 1 {
		t.Fatalf("Normalize returned %d samples, want 1", len(normalized))
	}
	if normalized[0].Weekday != "Mon" {
		t.Errorf("Weekday = %q, want Mon", normalized[0].Weekday)
	}
	if normalized[0].TimeOfDay != "00:30" {
		t.Errorf("TimeOfDay = %q, want 00:30", normalized[0].TimeOfDay)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) returned %d samples, want 0", len(got))
	}
	if got := Normalize([]RawSample{}); len(got) != 0 {
		t.Errorf("Normalize(empty) returned %d samples, want 0", len(got))
	}
}
