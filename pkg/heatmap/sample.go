// Package heatmap turns raw commute samples into weekday by departure-time
// pivots of median travel minutes, one pivot per commute direction.
package heatmap

import (
	"strconv"
	"strings"
	"time"
)

// RawSample is one commute measurement row as stored by the gatherer or
// exported to CSV. Duration is nil for slots that have not been gathered yet.
type RawSample struct {
	DateLocal        string
	DepartureRFC3339 string
	Direction        string
	Duration         *string
}

// NormalizedSample is a RawSample that survived parsing and filtering.
type NormalizedSample struct {
	Minutes        float64
	Timestamp      time.Time
	DirectionLabel string
	Weekday        string
	TimeOfDay      string
}

var directionLabels = map[string]string{
	"H2W": "Home → Work",
	"W2H": "Work → Home",
}

// DirectionLabel maps a raw direction code to its display label. Codes
// without a mapping pass through unchanged.
func DirectionLabel(code string) string {
	if label, ok := directionLabels[code]; ok {
		return label
	}
	return code
}

// ParseDurationMinutes parses a duration of the exact form "<digits>s", the
// encoding the routing API uses, and converts it to minutes. Any other form
// (signed, fractional, empty, missing suffix) returns ok=false.
func ParseDurationMinutes(raw string) (float64, bool) {
	if len(raw) < 2 || !strings.HasSuffix(raw, "s") {
		return 0, false
	}
	seconds, err := strconv.ParseUint(strings.TrimSuffix(raw, "s"), 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(seconds) / 60.0, true
}

// Normalize parses and filters raw samples. Samples with a missing or
// malformed duration, or a departure timestamp that is not RFC3339, are
// dropped silently: pending and failed slots are a normal part of the
// upstream data, not an error condition.
//
// Weekday and time-of-day are derived in the timestamp's own zone. The
// stored timestamps carry the commute-local offset, so no re-localization
// happens here.
func Normalize(samples []RawSample) []NormalizedSample {
	normalized := make([]NormalizedSample, 0, len(samples))
	for _, s := range samples {
		if s.Duration == nil {
			continue
		}
		minutes, ok := ParseDurationMinutes(*s.Duration)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, s.DepartureRFC3339)
		if err != nil {
			continue
		}
		normalized = append(normalized, NormalizedSample{
			Minutes:        minutes,
			Timestamp:      ts,
			DirectionLabel: DirectionLabel(s.Direction),
			Weekday:        ts.Format("Mon"),
			TimeOfDay:      ts.Format("15:04"),
		})
	}
	return normalized
}
