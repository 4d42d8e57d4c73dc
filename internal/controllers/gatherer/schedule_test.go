package gatherer

import (
	"testing"
	"time"

	"commutewatch/internal/types"
)

func TestNextMonday(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "monday rolls a full week ahead",
			now:  time.Date(2026, 1, 5, 8, 30, 0, 0, loc),
			want: time.Date(2026, 1, 12, 0, 0, 0, 0, loc),
		},
		{
			name: "tuesday",
			now:  time.Date(2026, 1, 6, 12, 0, 0, 0, loc),
			want: time.Date(2026, 1, 12, 0, 0, 0, 0, loc),
		},
		{
			name: "friday evening run",
			now:  time.Date(2026, 1, 9, 23, 0, 0, 0, loc),
			want: time.Date(2026, 1, 12, 0, 0, 0, 0, loc),
		},
		{
			name: "saturday",
			now:  time.Date(2026, 1, 10, 10, 0, 0, 0, loc),
			want: time.Date(2026, 1, 12, 0, 0, 0, 0, loc),
		},
		{
			name: "sunday just before midnight",
			now:  time.Date(2026, 1, 11, 23, 59, 0, 0, loc),
			want: time.Date(2026, 1, 12, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextMonday(tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("nextMonday(%v) = %v, want %v", tt.now, got, tt.want)
			}
			if got.Location() != tt.now.Location() {
				t.Errorf("nextMonday(%v) location = %v, want %v", tt.now, got.Location(), tt.now.Location())
			}
		})
	}
}

func TestWeekdaySlots(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)

	slots := weekdaySlots(monday)

	if len(slots) != 320 {
		t.Fatalf("len(slots) = %d, want 320", len(slots))
	}

	counts := map[string]int{}
	for _, s := range slots {
		counts[s.direction]++

		wd := s.departure.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			t.Errorf("slot %v falls on a weekend", s.departure)
		}

		h := s.departure.Hour()
		switch s.direction {
		case types.DirectionHomeToWork:
			if h < morningStartHour || h >= morningEndHour {
				t.Errorf("home to work slot outside morning window: %v", s.departure)
			}
		case types.DirectionWorkToHome:
			if h < eveningStartHour || h >= eveningEndHour {
				t.Errorf("work to home slot outside evening window: %v", s.departure)
			}
		default:
			t.Errorf("unexpected direction %q", s.direction)
		}

		if s.departure.Minute()%slotStepMinutes != 0 {
			t.Errorf("slot %v not on a %d minute boundary", s.departure, slotStepMinutes)
		}
	}

	if counts[types.DirectionHomeToWork] != 160 {
		t.Errorf("home to work slots = %d, want 160", counts[types.DirectionHomeToWork])
	}
	if counts[types.DirectionWorkToHome] != 160 {
		t.Errorf("work to home slots = %d, want 160", counts[types.DirectionWorkToHome])
	}

	first := slots[0]
	if got := first.departure.Format(time.RFC3339); got != "2026-01-05T05:00:00-08:00" {
		t.Errorf("first slot departure = %s, want 2026-01-05T05:00:00-08:00", got)
	}
	if first.direction != types.DirectionHomeToWork {
		t.Errorf("first slot direction = %q, want %q", first.direction, types.DirectionHomeToWork)
	}

	last := slots[len(slots)-1]
	if got := last.departure.Format(time.RFC3339); got != "2026-01-09T19:45:00-08:00" {
		t.Errorf("last slot departure = %s, want 2026-01-09T19:45:00-08:00", got)
	}
	if last.direction != types.DirectionWorkToHome {
		t.Errorf("last slot direction = %q, want %q", last.direction, types.DirectionWorkToHome)
	}
}
