package gatherer

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"commutewatch/internal/log"
	"commutewatch/internal/types"
)

// Departure windows sampled on weekdays, 15 minute step. Morning runs home
// to work, evening runs work to home. End bounds are exclusive.
const (
	slotStepMinutes  = 15
	morningStartHour = 5
	morningEndHour   = 13
	eveningStartHour = 12
	eveningEndHour   = 20
)

type slotWindow struct {
	startHour int
	endHour   int
	direction string
}

type slotSpec struct {
	departure time.Time
	direction string
}

// nextMonday returns the Monday after now, at midnight in now's location.
// When now is a Monday the result is a full week ahead.
func nextMonday(now time.Time) time.Time {
	// Monday-based weekday index: Mon=0 .. Sun=6.
	wd := (int(now.Weekday()) + 6) % 7
	daysAhead := (7 - wd) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	d := now.AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
}

// weekdaySlots expands the Monday through Friday departure windows for the
// week starting at monday.
func weekdaySlots(monday time.Time) []slotSpec {
	windows := []slotWindow{
		{morningStartHour, morningEndHour, types.DirectionHomeToWork},
		{eveningStartHour, eveningEndHour, types.DirectionWorkToHome},
	}

	var slots []slotSpec
	for day := 0; day < 5; day++ {
		date := monday.AddDate(0, 0, day)
		for _, w := range windows {
			for m := w.startHour * 60; m < w.endHour*60; m += slotStepMinutes {
				slots = append(slots, slotSpec{
					departure: time.Date(date.Year(), date.Month(), date.Day(), m/60, m%60, 0, 0, monday.Location()),
					direction: w.direction,
				})
			}
		}
	}

	return slots
}

// generateSlots creates next week's departure slots, skipping any that
// already exist. Existing rows keep their gathered results.
func (g *GathererController) generateSlots() (int, error) {
	monday := nextMonday(time.Now().In(g.location))
	slots := weekdaySlots(monday)

	created := 0
	skipped := 0
	for _, spec := range slots {
		n, err := g.insertSlotIfAbsent(spec.departure, spec.direction)
		if err != nil {
			return created, err
		}
		created += n
		skipped += 1 - n
	}

	log.Debugf("slot generation for week of %s: %d created, %d already present",
		monday.Format("2006-01-02"), created, skipped)
	return created, nil
}

func (g *GathererController) insertSlotIfAbsent(departure time.Time, direction string) (int, error) {
	departureRFC := departure.Format(time.RFC3339)

	var existing types.CommuteSlot
	err := g.DB.DB.Where("departure_time_rfc3339 = ? AND direction = ?", departureRFC, direction).
		First(&existing).Error
	if err == nil {
		return 0, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("error checking for existing commute slot: %v", err)
	}

	slot := types.CommuteSlot{
		DateLocal:          departure.Format("2006-01-02"),
		LocalDepartureTime: departure.Format("2006-01-02 15:04:05 MST"),
		DepartureTime:      departureRFC,
		Direction:          direction,
	}
	if err := g.DB.DB.Create(&slot).Error; err != nil {
		return 0, fmt.Errorf("error creating commute slot %s %s: %v", departureRFC, direction, err)
	}

	return 1, nil
}
