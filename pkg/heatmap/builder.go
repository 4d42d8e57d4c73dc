package heatmap

import (
	"sort"
	"time"
)

// WeekdayOrder is the fixed row order of every heatmap. Weekend samples
// never produce rows of their own, though they still contribute to the
// time axis and to the period and date-range labels.
var WeekdayOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// DirectionHeatmap is the pivoted summary for one commute direction.
// CellGrid always carries all five weekday keys and every time-axis key;
// a nil value marks a cell with no observations, which serializes to
// JSON null.
type DirectionHeatmap struct {
	Period       string                         `json:"period"`
	DateRange    string                         `json:"date_range"`
	WeekdayOrder []string                       `json:"weekday_order"`
	TimeAxis     []string                       `json:"time_axis"`
	CellGrid     map[string]map[string]*float64 `json:"cell_grid"`
}

// Build partitions normalized samples by direction label and pivots each
// partition into a DirectionHeatmap. The result is identical regardless of
// input ordering. An empty input yields an empty, non-nil map.
func Build(samples []NormalizedSample) map[string]*DirectionHeatmap {
	partitions := make(map[string][]NormalizedSample)
	for _, s := range samples {
		partitions[s.DirectionLabel] = append(partitions[s.DirectionLabel], s)
	}

	heatmaps := make(map[string]*DirectionHeatmap, len(partitions))
	for label, partition := range partitions {
		heatmaps[label] = buildDirection(partition)
	}
	return heatmaps
}

// Directions returns the direction labels of a build result in
// lexicographic order.
func Directions(heatmaps map[string]*DirectionHeatmap) []string {
	labels := make([]string, 0, len(heatmaps))
	for label := range heatmaps {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// buildDirection pivots one direction's samples. Callers guarantee the
// partition is non-empty.
func buildDirection(samples []NormalizedSample) *DirectionHeatmap {
	maxHour := samples[0].Timestamp.Hour()
	minDate := dateKey(samples[0].Timestamp)
	maxDate := minDate
	timeSet := make(map[string]struct{})
	observations := make(map[string]map[string][]float64)

	for _, s := range samples {
		if h := s.Timestamp.Hour(); h > maxHour {
			maxHour = h
		}
		if d := dateKey(s.Timestamp); d < minDate {
			minDate = d
		} else if d > maxDate {
			maxDate = d
		}
		timeSet[s.TimeOfDay] = struct{}{}

		byTime, ok := observations[s.Weekday]
		if !ok {
			byTime = make(map[string][]float64)
			observations[s.Weekday] = byTime
		}
		byTime[s.TimeOfDay] = append(byTime[s.TimeOfDay], s.Minutes)
	}

	timeAxis := make([]string, 0, len(timeSet))
	for t := range timeSet {
		timeAxis = append(timeAxis, t)
	}
	sort.Strings(timeAxis)

	cellGrid := make(map[string]map[string]*float64, len(WeekdayOrder))
	for _, weekday := range WeekdayOrder {
		row := make(map[string]*float64, len(timeAxis))
		for _, t := range timeAxis {
			if minutes := observations[weekday][t]; len(minutes) > 0 {
				m := median(minutes)
				row[t] = &m
			} else {
				row[t] = nil
			}
		}
		cellGrid[weekday] = row
	}

	// The morning sampling window ends by early afternoon and the evening
	// window starts at noon, so the latest sampled hour tells the windows
	// apart. This is not a general day/night classifier.
	period := "Evening"
	if maxHour <= 14 {
		period = "Morning"
	}

	return &DirectionHeatmap{
		Period:       period,
		DateRange:    formatDateKey(minDate) + " – " + formatDateKey(maxDate),
		WeekdayOrder: append([]string(nil), WeekdayOrder...),
		TimeAxis:     timeAxis,
		CellGrid:     cellGrid,
	}
}

// median returns the middle observation, averaging the two middle values
// when the count is even.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// dateKey collapses a timestamp to a comparable calendar date in its own
// zone. Plain instant comparison would misorder midnights once offsets mix.
func dateKey(ts time.Time) int {
	return ts.Year()*10000 + int(ts.Month())*100 + ts.Day()
}

func formatDateKey(key int) string {
	d := time.Date(key/10000, time.Month(key/100%100), key%100, 0, 0, 0, 0, time.UTC)
	return d.Format("Jan. 02")
}
