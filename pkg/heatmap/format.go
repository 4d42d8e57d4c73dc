package heatmap

import (
	"fmt"
	"math"
)

// FormatMinutes renders a cell value as a short label: under an hour as
// "08m", an hour or more as "1h" and "40m" stacked on two lines. A nil
// value (absent cell) renders as an empty string. Display only; the
// numeric aggregates are never rounded.
func FormatMinutes(minutes *float64) string {
	if minutes == nil {
		return ""
	}
	total := int(math.Round(*minutes))
	if total < 60 {
		return fmt.Sprintf("%02dm", total)
	}
	return fmt.Sprintf("%dh\n%02dm", total/60, total%60)
}
