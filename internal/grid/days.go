package grid

import (
	"fmt"
	"math"
	"time"
)

// StartOfDay returns local midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns local midnight of the following day. On DST transition
// days this is 23 or 25 hours after StartOfDay.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// Days lists every calendar day from start's day through end's day inclusive,
// as local midnights in start's location.
func Days(start, end time.Time) []time.Time {
	return DaysIn(start, end, start.Location())
}

// DaysIn is Days with an explicit location for the day boundaries.
func DaysIn(start, end time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	first := StartOfDay(start.In(loc))
	last := StartOfDay(end.In(loc))

	days := make([]time.Time, 0, 8)
	y, m, d := first.Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if day.After(last) {
			break
		}
		days = append(days, day)
	}
	return days
}

// DaysBetween is the absolute number of whole days between two instants,
// rounded to the nearest day.
func DaysBetween(a, b time.Time) int {
	diff := math.Abs(float64(b.Sub(a)))
	return int(math.Round(diff / float64(24*time.Hour)))
}

// RowLabels lists the start time of each row, "09:30" in 24h form or
// "9:30 AM" otherwise.
func RowLabels(intervalMinutes int, use24h bool) ([]string, error) {
	if err := ValidateInterval(intervalMinutes); err != nil {
		return nil, err
	}

	labels := make([]string, 0, Rows(intervalMinutes))
	for total := 0; total < MinutesPerDay; total += intervalMinutes {
		hours, minutes := total/60, total%60
		if use24h {
			labels = append(labels, fmt.Sprintf("%02d:%02d", hours, minutes))
			continue
		}
		period := "AM"
		if hours >= 12 {
			period = "PM"
		}
		hour12 := hours % 12
		if hour12 == 0 {
			hour12 = 12
		}
		labels = append(labels, fmt.Sprintf("%d:%02d %s", hour12, minutes, period))
	}
	return labels, nil
}
