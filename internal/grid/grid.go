// Package grid converts between cells of the availability selection grid and
// wall-clock intervals.
//
// Columns are calendar days taken from a day list, rows are fixed-length
// slots counted from local midnight of the column's day.
package grid

import (
	"errors"
	"fmt"
	"time"

	"meetgrid/internal/model"
)

// MinutesPerDay bounds the slot length.
const MinutesPerDay = 24 * 60

var (
	ErrInvalidInterval = errors.New("grid: interval must be between 1 and 1440 minutes")
	ErrCellOutOfRange  = errors.New("grid: cell out of range")
)

// ValidateInterval checks the per-row slot length.
func ValidateInterval(intervalMinutes int) error {
	if intervalMinutes <= 0 || intervalMinutes > MinutesPerDay {
		return fmt.Errorf("%w (got %d)", ErrInvalidInterval, intervalMinutes)
	}
	return nil
}

// Rows returns the number of rows in one day column. The final row is shorter
// when intervalMinutes does not divide a day evenly.
func Rows(intervalMinutes int) int {
	if intervalMinutes <= 0 {
		return 0
	}
	return (MinutesPerDay + intervalMinutes - 1) / intervalMinutes
}

// CellsToIntervals maps each cell to the slot it covers on its day:
// [midnight + y*interval, midnight + (y+1)*interval) on the day's wall clock.
// A row whose wall-clock end falls into a DST gap still spans one interval of
// elapsed time, so no row is empty.
//
// The result has one interval per cell in input order; duplicate cells give
// duplicate intervals. A cell whose column is not in days, or whose row is
// outside the day, is rejected with ErrCellOutOfRange.
func CellsToIntervals(cells []model.Cell, days []time.Time, intervalMinutes int) ([]model.Interval, error) {
	if err := ValidateInterval(intervalMinutes); err != nil {
		return nil, err
	}

	rows := Rows(intervalMinutes)
	step := time.Duration(intervalMinutes) * time.Minute
	out := make([]model.Interval, 0, len(cells))
	for _, c := range cells {
		if c.X < 0 || c.X >= len(days) || c.Y < 0 || c.Y >= rows {
			return nil, fmt.Errorf("%w: %s with %d days and %d rows", ErrCellOutOfRange, c, len(days), rows)
		}
		day := days[c.X]
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, c.Y*intervalMinutes, 0, 0, day.Location())
		// Across a spring-forward gap the wall-clock end can resolve to start;
		// the row then lasts one interval of elapsed time.
		end := time.Date(day.Year(), day.Month(), day.Day(), 0, (c.Y+1)*intervalMinutes, 0, 0, day.Location())
		if !end.After(start) {
			end = start.Add(step)
		}
		out = append(out, model.Interval{Start: start, End: end})
	}
	return out, nil
}

// IntervalsToCells maps intervals back onto the grid.
//
// The column is the day whose calendar date equals the interval start's date
// on the start's own clock; intervals starting outside days are dropped. Every
// row fully or partially started within [startMinutes, endMinutes) is emitted,
// i.e. rows floor(start/interval) .. floor(end/interval)-1.
//
// An end clock time at or before the start clock time on a later instant is
// read as running past midnight, so 24h is added to the end minutes. This
// keeps the last row of a day (ending at 00:00 the next day) intact.
func IntervalsToCells(intervals []model.Interval, days []time.Time, intervalMinutes int) ([]model.Cell, error) {
	if err := ValidateInterval(intervalMinutes); err != nil {
		return nil, err
	}

	index := make(map[dateKey]int, len(days))
	for i, d := range days {
		k := keyOf(d)
		if _, seen := index[k]; !seen {
			index[k] = i
		}
	}

	cells := make([]model.Cell, 0, len(intervals))
	for _, iv := range intervals {
		x, ok := index[keyOf(iv.Start)]
		if !ok {
			continue
		}

		startMinutes := iv.Start.Hour()*60 + iv.Start.Minute()
		endMinutes := iv.End.Hour()*60 + iv.End.Minute()
		if iv.End.After(iv.Start) && endMinutes <= startMinutes {
			endMinutes += MinutesPerDay
		}

		startY := startMinutes / intervalMinutes
		endY := endMinutes / intervalMinutes
		for y := startY; y < endY; y++ {
			cells = append(cells, model.Cell{X: x, Y: y})
		}
	}
	return cells, nil
}

// RectCells enumerates every cell of the rectangle spanned by two corners,
// whatever their order. Cells come out row by row, ascending on both axes.
func RectCells(from, to model.Cell) []model.Cell {
	minX, maxX := min(from.X, to.X), max(from.X, to.X)
	minY, maxY := min(from.Y, to.Y), max(from.Y, to.Y)

	out := make([]model.Cell, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			out = append(out, model.Cell{X: x, Y: y})
		}
	}
	return out
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{year: y, month: m, day: d}
}
