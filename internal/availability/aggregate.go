// Package availability aggregates participants' free intervals into levels:
// the peak number of participants free at the same instant within a day or
// a grid slot.
//
// All functions are pure. Day boundaries come from an explicit location,
// never from the process-wide local zone.
package availability

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"meetgrid/internal/grid"
	"meetgrid/internal/model"
)

var ErrInvalidWindow = errors.New("availability: window end must be after start")

// ValidateWindow rejects windows that span no time.
func ValidateWindow(w model.Window) error {
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w (start=%s end=%s)", ErrInvalidWindow,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Aggregate computes one level per calendar day of the window, with day
// boundaries in the location of w.Start.
func Aggregate(w model.Window, participants []model.Participant) ([]model.DayLevel, error) {
	return AggregateIn(w, participants, w.Start.Location())
}

// AggregateIn computes one level per calendar day of the window, with day
// boundaries in loc.
//
// Each day's level is the peak concurrency of participant intervals clipped
// to that day's slice of the window, capped at len(participants). Days the
// window only touches at a boundary get level 0. The result is ordered by day
// and never empty.
func AggregateIn(w model.Window, participants []model.Participant, loc *time.Location) ([]model.DayLevel, error) {
	if err := ValidateWindow(w); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	days := grid.DaysIn(w.Start, w.End, loc)
	if len(days) == 0 {
		return []model.DayLevel{{Day: grid.StartOfDay(w.Start.In(loc)), Level: 0}}, nil
	}

	all := flatten(participants)
	out := make([]model.DayLevel, 0, len(days))
	for _, day := range days {
		from := clamp(grid.StartOfDay(day), w.Start, w.End)
		to := clamp(grid.EndOfDay(day), w.Start, w.End)

		level := 0
		if to.After(from) {
			level = min(Peak(from, to, all), len(participants))
		}
		out = append(out, model.DayLevel{Day: day, Level: level})
	}
	return out, nil
}

// AggregateSlots computes a level for every cell of the grid spanned by the
// window's day list, ordered by column then row. Slots are clipped to the
// window; a slot entirely outside it has level 0.
func AggregateSlots(w model.Window, intervalMinutes int, participants []model.Participant, loc *time.Location) ([]model.SlotLevel, error) {
	if err := ValidateWindow(w); err != nil {
		return nil, err
	}
	if err := grid.ValidateInterval(intervalMinutes); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	days := grid.DaysIn(w.Start, w.End, loc)
	rows := grid.Rows(intervalMinutes)
	all := flatten(participants)

	cells := make([]model.Cell, 0, len(days)*rows)
	for x := range days {
		for y := 0; y < rows; y++ {
			cells = append(cells, model.Cell{X: x, Y: y})
		}
	}
	spans, err := grid.CellsToIntervals(cells, days, intervalMinutes)
	if err != nil {
		return nil, err
	}

	out := make([]model.SlotLevel, 0, len(cells))
	for x := range days {
		dayFrom := clamp(grid.StartOfDay(days[x]), w.Start, w.End)
		dayTo := clamp(grid.EndOfDay(days[x]), w.Start, w.End)
		// Only intervals touching this day can touch its slots.
		var candidates []model.Interval
		if dayTo.After(dayFrom) {
			candidates = clip(all, dayFrom, dayTo)
		}

		for y := 0; y < rows; y++ {
			i := x*rows + y
			from := clamp(spans[i].Start, w.Start, w.End)
			to := clamp(spans[i].End, w.Start, w.End)

			level := 0
			if to.After(from) && len(candidates) > 0 {
				level = min(Peak(from, to, candidates), len(participants))
			}
			out = append(out, model.SlotLevel{Cell: cells[i], Level: level})
		}
	}
	return out, nil
}

type event struct {
	at    time.Time
	delta int
}

// Peak runs the sweep-line over intervals clipped to [from, to) and returns
// the highest running count. Ends sort before starts at the same instant, so
// back-to-back intervals never count as concurrent.
func Peak(from, to time.Time, intervals []model.Interval) int {
	events := make([]event, 0, 2*len(intervals))
	for _, iv := range intervals {
		start := later(from, iv.Start)
		end := earlier(to, iv.End)
		if !end.After(start) {
			continue
		}
		events = append(events, event{at: start, delta: +1}, event{at: end, delta: -1})
	}
	if len(events) == 0 {
		return 0
	}

	slices.SortFunc(events, func(a, b event) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.delta, b.delta)
	})

	concurrent, peak := 0, 0
	for _, e := range events {
		concurrent += e.delta
		peak = max(peak, concurrent)
	}
	return peak
}

// Max returns the highest day level, 0 for an empty slice.
func Max(levels []model.DayLevel) int {
	best := 0
	for _, l := range levels {
		best = max(best, l.Level)
	}
	return best
}

func flatten(participants []model.Participant) []model.Interval {
	n := 0
	for _, p := range participants {
		n += len(p.Intervals)
	}
	out := make([]model.Interval, 0, n)
	for _, p := range participants {
		out = append(out, p.Intervals...)
	}
	return out
}

func clip(intervals []model.Interval, from, to time.Time) []model.Interval {
	out := make([]model.Interval, 0, len(intervals))
	for _, iv := range intervals {
		start := later(from, iv.Start)
		end := earlier(to, iv.End)
		if end.After(start) {
			out = append(out, model.Interval{Start: start, End: end})
		}
	}
	return out
}

func clamp(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earlier(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
