package availability

import (
	"slices"

	"meetgrid/internal/model"
)

// Merge returns the union of intervals as a sorted list of disjoint blocks.
// Touching blocks are joined and empty ones dropped.
func Merge(intervals []model.Interval) []model.Interval {
	sorted := make([]model.Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	slices.SortFunc(sorted, func(a, b model.Interval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	out := make([]model.Interval, 0, len(sorted))
	for _, iv := range sorted {
		if n := len(out); n > 0 && !iv.Start.After(out[n-1].End) {
			if iv.End.After(out[n-1].End) {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Complement returns the parts of the window not covered by busy.
func Complement(busy []model.Interval, w model.Window) []model.Interval {
	if !w.End.After(w.Start) {
		return nil
	}

	var free []model.Interval
	cursor := w.Start
	for _, b := range Merge(clip(busy, w.Start, w.End)) {
		if b.Start.After(cursor) {
			free = append(free, model.Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if w.End.After(cursor) {
		free = append(free, model.Interval{Start: cursor, End: w.End})
	}
	return free
}
