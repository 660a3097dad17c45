package ics

import (
	"fmt"

	"meetgrid/internal/availability"
	"meetgrid/internal/model"
)

// Mode says how a participant's feed describes availability.
type Mode string

const (
	// ModeFree treats every event as a free block.
	ModeFree Mode = "free"
	// ModeBusy treats opaque events as busy; free time is the rest of the window.
	ModeBusy Mode = "busy"
)

// Import converts parsed feed events into the participant's free intervals
// inside w, merged into disjoint blocks.
func Import(events []ParsedEvent, w model.Window, mode Mode) ([]model.Interval, error) {
	var selected []ParsedEvent
	switch mode {
	case ModeFree:
		selected = events
	case ModeBusy:
		for _, ev := range events {
			if !ev.Transparent {
				selected = append(selected, ev)
			}
		}
	default:
		return nil, fmt.Errorf("ics: unknown import mode %q", mode)
	}

	res, err := ExpandOccurrences(selected, ExpandConfig{Window: w})
	if err != nil {
		return nil, err
	}

	if mode == ModeBusy {
		return availability.Complement(res.Intervals, w), nil
	}
	return availability.Merge(res.Intervals), nil
}
