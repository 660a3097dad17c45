package model

import (
	"fmt"
	"time"
)

// Cell is a coordinate on the selection grid. X indexes a calendar day
// (column), Y a fixed-length time-of-day slot (row).
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start_time" yaml:"start"`
	End   time.Time `json:"end_time" yaml:"end"`
}

// Empty reports whether the interval carries no time at all.
func (iv Interval) Empty() bool {
	return !iv.End.After(iv.Start)
}

// Duration is zero for empty intervals.
func (iv Interval) Duration() time.Duration {
	if iv.Empty() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Window is the organizer-defined range participants are scheduled against.
type Window struct {
	Start time.Time `json:"start_time" yaml:"start"`
	End   time.Time `json:"end_time" yaml:"end"`
}

func (w Window) Interval() Interval {
	return Interval{Start: w.Start, End: w.End}
}

// Participant is one respondent and the blocks they marked as free. The
// intervals are neither sorted nor required to be disjoint.
type Participant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Intervals []Interval `json:"intervals"`
}

// DayLevel is the peak number of simultaneously free participants within one
// day's slice of the window.
type DayLevel struct {
	Day   time.Time `json:"day"`
	Level int       `json:"level"`
}

// SlotLevel is the peak concurrency inside a single grid cell.
type SlotLevel struct {
	Cell  Cell `json:"cell"`
	Level int  `json:"level"`
}
