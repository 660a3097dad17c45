package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "meetgrid/internal/log"
	"meetgrid/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Window bounds the occurrences; anything not touching it is dropped.
	Window model.Window

	// MaxOccurrencesPerEvent caps runaway rules. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the concrete blocks and the UIDs that hit the cap.
type ExpandResult struct {
	Intervals       []model.Interval
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed events into concrete intervals overlapping
// the window. It handles single events, RRULE recurrence, EXDATE removal and
// RECURRENCE-ID overrides. Intervals keep their source time zone.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if !cfg.Window.End.After(cfg.Window.Start) {
		return result, errors.New("expand: window end must be after start")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	var order []string
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	win := cfg.Window.Interval()
	for _, uid := range order {
		for _, ev := range baseByUID[uid] {
			ivs, hitCap := expandEvent(ev, overridesByUID[uid], cfg)
			for _, iv := range ivs {
				if !iv.Empty() && iv.Overlaps(win) {
					result.Intervals = append(result.Intervals, iv)
				}
			}
			if hitCap {
				result.TruncatedEvents = append(result.TruncatedEvents, uid)
				appLog.Error("expand: truncated occurrences due to cap",
					errors.New("max occurrences reached"),
					"uid", uid,
					"cap", cfg.MaxOccurrencesPerEvent,
				)
			}
		}
	}
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Interval, bool) {
	if ev.RawRRule == "" {
		if o, ok := findOverrideForStart(overrides, ev.Start); ok {
			ev = o
		}
		return []model.Interval{{Start: ev.Start, End: ev.End}}, false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event length so an occurrence that starts
	// before the window but runs into it is kept.
	dur := ev.End.Sub(ev.Start)
	from := cfg.Window.Start.Add(-dur).In(ev.Start.Location())
	to := cfg.Window.End.In(ev.Start.Location())
	starts := set.Between(from, to, true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Interval, 0, len(starts))
	for _, s := range starts {
		iv := model.Interval{Start: s, End: s.Add(dur)}
		if ev.AllDay {
			y, m, d := s.Date()
			days := int(dur.Round(24*time.Hour) / (24 * time.Hour))
			iv = model.Interval{
				Start: time.Date(y, m, d, 0, 0, 0, 0, s.Location()),
				End:   time.Date(y, m, d+max(days, 1), 0, 0, 0, 0, s.Location()),
			}
		}
		if o, ok := findOverrideForStart(overrides, s); ok {
			iv = model.Interval{Start: o.Start, End: o.End}
		}
		out = append(out, iv)
	}
	return out, hitCap
}

// findOverrideForStart finds the override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// RepeatWeekly repeats every interval each week, on the same wall-clock time,
// until the repetition would start at or after until. The originals are part
// of the result.
func RepeatWeekly(intervals []model.Interval, until time.Time) []model.Interval {
	out := make([]model.Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Empty() {
			continue
		}
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.WEEKLY,
			Dtstart: iv.Start,
			Until:   until.Add(-time.Nanosecond),
		})
		if err != nil {
			appLog.Error("repeat weekly: building rule failed", err, "start", iv.Start.Format(time.RFC3339))
			out = append(out, iv)
			continue
		}
		dur := iv.Duration()
		starts := r.All()
		if len(starts) == 0 {
			out = append(out, iv)
			continue
		}
		for _, s := range starts {
			out = append(out, model.Interval{Start: s, End: s.Add(dur)})
		}
	}
	return out
}
