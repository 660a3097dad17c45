// Package event assembles one schedule from configuration: the window, its
// day columns and every participant's free intervals, whether typed in,
// drag-selected on the grid or imported from a calendar feed.
package event

import (
	"context"
	"fmt"
	"time"

	"meetgrid/internal/availability"
	"meetgrid/internal/config"
	"meetgrid/internal/grid"
	"meetgrid/internal/ics"
	appLog "meetgrid/internal/log"
	"meetgrid/internal/model"
)

// Snapshot is an immutable view of the event at LoadedAt.
type Snapshot struct {
	Name             string
	Organizer        string
	TimezoneName     string
	Location         *time.Location
	Window           model.Window
	IntervalMinutes  int
	Use24h           bool
	WeeklyRecurrence bool

	// Days are the grid columns: every calendar day the window touches.
	Days         []time.Time
	Participants []model.Participant

	// FeedErrors counts calendar feeds that could not be fetched or parsed
	// and were left out of this snapshot.
	FeedErrors int
	LoadedAt   time.Time
}

// Load builds a snapshot from cfg. Feeds go through fetcher; a nil fetcher
// skips every feed. Feed failures are logged and counted, never fatal;
// malformed typed intervals or selections are errors.
func Load(ctx context.Context, cfg *config.Config, fetcher *ics.Fetcher) (*Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	w, err := cfg.Window()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Name:             cfg.Event.Name,
		Organizer:        cfg.Event.Organizer,
		TimezoneName:     cfg.Timezone,
		Location:         loc,
		Window:           w,
		IntervalMinutes:  cfg.Event.IntervalMinutes,
		Use24h:           cfg.Event.Use24h,
		WeeklyRecurrence: cfg.Event.WeeklyRecurrence,
		Days:             grid.DaysIn(w.Start, w.End, loc),
		LoadedAt:         time.Now(),
	}

	imported, feedErrors := importFeeds(ctx, cfg.Participants, fetcher, w, loc)
	s.FeedErrors = feedErrors

	for i, pc := range cfg.Participants {
		p := model.Participant{ID: pc.ID, Name: pc.Name}

		for j, ic := range pc.Intervals {
			iv, err := ic.Parse(loc)
			if err != nil {
				return nil, fmt.Errorf("event: participants[%d].intervals[%d]: %w", i, j, err)
			}
			p.Intervals = append(p.Intervals, iv)
		}

		for j, sel := range pc.Selections {
			cells := grid.RectCells(
				model.Cell{X: sel.From[0], Y: sel.From[1]},
				model.Cell{X: sel.To[0], Y: sel.To[1]},
			)
			ivs, err := grid.CellsToIntervals(cells, s.Days, s.IntervalMinutes)
			if err != nil {
				return nil, fmt.Errorf("event: participants[%d].selections[%d]: %w", i, j, err)
			}
			p.Intervals = append(p.Intervals, ivs...)
		}

		p.Intervals = append(p.Intervals, imported[pc.ID]...)

		if s.WeeklyRecurrence {
			p.Intervals = ics.RepeatWeekly(p.Intervals, w.End)
		}
		// One person counts once, however their blocks overlap.
		p.Intervals = availability.Merge(p.Intervals)
		s.Participants = append(s.Participants, p)
	}

	appLog.Info("event snapshot loaded",
		"name", s.Name,
		"participants", len(s.Participants),
		"days", len(s.Days),
		"window_days", grid.DaysBetween(w.Start, w.End),
		"feed_errors", s.FeedErrors,
	)
	return s, nil
}

// importFeeds fetches and converts every participant feed, keyed by
// participant ID.
func importFeeds(ctx context.Context, participants []config.ParticipantConfig, fetcher *ics.Fetcher, w model.Window, loc *time.Location) (map[string][]model.Interval, int) {
	out := make(map[string][]model.Interval)
	modes := make(map[string]ics.Mode)
	var sources []ics.Source
	for _, p := range participants {
		if p.ICS == nil {
			continue
		}
		sources = append(sources, ics.Source{ParticipantID: p.ID, URL: p.ICS.URL})
		modes[p.ID] = ics.Mode(p.ICS.Mode)
	}
	if len(sources) == 0 {
		return out, 0
	}
	if fetcher == nil {
		appLog.Info("no ICS fetcher configured; skipping feeds", "feeds", len(sources))
		return out, len(sources)
	}

	results, err := fetcher.FetchAll(ctx, sources)
	failed := len(sources) - len(results)
	if err != nil {
		appLog.Error("event: some feeds failed", err, "failed", failed)
	}

	for _, res := range results {
		id := res.Source.ParticipantID
		events, err := ics.ParseICS(res.Source, res.Body, loc)
		if err != nil {
			failed++
			continue
		}
		ivs, err := ics.Import(events, w, modes[id])
		if err != nil {
			appLog.Error("event: feed import failed", err, "participant", id)
			failed++
			continue
		}
		out[id] = ivs
		appLog.Debug("feed imported", "participant", id, "intervals", len(ivs), "from_cache", res.FromCache)
	}
	return out, failed
}

// Names returns participant display names in configuration order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		names = append(names, p.Name)
	}
	return names
}

// Levels aggregates per-day peak availability with day boundaries in the
// event timezone.
func (s *Snapshot) Levels() ([]model.DayLevel, error) {
	return availability.AggregateIn(s.Window, s.Participants, s.Location)
}

// Slots aggregates per-cell peak availability.
func (s *Snapshot) Slots() ([]model.SlotLevel, error) {
	return availability.AggregateSlots(s.Window, s.IntervalMinutes, s.Participants, s.Location)
}

// RowLabels labels the grid rows for display.
func (s *Snapshot) RowLabels() ([]string, error) {
	return grid.RowLabels(s.IntervalMinutes, s.Use24h)
}

// Cells maps a participant's intervals back onto the grid, reading them on
// the event clock.
func (s *Snapshot) Cells(participantID string) ([]model.Cell, error) {
	for _, p := range s.Participants {
		if p.ID != participantID {
			continue
		}
		local := make([]model.Interval, 0, len(p.Intervals))
		for _, iv := range p.Intervals {
			local = append(local, model.Interval{Start: iv.Start.In(s.Location), End: iv.End.In(s.Location)})
		}
		return grid.IntervalsToCells(local, s.Days, s.IntervalMinutes)
	}
	return nil, fmt.Errorf("event: unknown participant %q", participantID)
}
