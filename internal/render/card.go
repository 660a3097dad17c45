package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"meetgrid/internal/model"
)

// Card canvas size. The capture step uses the same viewport.
const (
	CardWidth  = 1024
	CardHeight = 512
)

//go:embed card.html.tmpl
var cardSource string

var cardTemplate = template.Must(template.New("card").Parse(cardSource))

// CardInput is everything the preview card shows about one event.
type CardInput struct {
	Name         string
	Organizer    string
	TimezoneName string
	Location     *time.Location
	Window       model.Window
	Participants []string

	// Days are the per-day peak levels, one per day column.
	Days []model.DayLevel
	// Slots and RowLabels are optional; when both are set the card also
	// draws the per-slot heatmap.
	Slots     []model.SlotLevel
	RowLabels []string

	Dark bool
	Hue  float64
}

type cardDay struct {
	Title string
	Color template.CSS
}

type cardCell struct {
	Level int
	Color template.CSS
}

type cardRow struct {
	Label string
	Cells []cardCell
}

type cardView struct {
	Name       string
	Organizer  string
	DateRange  string
	Timezone   string
	Summary    string
	Initials   []string
	Count      int
	Days       []cardDay
	Rows       []cardRow
	FirstDay   string
	LastDay    string
	Legend     []cardCell
	Dark       bool
	Background template.CSS
	Text       template.CSS
	Muted      template.CSS
	Primary    template.CSS
	Border     template.CSS
}

// RenderCard writes the HTML preview card for in to w.
func RenderCard(w io.Writer, in CardInput) error {
	v, err := buildCardView(in)
	if err != nil {
		return err
	}
	if err := cardTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render: execute card template: %w", err)
	}
	return nil
}

func buildCardView(in CardInput) (cardView, error) {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	if !in.Window.End.After(in.Window.Start) {
		return cardView{}, fmt.Errorf("render: card window end %s not after start %s",
			in.Window.End.Format(time.RFC3339), in.Window.Start.Format(time.RFC3339))
	}
	hue := in.Hue
	if hue == 0 {
		hue = DefaultHue
	}
	scale := NewScale(len(in.Participants), hue, in.Dark)

	name := in.Name
	if name == "" {
		name = "Untitled event"
	}
	tzName := in.TimezoneName
	if tzName == "" {
		tzName = loc.String()
	}

	v := cardView{
		Name:       name,
		Organizer:  in.Organizer,
		DateRange:  DateRange(in.Window.Start, in.Window.End.Add(-time.Nanosecond), loc),
		Timezone:   TimezoneLabel(tzName, loc, in.Window.Start),
		Summary:    Summary(in.Participants),
		Count:      len(in.Participants),
		Dark:       in.Dark,
		Background: "#f5f4fb",
		Text:       "#1f1b32",
		Muted:      "#6f6c86",
		Primary:    "#5f4dee",
		Border:     "#e6e1f4",
	}
	if in.Dark {
		v.Background, v.Text, v.Muted, v.Border = "#14121f", "#f1effa", "#a7a3c2", "#2a273a"
	}
	for _, p := range in.Participants[:min(3, len(in.Participants))] {
		v.Initials = append(v.Initials, Initials(p))
	}

	days := in.Days
	if len(days) == 0 {
		days = []model.DayLevel{{Day: in.Window.Start, Level: 0}}
	}
	for _, d := range days {
		v.Days = append(v.Days, cardDay{
			Title: fmt.Sprintf("%s: %d of %d free", d.Day.In(loc).Format("Jan 2"), d.Level, scale.Total),
			Color: template.CSS(scale.CSS(d.Level)),
		})
	}
	palette := scale.Map()
	for level := 0; level <= scale.Total; level++ {
		v.Legend = append(v.Legend, cardCell{Level: level, Color: template.CSS(palette[level])})
	}
	v.FirstDay = ShortDate(days[0].Day, loc)
	v.LastDay = ShortDate(days[len(days)-1].Day, loc)

	if len(in.Slots) > 0 && len(in.RowLabels) > 0 {
		v.Rows = slotRows(in.Slots, in.RowLabels, len(days), scale)
	}
	return v, nil
}

// slotRows lays slots out row-major for the template; cells the slots don't
// mention stay at level 0.
func slotRows(slots []model.SlotLevel, labels []string, cols int, scale Scale) []cardRow {
	rows := make([]cardRow, len(labels))
	for y, label := range labels {
		rows[y] = cardRow{Label: label, Cells: make([]cardCell, cols)}
		for x := range rows[y].Cells {
			rows[y].Cells[x] = cardCell{Color: template.CSS(scale.CSS(0))}
		}
	}
	for _, s := range slots {
		if s.Cell.Y < 0 || s.Cell.Y >= len(rows) || s.Cell.X < 0 || s.Cell.X >= cols {
			continue
		}
		rows[s.Cell.Y].Cells[s.Cell.X] = cardCell{Level: s.Level, Color: template.CSS(scale.CSS(s.Level))}
	}
	return rows
}
