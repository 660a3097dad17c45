package render

import (
	"fmt"
	"strings"
	"time"
)

// Summary lists the first three names and counts the rest.
func Summary(names []string) string {
	if len(names) == 0 {
		return "Be the first to respond"
	}
	visible := names[:min(3, len(names))]
	remaining := len(names) - len(visible)
	if remaining <= 0 {
		return strings.Join(visible, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(visible, ", "), remaining)
}

// Initials takes the first letter of up to two words, "?" for a blank name.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}
	var b strings.Builder
	for _, w := range words[:min(2, len(words))] {
		r := []rune(w)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// DateRange formats "Mon, Jan 1" or "Mon, Jan 1 – Wed, Jan 3" in loc.
func DateRange(start, end time.Time, loc *time.Location) string {
	const layout = "Mon, Jan 2"
	s, e := start.In(loc), end.In(loc)
	sy, sm, sd := s.Date()
	ey, em, ed := e.Date()
	if sy == ey && sm == em && sd == ed {
		return s.Format(layout)
	}
	return s.Format(layout) + " – " + e.Format(layout)
}

// ShortDate formats "Jan 2" in loc, used at the ends of the stripe.
func ShortDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Jan 2")
}

// TimezoneLabel renders "New York, America (UTC-5)".
func TimezoneLabel(name string, loc *time.Location, at time.Time) string {
	return fmt.Sprintf("%s (%s)", prettifyTimezone(name), offsetLabel(at.In(loc)))
}

func prettifyTimezone(name string) string {
	region, city, ok := strings.Cut(name, "/")
	if !ok {
		return strings.ReplaceAll(name, "_", " ")
	}
	// Only the first two path segments matter ("America/Argentina/Salta").
	city, _, _ = strings.Cut(city, "/")
	if city == "" {
		return strings.ReplaceAll(region, "_", " ")
	}
	return strings.ReplaceAll(city, "_", " ") + ", " + strings.ReplaceAll(region, "_", " ")
}

// offsetLabel renders UTC, UTC+9, UTC-3:30.
func offsetLabel(t time.Time) string {
	_, secs := t.Zone()
	if secs == 0 {
		return "UTC"
	}
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	h, m := secs/3600, (secs%3600)/60
	if m == 0 {
		return fmt.Sprintf("UTC%s%d", sign, h)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, h, m)
}
