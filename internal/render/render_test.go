package render

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"meetgrid/internal/model"
)

func brightness(t *testing.T, s Scale, level int) int {
	t.Helper()
	c := s.Color(level)
	return int(c.R) + int(c.G) + int(c.B)
}

func TestScale_LightDarkens(t *testing.T) {
	s := NewScale(4, DefaultHue, false)
	if got := s.CSS(0); got != "#e6e1f4" {
		t.Fatalf("unexpected zero color %q", got)
	}
	prev := brightness(t, s, 1)
	for level := 2; level <= 4; level++ {
		b := brightness(t, s, level)
		if b >= prev {
			t.Fatalf("level %d not darker than level %d (%d >= %d)", level, level-1, b, prev)
		}
		prev = b
	}
	l, c, h := s.OKLCH(4)
	if math.Abs(l-0.4) > 1e-9 || math.Abs(c-0.18) > 1e-9 || h != DefaultHue {
		t.Fatalf("unexpected full-level OKLCH %.3f %.3f %.1f", l, c, h)
	}
}

func TestScale_DarkBrightens(t *testing.T) {
	s := NewScale(3, DefaultHue, true)
	if brightness(t, s, 3) <= brightness(t, s, 1) {
		t.Fatalf("expected dark scale to brighten with level")
	}
	if got := s.CSS(2); !strings.HasPrefix(got, "oklch(") {
		t.Fatalf("expected oklch css, got %q", got)
	}
}

func TestScale_NoParticipants(t *testing.T) {
	s := NewScale(0, DefaultHue, false)
	if s.Ratio(5) != 0 {
		t.Fatalf("expected ratio 0 without participants")
	}
	if s.Color(5) != s.Zero {
		t.Fatalf("expected zero color without participants")
	}
	if m := s.Map(); len(m) != 1 || m[0] != "#e6e1f4" {
		t.Fatalf("unexpected map %v", m)
	}
}

func TestSummaryAndInitials(t *testing.T) {
	cases := []struct {
		names []string
		want  string
	}{
		{nil, "Be the first to respond"},
		{[]string{"Ada"}, "Ada"},
		{[]string{"Ada", "Grace", "Linus"}, "Ada, Grace, Linus"},
		{[]string{"Ada", "Grace", "Linus", "Ken", "Rob"}, "Ada, Grace, Linus +2 more"},
	}
	for _, tc := range cases {
		if got := Summary(tc.names); got != tc.want {
			t.Fatalf("Summary(%v) = %q, want %q", tc.names, got, tc.want)
		}
	}

	if got := Initials("ada lovelace byron"); got != "AL" {
		t.Fatalf("unexpected initials %q", got)
	}
	if got := Initials("   "); got != "?" {
		t.Fatalf("unexpected initials for blank name %q", got)
	}
	if got := Initials("éva"); got != "É" {
		t.Fatalf("unexpected initials for non-ascii name %q", got)
	}
}

func TestTimezoneLabel(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		want string
	}{
		{"America/New_York", "New York, America (UTC-5)"},
		{"Asia/Kolkata", "Kolkata, Asia (UTC+5:30)"},
		{"UTC", "UTC (UTC)"},
	}
	for _, tc := range cases {
		loc, err := time.LoadLocation(tc.name)
		if err != nil {
			t.Fatalf("load %s: %v", tc.name, err)
		}
		if got := TimezoneLabel(tc.name, loc, at); got != tc.want {
			t.Fatalf("TimezoneLabel(%s) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if got := DateRange(start, start.Add(6*time.Hour), time.UTC); got != "Mon, Jan 1" {
		t.Fatalf("unexpected single-day range %q", got)
	}
	if got := DateRange(start, start.AddDate(0, 0, 2), time.UTC); got != "Mon, Jan 1 – Wed, Jan 3" {
		t.Fatalf("unexpected range %q", got)
	}

	// 16:00 and 18:00 UTC on Jan 1 are both Jan 2 in Tokyo.
	tokyo := time.FixedZone("JST", 9*3600)
	a := time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)
	if got := DateRange(a, a.Add(2*time.Hour), tokyo); got != "Tue, Jan 2" {
		t.Fatalf("unexpected range in JST %q", got)
	}
}

func TestStripe(t *testing.T) {
	scale := NewScale(2, DefaultHue, false)
	days := []model.DayLevel{{Level: 0}, {Level: 1}, {Level: 2}}

	img, err := Stripe(days, scale, 30, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got != scale.Color(0) {
		t.Fatalf("pixel (0,0) = %v, want %v", got, scale.Color(0))
	}
	if got := img.NRGBAAt(9, 3); got.A != 0 {
		t.Fatalf("expected transparent gap at x=9, got %v", got)
	}
	if got := img.NRGBAAt(15, 2); got != scale.Color(1) {
		t.Fatalf("pixel (15,2) = %v, want %v", got, scale.Color(1))
	}
	if got := img.NRGBAAt(29, 0); got != scale.Color(2) {
		t.Fatalf("last segment should reach the right edge, got %v", got)
	}

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 30 || decoded.Bounds().Dy() != 4 {
		t.Fatalf("unexpected decoded bounds %v", decoded.Bounds())
	}
}

func TestStripe_EmptyAndInvalid(t *testing.T) {
	scale := NewScale(1, DefaultHue, false)

	img, err := Stripe(nil, scale, 8, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := img.NRGBAAt(7, 1); got != scale.Zero {
		t.Fatalf("expected a single level-0 block, got %v", got)
	}

	if _, err := Stripe(make([]model.DayLevel, 5), scale, 4, 2); err == nil {
		t.Fatalf("expected error when width is smaller than day count")
	}
	if _, err := Stripe(nil, scale, 0, 2); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestRenderCard(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := CardInput{
		Name:         "Team <offsite>",
		Organizer:    "Ada",
		TimezoneName: "UTC",
		Location:     time.UTC,
		Window:       model.Window{Start: start, End: start.AddDate(0, 0, 2)},
		Participants: []string{"Ada Lovelace", "Grace Hopper", "Linus", "Ken"},
		Days: []model.DayLevel{
			{Day: start, Level: 2},
			{Day: start.AddDate(0, 0, 1), Level: 4},
		},
		Slots: []model.SlotLevel{
			{Cell: model.Cell{X: 0, Y: 1}, Level: 3},
			{Cell: model.Cell{X: 5, Y: 0}, Level: 1},
		},
		RowLabels: []string{"09:00", "10:00"},
	}

	var buf bytes.Buffer
	if err := RenderCard(&buf, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`data-ready="true"`,
		"Team &lt;offsite&gt;",
		"Ada Lovelace, Grace Hopper, Linus +1 more",
		"Mon, Jan 1 – Tue, Jan 2",
		"UTC (UTC)",
		">AL<",
		`data-level="3"`,
		"Jan 2: 4 of 4 free",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("card missing %q", want)
		}
	}
	if n := strings.Count(out, "data-level="); n != 4 {
		t.Fatalf("expected 2x2 heatmap cells, got %d", n)
	}
	if n := strings.Count(out, "data-legend="); n != 5 {
		t.Fatalf("expected legend swatches for levels 0..4, got %d", n)
	}

	in.Window = model.Window{Start: start, End: start}
	if err := RenderCard(&buf, in); err == nil {
		t.Fatalf("expected error for empty window")
	}
}
