package grid

import (
	"testing"
	"time"
)

func TestDays_InclusiveBoundaries(t *testing.T) {
	start := time.Date(2024, 1, 30, 18, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 2, 1, 0, 0, 0, time.UTC)

	days := Days(start, end)
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	if !days[0].Equal(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected first day Jan 30 midnight, got %s", days[0])
	}
	if !days[3].Equal(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last day Feb 2 midnight, got %s", days[3])
	}
}

func TestDays_SameDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	days := Days(start, start.Add(time.Hour))
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
}

func TestDaysIn_DSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	start := time.Date(2024, 3, 30, 12, 0, 0, 0, loc)
	end := time.Date(2024, 4, 1, 12, 0, 0, 0, loc)
	days := DaysIn(start.UTC(), end.UTC(), loc)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for i, d := range days {
		if d.Hour() != 0 || d.Minute() != 0 {
			t.Fatalf("day %d is not local midnight: %s", i, d)
		}
	}
	if got := EndOfDay(days[1]).Sub(StartOfDay(days[1])); got != 23*time.Hour {
		t.Fatalf("expected 23h day on spring-forward, got %s", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := DaysBetween(b, a); got != 7 {
		t.Fatalf("expected symmetric 7, got %d", got)
	}
}

func TestRowLabels(t *testing.T) {
	labels, err := RowLabels(30, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 48 || labels[0] != "00:00" || labels[19] != "09:30" {
		t.Fatalf("unexpected 24h labels: len=%d first=%q 19=%q", len(labels), labels[0], labels[19])
	}

	labels, err = RowLabels(60, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != "12:00 AM" || labels[9] != "9:00 AM" || labels[12] != "12:00 PM" || labels[23] != "11:00 PM" {
		t.Fatalf("unexpected 12h labels: %v", labels)
	}

	if _, err := RowLabels(0, true); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
