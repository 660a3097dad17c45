package web

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meetgrid/internal/config"
	"meetgrid/internal/event"
	"meetgrid/internal/model"
)

func testSnapshot() *event.Snapshot {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(day, hour int) time.Time { return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC) }
	return &event.Snapshot{
		Name:            "Planning",
		Organizer:       "Dana",
		TimezoneName:    "UTC",
		Location:        time.UTC,
		Window:          model.Window{Start: start, End: start.AddDate(0, 0, 2)},
		IntervalMinutes: 60,
		Use24h:          true,
		Days:            []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)},
		Participants: []model.Participant{
			{ID: "a", Name: "Alex", Intervals: []model.Interval{{Start: at(1, 9), End: at(1, 11)}}},
			{ID: "b", Name: "Robin", Intervals: []model.Interval{{Start: at(1, 10), End: at(1, 12)}}},
		},
	}
}

func newTestServer(t *testing.T, load Loader) (*Server, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Preview.Path = filepath.Join(t.TempDir(), "preview.png")
	return NewServer(cfg, load), cfg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_BeforeRefresh(t *testing.T) {
	s, _ := newTestServer(t, func(context.Context) (*event.Snapshot, error) { return testSnapshot(), nil })

	if rec := get(t, s.Handler(), "/health"); rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	rec := get(t, s.Handler(), "/card")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before refresh, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
	if s.Levels() != nil {
		t.Fatalf("expected no levels before refresh")
	}
}

func TestServer_Card(t *testing.T) {
	s, _ := newTestServer(t, func(context.Context) (*event.Snapshot, error) { return testSnapshot(), nil })
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	levels := s.Levels()
	if len(levels) != 3 || levels[0].Level != 2 || levels[1].Level != 0 {
		t.Fatalf("unexpected levels %+v", levels)
	}

	rec := get(t, s.Handler(), "/card")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Planning", "Alex, Robin", `data-ready="true"`, "data-level="} {
		if !strings.Contains(body, want) {
			t.Fatalf("card missing %q", want)
		}
	}

	rec = get(t, s.Handler(), "/card?slots=0&dark=1")
	if strings.Contains(rec.Body.String(), "data-level=") {
		t.Fatalf("expected heatmap to be hidden with slots=0")
	}
	if !strings.Contains(rec.Body.String(), "#14121f") {
		t.Fatalf("expected dark palette")
	}
}

func TestServer_Stripe(t *testing.T) {
	s, _ := newTestServer(t, func(context.Context) (*event.Snapshot, error) { return testSnapshot(), nil })
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rec := get(t, s.Handler(), "/stripe.png?w=90&h=10")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 90 || img.Bounds().Dy() != 10 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}

	if rec := get(t, s.Handler(), "/stripe.png?w=0"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero width, got %d", rec.Code)
	}
	if rec := get(t, s.Handler(), "/stripe.png?w=2"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when narrower than day count, got %d", rec.Code)
	}
}

func TestServer_Preview(t *testing.T) {
	s, cfg := newTestServer(t, nil)

	if rec := get(t, s.Handler(), "/preview.png"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a capture, got %d", rec.Code)
	}
	if err := os.WriteFile(cfg.Preview.Path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write preview: %v", err)
	}
	rec := get(t, s.Handler(), "/preview.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if b, _ := io.ReadAll(rec.Body); string(b) != "png-bytes" {
		t.Fatalf("unexpected preview body %q", b)
	}
}

func TestServer_RefreshErrorKeepsSnapshot(t *testing.T) {
	fail := false
	s, _ := newTestServer(t, func(context.Context) (*event.Snapshot, error) {
		if fail {
			return nil, errors.New("feed exploded")
		}
		return testSnapshot(), nil
	})
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fail = true
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if rec := get(t, s.Handler(), "/card"); rec.Code != http.StatusOK {
		t.Fatalf("expected previous snapshot to keep serving, got %d", rec.Code)
	}
}

func TestStartServer_Shutdown(t *testing.T) {
	s, cfg := newTestServer(t, nil)
	cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartServer(ctx, cfg, s) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
