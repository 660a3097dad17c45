package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"meetgrid/internal/availability"
	"meetgrid/internal/config"
	"meetgrid/internal/event"
	appLog "meetgrid/internal/log"
	"meetgrid/internal/model"
	"meetgrid/internal/render"
)

// Loader produces a fresh event snapshot, typically event.Load bound to the
// current config and fetcher.
type Loader func(ctx context.Context) (*event.Snapshot, error)

// Server renders the preview card and stripe for the current snapshot.
// 스냅샷은 Refresh 에서만 교체되고, 핸들러는 읽기 잠금만 잡는다.
type Server struct {
	cfg  *config.Config
	load Loader
	mux  *http.ServeMux

	mu    sync.RWMutex
	cache *snapshotCache
}

// snapshotCache holds a snapshot with its aggregated levels so requests never
// re-run the sweep.
type snapshotCache struct {
	snap      *event.Snapshot
	levels    []model.DayLevel
	slots     []model.SlotLevel
	labels    []string
	updatedAt time.Time
}

// NewServer constructs a new Server. Call Refresh before serving.
func NewServer(cfg *config.Config, load Loader) *Server {
	s := &Server{
		cfg:  cfg,
		load: load,
		mux:  http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Refresh reloads the snapshot and recomputes levels. On error the previous
// snapshot keeps being served.
func (s *Server) Refresh(ctx context.Context) error {
	snap, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("web: load snapshot: %w", err)
	}
	levels, err := snap.Levels()
	if err != nil {
		return fmt.Errorf("web: aggregate days: %w", err)
	}
	slots, err := snap.Slots()
	if err != nil {
		return fmt.Errorf("web: aggregate slots: %w", err)
	}
	labels, err := snap.RowLabels()
	if err != nil {
		return fmt.Errorf("web: row labels: %w", err)
	}

	s.mu.Lock()
	s.cache = &snapshotCache{
		snap:      snap,
		levels:    levels,
		slots:     slots,
		labels:    labels,
		updatedAt: time.Now(),
	}
	s.mu.Unlock()

	appLog.Info("preview refreshed",
		"participants", len(snap.Participants),
		"days", len(levels),
		"max_level", availability.Max(levels),
	)
	return nil
}

// Levels returns the cached per-day levels, nil before the first Refresh.
func (s *Server) Levels() []model.DayLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return nil
	}
	return s.cache.levels
}

// Snapshot returns the cached snapshot, nil before the first Refresh.
func (s *Server) Snapshot() *event.Snapshot {
	if c := s.current(); c != nil {
		return c.snap
	}
	return nil
}

func (s *Server) current() *snapshotCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// StartServer serves s on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/card", s.handleCard)
	s.mux.HandleFunc("/stripe.png", s.handleStripe)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCard renders the HTML preview card.
//
// GET /card?dark=1&slots=0
//   - dark:  dark palette (기본값은 config.preview.dark)
//   - slots: 0 이면 slot heatmap 을 숨긴다 (기본 1)
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	c := s.current()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot not loaded yet")
		return
	}

	q := r.URL.Query()
	in := render.CardInput{
		Name:         c.snap.Name,
		Organizer:    c.snap.Organizer,
		TimezoneName: c.snap.TimezoneName,
		Location:     c.snap.Location,
		Window:       c.snap.Window,
		Participants: c.snap.Names(),
		Days:         c.levels,
		Dark:         parseBoolDefault(q.Get("dark"), s.cfg.Preview.Dark),
		Hue:          s.cfg.Preview.Hue,
	}
	if parseBoolDefault(q.Get("slots"), true) {
		in.Slots = c.slots
		in.RowLabels = c.labels
	}

	var buf bytes.Buffer
	if err := render.RenderCard(&buf, in); err != nil {
		appLog.Error("card render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render card")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", c.updatedAt.UTC().Format(http.TimeFormat))
	_, _ = w.Write(buf.Bytes())
}

// handleStripe renders the per-day level stripe as PNG.
//
// GET /stripe.png?w=960&h=32&dark=0
func (s *Server) handleStripe(w http.ResponseWriter, r *http.Request) {
	c := s.current()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot not loaded yet")
		return
	}

	q := r.URL.Query()
	width := parseIntDefault(q.Get("w"), render.StripeWidth)
	height := parseIntDefault(q.Get("h"), render.StripeHeight)
	if width <= 0 || width > 4096 || height <= 0 || height > 1024 {
		writeError(w, http.StatusBadRequest, "invalid stripe size")
		return
	}
	dark := parseBoolDefault(q.Get("dark"), s.cfg.Preview.Dark)

	scale := render.NewScale(len(c.snap.Participants), s.cfg.Preview.Hue, dark)
	img, err := render.Stripe(c.levels, scale, width, height)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		appLog.Error("stripe encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode stripe")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// handlePreview serves the last captured PNG preview from disk.
// http.ServeFile 가 파일 존재/권한 문제에 대해 적절한 상태코드를 반환해 준다.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Preview.Path)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
