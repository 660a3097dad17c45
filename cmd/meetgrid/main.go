package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"meetgrid/internal/capture"
	"meetgrid/internal/config"
	"meetgrid/internal/event"
	"meetgrid/internal/ics"
	appLog "meetgrid/internal/log"
	"meetgrid/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	dump       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	appLog.Init(flags.debug)
	defer appLog.Sync()

	appLog.Info("meetgrid starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if conf.Debug && !flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"interval_minutes", conf.Event.IntervalMinutes,
		"weekly_recurrence", conf.Event.WeeklyRecurrence,
		"participants", len(conf.Participants),
		"once", flags.once,
		"dump", flags.dump,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := ics.NewFetcher(conf.CacheDir)
	srv := web.NewServer(conf, func(ctx context.Context) (*event.Snapshot, error) {
		return event.Load(ctx, conf, fetcher)
	})

	if err := srv.Refresh(ctx); err != nil {
		appLog.Error("initial load failed", err)
		os.Exit(1)
	}
	logLevels(srv)
	if flags.dump {
		dumpCells(srv.Snapshot())
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- web.StartServer(ctx, conf, srv) }()

	if flags.once {
		if err := waitHealthy(ctx, conf.Listen, 5*time.Second); err != nil {
			appLog.Error("preview server did not come up", err)
			os.Exit(1)
		}
		runCapture(ctx, conf)
		cancel()
		<-serveErr
		appLog.Info("meetgrid exiting")
		return
	}

	loc, _ := conf.Location()
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := srv.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
			return
		}
		logLevels(srv)
		runCapture(ctx, conf)
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()

	go func() {
		if err := waitHealthy(ctx, conf.Listen, 5*time.Second); err == nil {
			runCapture(ctx, conf)
		}
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			appLog.Error("HTTP server stopped", err)
		}
		cancel()
	case <-ctx.Done():
		<-serveErr
	}

	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("meetgrid exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./meetgrid.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Aggregate, capture the preview once and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "Log each participant's grid cells")
	flag.BoolVar(&cfg.debug, "debug", false, "Development logging at debug level")

	flag.Parse()

	return cfg
}

func logLevels(srv *web.Server) {
	for _, l := range srv.Levels() {
		appLog.Info("day level", "day", l.Day.Format("2006-01-02"), "level", l.Level)
	}
}

func dumpCells(snap *event.Snapshot) {
	if snap == nil {
		return
	}
	for _, p := range snap.Participants {
		cells, err := snap.Cells(p.ID)
		if err != nil {
			appLog.Error("dump: cells failed", err, "participant", p.ID)
			continue
		}
		appLog.Info("participant cells",
			"participant", p.Name,
			"intervals", len(p.Intervals),
			"cells", fmt.Sprint(cells),
		)
	}
}

// runCapture screenshots /card into the preview path. Capture needs a local
// Chromium; failures are logged so the server keeps running without one.
func runCapture(ctx context.Context, conf *config.Config) {
	opts := capture.CaptureOptions{
		URL:        "http://" + localAddr(conf.Listen) + "/card",
		OutputPath: conf.Preview.Path,
		Width:      conf.Preview.Width,
		Height:     conf.Preview.Height,
	}
	start := time.Now()
	if err := capture.CaptureCardPNG(ctx, opts); err != nil {
		appLog.Error("preview capture failed", err, "url", opts.URL)
		return
	}
	appLog.Info("preview captured", "path", opts.OutputPath, "elapsed", time.Since(start).String())
}

// localAddr turns a wildcard listen address into one the browser can dial.
func localAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func waitHealthy(ctx context.Context, listen string, timeout time.Duration) error {
	url := "http://" + localAddr(listen) + "/health"
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: time.Second}
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return errors.New("timed out waiting for " + url)
}
