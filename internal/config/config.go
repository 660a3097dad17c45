package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"meetgrid/internal/availability"
	"meetgrid/internal/grid"
	"meetgrid/internal/model"
)

// EnvPrefix is the prefix for environment overrides, e.g. MEETGRID_LISTEN.
const EnvPrefix = "MEETGRID"

// ICS modes for participant calendar feeds.
const (
	ICSModeFree = "free"
	ICSModeBusy = "busy"
)

// IntervalConfig is a free block as written in the config file. Times are
// RFC3339, or "2006-01-02T15:04" read in the configured timezone.
type IntervalConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// SelectionConfig is a drag-selected rectangle on the grid, corners given as
// [column, row].
type SelectionConfig struct {
	From [2]int `yaml:"from" json:"from"`
	To   [2]int `yaml:"to" json:"to"`
}

// ICSConfig describes a participant's calendar feed.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// Mode is "free" (events are free blocks) or "busy" (free time is the
	// window minus events).
	Mode string `yaml:"mode" json:"mode"`
}

// ParticipantConfig is one respondent.
type ParticipantConfig struct {
	// ID is generated on first load when empty.
	ID         string            `yaml:"id" json:"id"`
	Name       string            `yaml:"name" json:"name"`
	Intervals  []IntervalConfig  `yaml:"intervals,omitempty" json:"intervals,omitempty"`
	Selections []SelectionConfig `yaml:"selections,omitempty" json:"selections,omitempty"`
	ICS        *ICSConfig        `yaml:"ics,omitempty" json:"ics,omitempty"`
}

// EventConfig is the organizer's side of the schedule.
type EventConfig struct {
	Name      string         `yaml:"name" json:"name"`
	Organizer string         `yaml:"organizer" json:"organizer"`
	Window    IntervalConfig `yaml:"window" json:"window"`

	// IntervalMinutes is the length of one grid row, in (0, 1440].
	IntervalMinutes int `yaml:"interval_minutes" json:"interval_minutes"`

	// WeeklyRecurrence repeats participant blocks every week until the
	// window ends.
	WeeklyRecurrence bool `yaml:"weekly_recurrence" json:"weekly_recurrence"`

	// Use24h controls row labels on the preview card.
	Use24h bool `yaml:"use_24h" json:"use_24h"`
}

// PreviewConfig controls the rendered preview card.
type PreviewConfig struct {
	Path   string  `yaml:"path" json:"path"`
	Width  int     `yaml:"width" json:"width"`
	Height int     `yaml:"height" json:"height"`
	Dark   bool    `yaml:"dark" json:"dark"`
	Hue    float64 `yaml:"hue" json:"hue"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the preview server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone that defines day boundaries and display.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule for re-importing feeds and
	// re-rendering the preview.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Debug bool `yaml:"debug" json:"debug"`

	Event        EventConfig         `yaml:"event" json:"event"`
	Participants []ParticipantConfig `yaml:"participants" json:"participants"`
	Preview      PreviewConfig       `yaml:"preview" json:"preview"`
}

// DefaultConfig returns an in-memory default configuration: a one-week
// window starting today at midnight UTC with nobody signed up yet.
func DefaultConfig() *Config {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		RefreshCron: "*/15 * * * *",
		CacheDir:    "./var/ics-cache",
		Event: EventConfig{
			Name:      "Untitled event",
			Organizer: "organizer",
			Window: IntervalConfig{
				Start: today.Format(time.RFC3339),
				End:   today.AddDate(0, 0, 7).Format(time.RFC3339),
			},
			IntervalMinutes: 60,
			Use24h:          true,
		},
		Participants: []ParticipantConfig{},
		Preview: PreviewConfig{
			Path:   "./var/preview.png",
			Width:  1024,
			Height: 512,
			Hue:    277,
		},
	}
}

// Normalize fills in missing/zero values with defaults and assigns IDs to
// participants that have none. It never touches fields Validate rejects.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.Event.Name == "" {
		c.Event.Name = "Untitled event"
	}
	if c.Participants == nil {
		c.Participants = []ParticipantConfig{}
	}
	for i := range c.Participants {
		p := &c.Participants[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if p.ICS != nil && p.ICS.Mode == "" {
			p.ICS.Mode = ICSModeFree
		}
	}
	if c.Preview.Path == "" {
		c.Preview.Path = "./var/preview.png"
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = 1024
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = 512
	}
	if c.Preview.Hue == 0 {
		c.Preview.Hue = 277
	}
}

// Validate reports configuration errors. Interval and window errors wrap
// grid.ErrInvalidInterval and availability.ErrInvalidWindow.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := grid.ValidateInterval(c.Event.IntervalMinutes); err != nil {
		return fmt.Errorf("config: event.interval_minutes: %w", err)
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	for i, p := range c.Participants {
		if p.ICS != nil {
			if p.ICS.URL == "" {
				return fmt.Errorf("config: participants[%d].ics.url is empty", i)
			}
			if p.ICS.Mode != ICSModeFree && p.ICS.Mode != ICSModeBusy {
				return fmt.Errorf("config: participants[%d].ics.mode must be %q or %q (got %q)",
					i, ICSModeFree, ICSModeBusy, p.ICS.Mode)
			}
		}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window parses the event window.
func (c *Config) Window() (model.Window, error) {
	loc, err := c.Location()
	if err != nil {
		return model.Window{}, err
	}
	iv, err := c.Event.Window.Parse(loc)
	if err != nil {
		return model.Window{}, fmt.Errorf("config: event.window: %w", err)
	}
	w := model.Window{Start: iv.Start, End: iv.End}
	if err := availability.ValidateWindow(w); err != nil {
		return model.Window{}, fmt.Errorf("config: event.window: %w", err)
	}
	return w, nil
}

// Parse converts the textual interval; times without an offset are read in loc.
func (ic IntervalConfig) Parse(loc *time.Location) (model.Interval, error) {
	start, err := ParseTime(ic.Start, loc)
	if err != nil {
		return model.Interval{}, fmt.Errorf("start: %w", err)
	}
	end, err := ParseTime(ic.End, loc)
	if err != nil {
		return model.Interval{}, fmt.Errorf("end: %w", err)
	}
	return model.Interval{Start: start, End: end}, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC3339 or one of the offset-less layouts above.
func ParseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}

// ApplyEnv overrides selected fields from MEETGRID_* environment variables.
func (c *Config) ApplyEnv() {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if s := v.GetString("listen"); s != "" {
		c.Listen = s
	}
	if s := v.GetString("timezone"); s != "" {
		c.Timezone = s
	}
	if s := v.GetString("refresh"); s != "" {
		c.RefreshCron = s
	}
	if s := v.GetString("cache_dir"); s != "" {
		c.CacheDir = s
	}
	if s := v.GetString("preview.path"); s != "" {
		c.Preview.Path = s
	}
	if v.IsSet("debug") {
		c.Debug = v.GetBool("debug")
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded, normalized and overridden from the
//     environment. Validation is left to the caller.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".meetgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
