package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"churchcal/internal/calendar"
)

// ErrEmptyPath is returned by Load/Save when no config path is given.
var ErrEmptyPath = errors.New("config path is empty")

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.churchcal/config.yaml"

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls the printable calendar snapshots.
type CaptureConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Cron schedules periodic captures while serving.
	Cron string `yaml:"cron" json:"cron"`
	// Format is "png" or "pdf".
	Format string `yaml:"format" json:"format"`
	// Output is the file the snapshot is written to.
	Output string `yaml:"output" json:"output"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to date events (e.g. "America/Chicago").
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is the first column of the grid.
	// Supported values:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// DefaultView is the view a fresh calendar opens in: day, week or month.
	DefaultView string `yaml:"default_view" json:"default_view"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic reload of events.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound ICS recurrence expansion around now.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// EventsFile is a JSON export of events from the administration backend.
	EventsFile string `yaml:"events_file" json:"events_file"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "",
		WeekStart:    "sunday",
		DefaultView:  "month",
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  400,
		BackfillDays: 400,
		EventsFile:   "",
		ICS:          []ICSConfig{},
		CacheDir:     "./cache/ics",
		Capture: CaptureConfig{
			Enabled: false,
			Cron:    "0 5 * * *",
			Format:  "pdf",
			Output:  "./cache/calendar.pdf",
			Width:   1280,
			Height:  960,
		},
		LogLevel:  "info",
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if _, err := calendar.ParseWeekStart(c.WeekStart); err != nil {
		// Unknown value; fall back to sunday to avoid surprising layouts.
		c.WeekStart = def.WeekStart
	}
	if _, err := calendar.ParseView(c.DefaultView); err != nil {
		c.DefaultView = def.DefaultView
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	switch c.Capture.Format {
	case "png", "pdf":
	default:
		c.Capture.Format = def.Capture.Format
	}
	if c.Capture.Cron == "" {
		c.Capture.Cron = def.Capture.Cron
	}
	if c.Capture.Output == "" {
		c.Capture.Output = "./cache/calendar." + c.Capture.Format
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// WeekStartValue returns the parsed week start. Call after Normalize.
func (c *Config) WeekStartValue() calendar.WeekStart {
	ws, _ := calendar.ParseWeekStart(c.WeekStart)
	return ws
}

// DefaultViewValue returns the parsed default view. Call after Normalize.
func (c *Config) DefaultViewValue() calendar.View {
	v, err := calendar.ParseView(c.DefaultView)
	if err != nil {
		return calendar.ViewMonth
	}
	return v
}

// Location resolves Timezone. An empty name is the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ExpandPath resolves a leading ~ in path.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
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
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return err
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

	tmp, err := os.CreateTemp(dir, ".churchcal-config-*.tmp")
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

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
