package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"taskcal/internal/layout"
	appLog "taskcal/internal/log"
)

// LayoutConfig controls the time grid.
type LayoutConfig struct {
	// DayStartHour / DayEndHour bound the visible hours, [start, end).
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// MinHeightPct is the minimum box height in percent of the day.
	MinHeightPct float64 `yaml:"min_height_pct" json:"min_height_pct"`
	// GutterPct is subtracted from every column width.
	GutterPct float64 `yaml:"gutter_pct" json:"gutter_pct"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone whose wall clock tasks are laid out in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron spec (e.g. "*/5 * * * *") for reloading tasks.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Tasks is the path of the task file (.yaml, .yml or .ics).
	Tasks string `yaml:"tasks" json:"tasks"`

	Layout LayoutConfig `yaml:"layout" json:"layout"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Local",
		WeekStart:   "monday",
		RefreshCron: "*/5 * * * *",
		LogLevel:    "info",
		Tasks:       "/var/lib/taskcal/tasks.yaml",
		Layout: LayoutConfig{
			DayStartHour: layout.DefaultHours.StartHour,
			DayEndHour:   layout.DefaultHours.EndHour,
			MinHeightPct: layout.DefaultMinHeightPct,
			GutterPct:    0,
		},
	}
}

// Normalize fills in missing or invalid values so that partially-filled
// configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = def.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Tasks == "" {
		c.Tasks = def.Tasks
	}

	// A missing layout block unmarshals as all zeros; treat any invalid hour
	// range as unset.
	if err := c.Hours().Validate(); err != nil {
		c.Layout.DayStartHour = def.Layout.DayStartHour
		c.Layout.DayEndHour = def.Layout.DayEndHour
	}
	if c.Layout.MinHeightPct <= 0 || c.Layout.MinHeightPct > 100 {
		c.Layout.MinHeightPct = def.Layout.MinHeightPct
	}
	if c.Layout.GutterPct < 0 {
		c.Layout.GutterPct = 0
	}
}

// Hours returns the configured visible hours.
func (c *Config) Hours() layout.Hours {
	return layout.Hours{StartHour: c.Layout.DayStartHour, EndHour: c.Layout.DayEndHour}
}

// LayoutOptions returns the engine options derived from the config.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{MinHeightPct: c.Layout.MinHeightPct, GutterPct: c.Layout.GutterPct}
}

// FirstWeekday maps WeekStart onto a time.Weekday.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Location resolves Timezone, falling back to time.Local when it cannot be
// loaded.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     permissions and returned.
//   - Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
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

	tmp, err := os.CreateTemp(dir, ".taskcal-config-*.tmp")
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
