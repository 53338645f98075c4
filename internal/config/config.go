package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source. The Name doubles
// as the event category when the calendar runs in category mode.
type ICSConfig struct {
	// URL is the ICS endpoint, or a local file path.
	URL string `yaml:"url" json:"url" validate:"required"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id" validate:"required"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// EventFieldsConfig names the raw-record fields the event parser reads.
type EventFieldsConfig struct {
	Start    string `yaml:"start" json:"start"`
	End      string `yaml:"end" json:"end"`
	Timed    string `yaml:"timed" json:"timed"`
	Category string `yaml:"category" json:"category"`
}

// CategoryConfig groups the category-mode knobs.
type CategoryConfig struct {
	// Days is the number of day columns shown per category.
	Days int `yaml:"days" json:"days" validate:"omitempty,min=1,max=7"`
	// List is the configured category list, in display order.
	List []string `yaml:"list" json:"list"`
	// ShowAll keeps categories with zero matching events.
	ShowAll bool `yaml:"show_all" json:"show_all"`
	// HideDynamic suppresses categories discovered from events.
	HideDynamic bool `yaml:"hide_dynamic" json:"hide_dynamic"`
	// ForInvalid is the fallback label for events whose category field is
	// not a string; empty skips such events during counting.
	ForInvalid string `yaml:"for_invalid" json:"for_invalid"`
}

// Config is the top-level application configuration.
type Config struct {
	// Mode is the calendar display mode.
	Mode string `yaml:"mode" json:"mode" validate:"omitempty,oneof=month week day 4day custom-weekly custom-daily category"`

	// Weekdays is the weekday list shown by month/week views; its first
	// entry is the first day of the week. 0 is Sunday.
	Weekdays []int `yaml:"weekdays" json:"weekdays" validate:"omitempty,max=7,dive,min=0,max=6"`

	// MaxDays is the default day count for modes without a fixed one.
	MaxDays int `yaml:"max_days" json:"max_days" validate:"omitempty,min=1"`

	// OverlapMode selects how concurrent events are stacked: "stack" or
	// "column".
	OverlapMode string `yaml:"overlap_mode" json:"overlap_mode" validate:"omitempty,oneof=stack column"`

	// MinEventHeight is the minimum pixel height of a timed block.
	MinEventHeight float64 `yaml:"min_event_height" json:"min_event_height" validate:"omitempty,min=1"`

	// SingleLineMinutes is the start/end closeness threshold under which
	// an event label renders on one line.
	SingleLineMinutes int `yaml:"single_line_minutes" json:"single_line_minutes" validate:"omitempty,min=1"`

	// Fields maps raw event records onto start/end/timed/category values.
	Fields EventFieldsConfig `yaml:"fields" json:"fields"`

	// Category configures category display mode.
	Category CategoryConfig `yaml:"category" json:"category"`

	// Timezone is the IANA timezone ICS inputs are normalized into.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules refreshes of the reference "now" timestamp.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics" validate:"dive"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:              "month",
		Weekdays:          []int{0, 1, 2, 3, 4, 5, 6},
		MaxDays:           7,
		OverlapMode:       "stack",
		MinEventHeight:    20,
		SingleLineMinutes: 60,
		Fields: EventFieldsConfig{
			Start:    "start",
			End:      "end",
			Timed:    "timed",
			Category: "category",
		},
		Category: CategoryConfig{Days: 1},
		Timezone: "UTC",
		// Every minute keeps the present-day highlight fresh without any
		// meaningful cost.
		RefreshCron: "* * * * *",
		ICS:         []ICSConfig{},
		LogLevel:    "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if len(c.Weekdays) == 0 {
		c.Weekdays = def.Weekdays
	}
	if c.MaxDays <= 0 {
		c.MaxDays = def.MaxDays
	}
	if c.OverlapMode == "" {
		c.OverlapMode = def.OverlapMode
	}
	if c.MinEventHeight <= 0 {
		c.MinEventHeight = def.MinEventHeight
	}
	if c.SingleLineMinutes <= 0 {
		c.SingleLineMinutes = def.SingleLineMinutes
	}
	if c.Fields.Start == "" {
		c.Fields.Start = def.Fields.Start
	}
	if c.Fields.End == "" {
		c.Fields.End = def.Fields.End
	}
	if c.Fields.Timed == "" {
		c.Fields.Timed = def.Fields.Timed
	}
	if c.Fields.Category == "" {
		c.Fields.Category = def.Fields.Category
	}
	if c.Category.Days <= 0 {
		c.Category.Days = def.Category.Days
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

var validate = validator.New()

// Validate checks field constraints after normalization.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML, unmarshal, normalize defaults, validate
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
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".calgrid-config-*.tmp")
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

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
