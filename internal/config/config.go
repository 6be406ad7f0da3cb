// Package config provides configuration loading for ramadanbar.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDistrict is selected when no district is configured.
const DefaultDistrict = "natore"

// Config is the root configuration structure.
type Config struct {
	District      string             `yaml:"district"`
	Schedule      ScheduleConfig     `yaml:"schedule"`
	Filters       FilterConfig       `yaml:"filters"`
	Countdown     CountdownConfig    `yaml:"countdown"`
	Notifications NotificationConfig `yaml:"notifications"`
	UI            UIConfig           `yaml:"ui"`
	Export        ExportConfig       `yaml:"export"`
}

// ScheduleConfig configures where the schedule document comes from.
type ScheduleConfig struct {
	Type          string        `yaml:"type"` // "file" or "http"
	Path          string        `yaml:"path,omitempty"`
	URL           string        `yaml:"url,omitempty"`
	Username      string        `yaml:"username,omitempty"`
	Password      string        `yaml:"password,omitempty"`
	PasswordCmd   string        `yaml:"password_cmd,omitempty"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// FilterConfig limits which districts are offered for selection.
type FilterConfig struct {
	Mode  string       `yaml:"mode"` // "or" or "and"
	Rules []FilterRule `yaml:"rules"`
}

// FilterRule defines a single filter rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex.
type FilterRule struct {
	Field           string `yaml:"field"`              // "id", "name", "bn_name"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// CountdownConfig configures the countdown driver and tray urgency.
type CountdownConfig struct {
	Tick        time.Duration `yaml:"tick"`         // Tick period (default: 1s)
	ExpiryDelay time.Duration `yaml:"expiry_delay"` // Sentinel hold before rolling over (default: 1s)
	Imminent    time.Duration `yaml:"imminent"`     // Tray turns urgent within this window (default: 15m)
}

// NotificationConfig configures desktop notifications.
type NotificationConfig struct {
	Enabled bool            `yaml:"enabled"`
	Before  []time.Duration `yaml:"before"`
	Digest  string          `yaml:"digest"` // cron spec for the daily summary, empty to disable
}

// UIConfig configures the display backend.
type UIConfig struct {
	Backend  string   `yaml:"backend"`  // "auto", "gtk" or "menu"
	Program  string   `yaml:"program"`  // dmenu program for the menu backend (auto-detect if empty)
	Args     []string `yaml:"args"`     // extra args for the dmenu program
	Language string   `yaml:"language"` // "en" or "bn"
}

// ExportConfig configures calendar export of the selected district's schedule.
type ExportConfig struct {
	ICS    string       `yaml:"ics"`
	CalDAV CalDAVConfig `yaml:"caldav"`
}

// CalDAVConfig configures publishing events to a CalDAV calendar.
type CalDAVConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	PasswordCmd string `yaml:"password_cmd,omitempty"`
	Calendar    string `yaml:"calendar"` // calendar name; first calendar if empty
}

// Load reads configuration from the default location
// (~/.config/ramadanbar/config.yaml). A missing file yields the defaults.
func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("get config dir: %w", err)
	}

	path := filepath.Join(configDir, "ramadanbar", "config.yaml")
	cfg, err := LoadFrom(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	// Expand paths
	cfg.Schedule.Path = expandPath(cfg.Schedule.Path)
	cfg.Export.ICS = expandPath(cfg.Export.ICS)

	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.District == "" {
		c.District = DefaultDistrict
	}
	if c.Schedule.Type == "" {
		c.Schedule.Type = "file"
	}
	if c.Schedule.Type == "file" && c.Schedule.Path == "" {
		dataDir, _ := os.UserHomeDir()
		c.Schedule.Path = filepath.Join(dataDir, ".local", "share", "ramadanbar", "ramadan_data.json")
	}
	if c.Schedule.RetryInterval == 0 {
		c.Schedule.RetryInterval = 30 * time.Second
	}
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	if c.Countdown.Tick == 0 {
		c.Countdown.Tick = time.Second
	}
	if c.Countdown.ExpiryDelay == 0 {
		c.Countdown.ExpiryDelay = time.Second
	}
	if c.Countdown.Imminent == 0 {
		c.Countdown.Imminent = 15 * time.Minute
	}
	if c.Notifications.Before == nil {
		c.Notifications.Before = []time.Duration{30 * time.Minute, 10 * time.Minute}
	}
	if c.UI.Backend == "" {
		c.UI.Backend = "auto"
	}
	if c.UI.Language == "" {
		c.UI.Language = "en"
	}
}

// GetPassword returns the password for the schedule source, executing
// password_cmd if needed.
func (s *ScheduleConfig) GetPassword() (string, error) {
	return resolvePassword(s.Password, s.PasswordCmd)
}

// GetPassword returns the CalDAV password, executing password_cmd if needed.
func (c *CalDAVConfig) GetPassword() (string, error) {
	return resolvePassword(c.Password, c.PasswordCmd)
}

func resolvePassword(password, passwordCmd string) (string, error) {
	if password != "" {
		return password, nil
	}
	if passwordCmd == "" {
		return "", nil
	}

	// Execute the password command
	cmd := exec.Command("sh", "-c", passwordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseDuration parses a Go duration, additionally accepting whole days ("3d")
// and weeks ("2w"). An empty string is zero.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	default:
		return time.ParseDuration(s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return time.Duration(n) * unit, nil
}

// UnmarshalYAML implements custom unmarshaling for duration fields.
func (c *ScheduleConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Type          string `yaml:"type"`
		Path          string `yaml:"path"`
		URL           string `yaml:"url"`
		Username      string `yaml:"username"`
		Password      string `yaml:"password"`
		PasswordCmd   string `yaml:"password_cmd"`
		RetryInterval string `yaml:"retry_interval"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	d, err := parseDuration(raw.RetryInterval)
	if err != nil {
		return fmt.Errorf("parse retry_interval: %w", err)
	}
	c.Type = raw.Type
	c.Path = raw.Path
	c.URL = raw.URL
	c.Username = raw.Username
	c.Password = raw.Password
	c.PasswordCmd = raw.PasswordCmd
	c.RetryInterval = d
	return nil
}

// UnmarshalYAML implements custom unmarshaling for countdown config.
func (c *CountdownConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Tick        string `yaml:"tick"`
		ExpiryDelay string `yaml:"expiry_delay"`
		Imminent    string `yaml:"imminent"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var err error
	if c.Tick, err = parseDuration(raw.Tick); err != nil {
		return fmt.Errorf("parse tick: %w", err)
	}
	if c.ExpiryDelay, err = parseDuration(raw.ExpiryDelay); err != nil {
		return fmt.Errorf("parse expiry_delay: %w", err)
	}
	if c.Imminent, err = parseDuration(raw.Imminent); err != nil {
		return fmt.Errorf("parse imminent: %w", err)
	}
	return nil
}

// UnmarshalYAML implements custom unmarshaling for notification config.
func (c *NotificationConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Enabled bool     `yaml:"enabled"`
		Before  []string `yaml:"before"`
		Digest  string   `yaml:"digest"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Enabled = raw.Enabled
	c.Digest = raw.Digest
	for _, s := range raw.Before {
		d, err := parseDuration(s)
		if err != nil {
			return fmt.Errorf("parse notification before duration %q: %w", s, err)
		}
		c.Before = append(c.Before, d)
	}
	return nil
}
