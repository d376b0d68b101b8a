package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error from Load.
var ErrInvalid = errors.New("invalid config")

// Config holds runtime settings for the coro command.
type Config struct {
	FrameRate     int           `yaml:"frame_rate"`
	QueueLimit    int           `yaml:"queue_limit"` // headless loop only; the TUI has no job queue
	Scripts       []string      `yaml:"scripts"`
	Debug         bool          `yaml:"debug"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FrameRate:     60,
		QueueLimit:    10000,
		StatsInterval: 5 * time.Second,
	}
}

// Dir returns the coro configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "coro")
}

// File returns the path to config.yaml
func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads a YAML config from path on top of Default. A missing file is not
// an error. CORO_DEBUG=1 forces Debug on.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if os.Getenv("CORO_DEBUG") == "1" {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	// Relative script paths are relative to the config file.
	for i, p := range cfg.Scripts {
		if !filepath.IsAbs(p) {
			cfg.Scripts[i] = filepath.Join(filepath.Dir(path), p)
		}
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.FrameRate <= 0 || c.FrameRate > 1000 {
		return fmt.Errorf("%w: frame_rate %d out of range 1-1000", ErrInvalid, c.FrameRate)
	}
	if c.QueueLimit <= 0 {
		return fmt.Errorf("%w: queue_limit must be positive", ErrInvalid)
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("%w: stats_interval must not be negative", ErrInvalid)
	}
	return nil
}
