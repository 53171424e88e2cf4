// Package config loads the platescan TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values, matching the behaviour of the capture loop without any
// configuration file.
const (
	DefaultDevice        = 0
	DefaultWidth         = 320
	DefaultHeight        = 240
	DefaultInterval      = 3 * time.Second
	DefaultLanguage      = "eng"
	DefaultPageSegMode   = 7
	DefaultMotionThresh  = 1.0
	DefaultHookTimeout   = 5 * time.Second
	DefaultMatchDistance = 1
	DefaultServerAddr    = ":8080"
)

// Duration is a time.Duration that decodes from TOML strings such as "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	LogLevel  string          `toml:"log_level"`
	DataDir   string          `toml:"data_dir"`
	PluginDir string          `toml:"plugin_dir"`
	Tray      bool            `toml:"tray"`
	Capture   CaptureConfig   `toml:"capture"`
	Detection DetectionConfig `toml:"detection"`
	OCR       OCRConfig       `toml:"ocr"`
	Motion    MotionConfig    `toml:"motion"`
	Display   DisplayConfig   `toml:"display"`
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Watchlist WatchlistConfig `toml:"watchlist"`
	Hooks     []HookConfig    `toml:"hooks"`
}

// CaptureConfig selects the video source. Source, when set, is a file path or
// stream URL and takes precedence over Device.
type CaptureConfig struct {
	Device int    `toml:"device"`
	Source string `toml:"source"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type DetectionConfig struct {
	BilateralDiameter   int     `toml:"bilateral_diameter"`
	BilateralSigmaColor float64 `toml:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `toml:"bilateral_sigma_space"`
	CannyLow            float32 `toml:"canny_low"`
	CannyHigh           float32 `toml:"canny_high"`
	EpsilonFactor       float64 `toml:"epsilon_factor"`
	MinWidth            int     `toml:"min_width"`
	MinHeight           int     `toml:"min_height"`
	// DedupWindow suppresses repeat reports of the same plate. Zero reports
	// every frame.
	DedupWindow Duration `toml:"dedup_window"`
}

type OCRConfig struct {
	Language       string `toml:"language"`
	PageSegMode    int    `toml:"page_seg_mode"`
	Whitelist      string `toml:"whitelist"`
	TessdataPrefix string `toml:"tessdata_prefix"`
	MinHeight      int    `toml:"min_height"`
}

type MotionConfig struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float64 `toml:"threshold"`
}

type DisplayConfig struct {
	Headless bool     `toml:"headless"`
	Interval Duration `toml:"interval"`
	Title    string   `toml:"title"`
}

type StoreConfig struct {
	Path          string `toml:"path"`
	SaveSnapshots bool   `toml:"save_snapshots"`
}

// ServerConfig enables the HTTP live view when Addr is non-empty.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
}

type WatchlistConfig struct {
	MaxDistance int `toml:"max_distance"`
}

// HookConfig binds a plugin action to a pipeline event.
type HookConfig struct {
	Plugin  string         `toml:"plugin"`
	Action  string         `toml:"action"`
	Event   string         `toml:"event"`
	Timeout Duration       `toml:"timeout"`
	Config  map[string]any `toml:"config"`
}

// Hook events.
const (
	EventPlateDetected = "plate_detected"
	EventWatchlistHit  = "watchlist_hit"
)

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and validates the configuration at path. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	var cfg Config
	var md *toml.MetaData
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		md = &meta
	}
	cfg.applyDefaults(md)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	c.applyDefaults(nil)
}

// applyDefaults fills unset fields. Keys where zero is meaningful keep an
// explicit zero when md records them as defined.
func (c *Config) applyDefaults(md *toml.MetaData) {
	unset := func(key ...string) bool {
		return md == nil || !md.IsDefined(key...)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".platescan")
		} else {
			c.DataDir = ".platescan"
		}
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "platescan.db")
	}

	if c.Capture.Width == 0 {
		c.Capture.Width = DefaultWidth
	}
	if c.Capture.Height == 0 {
		c.Capture.Height = DefaultHeight
	}

	d := &c.Detection
	if d.BilateralDiameter == 0 {
		d.BilateralDiameter = 11
	}
	if d.BilateralSigmaColor == 0 {
		d.BilateralSigmaColor = 17
	}
	if d.BilateralSigmaSpace == 0 {
		d.BilateralSigmaSpace = 17
	}
	if d.CannyLow == 0 && unset("detection", "canny_low") {
		d.CannyLow = 30
	}
	if d.CannyHigh == 0 {
		d.CannyHigh = 200
	}
	if d.EpsilonFactor == 0 {
		d.EpsilonFactor = 0.018
	}
	if d.MinWidth == 0 && unset("detection", "min_width") {
		d.MinWidth = 60
	}
	if d.MinHeight == 0 && unset("detection", "min_height") {
		d.MinHeight = 40
	}

	if c.OCR.Language == "" {
		c.OCR.Language = DefaultLanguage
	}
	if c.OCR.PageSegMode == 0 {
		c.OCR.PageSegMode = DefaultPageSegMode
	}

	if c.Motion.Threshold == 0 && unset("motion", "threshold") {
		c.Motion.Threshold = DefaultMotionThresh
	}

	if c.Display.Interval.Duration == 0 {
		c.Display.Interval.Duration = DefaultInterval
	}
	if c.Display.Title == "" {
		c.Display.Title = "License Plate Detection"
	}

	if c.Watchlist.MaxDistance == 0 && unset("watchlist", "max_distance") {
		c.Watchlist.MaxDistance = DefaultMatchDistance
	}

	for i := range c.Hooks {
		if c.Hooks[i].Event == "" {
			c.Hooks[i].Event = EventPlateDetected
		}
		if c.Hooks[i].Timeout.Duration == 0 {
			c.Hooks[i].Timeout.Duration = DefaultHookTimeout
		}
	}
}

// Validate reports the first invalid setting.
func Validate(cfg Config) error {
	if cfg.Capture.Device < 0 {
		return fmt.Errorf("capture device must be >= 0")
	}
	if cfg.Capture.Width < 0 || cfg.Capture.Height < 0 {
		return fmt.Errorf("capture resolution must be positive")
	}
	if cfg.Detection.BilateralDiameter < 0 {
		return fmt.Errorf("bilateral diameter must be positive")
	}
	if cfg.Detection.CannyLow > cfg.Detection.CannyHigh {
		return fmt.Errorf("canny_low (%v) must not exceed canny_high (%v)",
			cfg.Detection.CannyLow, cfg.Detection.CannyHigh)
	}
	if cfg.Detection.EpsilonFactor <= 0 || cfg.Detection.EpsilonFactor >= 1 {
		return fmt.Errorf("epsilon_factor must be in (0, 1)")
	}
	if cfg.Detection.MinWidth < 0 || cfg.Detection.MinHeight < 0 {
		return fmt.Errorf("minimum plate size must be positive")
	}
	if cfg.Detection.DedupWindow.Duration < 0 {
		return fmt.Errorf("dedup_window must not be negative")
	}
	if cfg.OCR.PageSegMode < 0 || cfg.OCR.PageSegMode > 13 {
		return fmt.Errorf("page_seg_mode must be in [0, 13]")
	}
	if cfg.Display.Interval.Duration <= 0 {
		return fmt.Errorf("display interval must be positive")
	}
	if cfg.Watchlist.MaxDistance < 0 {
		return fmt.Errorf("watchlist max_distance must not be negative")
	}
	if cfg.Motion.Threshold < 0 || cfg.Motion.Threshold > 100 {
		return fmt.Errorf("motion threshold must be a percentage")
	}
	for i, h := range cfg.Hooks {
		if err := ValidateHook(h); err != nil {
			return fmt.Errorf("hooks[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateHook(h HookConfig) error {
	if strings.TrimSpace(h.Plugin) == "" {
		return fmt.Errorf("plugin is required")
	}
	if strings.TrimSpace(h.Action) == "" {
		return fmt.Errorf("action is required")
	}
	switch h.Event {
	case EventPlateDetected, EventWatchlistHit:
	default:
		return fmt.Errorf("unknown event %q", h.Event)
	}
	return nil
}
