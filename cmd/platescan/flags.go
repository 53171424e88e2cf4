package main

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/ayusman/platescan/internal/config"
)

type options struct {
	configPath    string
	device        int
	source        string
	interval      time.Duration
	headless      bool
	httpAddr      string
	tray          bool
	dbPath        string
	pluginDir     string
	logLevel      string
	saveSnapshots bool
	showConfig    bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("platescan", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML configuration file")
	fs.IntVarP(&opts.device, "device", "d", config.DefaultDevice, "camera device index")
	fs.StringVar(&opts.source, "source", "", "video file or stream URL to read instead of a camera")
	fs.DurationVar(&opts.interval, "interval", config.DefaultInterval, "wait between frames")
	fs.BoolVar(&opts.headless, "headless", false, "run without a preview window")
	fs.StringVar(&opts.httpAddr, "http", "", "serve the live view on this address (e.g. :8080)")
	fs.BoolVar(&opts.tray, "tray", false, "run in the system tray (implies --headless)")
	fs.StringVar(&opts.dbPath, "db", "", "detection database path")
	fs.StringVar(&opts.pluginDir, "plugin-dir", "", "hook plugin directory")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&opts.saveSnapshots, "save-snapshots", false, "store an annotated JPEG with every detection")
	fs.BoolVar(&opts.showConfig, "show-config", false, "print the effective configuration and exit")
	return fs
}

// applyFlags copies explicitly set flags over the file configuration.
func applyFlags(fs *pflag.FlagSet, opts *options, cfg *config.Config) {
	if fs.Changed("device") {
		cfg.Capture.Device = opts.device
	}
	if fs.Changed("source") {
		cfg.Capture.Source = opts.source
	}
	if fs.Changed("interval") {
		cfg.Display.Interval.Duration = opts.interval
	}
	if fs.Changed("headless") {
		cfg.Display.Headless = opts.headless
	}
	if fs.Changed("http") {
		cfg.Server.Addr = opts.httpAddr
	}
	if fs.Changed("tray") {
		cfg.Tray = opts.tray
	}
	if fs.Changed("db") {
		cfg.Store.Path = opts.dbPath
	}
	if fs.Changed("plugin-dir") {
		cfg.PluginDir = opts.pluginDir
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if fs.Changed("save-snapshots") {
		cfg.Store.SaveSnapshots = opts.saveSnapshots
	}
	// The tray owns the main thread, so there is no room for a window.
	if cfg.Tray {
		cfg.Display.Headless = true
	}
}
