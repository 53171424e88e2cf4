// Package app wires the capture, detection and reporting pipeline.
package app

import (
	"sync"
	"time"

	"github.com/ayusman/platescan/internal/capture"
	"github.com/ayusman/platescan/internal/detector"
	"github.com/ayusman/platescan/internal/display"
	"github.com/ayusman/platescan/internal/hub"
	"github.com/ayusman/platescan/internal/plate"
	"github.com/ayusman/platescan/internal/plugin"
	"github.com/ayusman/platescan/internal/store"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the wait between frames, and the time a detection stays
// on screen.
const DefaultInterval = 3 * time.Second

// Config holds the pipeline components. Camera and Detector are required;
// the rest are optional.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Display  display.Display // nil runs headless

	Store *store.Store
	Hub   *hub.Hub
	Hooks *plugin.Dispatcher
	// Motion, when set, skips detection on frames without scene change.
	Motion *capture.MotionDetector

	Interval      time.Duration
	DedupWindow   time.Duration
	SaveSnapshots bool
}

// DetectionListener is called for every reported detection.
type DetectionListener func(Result)

// App runs the license plate pipeline.
type App struct {
	config    Config
	camera    capture.Camera
	detector  detector.Detector
	display   display.Display
	motion    *capture.MotionDetector
	matcher   *plate.Matcher
	tracker   *plate.Tracker
	listeners []DetectionListener

	mu       sync.RWMutex
	enabled  bool
	last     string
	lastSeen time.Time
}

// New creates an App from cfg. Detection starts enabled.
func New(cfg Config) *App {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	disp := cfg.Display
	if disp == nil {
		disp = display.NewHeadless()
	}

	return &App{
		config:   cfg,
		camera:   cfg.Camera,
		detector: cfg.Detector,
		display:  disp,
		motion:   cfg.Motion,
		matcher:  plate.NewMatcher(),
		tracker:  plate.NewTracker(cfg.DedupWindow),
		enabled:  true,
	}
}

// SetEnabled pauses or resumes detection. Frames keep being displayed while
// paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnDetection registers l for reported detections. It must be called before
// Run.
func (a *App) OnDetection(l DetectionListener) {
	a.listeners = append(a.listeners, l)
}

// LastPlate returns the most recent reported reading and when it was seen.
func (a *App) LastPlate() (string, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.lastSeen
}

// ReloadWatchlist replaces the matcher entries with the stored watchlist.
func (a *App) ReloadWatchlist() error {
	if a.config.Store == nil {
		return nil
	}

	stored, err := a.config.Store.Watchlist().List()
	if err != nil {
		return err
	}

	entries := make([]*plate.Entry, len(stored))
	for i, e := range stored {
		entries[i] = &plate.Entry{
			ID:          e.ID,
			Plate:       e.Plate,
			Label:       e.Label,
			MaxDistance: e.MaxDistance,
		}
	}
	a.matcher.SetEntries(entries)

	log.Info().Int("entries", len(entries)).Msg("watchlist loaded")
	return nil
}

// Matcher returns the watchlist matcher.
func (a *App) Matcher() *plate.Matcher {
	return a.matcher
}

// Close releases the detector, the display and the motion gate.
func (a *App) Close() error {
	if a.motion != nil {
		a.motion.Close()
	}
	if err := a.display.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing display")
	}
	return a.detector.Close()
}
