package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/platescan/internal/detector"
	"github.com/ayusman/platescan/internal/hub"
	"github.com/ayusman/platescan/internal/plate"
	"github.com/ayusman/platescan/internal/plugin"
	"github.com/ayusman/platescan/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// Result describes what ProcessFrame did with a frame.
type Result struct {
	// Plate is the detection, nil when no plate was read.
	Plate      *detector.Plate
	Normalized string
	// Skipped is set when detection did not run because it is paused or
	// the motion gate saw no change.
	Skipped bool
	// Reported is false for readings suppressed as repeats.
	Reported    bool
	DetectionID string
	Matches     []plate.Match
	DetectedAt  time.Time
}

// Run captures, processes and displays frames until ctx ends, the display
// requests quit or a frame cannot be read. The camera is closed on return.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing camera")
		}
	}()

	log.Info().Dur("interval", a.config.Interval).Msg("capture loop started")

	for ctx.Err() == nil {
		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.Error().Err(err).Msg("Failed to grab frame")
			return nil
		}

		if _, err := a.ProcessFrame(ctx, frame); err != nil {
			log.Warn().Err(err).Msg("frame processing failed")
		}

		a.display.Show(*frame)
		frame.Close()

		if a.display.WaitKey(ctx, a.config.Interval) {
			break
		}
	}

	log.Info().Msg("capture loop stopped")
	return nil
}

// ProcessFrame runs detection on frame, draws the result onto it and reports
// new readings to the store, the hub and the hooks. Reporting failures are
// logged; only detection errors are returned.
func (a *App) ProcessFrame(ctx context.Context, frame *gocv.Mat) (*Result, error) {
	if frame == nil || frame.Empty() {
		return nil, detector.ErrEmptyFrame
	}
	defer a.publishFrame(*frame)

	res := &Result{}
	if !a.IsEnabled() {
		res.Skipped = true
		return res, nil
	}
	if a.motion != nil {
		if moved, _ := a.motion.Detect(frame); !moved {
			res.Skipped = true
			return res, nil
		}
	}

	p, err := a.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("plate detection failed: %w", err)
	}
	if p == nil {
		return res, nil
	}

	detector.Annotate(frame, p)

	res.Plate = p
	res.Normalized = plate.Normalize(p.Text)
	res.DetectedAt = time.Now()
	res.Reported = a.tracker.Observe(p.Text, res.DetectedAt)

	log.Info().
		Str("plate", p.Text).
		Bool("reported", res.Reported).
		Msg("Detected License Plate Number")

	if !res.Reported {
		return res, nil
	}

	res.Matches = a.matcher.Match(p.Text)
	a.report(ctx, *frame, res)
	return res, nil
}

func (a *App) report(ctx context.Context, frame gocv.Mat, res *Result) {
	res.DetectionID = uuid.NewString()

	a.mu.Lock()
	a.last = res.Plate.Text
	a.lastSeen = res.DetectedAt
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.persist(frame, res); err != nil {
			log.Error().Err(err).Str("plate", res.Plate.Text).Msg("failed to store detection")
		}
	}

	event := plateEvent(res, nil)
	a.publish(hub.EventPlateDetected, event)
	a.fire(ctx, hub.EventPlateDetected, event)

	if len(res.Matches) > 0 {
		best := res.Matches[0]
		log.Warn().
			Str("plate", res.Plate.Text).
			Str("watchlist", best.Entry.Plate).
			Str("label", best.Entry.Label).
			Int("distance", best.Distance).
			Msg("watchlist hit")

		hit := plateEvent(res, &best)
		a.publish(hub.EventWatchlistHit, hit)
		a.fire(ctx, hub.EventWatchlistHit, hit)
	}

	for _, l := range a.listeners {
		l(*res)
	}
}

func (a *App) persist(frame gocv.Mat, res *Result) error {
	box := res.Plate.Box
	d := &store.Detection{
		ID:          res.DetectionID,
		Text:        res.Plate.Text,
		Normalized:  res.Normalized,
		X:           box.Min.X,
		Y:           box.Min.Y,
		Width:       box.Dx(),
		Height:      box.Dy(),
		Watchlisted: len(res.Matches) > 0,
		DetectedAt:  res.DetectedAt,
	}

	if a.config.SaveSnapshots {
		snapshot, err := encodeJPEG(frame)
		if err != nil {
			log.Warn().Err(err).Msg("failed to encode snapshot")
		} else {
			d.Snapshot = snapshot
		}
	}

	return a.config.Store.Detections().Create(d)
}

func (a *App) publish(eventType string, data *plugin.PlateEvent) {
	if a.config.Hub == nil {
		return
	}
	a.config.Hub.Publish(hub.Event{
		Type:      eventType,
		Timestamp: data.DetectedAt,
		Data:      data,
	})
}

func (a *App) fire(ctx context.Context, event string, data *plugin.PlateEvent) {
	if a.config.Hooks == nil {
		return
	}
	a.config.Hooks.Fire(ctx, event, data)
}

func (a *App) publishFrame(frame gocv.Mat) {
	if a.config.Hub == nil {
		return
	}
	data, err := encodeJPEG(frame)
	if err != nil {
		log.Debug().Err(err).Msg("failed to encode frame for stream")
		return
	}
	a.config.Hub.PublishFrame(data)
}

func plateEvent(res *Result, match *plate.Match) *plugin.PlateEvent {
	box := res.Plate.Box
	e := &plugin.PlateEvent{
		DetectionID: res.DetectionID,
		Text:        res.Plate.Text,
		Normalized:  res.Normalized,
		Box: plugin.Box{
			X:      box.Min.X,
			Y:      box.Min.Y,
			Width:  box.Dx(),
			Height: box.Dy(),
		},
		DetectedAt: res.DetectedAt,
	}
	if match != nil {
		e.Match = &plugin.WatchMatch{
			Plate:    match.Entry.Plate,
			Label:    match.Entry.Label,
			Distance: match.Distance,
		}
	}
	return e
}

func encodeJPEG(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
