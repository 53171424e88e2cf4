package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/ayusman/platescan/internal/app"
	"github.com/ayusman/platescan/internal/capture"
	"github.com/ayusman/platescan/internal/config"
	"github.com/ayusman/platescan/internal/detector"
	"github.com/ayusman/platescan/internal/display"
	"github.com/ayusman/platescan/internal/hub"
	"github.com/ayusman/platescan/internal/logging"
	"github.com/ayusman/platescan/internal/ocr"
	"github.com/ayusman/platescan/internal/plugin"
	"github.com/ayusman/platescan/internal/server"
	"github.com/ayusman/platescan/internal/store"
	"github.com/ayusman/platescan/internal/tray"
)

func init() {
	// HighGUI windows and the tray must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(fs, &opts); err != nil {
		log.Fatal().Err(err).Msg("platescan failed")
	}
}

func run(fs *pflag.FlagSet, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, opts, &cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if opts.showConfig {
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	}

	logging.Init("platescan", cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	rec, err := ocr.NewTesseract(ocr.Options{
		Language:       cfg.OCR.Language,
		PageSegMode:    cfg.OCR.PageSegMode,
		Whitelist:      cfg.OCR.Whitelist,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		MinHeight:      cfg.OCR.MinHeight,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OCR: %w", err)
	}
	log.Info().Str("tesseract", rec.Version()).Str("language", cfg.OCR.Language).Msg("OCR ready")

	det := detector.NewPlateDetector(detector.Config{
		BilateralDiameter:   cfg.Detection.BilateralDiameter,
		BilateralSigmaColor: cfg.Detection.BilateralSigmaColor,
		BilateralSigmaSpace: cfg.Detection.BilateralSigmaSpace,
		CannyLow:            cfg.Detection.CannyLow,
		CannyHigh:           cfg.Detection.CannyHigh,
		EpsilonFactor:       cfg.Detection.EpsilonFactor,
		MinWidth:            cfg.Detection.MinWidth,
		MinHeight:           cfg.Detection.MinHeight,
	}, rec)

	var cam capture.Camera
	if cfg.Capture.Source != "" {
		cam = capture.NewSourceCamera(cfg.Capture.Source, cfg.Capture.Width, cfg.Capture.Height)
	} else {
		cam = capture.NewCamera(cfg.Capture.Device, cfg.Capture.Width, cfg.Capture.Height)
	}

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", plugins.PluginDir()).Msg("plugin discovery failed")
	}
	hooks, err := plugin.HooksFromConfig(cfg.Hooks)
	if err != nil {
		return err
	}
	dispatcher := plugin.NewDispatcher(plugins, hooks)

	var motion *capture.MotionDetector
	if cfg.Motion.Enabled {
		motion = capture.NewMotionDetector(cfg.Motion.Threshold)
	}

	var disp display.Display
	if cfg.Display.Headless {
		disp = display.NewHeadless()
	} else {
		disp = display.NewWindow(cfg.Display.Title)
	}

	var events *hub.Hub
	if cfg.Server.Addr != "" {
		events = hub.New(hub.DefaultBuffer)
	}

	a := app.New(app.Config{
		Camera:        cam,
		Detector:      det,
		Display:       disp,
		Store:         st,
		Hub:           events,
		Hooks:         dispatcher,
		Motion:        motion,
		Interval:      cfg.Display.Interval.Duration,
		DedupWindow:   cfg.Detection.DedupWindow.Duration,
		SaveSnapshots: cfg.Store.SaveSnapshots,
	})
	defer a.Close()

	if err := a.ReloadWatchlist(); err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.Server.Addr != "" {
		srv := server.New(server.Config{
			StaticDir:     cfg.Server.StaticDir,
			Store:         st,
			Hub:           events,
			MatchDistance: cfg.Watchlist.MaxDistance,
			OnWatchlistChange: func() {
				if err := a.ReloadWatchlist(); err != nil {
					log.Error().Err(err).Msg("failed to reload watchlist")
				}
			},
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Error().Err(err).Msg("http server failed")
				stop()
			}
		}()
	}

	log.Info().
		Str("source", sourceName(cfg.Capture)).
		Bool("headless", cfg.Display.Headless).
		Bool("tray", cfg.Tray).
		Int("hooks", len(dispatcher.Hooks())).
		Msg("platescan started")

	if cfg.Tray {
		err = runWithTray(ctx, stop, a, cfg.Server.Addr)
	} else {
		err = a.Run(ctx)
	}

	stop()
	wg.Wait()
	dispatcher.Wait()
	return err
}

// runWithTray runs the pipeline in the background while the tray holds the
// main thread.
func runWithTray(ctx context.Context, stop context.CancelFunc, a *app.App, httpAddr string) error {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(stop)
	if httpAddr != "" {
		t.OnSettings(func() { openBrowser(liveViewURL(httpAddr)) })
	}
	a.OnDetection(func(r app.Result) {
		t.SetLastPlate(r.Plate.Text, r.DetectedAt)
	})

	// The pipeline starts from the ready callback so its Quit never races
	// the tray loop startup.
	errCh := make(chan error, 1)
	var started atomic.Bool
	t.OnReady(func() {
		started.Store(true)
		go func() {
			errCh <- a.Run(ctx)
			t.Quit()
		}()
	})

	t.Run()
	stop()
	if !started.Load() {
		return nil
	}
	return <-errCh
}

func sourceName(c config.CaptureConfig) string {
	if c.Source != "" {
		return c.Source
	}
	return fmt.Sprintf("device %d", c.Device)
}

func liveViewURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
	}
}
