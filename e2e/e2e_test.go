package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/platescan/internal/app"
	"github.com/ayusman/platescan/internal/capture"
	"github.com/ayusman/platescan/internal/config"
	"github.com/ayusman/platescan/internal/detector"
	"github.com/ayusman/platescan/internal/display"
	"github.com/ayusman/platescan/internal/hub"
	"github.com/ayusman/platescan/internal/ocr"
	"github.com/ayusman/platescan/internal/plugin"
	"github.com/ayusman/platescan/internal/server"
	"github.com/ayusman/platescan/internal/store"
	"github.com/ayusman/platescan/internal/testutil/frames"
	"gocv.io/x/gocv"
)

// installRecorder writes a shell hook plugin that appends each request to out.
func installRecorder(t *testing.T, pluginDir, out string) {
	t.Helper()
	dir := filepath.Join(pluginDir, "recorder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","actions":["record"]}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\nINPUT=$(cat)\nprintf '%s\\n' \"$INPUT\" >> " + out + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("shell hook plugins are not supported on Windows")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	pluginDir := filepath.Join(tmpDir, "plugins")
	hookLog := filepath.Join(tmpDir, "hits.jsonl")
	installRecorder(t, pluginDir, hookLog)

	manager := plugin.NewManager(pluginDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	dispatcher := plugin.NewDispatcher(manager, []plugin.Hook{
		{Plugin: "recorder", Action: "record", Event: config.EventWatchlistHit, Timeout: 5 * time.Second},
	})

	// Two frames with a plate, then the camera runs dry.
	mats := []*gocv.Mat{}
	for i := 0; i < 2; i++ {
		m := frames.Plate(frames.DefaultPlateBox, "KA01AB1234")
		mats = append(mats, &m)
	}
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()

	rec := ocr.NewMockRecognizer()
	rec.SetFallback("KA01AB1234")

	events := hub.New(16)
	subscription, cancel := events.Subscribe()
	defer cancel()

	application := app.New(app.Config{
		Camera:        capture.NewMockCamera(mats, false),
		Detector:      detector.NewPlateDetector(detector.DefaultConfig(), rec),
		Display:       display.NewMock(0),
		Store:         s,
		Hub:           events,
		Hooks:         dispatcher,
		Interval:      time.Millisecond,
		SaveSnapshots: true,
	})
	defer application.Close()

	srv := server.New(server.Config{
		Store: s,
		Hub:   events,
		OnWatchlistChange: func() {
			if err := application.ReloadWatchlist(); err != nil {
				t.Errorf("ReloadWatchlist() error = %v", err)
			}
		},
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("AddToWatchlist", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/watchlist",
			"application/json",
			strings.NewReader(`{"plate": "KA 01 AB 1234", "label": "stolen"}`),
		)
		if err != nil {
			t.Fatalf("create watchlist entry error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		if application.Matcher().Len() != 1 {
			t.Errorf("matcher entries = %d, want 1", application.Matcher().Len())
		}
	})

	t.Run("RunPipeline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		dispatcher.Wait()

		if last, _ := application.LastPlate(); last != "KA01AB1234" {
			t.Errorf("LastPlate() = %q", last)
		}
	})

	t.Run("ListDetections", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/detections?plate=KA01")
		if err != nil {
			t.Fatalf("list detections error = %v", err)
		}
		defer resp.Body.Close()

		var listed struct {
			Detections []struct {
				ID          string `json:"id"`
				Text        string `json:"text"`
				Watchlisted bool   `json:"watchlisted"`
				HasSnapshot bool   `json:"has_snapshot"`
			} `json:"detections"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
			t.Fatalf("decode error = %v", err)
		}

		if len(listed.Detections) != 2 {
			t.Fatalf("detections = %d, want 2", len(listed.Detections))
		}
		for _, d := range listed.Detections {
			if d.Text != "KA01AB1234" || !d.Watchlisted || !d.HasSnapshot {
				t.Errorf("detection = %+v", d)
			}
		}

		snap, err := client.Get(ts.URL + "/api/detections/" + listed.Detections[0].ID + "/snapshot")
		if err != nil {
			t.Fatalf("snapshot error = %v", err)
		}
		snap.Body.Close()
		if snap.StatusCode != http.StatusOK {
			t.Errorf("snapshot status = %d", snap.StatusCode)
		}
	})

	t.Run("Events", func(t *testing.T) {
		counts := map[string]int{}
	drain:
		for {
			select {
			case e := <-subscription:
				counts[e.Type]++
			default:
				break drain
			}
		}
		if counts[hub.EventPlateDetected] != 2 || counts[hub.EventWatchlistHit] != 2 {
			t.Errorf("event counts = %v, want 2 of each", counts)
		}
		if _, seq := events.Frame(); seq != 2 {
			t.Errorf("streamed frames = %d, want 2", seq)
		}
	})

	t.Run("HooksRan", func(t *testing.T) {
		data, err := os.ReadFile(hookLog)
		if err != nil {
			t.Fatalf("hook output missing: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("hook ran %d times, want 2", len(lines))
		}
		var req plugin.Request
		if err := json.Unmarshal([]byte(lines[0]), &req); err != nil {
			t.Fatalf("bad hook request %q: %v", lines[0], err)
		}
		if req.Event != config.EventWatchlistHit || req.Plate == nil || req.Plate.Match == nil {
			t.Errorf("hook request = %+v", req)
		}
	})
}
