// Package plugin discovers and runs external hook executables that react to
// plate detections.
package plugin

import (
	"encoding/json"
	"time"
)

// Manifest is the plugin.json file found in each plugin directory.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// HasAction reports whether the manifest declares action. A manifest without
// actions accepts any.
func (m Manifest) HasAction(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Box is a plate bounding box in frame pixels.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WatchMatch describes the watchlist entry a reading matched.
type WatchMatch struct {
	Plate    string `json:"plate"`
	Label    string `json:"label,omitempty"`
	Distance int    `json:"distance"`
}

// PlateEvent is the detection a hook is invoked for.
type PlateEvent struct {
	DetectionID string      `json:"detection_id,omitempty"`
	Text        string      `json:"text"`
	Normalized  string      `json:"normalized"`
	Box         Box         `json:"box"`
	DetectedAt  time.Time   `json:"detected_at"`
	Match       *WatchMatch `json:"match,omitempty"`
}

// Request is written as JSON to the plugin's stdin.
type Request struct {
	Action string          `json:"action"`
	Event  string          `json:"event"`
	Plate  *PlateEvent     `json:"plate,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is read as JSON from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
