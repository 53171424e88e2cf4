// Command plate-log is a hook plugin that appends plate readings to a file.
//
// Config:
//
//	file   - log path, relative to the plugin directory (default plates.log)
//	format - "text" (tab separated) or "json" (one object per line)
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/platescan/internal/plugin"
)

const defaultFile = "plates.log"

type logConfig struct {
	File   string `json:"file"`
	Format string `json:"format"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	writeResponse(handle(&req))
}

func handle(req *plugin.Request) error {
	if req.Action != "append" {
		return fmt.Errorf("unknown action: %s", req.Action)
	}
	if req.Plate == nil {
		return errors.New("request has no plate")
	}

	cfg := logConfig{File: defaultFile, Format: "text"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(cfg.File), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeEntry(f, cfg.Format, req.Event, req.Plate)
}

func writeEntry(w io.Writer, format, event string, p *plugin.PlateEvent) error {
	switch format {
	case "json":
		return json.NewEncoder(w).Encode(struct {
			Event string `json:"event"`
			*plugin.PlateEvent
		}{event, p})
	case "", "text":
		label := ""
		if p.Match != nil {
			label = p.Match.Label
		}
		fields := []string{
			p.DetectedAt.Format(time.RFC3339),
			event,
			p.Text,
			p.Normalized,
			label,
		}
		_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
