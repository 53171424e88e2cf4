package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/platescan/internal/config"
	"github.com/rs/zerolog/log"
)

// Hook binds a plugin action to a pipeline event.
type Hook struct {
	Plugin  string
	Action  string
	Event   string
	Timeout time.Duration
	Config  json.RawMessage
}

// HooksFromConfig converts the [[hooks]] tables of the configuration.
func HooksFromConfig(cfgs []config.HookConfig) ([]Hook, error) {
	hooks := make([]Hook, 0, len(cfgs))
	for i, c := range cfgs {
		h := Hook{
			Plugin:  c.Plugin,
			Action:  c.Action,
			Event:   c.Event,
			Timeout: c.Timeout.Duration,
		}
		if len(c.Config) > 0 {
			raw, err := json.Marshal(c.Config)
			if err != nil {
				return nil, fmt.Errorf("hooks[%d] config: %w", i, err)
			}
			h.Config = raw
		}
		hooks = append(hooks, h)
	}
	return hooks, nil
}

// Dispatcher runs the hooks bound to an event. Runs happen in the
// background so a slow plugin never delays frame processing.
type Dispatcher struct {
	manager *Manager
	hooks   []Hook
	wg      sync.WaitGroup
}

func NewDispatcher(manager *Manager, hooks []Hook) *Dispatcher {
	return &Dispatcher{
		manager: manager,
		hooks:   hooks,
	}
}

// Hooks returns the configured hooks.
func (d *Dispatcher) Hooks() []Hook {
	return d.hooks
}

// Fire starts every hook registered for event and returns how many were
// started. Failures are logged. Cancelling ctx after Fire returns does not
// stop hooks already started; each run is bounded by its hook timeout, and
// Wait blocks until they finish.
func (d *Dispatcher) Fire(ctx context.Context, event string, plate *PlateEvent) int {
	ctx = context.WithoutCancel(ctx)
	started := 0
	for _, h := range d.hooks {
		if h.Event != event {
			continue
		}

		p, err := d.manager.Get(h.Plugin)
		if err != nil {
			log.Warn().Str("plugin", h.Plugin).Str("event", event).Msg("hook plugin not installed")
			continue
		}
		if !p.Manifest.HasAction(h.Action) {
			log.Warn().Str("plugin", h.Plugin).Str("action", h.Action).Msg("hook action not declared by plugin")
			continue
		}

		req := &Request{
			Action: h.Action,
			Event:  event,
			Plate:  plate,
			Config: h.Config,
		}

		started++
		d.wg.Add(1)
		go func(h Hook) {
			defer d.wg.Done()
			d.run(ctx, h, p, req)
		}(h)
	}
	return started
}

func (d *Dispatcher) run(ctx context.Context, h Hook, p *Plugin, req *Request) {
	start := time.Now()
	resp, err := NewExecutor(h.Timeout).Execute(ctx, p, req)
	logger := log.With().
		Str("plugin", h.Plugin).
		Str("action", h.Action).
		Str("event", h.Event).
		Dur("took", time.Since(start)).
		Logger()

	switch {
	case err != nil:
		logger.Error().Err(err).Msg("hook failed")
	case !resp.Success:
		logger.Warn().Str("error", resp.Error).Msg("hook reported failure")
	default:
		logger.Debug().Msg("hook completed")
	}
}

// Wait blocks until every started hook has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
