// Package tray provides the system tray interface for platescan.
package tray

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"
)

// Tray is the system tray menu: a detection toggle, the last plate read,
// a link to the live view and quit.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	onReady    func()
	enabled    bool
	mu         sync.RWMutex

	menuToggle    *systray.MenuItem
	menuLastPlate *systray.MenuItem
}

// New creates a Tray with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the handler for "Open Live View...". Without one the item
// is disabled.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnReady sets a function run once the tray loop is up. Quit is safe to call
// from then on.
func (t *Tray) OnReady(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// Run shows the tray icon and blocks until Quit. It must be called from the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("platescan")
	systray.SetTooltip("platescan license plate detection")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle plate detection")
	systray.AddSeparator()

	t.menuLastPlate = systray.AddMenuItem(lastTitle("", time.Time{}, time.Now()), "Last detected plate")
	t.menuLastPlate.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Live View...", "Open the live view in a browser")
	if t.onSettings == nil {
		menuSettings.Disable()
	}
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit platescan")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	t.handleReady()
}

func (t *Tray) handleReady() {
	t.mu.RLock()
	callback := t.onReady
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastPlate updates the "Last:" menu item.
func (t *Tray) SetLastPlate(text string, at time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastPlate != nil {
		t.menuLastPlate.SetTitle(lastTitle(text, at, time.Now()))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(text string, at, now time.Time) string {
	if text == "" {
		return "Last: none"
	}
	if at.IsZero() {
		return "Last: " + text
	}
	return "Last: " + text + " (" + humanize.RelTime(at, now, "ago", "from now") + ")"
}
