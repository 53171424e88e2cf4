package plate

import (
	"sync"
	"time"
)

// Tracker suppresses repeated reports of the same plate within a window.
// A zero window reports every sighting.
type Tracker struct {
	window time.Duration
	mu     sync.Mutex
	seen   map[string]time.Time
}

func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// Observe records a sighting of text at now and reports whether it should be
// reported. Sightings inside the window extend it.
func (t *Tracker) Observe(text string, now time.Time) bool {
	key := Normalize(text)
	if t.window <= 0 || key == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.seen[key]
	t.seen[key] = now
	t.prune(now)

	return !ok || now.Sub(last) >= t.window
}

// prune forgets plates not seen for a full window.
func (t *Tracker) prune(now time.Time) {
	for k, last := range t.seen {
		if now.Sub(last) >= t.window {
			delete(t.seen, k)
		}
	}
}
