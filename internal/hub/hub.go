// Package hub shares pipeline output with HTTP viewers: the latest annotated
// frame for MJPEG streams and a fan-out of detection events.
package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuffer is the per-subscriber event queue length.
const DefaultBuffer = 16

// Event types.
const (
	EventPlateDetected = "plate_detected"
	EventWatchlistHit  = "watchlist_hit"
)

// Event is a pipeline notification delivered to subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Hub holds the latest frame and the event subscribers. It is safe for
// concurrent use.
type Hub struct {
	mu     sync.Mutex
	frame  []byte
	seq    uint64
	notify chan struct{}

	subs    map[int]chan Event
	nextID  int
	buffer  int
	dropped atomic.Uint64
}

// New creates a hub whose subscribers queue up to buffer events.
func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		notify: make(chan struct{}),
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// PublishFrame replaces the latest frame and wakes WaitFrame callers.
// The hub keeps jpeg; callers must not modify it afterwards.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.mu.Lock()
	h.frame = jpeg
	h.seq++
	close(h.notify)
	h.notify = make(chan struct{})
	h.mu.Unlock()
}

// Frame returns the latest frame and its sequence number. The sequence is
// zero before the first frame.
func (h *Hub) Frame() ([]byte, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.seq
}

// WaitFrame blocks until a frame newer than after is available or ctx ends.
func (h *Hub) WaitFrame(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		h.mu.Lock()
		if h.seq > after {
			frame, seq := h.frame, h.seq
			h.mu.Unlock()
			return frame, seq, nil
		}
		notify := h.notify
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-notify:
		}
	}
}

// Subscribe registers a new event subscriber. The returned cancel func
// unregisters it and closes the channel; it may be called more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber without blocking. Subscribers whose
// queue is full miss the event.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
