package display

import (
	"context"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Mock records shown frames and requests quit after a number of waits.
type Mock struct {
	mu        sync.Mutex
	quitAfter int
	shown     int
	waits     int
	closed    bool
}

// NewMock returns a display that quits on the quitAfter-th WaitKey call.
// Zero never quits.
func NewMock(quitAfter int) *Mock {
	return &Mock{quitAfter: quitAfter}
}

func (m *Mock) Show(frame gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown++
}

func (m *Mock) WaitKey(ctx context.Context, d time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits++
	if ctx.Err() != nil {
		return true
	}
	return m.quitAfter > 0 && m.waits >= m.quitAfter
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Shown returns how many frames were shown.
func (m *Mock) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

// Waits returns how many times WaitKey was called.
func (m *Mock) Waits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waits
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
