// Package display shows annotated frames and paces the capture loop.
package display

import (
	"context"
	"time"

	"gocv.io/x/gocv"
)

// DefaultTitle is the window title.
const DefaultTitle = "License Plate Detection"

// Keys that end the capture loop.
const (
	KeyQuit   = 'q'
	KeyEscape = 27
)

// Display presents frames and waits between them.
type Display interface {
	// Show presents frame. The display must not retain it.
	Show(frame gocv.Mat)
	// WaitKey waits up to d and reports whether the user asked to quit.
	WaitKey(ctx context.Context, d time.Duration) bool
	Close() error
}

// Window shows frames in a HighGUI window. Like every HighGUI call it must
// be used from the main goroutine.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	if title == "" {
		title = DefaultTitle
	}
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame gocv.Mat) {
	if frame.Empty() {
		return
	}
	w.win.IMShow(frame)
}

// WaitKey pumps window events for d. HighGUI has no way to be interrupted,
// so ctx is only checked before waiting.
func (w *Window) WaitKey(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return true
	}
	return isQuitKey(w.win.WaitKey(waitMillis(d)))
}

func (w *Window) Close() error {
	return w.win.Close()
}

func waitMillis(d time.Duration) int {
	// WaitKey(0) blocks until a key press.
	return max(int(d.Milliseconds()), 1)
}

func isQuitKey(key int) bool {
	if key < 0 {
		return false
	}
	switch key & 0xff {
	case KeyQuit, 'Q', KeyEscape:
		return true
	}
	return false
}

// Headless paces the loop without a window.
type Headless struct{}

func NewHeadless() *Headless {
	return &Headless{}
}

func (Headless) Show(gocv.Mat) {}

// WaitKey sleeps for d and returns true only when ctx ends first.
func (Headless) WaitKey(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() != nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

func (Headless) Close() error { return nil }
