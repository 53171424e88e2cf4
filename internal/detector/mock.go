package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns scripted plates in order, then nil.
type MockDetector struct {
	mu     sync.Mutex
	plates []*Plate
	err    error
	calls  int
	closed bool
}

func NewMockDetector(plates ...*Plate) *MockDetector {
	return &MockDetector{plates: plates}
}

// SetError makes every following Detect call fail with err.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockDetector) Detect(frame *gocv.Mat) (*Plate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if i < len(m.plates) {
		return m.plates[i], nil
	}
	return nil, nil
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
