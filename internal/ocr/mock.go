package ocr

import (
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// MockRecognizer returns scripted results in order. Once the script is
// exhausted it keeps returning the fallback text.
type MockRecognizer struct {
	mu       sync.Mutex
	texts    []string
	errs     []error
	fallback string
	calls    int
	sizes    []regionSize
	closed   bool
}

type regionSize struct {
	W, H int
}

// NewMockRecognizer creates a recognizer that answers texts in order.
func NewMockRecognizer(texts ...string) *MockRecognizer {
	return &MockRecognizer{texts: texts}
}

// SetFallback sets the text returned after the script runs out.
func (m *MockRecognizer) SetFallback(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = text
}

// SetErrors scripts errors by call index; nil entries succeed.
func (m *MockRecognizer) SetErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
}

func (m *MockRecognizer) Recognize(roi gocv.Mat) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	m.sizes = append(m.sizes, regionSize{W: roi.Cols(), H: roi.Rows()})

	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.texts) {
		return strings.TrimSpace(m.texts[i]), nil
	}
	return strings.TrimSpace(m.fallback), nil
}

// Calls returns the number of Recognize calls.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// RegionSize returns the width and height of the region passed on call i.
func (m *MockRecognizer) RegionSize(i int) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.sizes) {
		return 0, 0
	}
	return m.sizes[i].W, m.sizes[i].H
}

func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
