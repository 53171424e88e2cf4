// Package detector finds license plates in video frames by contour analysis
// and reads them with OCR.
package detector

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when Detect is given no image data.
var ErrEmptyFrame = errors.New("detector: empty frame")

// Plate is a recognized plate and its bounding box in frame coordinates.
type Plate struct {
	Text string
	Box  image.Rectangle
}

// Detector finds at most one plate per frame.
type Detector interface {
	// Detect returns the first plate found in frame, or nil if none.
	Detect(frame *gocv.Mat) (*Plate, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds the contour pipeline parameters.
type Config struct {
	// BilateralDiameter is the pixel neighbourhood of the bilateral filter.
	BilateralDiameter int
	// BilateralSigmaColor and BilateralSigmaSpace tune how strongly the
	// filter smooths across intensity and distance.
	BilateralSigmaColor float64
	BilateralSigmaSpace float64

	// CannyLow and CannyHigh are the hysteresis thresholds.
	CannyLow  float32
	CannyHigh float32

	// EpsilonFactor scales the contour perimeter into the polygon
	// approximation tolerance.
	EpsilonFactor float64

	// MinWidth and MinHeight are exclusive lower bounds on the bounding box.
	MinWidth  int
	MinHeight int
}

// DefaultConfig returns the parameters tuned for 320x240 frames.
func DefaultConfig() Config {
	return Config{
		BilateralDiameter:   11,
		BilateralSigmaColor: 17,
		BilateralSigmaSpace: 17,
		CannyLow:            30,
		CannyHigh:           200,
		EpsilonFactor:       0.018,
		MinWidth:            60,
		MinHeight:           40,
	}
}
