// Package ocr extracts text from plate regions.
package ocr

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when asked to recognize an empty region.
var ErrEmptyImage = errors.New("ocr: empty image")

// Recognizer turns an image region into text.
type Recognizer interface {
	// Recognize returns the whitespace-trimmed text found in roi.
	Recognize(roi gocv.Mat) (string, error)
	Close() error
}

// Options configures the Tesseract recognizer.
type Options struct {
	// Language is the Tesseract language code, "eng" by default.
	Language string
	// PageSegMode is the Tesseract page segmentation mode. 7 treats the
	// region as a single text line, which suits plates.
	PageSegMode int
	// Whitelist restricts recognized characters when non-empty.
	Whitelist string
	// TessdataPrefix overrides the tessdata directory.
	TessdataPrefix string
	// MinHeight upscales regions shorter than this many pixels before OCR.
	// Zero disables upscaling.
	MinHeight int
}

// DefaultOptions returns single-line English recognition.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		PageSegMode: 7,
	}
}
