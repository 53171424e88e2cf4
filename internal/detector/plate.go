package detector

import (
	"image"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/platescan/internal/ocr"
)

// PlateDetector locates quadrilateral candidates and reads them with OCR,
// stopping at the first candidate that yields text.
type PlateDetector struct {
	config     Config
	recognizer ocr.Recognizer
}

// NewPlateDetector creates a detector that reads candidates with rec.
func NewPlateDetector(config Config, rec ocr.Recognizer) *PlateDetector {
	return &PlateDetector{
		config:     config,
		recognizer: rec,
	}
}

func (d *PlateDetector) Detect(frame *gocv.Mat) (*Plate, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	for _, box := range FindCandidates(*frame, d.config) {
		text, err := d.read(*frame, box)
		if err != nil {
			log.Warn().Err(err).Str("box", box.String()).Msg("OCR failed on candidate")
			continue
		}
		if text == "" {
			continue
		}
		return &Plate{Text: text, Box: box}, nil
	}

	return nil, nil
}

func (d *PlateDetector) read(frame gocv.Mat, box image.Rectangle) (string, error) {
	region := frame.Region(box)
	defer region.Close()

	// Region shares memory with frame; OCR needs a contiguous copy.
	roi := region.Clone()
	defer roi.Close()

	return d.recognizer.Recognize(roi)
}

// Close closes the recognizer.
func (d *PlateDetector) Close() error {
	if d.recognizer == nil {
		return nil
	}
	return d.recognizer.Close()
}
