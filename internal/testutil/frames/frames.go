// Package frames renders synthetic camera frames for tests.
package frames

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Default frame geometry, matching the capture defaults.
const (
	Width  = 320
	Height = 240
)

var (
	background = gocv.NewScalar(60, 60, 60, 0)
	plateFill  = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	ink        = color.RGBA{R: 10, G: 10, B: 10, A: 255}
)

// Blank returns a uniform dark frame.
func Blank() gocv.Mat {
	m := gocv.NewMatWithSize(Height, Width, gocv.MatTypeCV8UC3)
	m.SetTo(background)
	return m
}

// DefaultPlateBox is where Plate draws the plate.
var DefaultPlateBox = image.Rect(90, 90, 230, 150)

// Plate returns a frame with a bright plate at box and text printed on it.
func Plate(box image.Rectangle, text string) gocv.Mat {
	m := Blank()
	DrawPlate(&m, box, text)
	return m
}

// DrawPlate paints a filled plate with a dark border and text onto m.
func DrawPlate(m *gocv.Mat, box image.Rectangle, text string) {
	gocv.Rectangle(m, box, plateFill, -1)
	gocv.Rectangle(m, box, ink, 2)
	if text != "" {
		org := image.Pt(box.Min.X+8, box.Min.Y+box.Dy()/2+8)
		gocv.PutText(m, text, org, gocv.FontHersheySimplex, 0.7, ink, 2)
	}
}

// Disc paints a filled circle, a shape that must never qualify as a plate.
func Disc(m *gocv.Mat, center image.Point, radius int) {
	gocv.Circle(m, center, radius, plateFill, -1)
}

// Encode returns m as JPEG bytes.
func Encode(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, m)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
