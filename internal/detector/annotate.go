package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	boxColor   = color.RGBA{G: 255, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	boxThickness   = 2
	labelScale     = 0.5
	labelThickness = 1
	labelOffset    = 10
)

// Annotate draws the plate box and its text onto frame. The label sits just
// above the box and is clamped to the top edge of the frame.
func Annotate(frame *gocv.Mat, p *Plate) {
	if frame == nil || frame.Empty() || p == nil {
		return
	}

	gocv.Rectangle(frame, p.Box, boxColor, boxThickness)
	size := gocv.GetTextSize(p.Text, gocv.FontHersheySimplex, labelScale, labelThickness)
	gocv.PutText(frame, p.Text, labelOrigin(p.Box, size.Y), gocv.FontHersheySimplex, labelScale, labelColor, labelThickness)
}

// labelOrigin is the text baseline origin for box. textHeight keeps the glyphs
// inside the frame when the box is near the top.
func labelOrigin(box image.Rectangle, textHeight int) image.Point {
	return image.Pt(box.Min.X, max(box.Min.Y-labelOffset, textHeight))
}
