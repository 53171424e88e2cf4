package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// quadCorners is the vertex count of a plate-like polygon.
const quadCorners = 4

// EdgeMap returns the Canny edge image of frame after grayscale conversion
// and bilateral filtering. The caller owns the returned Mat.
func EdgeMap(frame gocv.Mat, cfg Config) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(gray, &smooth, cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)

	edges := gocv.NewMat()
	gocv.Canny(smooth, &edges, cfg.CannyLow, cfg.CannyHigh)
	return edges
}

// FindCandidates returns the bounding boxes of quadrilateral contours larger
// than the configured minimum, in contour order.
func FindCandidates(frame gocv.Mat, cfg Config) []image.Rectangle {
	if frame.Empty() {
		return nil
	}

	edges := EdgeMap(frame, cfg)
	defer edges.Close()

	contours := gocv.FindContours(edges, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())

	var boxes []image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if !isQuad(c, cfg.EpsilonFactor) {
			continue
		}

		box := gocv.BoundingRect(c).Intersect(bounds)
		if box.Dx() > cfg.MinWidth && box.Dy() > cfg.MinHeight {
			boxes = append(boxes, box)
		}
	}

	return boxes
}

// isQuad reports whether c simplifies to a four-corner polygon.
func isQuad(c gocv.PointVector, epsilonFactor float64) bool {
	if c.Size() < quadCorners {
		return false
	}
	approx := gocv.ApproxPolyDP(c, epsilonFactor*gocv.ArcLength(c, true), true)
	defer approx.Close()
	return approx.Size() == quadCorners
}
