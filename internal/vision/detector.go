// Package vision implements the card geometry and quality pipeline that
// prepares photographed Turkish ID cards for OCR using GoCV (OpenCV).
package vision

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gocv.io/x/gocv"
)

// Canonical card dimensions derived from the ISO/IEC 7810 ID-1 format
// (85.60 x 53.98 mm, aspect ratio ~1.5858), scaled up for OCR quality.
const (
	TargetWidth  = 856
	TargetHeight = 540
)

// Corner detection constants.
const (
	// MinCardAreaRatio is the minimum card area relative to the frame area.
	MinCardAreaRatio = 0.05

	// Canny edge thresholds. Fixed values, not frame-adaptive: a
	// median-based adaptive formula was evaluated during tuning but the
	// fixed pair is what shipped and what downstream thresholds assume.
	cannyLow  = 30
	cannyHigh = 100

	// approxEpsilonRatio is the polygon approximation tolerance as a
	// fraction of the contour perimeter.
	approxEpsilonRatio = 0.02

	// Accepted quadrilateral aspect ratios. ID-1 is ~1.5858 landscape or
	// ~0.63 portrait; the band is deliberately wide to survive skew.
	minAspectRatio = 0.2
	maxAspectRatio = 5.0
)

// CornerResult holds the outcome of card boundary detection.
type CornerResult struct {
	Corners    []image.Point // four corners, only meaningful when Detected
	Confidence float64       // 0-1, grows with covered frame area
	Detected   bool
}

// FindCardCorners locates the card's quadrilateral boundary in a frame.
// It never fails hard: an empty frame, or a frame without a suitable
// quadrilateral, yields Detected=false with zero confidence.
//
// Pipeline: grayscale, 5x5 Gaussian blur, Canny, 3x3 dilate twice to bridge
// gaps in the outline, then every closed contour is filtered down to convex
// quadrilaterals of plausible size and shape. The largest surviving
// quadrilateral wins; confidence saturates once the card fills half the
// frame.
func FindCardCorners(frame *gocv.Mat) CornerResult {
	var result CornerResult

	if frame == nil || frame.Empty() {
		return result
	}

	gray := toGray(*frame)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edged := gocv.NewMat()
	defer edged.Close()
	gocv.Canny(blurred, &edged, cannyLow, cannyHigh)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	gocv.DilateWithParams(edged, &edged, kernel, image.Pt(-1, -1), 2, gocv.BorderConstant, color.RGBA{})

	// RETR_LIST keeps nested contours, which helps on the back side where
	// the MRZ block outline can enclose the card outline.
	contours := gocv.FindContours(edged, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	frameArea := float64(frame.Rows() * frame.Cols())
	minArea := frameArea * MinCardAreaRatio

	var best []image.Point
	bestArea := 0.0

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		area := gocv.ContourArea(contour)
		if area < minArea {
			continue
		}

		peri := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, approxEpsilonRatio*peri, true)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) != 4 || !isConvexQuad(pts) {
			continue
		}

		ratio := aspectRatio(pts)
		if ratio < minAspectRatio || ratio > maxAspectRatio {
			continue
		}

		// Largest quadrilateral wins; ties keep the earlier contour.
		if area > bestArea {
			bestArea = area
			best = pts
			result.Confidence = math.Min(1.0, area/(frameArea*0.5))
		}
	}

	if len(best) == 4 {
		result.Corners = best
		result.Detected = true
	}

	return result
}

// orderCorners relabels four corners as TL, TR, BR, BL: sort by Y to split
// the top and bottom pairs, then sort each pair by X. Everything downstream
// that consumes corners relies on this exact order.
func orderCorners(corners []image.Point) []gocv.Point2f {
	if len(corners) != 4 {
		return nil
	}

	pts := make([]gocv.Point2f, 4)
	for i, p := range corners {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}

	sort.Slice(pts, func(i, j int) bool { return pts[i].Y < pts[j].Y })

	if pts[0].X > pts[1].X {
		pts[0], pts[1] = pts[1], pts[0]
	}
	if pts[2].X > pts[3].X {
		pts[2], pts[3] = pts[3], pts[2]
	}

	return []gocv.Point2f{pts[0], pts[1], pts[3], pts[2]}
}

// edgeLength is the Euclidean distance between two corners.
func edgeLength(a, b gocv.Point2f) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// aspectRatio averages the two width edges and the two height edges of the
// ordered quadrilateral and returns width/height. Degenerate shapes with an
// average height under a pixel score 0.
func aspectRatio(corners []image.Point) float64 {
	ordered := orderCorners(corners)
	if ordered == nil {
		return 0
	}

	avgWidth := (edgeLength(ordered[0], ordered[1]) + edgeLength(ordered[3], ordered[2])) / 2
	avgHeight := (edgeLength(ordered[0], ordered[3]) + edgeLength(ordered[1], ordered[2])) / 2

	if avgHeight < 1 {
		return 0
	}

	return avgWidth / avgHeight
}

// isConvexQuad reports whether four vertices form a convex polygon by
// checking that every consecutive edge pair turns the same way.
func isConvexQuad(pts []image.Point) bool {
	if len(pts) != 4 {
		return false
	}

	sign := 0
	for i := 0; i < 4; i++ {
		a, b, c := pts[i], pts[(i+1)%4], pts[(i+2)%4]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		if cross == 0 {
			continue
		}

		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}

	return sign != 0
}

// toGray converts a frame of any supported channel layout to single-channel
// intensity. The caller owns the returned Mat.
func toGray(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch src.Channels() {
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	case 3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	default:
		src.CopyTo(&gray)
	}
	return gray
}
