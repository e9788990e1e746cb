package vision

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// WarpToCanonical rectifies the card quadrilateral to the canonical ID-1
// rectangle. Landscape cards map to 856x540; when the quadrilateral is
// taller than wide the target dimensions are swapped to 540x856 so portrait
// captures keep their orientation instead of being squeezed sideways. The
// destination corner order is always TL, TR, BR, BL of the (possibly
// swapped) target.
//
// Returns an empty Mat when the frame is empty or corners does not hold
// exactly four points. The warp copies pixels; the result is owned by the
// caller independently of the source frame.
func WarpToCanonical(frame *gocv.Mat, corners []image.Point) gocv.Mat {
	if frame == nil || frame.Empty() || len(corners) != 4 {
		return gocv.NewMat()
	}

	ordered := orderCorners(corners)

	widthTop := edgeLength(ordered[0], ordered[1])
	widthBottom := edgeLength(ordered[3], ordered[2])
	heightLeft := edgeLength(ordered[0], ordered[3])
	heightRight := edgeLength(ordered[1], ordered[2])

	maxWidth := math.Max(widthTop, widthBottom)
	maxHeight := math.Max(heightLeft, heightRight)

	dstWidth, dstHeight := TargetWidth, TargetHeight
	if maxHeight > maxWidth {
		dstWidth, dstHeight = TargetHeight, TargetWidth
	}

	src := gocv.NewPoint2fVectorFromPoints(ordered)
	defer src.Close()

	dst := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(dstWidth - 1), Y: 0},
		{X: float32(dstWidth - 1), Y: float32(dstHeight - 1)},
		{X: 0, Y: float32(dstHeight - 1)},
	})
	defer dst.Close()

	m := gocv.GetPerspectiveTransform2f(src, dst)
	defer m.Close()

	warped := gocv.NewMat()
	gocv.WarpPerspectiveWithParams(*frame, &warped, m, image.Pt(dstWidth, dstHeight),
		gocv.InterpolationCubic, gocv.BorderConstant, color.RGBA{})

	return warped
}
