package vision

import "gocv.io/x/gocv"

// ProcessedFrame bundles everything a single pipeline pass produces. The
// Mats are owned by the ProcessedFrame; call Close when done with it. On
// failure the images are empty, Detected is false and GlareScore is 1.0,
// the conservative worst case.
type ProcessedFrame struct {
	Detected   bool
	Confidence float64
	GlareScore float64
	Normalized gocv.Mat
	Binarized  gocv.Mat
	MRZRegion  gocv.Mat
	CardWidth  int
	CardHeight int
}

// Close releases the Mats held by the frame.
func (p *ProcessedFrame) Close() {
	p.Normalized.Close()
	p.Binarized.Close()
	p.MRZRegion.Close()
}

// ProcessForOCR runs the full pipeline over a raw camera frame: corner
// detection, glare measurement, perspective normalization, binarization and
// MRZ extraction. Each stage degrades softly; no input can make it fail
// hard. The caller owns the returned frame and its images.
func ProcessForOCR(frame *gocv.Mat) ProcessedFrame {
	result := ProcessedFrame{
		GlareScore: 1.0,
		Normalized: gocv.NewMat(),
		Binarized:  gocv.NewMat(),
		MRZRegion:  gocv.NewMat(),
	}

	if frame == nil || frame.Empty() {
		return result
	}

	corners := FindCardCorners(frame)
	if !corners.Detected {
		return result
	}

	result.Detected = true
	result.Confidence = corners.Confidence
	result.GlareScore = DetectGlare(frame)

	warped := WarpToCanonical(frame, corners.Corners)
	if warped.Empty() {
		warped.Close()
		result.Detected = false
		return result
	}

	result.Normalized.Close()
	result.Normalized = warped
	result.CardWidth = warped.Cols()
	result.CardHeight = warped.Rows()

	result.Binarized.Close()
	result.Binarized = BinarizeForOCR(&result.Normalized)

	result.MRZRegion.Close()
	result.MRZRegion = ExtractMRZRegion(&result.Normalized)

	return result
}
