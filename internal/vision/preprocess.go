package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// MRZTopRatio marks where the machine readable zone begins on the canonical
// card: the MRZ occupies the bottom 28%.
const MRZTopRatio = 0.72

// BinarizeForOCR converts an image into a clean black-and-white rendition
// suited to OCR: grayscale, clip-limited histogram equalization to flatten
// hologram shading, non-local-means denoising, Gaussian-weighted adaptive
// threshold, then a median pass against residual speckle. The 1x1 close
// between threshold and median is a placeholder kept for kernel tuning.
//
// An empty input yields an empty output. The caller owns the result.
func BinarizeForOCR(img *gocv.Mat) gocv.Mat {
	if img == nil || img.Empty() {
		return gocv.NewMat()
	}

	gray := toGray(*img)
	defer gray.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(gray, &enhanced)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.FastNlMeansDenoisingWithParams(enhanced, &denoised, 10, 7, 21)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(denoised, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 15, 10)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 1))
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)

	cleaned := gocv.NewMat()
	gocv.MedianBlur(binary, &cleaned, 3)

	return cleaned
}

// ExtractMRZRegion crops the bottom strip of the canonical card and
// binarizes it with a profile lighter than BinarizeForOCR: a 3x3 Gaussian
// blur and a tighter adaptive threshold, with no CLAHE and no denoising.
// Those heavier passes destroy the thin strokes of OCR-B glyphs like '<'.
func ExtractMRZRegion(card *gocv.Mat) gocv.Mat {
	if card == nil || card.Empty() {
		return gocv.NewMat()
	}

	top := int(float64(card.Rows()) * MRZTopRatio)

	region := card.Region(image.Rect(0, top, card.Cols(), card.Rows()))
	defer region.Close()
	crop := region.Clone()
	defer crop.Close()

	return binarizeMRZ(crop)
}

// binarizeMRZ is the MRZ-specific profile shared by ExtractMRZRegion and
// the MRZ field extractor.
func binarizeMRZ(src gocv.Mat) gocv.Mat {
	gray := toGray(src)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 13, 10)

	return binary
}

// EnhanceContrast applies clip-limited histogram equalization (clip 2.0,
// 8x8 tiles) to img in place. The Mat must be single-channel and exclusively
// owned by the caller; this is the one transform in the package that mutates
// its input.
func EnhanceContrast(img *gocv.Mat) {
	if img == nil || img.Empty() {
		return
	}

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	clahe.Apply(*img, img)
}
