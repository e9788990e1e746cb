package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// ExtractRegion crops the named field from the canonical card and applies
// its preprocessing profile. PHOTO comes back untouched since it feeds face
// matching rather than OCR; MRZ gets the light MRZ profile; every other
// field goes through region-specific binarization driven by its definition.
//
// The pixel rectangle is clamped to lie fully inside the card, with a
// minimum size of one pixel. An empty card yields an empty Mat. The caller
// owns the result.
func ExtractRegion(card *gocv.Mat, field FieldType, isBackSide bool) gocv.Mat {
	if card == nil || card.Empty() {
		return gocv.NewMat()
	}

	def := lookupRegion(field, isBackSide)
	rect := regionRect(def, card.Cols(), card.Rows())

	region := card.Region(rect)
	defer region.Close()
	crop := region.Clone()

	switch field {
	case FieldPhoto:
		return crop
	case FieldMRZ:
		defer crop.Close()
		return binarizeMRZ(crop)
	default:
		defer crop.Close()
		return binarizeRegion(crop, def)
	}
}

// ExtractZone crops one auxiliary rectangle, such as an individual MRZ
// line strip, from the canonical card and binarizes it with the generic
// region profile. The caller owns the result.
func ExtractZone(card *gocv.Mat, def RegionDefinition) gocv.Mat {
	if card == nil || card.Empty() {
		return gocv.NewMat()
	}

	region := card.Region(regionRect(def, card.Cols(), card.Rows()))
	defer region.Close()
	crop := region.Clone()
	defer crop.Close()

	return binarizeRegion(crop, def)
}

// regionRect converts a normalized definition into a pixel rectangle
// clamped inside a cols x rows image.
func regionRect(def RegionDefinition, cols, rows int) image.Rectangle {
	x := clampInt(int(def.X*float64(cols)), 0, cols-1)
	y := clampInt(int(def.Y*float64(rows)), 0, rows-1)
	w := clampInt(int(def.Width*float64(cols)), 1, cols-x)
	h := clampInt(int(def.Height*float64(rows)), 1, rows-y)
	return image.Rect(x, y, x+w, y+h)
}

// binarizeRegion applies the generic field profile: grayscale, aggressive
// CLAHE, optional inversion for dark-on-light print, then either the
// region's adaptive threshold or a global Otsu threshold when no block size
// is specified.
func binarizeRegion(src gocv.Mat, def RegionDefinition) gocv.Mat {
	gray := toGray(src)
	defer gray.Close()

	clahe := gocv.NewCLAHEWithParams(3.0, image.Pt(4, 4))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(gray, &enhanced)

	if def.Invert {
		gocv.BitwiseNot(enhanced, &enhanced)
	}

	binary := gocv.NewMat()
	if def.BlockSize > 0 {
		blockSize := def.BlockSize
		if blockSize%2 == 0 {
			blockSize++
		}
		if blockSize < 3 {
			blockSize = 3
		}
		gocv.AdaptiveThreshold(enhanced, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, blockSize, float32(def.ConstantC))
	} else {
		gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 1))
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)

	return binary
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
