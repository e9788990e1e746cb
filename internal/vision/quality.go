package vision

import (
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// Quality gating constants.
const (
	// GlareThreshold is the maximum acceptable glare ratio for a usable
	// frame.
	GlareThreshold = 0.30

	// glareBrightness is the grayscale level above which a pixel counts as
	// glare.
	glareBrightness = 240

	// blurScale maps raw Laplacian variance onto the 0-100 score range.
	blurScale = 20.0
)

// stabilitySize is the common comparison size used when the two frames
// differ in dimensions. Small on purpose: stability only needs gross motion.
var stabilitySize = image.Pt(200, 126)

// DetectGlare returns the fraction of near-saturated pixels in the image,
// in [0,1]. Lower is better. An empty or nil image scores 1.0, the worst
// case, so failed inputs never pass a glare gate.
func DetectGlare(img *gocv.Mat) float64 {
	if img == nil || img.Empty() {
		return 1.0
	}

	gray := toGray(*img)
	defer gray.Close()

	bright := gocv.NewMat()
	defer bright.Close()
	gocv.Threshold(gray, &bright, glareBrightness, 255, gocv.ThresholdBinary)

	total := gray.Rows() * gray.Cols()
	return float64(gocv.CountNonZero(bright)) / float64(total)
}

// DetectGlareRegion measures glare inside one normalized rectangle of the
// card, such as HologramZone where reflections concentrate.
func DetectGlareRegion(card *gocv.Mat, def RegionDefinition) float64 {
	if card == nil || card.Empty() {
		return 1.0
	}

	region := card.Region(regionRect(def, card.Cols(), card.Rows()))
	defer region.Close()
	crop := region.Clone()
	defer crop.Close()

	return DetectGlare(&crop)
}

// BlurScore scores sharpness as the variance of the Laplacian, scaled by 20
// and clamped to [0,100]. Higher means sharper; well-focused card photos
// land near the top of the range, defocused ones near zero. Empty input
// scores 0.
func BlurScore(img *gocv.Mat) float64 {
	if img == nil || img.Empty() {
		return 0
	}

	gray := toGray(*img)
	defer gray.Close()

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	// Var(X) = E[X^2] - E[X]^2 over the Laplacian response.
	sq := gocv.NewMat()
	defer sq.Close()
	gocv.Multiply(lap, lap, &sq)

	mean := lap.Mean().Val1
	variance := sq.Mean().Val1 - mean*mean

	return math.Min(100, variance*blurScale)
}

// Stability compares two frames and returns 1 minus the mean absolute
// grayscale difference normalized by 255: 1.0 for identical content, 0.0
// for a full black-to-white flip. Frames of different dimensions are first
// resized to a small common size. The mean difference of 8-bit grays cannot
// exceed 255, so the result is always within [0,1]. Missing frames score 0.
func Stability(current, previous *gocv.Mat) float64 {
	if current == nil || previous == nil || current.Empty() || previous.Empty() {
		return 0
	}

	curr := gocv.NewMat()
	defer curr.Close()
	prev := gocv.NewMat()
	defer prev.Close()

	if current.Cols() != previous.Cols() || current.Rows() != previous.Rows() {
		gocv.Resize(*current, &curr, stabilitySize, 0, 0, gocv.InterpolationLinear)
		gocv.Resize(*previous, &prev, stabilitySize, 0, 0, gocv.InterpolationLinear)
	} else {
		current.CopyTo(&curr)
		previous.CopyTo(&prev)
	}

	currGray := toGray(curr)
	defer currGray.Close()
	prevGray := toGray(prev)
	defer prevGray.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(currGray, prevGray, &diff)

	return 1.0 - diff.Mean().Val1/255.0
}

// StabilityTracker scores how still the scene is across consecutive frames.
// It keeps a copy of the previous frame internally so capture loops only
// have to feed it the current one. Safe for concurrent use.
type StabilityTracker struct {
	prev        gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewStabilityTracker creates a tracker with no baseline frame.
func NewStabilityTracker() *StabilityTracker {
	return &StabilityTracker{prev: gocv.NewMat()}
}

// Update scores the frame against the previous one and stores a copy as the
// new baseline. The first frame scores 0, since there is nothing to compare
// against yet.
func (t *StabilityTracker) Update(frame *gocv.Mat) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0
	}

	if !t.initialized {
		frame.CopyTo(&t.prev)
		t.initialized = true
		return 0
	}

	score := Stability(frame, &t.prev)
	frame.CopyTo(&t.prev)
	return score
}

// Reset clears the baseline so the next Update starts a fresh comparison.
func (t *StabilityTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.prev.Empty() {
		t.prev.Close()
		t.prev = gocv.NewMat()
	}
	t.initialized = false
}

// Close releases the tracker's resources.
func (t *StabilityTracker) Close() {
	t.Reset()
}
