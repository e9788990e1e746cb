package api

import (
	"io"
	"net/http"

	"gocv.io/x/gocv"

	"github.com/yekkaplan/tcidverify/internal/vision"
)

// QualityHandler scores uploaded frames without persisting anything.
// Clients use it to decide whether a frame is worth submitting as a scan.
type QualityHandler struct{}

// NewQualityHandler creates a new QualityHandler.
func NewQualityHandler() *QualityHandler {
	return &QualityHandler{}
}

type qualityResponse struct {
	Detected   bool     `json:"detected"`
	Confidence float64  `json:"confidence"`
	GlareScore float64  `json:"glare_score"`
	BlurScore  float64  `json:"blur_score"`
	Stability  *float64 `json:"stability,omitempty"`
	Usable     bool     `json:"usable"`
}

// ServeHTTP handles POST /api/quality: decode the frame, detect the card
// and report glare and sharpness. A multipart upload may carry a "previous"
// part holding the prior frame; when present the response also includes the
// stability score between the two. A frame is usable when a card was found
// and glare stays under the gating threshold.
func (h *QualityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := readImage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	frame, err := decodeFrame(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image data")
		return
	}
	defer frame.Close()

	pf := vision.ProcessForOCR(&frame)
	defer pf.Close()

	resp := qualityResponse{
		Detected:   pf.Detected,
		Confidence: pf.Confidence,
		GlareScore: pf.GlareScore,
	}
	if pf.Detected {
		resp.BlurScore = vision.BlurScore(&pf.Normalized)
	}

	if prev, ok := readPreviousFrame(r); ok {
		defer prev.Close()
		stability := vision.Stability(&frame, &prev)
		resp.Stability = &stability
	}

	resp.Usable = pf.Detected && pf.GlareScore <= vision.GlareThreshold

	writeJSON(w, http.StatusOK, resp)
}

// readPreviousFrame decodes the optional "previous" multipart part.
func readPreviousFrame(r *http.Request) (gocv.Mat, bool) {
	if r.MultipartForm == nil {
		return gocv.Mat{}, false
	}

	file, _, err := r.FormFile("previous")
	if err != nil {
		return gocv.Mat{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return gocv.Mat{}, false
	}

	prev, err := decodeFrame(data)
	if err != nil {
		prev.Close()
		return gocv.Mat{}, false
	}

	return prev, true
}
