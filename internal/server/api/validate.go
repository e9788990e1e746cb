package api

import (
	"encoding/json"
	"net/http"

	"github.com/yekkaplan/tcidverify/internal/mrz"
)

// ValidateHandler handles MRZ and TCKN validation requests. It is
// stateless; nothing is persisted.
type ValidateHandler struct{}

// NewValidateHandler creates a new ValidateHandler.
func NewValidateHandler() *ValidateHandler {
	return &ValidateHandler{}
}

type validateMRZRequest struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Line3 string `json:"line3"`
}

type validateMRZResponse struct {
	Total          int    `json:"total"`
	DocNumberValid bool   `json:"doc_number_valid"`
	BirthDateValid bool   `json:"birth_date_valid"`
	ExpiryValid    bool   `json:"expiry_valid"`
	CompositeValid bool   `json:"composite_valid"`
	TCKN           string `json:"tckn,omitempty"`
	CorrectedLine1 string `json:"corrected_line1"`
	CorrectedLine2 string `json:"corrected_line2"`
	CorrectedLine3 string `json:"corrected_line3"`
}

type validateTCKNRequest struct {
	TCKN string `json:"tckn"`
}

type validateTCKNResponse struct {
	TCKN  string `json:"tckn"`
	Valid bool   `json:"valid"`
}

// HandleMRZ handles POST /api/mrz/validate: score three raw MRZ lines.
func (h *ValidateHandler) HandleMRZ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validateMRZRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	score := mrz.ValidateWithScore(req.Line1, req.Line2, req.Line3)

	writeJSON(w, http.StatusOK, validateMRZResponse{
		Total:          score.Total,
		DocNumberValid: score.DocNumberValid,
		BirthDateValid: score.BirthDateValid,
		ExpiryValid:    score.ExpiryValid,
		CompositeValid: score.CompositeValid,
		TCKN:           score.TCKN,
		CorrectedLine1: score.CorrectedLine1,
		CorrectedLine2: score.CorrectedLine2,
		CorrectedLine3: score.CorrectedLine3,
	})
}

// HandleTCKN handles POST /api/tckn/validate: check one national ID number.
func (h *ValidateHandler) HandleTCKN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validateTCKNRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TCKN == "" {
		writeError(w, http.StatusBadRequest, "TCKN is required")
		return
	}

	writeJSON(w, http.StatusOK, validateTCKNResponse{
		TCKN:  req.TCKN,
		Valid: mrz.ValidateTCKN(req.TCKN),
	})
}
