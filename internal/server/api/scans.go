// Package api provides HTTP API handlers for the ID verification service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"gocv.io/x/gocv"

	"github.com/yekkaplan/tcidverify/internal/scan"
	"github.com/yekkaplan/tcidverify/internal/store"
)

// maxImageBytes caps uploaded frame size at 16 MiB.
const maxImageBytes = 16 << 20

// ScansHandler handles HTTP requests for scan resources.
type ScansHandler struct {
	store   *store.Store
	service *scan.Service
}

// NewScansHandler creates a new ScansHandler with the given store and
// scan service.
func NewScansHandler(s *store.Store, svc *scan.Service) *ScansHandler {
	return &ScansHandler{store: s, service: svc}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ScansHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/scans or /api/scans/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/scans")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type scanResponse struct {
	ID         string            `json:"id"`
	Side       string            `json:"side"`
	Detected   bool              `json:"detected"`
	Confidence float64           `json:"confidence"`
	GlareScore float64           `json:"glare_score"`
	BlurScore  float64           `json:"blur_score"`
	MRZScore   int               `json:"mrz_score"`
	TCKN       string            `json:"tckn,omitempty"`
	TCKNValid  bool              `json:"tckn_valid"`
	Fields     map[string]string `json:"fields,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

type listScansResponse struct {
	Scans []scanResponse `json:"scans"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Scan to a scanResponse.
func toResponse(sc *store.Scan, fields map[string]string) scanResponse {
	return scanResponse{
		ID:         sc.ID,
		Side:       string(sc.Side),
		Detected:   sc.Detected,
		Confidence: sc.Confidence,
		GlareScore: sc.GlareScore,
		BlurScore:  sc.BlurScore,
		MRZScore:   sc.MRZScore,
		TCKN:       sc.TCKN,
		TCKNValid:  sc.TCKNValid,
		Fields:     fields,
		CreatedAt:  sc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// readImage extracts the uploaded image from a request. It accepts either
// a multipart form with an "image" part or a raw image body.
func readImage(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxImageBytes))
	}

	return io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
}

// decodeFrame decodes image bytes into a color Mat.
func decodeFrame(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), errors.New("empty image")
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), err
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.New("could not decode image")
	}
	return mat, nil
}

// list handles GET /api/scans and returns all scans, newest first.
func (h *ScansHandler) list(w http.ResponseWriter, r *http.Request) {
	scans, err := h.store.Scans().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scans")
		return
	}

	response := listScansResponse{
		Scans: make([]scanResponse, 0, len(scans)),
	}

	for _, sc := range scans {
		response.Scans = append(response.Scans, toResponse(sc, nil))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/scans/{id} and returns one scan with its
// recognized fields.
func (h *ScansHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sc, err := h.store.Scans().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get scan")
		return
	}

	fields, err := h.store.Scans().Fields(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scan fields")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(sc, fields))
}

// create handles POST /api/scans: decode the uploaded frame, run the full
// processing pipeline and persist the result. The card side defaults to
// front and can be overridden with the "side" query parameter.
func (h *ScansHandler) create(w http.ResponseWriter, r *http.Request) {
	side := store.SideFront
	switch r.URL.Query().Get("side") {
	case "", "front":
	case "back":
		side = store.SideBack
	default:
		writeError(w, http.StatusBadRequest, "Invalid side, expected front or back")
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

	result, err := h.service.ProcessFrame(&frame, side)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process frame")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(result.Scan, result.Fields))
}

// delete handles DELETE /api/scans/{id} and removes a scan.
func (h *ScansHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Scans().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete scan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
