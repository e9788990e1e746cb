package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/yekkaplan/tcidverify/internal/scan"
	"github.com/yekkaplan/tcidverify/internal/store"
)

// newTestServer builds a server over a temp store with no camera and no
// OCR engine.
func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := New(Config{
		Store:   st,
		Service: scan.NewService(st, nil),
	})

	return srv, st
}

// encodeCardPNG returns PNG bytes of a frame holding a detectable card.
func encodeCardPNG(t *testing.T) []byte {
	t.Helper()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(80, 80, 560, 400), color.RGBA{R: 255, G: 255, B: 255}, -1)

	buf, err := gocv.IMEncode(".png", frame)
	if err != nil {
		t.Fatalf("IMEncode: %v", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}

	req = httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", w.Code)
	}
}

func TestListScansEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Scans []json.RawMessage `json:"scans"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Scans) != 0 {
		t.Errorf("got %d scans, want 0", len(resp.Scans))
	}
}

func TestGetScanNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scans/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateScan(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping GoCV test in short mode")
	}

	srv, st := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scans?side=front", bytes.NewReader(encodeCardPNG(t)))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID       string `json:"id"`
		Side     string `json:"side"`
		Detected bool   `json:"detected"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Detected {
		t.Error("card in uploaded frame should be detected")
	}
	if resp.Side != "front" {
		t.Errorf("side = %q, want front", resp.Side)
	}

	if _, err := st.Scans().GetByID(resp.ID); err != nil {
		t.Errorf("created scan not persisted: %v", err)
	}
}

func TestCreateScanInvalidImage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping GoCV test in short mode")
	}

	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scans", strings.NewReader("not an image"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateScanInvalidSide(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scans?side=left", strings.NewReader("x"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDeleteScan(t *testing.T) {
	srv, st := newTestServer(t)

	sc := &store.Scan{ID: uuid.New().String(), Side: store.SideFront}
	if err := st.Scans().Create(sc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/scans/"+sc.ID, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/scans/"+sc.ID, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestValidateMRZEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{
		"line1": "I<TUR1234567897<12345678950<<<",
		"line2": "8501019M3001019TUR<<<<<<<<<<<4",
		"line3": "YILMAZ<<MEHMET<<<<<<<<<<<<<<<<"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/mrz/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Total          int    `json:"total"`
		CompositeValid bool   `json:"composite_valid"`
		TCKN           string `json:"tckn"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 60 {
		t.Errorf("total = %d, want 60", resp.Total)
	}
	if !resp.CompositeValid {
		t.Error("composite check digit should be valid")
	}
	if resp.TCKN != "12345678950" {
		t.Errorf("tckn = %q, want 12345678950", resp.TCKN)
	}
}

func TestValidateMRZBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/mrz/validate", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/mrz/validate", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
}

func TestValidateTCKNEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		status    int
		wantValid bool
	}{
		{"valid number", `{"tckn":"12345678950"}`, http.StatusOK, true},
		{"invalid number", `{"tckn":"12345678951"}`, http.StatusOK, false},
		{"missing number", `{}`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tckn/validate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}

			var resp struct {
				Valid bool `json:"valid"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", resp.Valid, tt.wantValid)
			}
		})
	}
}

func TestQualityEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping GoCV test in short mode")
	}

	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/quality", bytes.NewReader(encodeCardPNG(t)))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Detected   bool    `json:"detected"`
		Confidence float64 `json:"confidence"`
		BlurScore  float64 `json:"blur_score"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Detected {
		t.Error("card should be detected")
	}
	if resp.Confidence < 0.9 {
		t.Errorf("confidence = %f, want >= 0.9", resp.Confidence)
	}
}

func TestQualityEndpointWithPrevious(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping GoCV test in short mode")
	}

	srv, _ := newTestServer(t)
	png := encodeCardPNG(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "frame.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(png)
	prev, err := mw.CreateFormFile("previous", "prev.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	prev.Write(png)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/quality", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Stability *float64 `json:"stability"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stability == nil {
		t.Fatal("stability should be reported when a previous frame is uploaded")
	}
	if *resp.Stability != 1.0 {
		t.Errorf("stability of identical frames = %f, want 1.0", *resp.Stability)
	}
}

func TestQualityEndpointInvalidImage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping GoCV test in short mode")
	}

	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/quality", strings.NewReader("junk"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCameraEndpointsAbsentWithoutCamera(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/stream", "/api/quality/ws"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404 without a camera", path, w.Code)
		}
	}
}
