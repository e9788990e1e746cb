package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yekkaplan/tcidverify/internal/capture"
	"github.com/yekkaplan/tcidverify/internal/logger"
	"github.com/yekkaplan/tcidverify/internal/vision"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// qualityMessage is one frame's worth of live guidance for a capture UI.
type qualityMessage struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	GlareScore float64 `json:"glare_score"`
	BlurScore  float64 `json:"blur_score"`
	Stability  float64 `json:"stability"`
	Usable     bool    `json:"usable"`
	Timestamp  int64   `json:"timestamp"`
}

// QualityWSHandler broadcasts real-time frame quality metrics via WebSocket
// so a capture UI can guide the user toward a still, glare-free shot.
type QualityWSHandler struct {
	camera  capture.Camera
	tracker *vision.StabilityTracker
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewQualityWSHandler creates a new QualityWSHandler with the given camera.
func NewQualityWSHandler(c capture.Camera) *QualityWSHandler {
	h := &QualityWSHandler{
		camera:  c,
		tracker: vision.NewStabilityTracker(),
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *QualityWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast scores camera frames and sends the metrics to all connected
// clients at roughly 10 FPS.
func (h *QualityWSHandler) broadcast() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		frame, err := h.camera.ReadFrame()
		if err != nil {
			continue
		}

		pf := vision.ProcessForOCR(frame)
		stability := h.tracker.Update(frame)
		frame.Close()

		m := qualityMessage{
			Detected:   pf.Detected,
			Confidence: pf.Confidence,
			GlareScore: pf.GlareScore,
			Stability:  stability,
			Timestamp:  time.Now().UnixMilli(),
		}
		if pf.Detected {
			m.BlurScore = vision.BlurScore(&pf.Normalized)
		}
		m.Usable = pf.Detected && pf.GlareScore <= vision.GlareThreshold
		pf.Close()

		msg, _ := json.Marshal(m)

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
