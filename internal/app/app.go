// Package app orchestrates the auto-capture loop: it watches camera frames
// and submits a scan once the card has been steady, sharp and glare-free
// for several consecutive frames.
package app

import (
	"sync"

	"github.com/yekkaplan/tcidverify/internal/capture"
	"github.com/yekkaplan/tcidverify/internal/logger"
	"github.com/yekkaplan/tcidverify/internal/scan"
	"github.com/yekkaplan/tcidverify/internal/store"
	"github.com/yekkaplan/tcidverify/internal/vision"
)

// Capture gating constants.
const (
	// CaptureFPS is the frame rate of the auto-capture loop.
	CaptureFPS = 10
	// MinBlurScore is the minimum sharpness score for a capturable frame.
	MinBlurScore = 60.0
	// MinStability is the minimum frame-to-frame stability for capture.
	MinStability = 0.85
	// MinConfidence is the minimum detection confidence for capture.
	MinConfidence = 0.6
	// StableFramesNeeded is how many consecutive passing frames trigger a
	// capture.
	StableFramesNeeded = 3
	// CooldownFrames is how many frames are skipped after a capture before
	// gating resumes.
	CooldownFrames = 20
)

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	Service  *scan.Service
	CameraID int
	Side     store.Side
}

// App drives the auto-capture pipeline against a camera.
type App struct {
	config  Config
	camera  capture.Camera
	tracker *vision.StabilityTracker
	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Side == "" {
		config.Side = store.SideFront
	}

	return &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		tracker: vision.NewStabilityTracker(),
	}
}

// SetEnabled enables or disables auto-capture.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether auto-capture is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetSide selects which card face the next captures are recorded as.
func (a *App) SetSide(side store.Side) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Side = side
	a.tracker.Reset()
}

// Side returns the card face the loop currently captures.
func (a *App) Side() store.Side {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Side
}

// Start opens the camera and begins the capture loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(CaptureFPS)

	a.stopCh = make(chan struct{})
	go a.runLoop()

	logger.Info("Auto-capture loop started")
	return nil
}

// Stop halts the capture loop and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		logger.WithError(err).Error("Error closing camera")
	}

	a.tracker.Close()

	logger.Info("Auto-capture loop stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}
