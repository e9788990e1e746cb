package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yekkaplan/tcidverify/internal/logger"
	"github.com/yekkaplan/tcidverify/internal/vision"
)

// runLoop is the auto-capture loop. Each tick it reads a frame, scores its
// quality and counts how many consecutive frames have passed every gate.
// Once StableFramesNeeded frames pass in a row the frame is submitted as a
// scan, then the loop cools down before arming again.
func (a *App) runLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(CaptureFPS))
	defer ticker.Stop()

	stableCount := 0
	cooldown := 0

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				stableCount = 0
				continue
			}

			if cooldown > 0 {
				cooldown--
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				logger.WithError(err).Debug("Frame read failed")
				continue
			}

			stability := a.tracker.Update(frame)

			pf := vision.ProcessForOCR(frame)
			blur := 0.0
			if pf.Detected {
				blur = vision.BlurScore(&pf.Normalized)
			}
			ready := pf.Detected &&
				pf.Confidence >= MinConfidence &&
				frameReady(pf.GlareScore, blur, stability)
			pf.Close()

			if !ready {
				stableCount = 0
				frame.Close()
				continue
			}

			stableCount++
			if stableCount < StableFramesNeeded {
				frame.Close()
				continue
			}

			result, err := a.config.Service.ProcessFrame(frame, a.Side())
			frame.Close()
			stableCount = 0
			cooldown = CooldownFrames

			if err != nil {
				logger.WithError(err).Error("Auto-capture scan failed")
				continue
			}

			logger.WithFields(logrus.Fields{
				"scan_id":   result.Scan.ID,
				"side":      string(result.Scan.Side),
				"mrz_score": result.Scan.MRZScore,
			}).Info("Auto-captured scan")
		}
	}
}

// frameReady reports whether one frame's quality metrics pass every
// capture gate.
func frameReady(glare, blur, stability float64) bool {
	return glare <= vision.GlareThreshold &&
		blur >= MinBlurScore &&
		stability >= MinStability
}
