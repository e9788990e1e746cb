package main

import (
	"os"

	"github.com/yekkaplan/tcidverify/internal/app"
	"github.com/yekkaplan/tcidverify/internal/capture"
	"github.com/yekkaplan/tcidverify/internal/config"
	"github.com/yekkaplan/tcidverify/internal/logger"
	"github.com/yekkaplan/tcidverify/internal/ocr"
	"github.com/yekkaplan/tcidverify/internal/scan"
	"github.com/yekkaplan/tcidverify/internal/server"
	"github.com/yekkaplan/tcidverify/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.WithError(err).Error("Failed to create data directory")
		os.Exit(1)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		logger.WithError(err).Error("Failed to initialize store")
		os.Exit(1)
	}
	defer st.Close()

	var engine ocr.Engine
	if cfg.OCREnabled {
		tess, err := ocr.NewTesseractEngine(cfg.OCRLanguage)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize OCR engine")
			os.Exit(1)
		}
		defer tess.Close()
		engine = tess
		logger.WithField("language", cfg.OCRLanguage).Info("OCR engine ready")
	} else {
		logger.Info("OCR disabled, scans record geometry and quality only")
	}

	service := scan.NewService(st, engine)

	var camera capture.Camera
	if cfg.CameraEnabled {
		if cfg.AutoCapture {
			a := app.New(app.Config{
				Store:    st,
				Service:  service,
				CameraID: cfg.CameraID,
			})
			if err := a.Start(); err != nil {
				logger.WithError(err).Error("Failed to start auto-capture")
				os.Exit(1)
			}
			defer a.Stop()
			a.SetEnabled(true)
			camera = a.Camera()
		} else {
			camera = capture.NewCamera(cfg.CameraID)
			if err := camera.Open(); err != nil {
				logger.WithError(err).Error("Failed to open camera")
				os.Exit(1)
			}
			defer camera.Close()
		}
	}

	srv := server.New(server.Config{
		Store:   st,
		Camera:  camera,
		Service: service,
	})

	addr := cfg.ServerAddress()
	logger.WithField("addr", addr).Info("Starting server")
	if err := srv.ListenAndServe(addr); err != nil {
		logger.WithError(err).Error("Server failed")
		os.Exit(1)
	}
}
