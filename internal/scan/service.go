// Package scan ties the vision pipeline, OCR engine and store together
// into a single frame-to-record processing service.
package scan

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/yekkaplan/tcidverify/internal/logger"
	"github.com/yekkaplan/tcidverify/internal/mrz"
	"github.com/yekkaplan/tcidverify/internal/ocr"
	"github.com/yekkaplan/tcidverify/internal/store"
	"github.com/yekkaplan/tcidverify/internal/vision"
)

// frontFields are the printed regions read on the portrait side, in the
// order they are recognized and persisted.
var frontFields = []vision.FieldType{
	vision.FieldTCKN,
	vision.FieldSurname,
	vision.FieldName,
	vision.FieldBirthDate,
	vision.FieldSerial,
}

// Result is the outcome of processing one frame.
type Result struct {
	Scan   *store.Scan
	Fields map[string]string
	MRZ    *mrz.Score
}

// Service processes frames into persisted scan records. The OCR engine is
// optional; without one the service still detects, normalizes and scores.
type Service struct {
	store  *store.Store
	engine ocr.Engine
}

// NewService creates a scan service. engine may be nil when OCR is disabled.
func NewService(st *store.Store, engine ocr.Engine) *Service {
	return &Service{store: st, engine: engine}
}

// ProcessFrame runs the full pipeline on a frame: card detection,
// perspective normalization, quality scoring, region OCR and persistence.
// A record is stored even when no card is detected so callers can inspect
// failed attempts.
func (s *Service) ProcessFrame(frame *gocv.Mat, side store.Side) (*Result, error) {
	pf := vision.ProcessForOCR(frame)
	defer pf.Close()

	sc := &store.Scan{
		ID:         uuid.New().String(),
		Side:       side,
		Detected:   pf.Detected,
		Confidence: pf.Confidence,
		GlareScore: pf.GlareScore,
	}

	result := &Result{Scan: sc, Fields: map[string]string{}}

	if pf.Detected {
		sc.BlurScore = vision.BlurScore(&pf.Normalized)

		if s.engine != nil {
			switch side {
			case store.SideBack:
				s.recognizeBack(pf, result)
			default:
				s.recognizeFront(pf, result)
			}
		}
	}

	if err := s.store.Scans().Create(sc); err != nil {
		return nil, err
	}

	for field, text := range result.Fields {
		if err := s.store.Scans().AddField(sc.ID, field, text); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"scan_id":    sc.ID,
		"side":       string(side),
		"detected":   sc.Detected,
		"confidence": sc.Confidence,
		"mrz_score":  sc.MRZScore,
	}).Info("Frame processed")

	return result, nil
}

// recognizeFront reads each printed region of the normalized card.
// A failed read on one region does not abort the others.
func (s *Service) recognizeFront(pf vision.ProcessedFrame, result *Result) {
	for _, field := range frontFields {
		region := vision.ExtractRegion(&pf.Normalized, field, false)
		if region.Empty() {
			region.Close()
			continue
		}

		text, err := s.engine.RecognizeField(&region, field)
		region.Close()
		if err != nil {
			logger.WithError(err).WithField("field", field.String()).Warn("Region OCR failed")
			continue
		}
		if text == "" {
			continue
		}

		result.Fields[field.String()] = text

		if field == vision.FieldTCKN {
			tckn := strings.TrimSpace(text)
			result.Scan.TCKN = tckn
			result.Scan.TCKNValid = mrz.ValidateTCKN(tckn)
		}
	}
}

// recognizeBack reads the machine readable zone and validates its
// check digits.
func (s *Service) recognizeBack(pf vision.ProcessedFrame, result *Result) {
	if pf.MRZRegion.Empty() {
		return
	}

	text, err := s.engine.RecognizeField(&pf.MRZRegion, vision.FieldMRZ)
	if err != nil {
		logger.WithError(err).Warn("MRZ OCR failed")
		return
	}

	line1, line2, line3 := splitMRZLines(text)

	// A full-strip read that did not split into lines usually means the
	// block threshold merged the rows; retry line by line.
	if line2 == "" && !pf.Normalized.Empty() {
		line1, line2, line3 = s.recognizeMRZByLine(pf)
		text = strings.TrimSpace(line1 + "\n" + line2 + "\n" + line3)
	}
	if text == "" {
		return
	}

	result.Fields[vision.FieldMRZ.String()] = text

	score := mrz.ValidateWithScore(line1, line2, line3)
	result.MRZ = &score

	result.Scan.MRZScore = score.Total
	if score.TCKN != "" {
		result.Scan.TCKN = score.TCKN
		result.Scan.TCKNValid = mrz.ValidateTCKN(score.TCKN)
	}
}

// recognizeMRZByLine reads the three MRZ line strips off the normalized
// card individually. Failed or empty lines come back empty; the validator
// scores whatever survived.
func (s *Service) recognizeMRZByLine(pf vision.ProcessedFrame) (string, string, string) {
	defs := []vision.RegionDefinition{vision.MRZLine1, vision.MRZLine2, vision.MRZLine3}

	var lines [3]string
	for i, def := range defs {
		strip := vision.ExtractZone(&pf.Normalized, def)
		if strip.Empty() {
			strip.Close()
			continue
		}

		line, err := s.engine.RecognizeField(&strip, vision.FieldMRZ)
		strip.Close()
		if err != nil {
			logger.WithError(err).WithField("line", i+1).Warn("MRZ line OCR failed")
			continue
		}

		// Keep only the first text row of each strip read.
		l1, _, _ := splitMRZLines(line)
		lines[i] = l1
	}

	return lines[0], lines[1], lines[2]
}

// splitMRZLines extracts up to three non-empty lines from raw OCR output.
func splitMRZLines(text string) (string, string, string) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	out := [3]string{}
	for i := 0; i < len(lines) && i < 3; i++ {
		out[i] = lines[i]
	}
	return out[0], out[1], out[2]
}
