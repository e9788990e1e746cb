// Package ocr wraps the external OCR engine the pipeline hands its
// preprocessed field crops to. The vision core never calls this package;
// the scan service wires the two together.
package ocr

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"github.com/yekkaplan/tcidverify/internal/vision"
)

// Character whitelists handed to the engine per field type. These describe
// what can legally appear in each region of a TCKK card; the engine uses
// them to prune its search, they are never enforced on results.
const (
	WhitelistDigits       = "0123456789"
	WhitelistTurkishAlpha = "ABCÇDEFGĞHIİJKLMNOÖPRSŞTUÜVYZ "
	WhitelistMRZ          = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"
	WhitelistAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	WhitelistDate         = "0123456789."
)

// ErrEmptyImage is returned when recognition is attempted on an empty crop.
var ErrEmptyImage = errors.New("ocr: empty image")

// WhitelistFor returns the character whitelist for a field type, or the
// empty string when the field has no restriction.
func WhitelistFor(field vision.FieldType) string {
	switch field {
	case vision.FieldTCKN:
		return WhitelistDigits
	case vision.FieldBirthDate, vision.FieldExpiry:
		return WhitelistDate
	case vision.FieldName, vision.FieldSurname:
		return WhitelistTurkishAlpha
	case vision.FieldMRZ:
		return WhitelistMRZ
	case vision.FieldSerial:
		return WhitelistAlphanumeric
	default:
		return ""
	}
}

// Engine recognizes text from a preprocessed field image.
type Engine interface {
	// RecognizeField runs OCR over a single field crop with the whitelist
	// and segmentation mode suited to that field.
	RecognizeField(img *gocv.Mat, field vision.FieldType) (string, error)

	// Close releases any resources held by the engine.
	Close() error
}

// TesseractEngine implements Engine on a gosseract client. A single client
// is reused across calls; the mutex serializes access since Tesseract
// clients are not safe for concurrent use.
type TesseractEngine struct {
	client *gosseract.Client
	mu     sync.Mutex
}

// NewTesseractEngine creates an engine using the given language model, e.g.
// "tur" for the front-side fields or "eng" for the OCR-B machine readable
// zone. An empty language keeps the client default.
func NewTesseractEngine(language string) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("set language %q: %w", language, err)
		}
	}

	return &TesseractEngine{client: client}, nil
}

// RecognizeField encodes the crop as PNG, configures the client for the
// field and returns the trimmed recognized text.
func (e *TesseractEngine) RecognizeField(img *gocv.Mat, field vision.FieldType) (string, error) {
	if img == nil || img.Empty() {
		return "", ErrEmptyImage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	buf, err := gocv.IMEncode(".png", *img)
	if err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	if wl := WhitelistFor(field); wl != "" {
		if err := e.client.SetWhitelist(wl); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}

	// The MRZ spans three lines; every other field is a single line.
	psm := gosseract.PSM_SINGLE_LINE
	if field == vision.FieldMRZ {
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := e.client.SetPageSegMode(psm); err != nil {
		return "", fmt.Errorf("set segmentation mode: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close shuts down the underlying Tesseract client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
