package ocr

import (
	"gocv.io/x/gocv"

	"github.com/yekkaplan/tcidverify/internal/vision"
)

// MockEngine is a test implementation of Engine that returns canned text
// per field.
type MockEngine struct {
	results map[vision.FieldType]string
	err     error
}

// NewMockEngine creates a new MockEngine with no results configured.
func NewMockEngine() *MockEngine {
	return &MockEngine{results: make(map[vision.FieldType]string)}
}

// SetResult sets the text returned for a field.
func (m *MockEngine) SetResult(field vision.FieldType, text string) {
	m.results[field] = text
}

// SetError makes every RecognizeField call fail with err.
func (m *MockEngine) SetError(err error) {
	m.err = err
}

// RecognizeField returns the pre-configured text or error for the field.
func (m *MockEngine) RecognizeField(img *gocv.Mat, field vision.FieldType) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.results[field], nil
}

// Close is a no-op for the mock engine.
func (m *MockEngine) Close() error {
	return nil
}
