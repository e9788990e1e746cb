package capture

import (
	"errors"
	"testing"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera(0)

	if c.IsOpen() {
		t.Error("new camera should not be open")
	}
	if c.FPS() != DefaultFPS {
		t.Errorf("FPS = %d, want %d", c.FPS(), DefaultFPS)
	}
}

func TestReadFrameNotOpen(t *testing.T) {
	c := NewCamera(0)

	_, err := c.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("err = %v, want ErrCameraNotOpen", err)
	}
}

func TestSetFPS(t *testing.T) {
	c := NewCamera(0)

	c.SetFPS(30)
	if c.FPS() != 30 {
		t.Errorf("FPS = %d, want 30", c.FPS())
	}

	// Non-positive values are ignored.
	c.SetFPS(0)
	if c.FPS() != 30 {
		t.Errorf("FPS after SetFPS(0) = %d, want 30", c.FPS())
	}
	c.SetFPS(-5)
	if c.FPS() != 30 {
		t.Errorf("FPS after SetFPS(-5) = %d, want 30", c.FPS())
	}
}

func TestCloseWithoutOpen(t *testing.T) {
	c := NewCamera(0)

	if err := c.Close(); err != nil {
		t.Errorf("Close on unopened camera: %v", err)
	}
}
