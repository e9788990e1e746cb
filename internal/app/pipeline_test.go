package app

import (
	"testing"

	"github.com/yekkaplan/tcidverify/internal/store"
)

func TestFrameReady(t *testing.T) {
	tests := []struct {
		name      string
		glare     float64
		blur      float64
		stability float64
		want      bool
	}{
		{"all gates pass", 0.05, 85, 0.95, true},
		{"at thresholds", 0.30, 60, 0.85, true},
		{"too much glare", 0.31, 85, 0.95, false},
		{"too blurry", 0.05, 59, 0.95, false},
		{"too shaky", 0.05, 85, 0.84, false},
		{"everything bad", 1.0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frameReady(tt.glare, tt.blur, tt.stability); got != tt.want {
				t.Errorf("frameReady(%f, %f, %f) = %v, want %v",
					tt.glare, tt.blur, tt.stability, got, tt.want)
			}
		})
	}
}

func TestAppDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping GoCV test in short mode")
	}

	a := New(Config{CameraID: 0})

	if a.IsEnabled() {
		t.Error("new app should start disabled")
	}
	if a.Side() != store.SideFront {
		t.Errorf("Side = %q, want front by default", a.Side())
	}

	a.SetEnabled(true)
	if !a.IsEnabled() {
		t.Error("SetEnabled(true) did not take")
	}

	a.SetSide(store.SideBack)
	if a.Side() != store.SideBack {
		t.Errorf("Side = %q, want back", a.Side())
	}
}
