package capture

import (
	"errors"
	"testing"
)

func TestNewCamera_Defaults(t *testing.T) {
	cam := NewCamera(Options{Device: 1})

	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", got, DefaultFPS)
	}
	w, h := cam.Size()
	if w != DefaultWidth || h != DefaultHeight {
		t.Errorf("Size() = %dx%d, want %dx%d", w, h, DefaultWidth, DefaultHeight)
	}
	if cam.IsOpen() {
		t.Error("camera should not be open initially")
	}
}

func TestNewCamera_Options(t *testing.T) {
	cam := NewCamera(Options{Width: 1280, Height: 720, FPS: 24})

	w, h := cam.Size()
	if w != 1280 || h != 720 {
		t.Errorf("Size() = %dx%d, want 1280x720", w, h)
	}
	if cam.FPS() != 24 {
		t.Errorf("FPS() = %d, want 24", cam.FPS())
	}
}

func TestCamera_SetFPS(t *testing.T) {
	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "positive value", fps: 15, wantFPS: 15},
		{name: "zero ignored", fps: 0, wantFPS: DefaultFPS},
		{name: "negative ignored", fps: -5, wantFPS: DefaultFPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(Options{})
			cam.SetFPS(tt.fps)
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(Options{})

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(Options{})
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera error = %v", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires a webcam")
	}

	cam := NewCamera(Options{})
	if err := cam.Open(); err != nil {
		t.Skipf("no camera available: %v", err)
	}
	defer cam.Close()

	frame, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer frame.Close()

	if frame.Empty() {
		t.Error("expected a non-empty frame")
	}
}
