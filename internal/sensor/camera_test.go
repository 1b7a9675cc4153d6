package sensor

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewCamera(t *testing.T) {
	cam := NewCamera(0)

	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", got, DefaultFPS)
	}
	if cam.IsOpen() {
		t.Error("camera should not be open initially")
	}
	if _, err := cam.Capture(); err != ErrSourceNotOpen {
		t.Errorf("Capture() error = %v, want ErrSourceNotOpen", err)
	}

	cam.SetFPS(0)
	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("SetFPS(0) changed FPS to %d", got)
	}
	cam.SetFPS(30)
	if got := cam.FPS(); got != 30 {
		t.Errorf("FPS() = %d, want 30", got)
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera error = %v", err)
	}
}

func TestReplayCamera_Capture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer img.Close()

	t.Run("once", func(t *testing.T) {
		cam := NewReplayCamera([]*gocv.Mat{&img}, false)
		if _, err := cam.Capture(); !errors.Is(err, ErrSourceNotOpen) {
			t.Fatalf("Capture() before Open error = %v, want ErrSourceNotOpen", err)
		}
		cam.Open()
		defer cam.Close()

		snap, err := cam.Capture()
		if err != nil {
			t.Fatalf("Capture() error = %v", err)
		}
		defer snap.Close()

		if snap.Mat.Cols() != DefaultWidth || snap.Mat.Rows() != DefaultHeight {
			t.Errorf("snapshot size = %dx%d", snap.Mat.Cols(), snap.Mat.Rows())
		}
		if len(snap.JPEG) < 2 || snap.JPEG[0] != 0xFF || snap.JPEG[1] != 0xD8 {
			t.Error("snapshot is not JPEG encoded")
		}
		if _, err := cam.Capture(); err == nil {
			t.Error("expected an error once the replay runs out")
		}
	})

	t.Run("loop", func(t *testing.T) {
		cam := NewReplayCamera([]*gocv.Mat{&img}, true)
		cam.Open()
		defer cam.Close()

		for i := 0; i < 3; i++ {
			snap, err := cam.Capture()
			if err != nil {
				t.Fatalf("Capture() %d error = %v", i, err)
			}
			snap.Close()
		}
		if img.Empty() {
			t.Error("closing a snapshot released the replayed image")
		}
	})

	t.Run("empty image", func(t *testing.T) {
		blank := gocv.NewMat()
		defer blank.Close()

		cam := NewReplayCamera([]*gocv.Mat{&blank}, false)
		cam.Open()
		if _, err := cam.Capture(); !errors.Is(err, errEmptyImage) {
			t.Errorf("Capture() error = %v, want errEmptyImage", err)
		}
	})
}
