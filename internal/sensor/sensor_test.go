package sensor

import (
	"errors"
	"testing"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

func bodyAt(id uint64, z float64) Body {
	s := skeleton.StandingSkeleton()
	base := s.Joint(skeleton.SpineBase).Position
	base.Z = z
	s.SetJoint(skeleton.SpineBase, base, skeleton.Tracked)
	return Body{TrackingID: id, Tracked: true, Skeleton: s}
}

func TestClosest(t *testing.T) {
	untrackedBase := bodyAt(4, 0.5)
	untrackedBase.Skeleton.Joints[skeleton.SpineBase].TrackingState = skeleton.NotTracked

	notTracked := bodyAt(5, 0.4)
	notTracked.Tracked = false

	tests := []struct {
		name   string
		bodies []Body
		wantID uint64
	}{
		{"single body", []Body{bodyAt(1, 2.0)}, 1},
		{"nearest wins", []Body{bodyAt(1, 2.5), bodyAt(2, 1.2), bodyAt(3, 3.0)}, 2},
		{"skips untracked spine base", []Body{bodyAt(1, 2.5), untrackedBase}, 1},
		{"skips untracked bodies", []Body{notTracked, bodyAt(3, 3.0)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Closest(tt.bodies)
			if err != nil {
				t.Fatalf("Closest() error = %v", err)
			}
			if got.TrackingID != tt.wantID {
				t.Errorf("Closest() = body %d, want %d", got.TrackingID, tt.wantID)
			}
		})
	}
}

func TestClosest_NoBody(t *testing.T) {
	notTracked := bodyAt(1, 2.0)
	notTracked.Tracked = false

	for _, bodies := range [][]Body{nil, {}, {notTracked}} {
		if _, err := Closest(bodies); !errors.Is(err, ErrNoBody) {
			t.Errorf("Closest(%d bodies) error = %v, want ErrNoBody", len(bodies), err)
		}
	}
}

func TestClosest_ReturnsElementOfSlice(t *testing.T) {
	bodies := []Body{bodyAt(1, 2.0)}
	got, err := Closest(bodies)
	if err != nil {
		t.Fatal(err)
	}
	if got != &bodies[0] {
		t.Error("expected Closest to point into the given slice")
	}
}

func TestMockSource_Playback(t *testing.T) {
	src := NewMockSource(FramesOf(skeleton.StandingSkeleton(), skeleton.MenuSkeleton()), false)

	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() before Open error = %v, want ErrSourceNotOpen", err)
	}

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	f1, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if len(f1.Bodies) != 1 || f1.Timestamp != 0 {
		t.Errorf("unexpected first frame: %+v", f1)
	}

	f2, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if f2.Timestamp != 33 {
		t.Errorf("second frame timestamp = %d, want 33", f2.Timestamp)
	}

	if _, err := src.ReadFrame(); err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockSource_Loop(t *testing.T) {
	src := NewMockSource(FramesOf(skeleton.StandingSkeleton()), true)
	src.Open()
	defer src.Close()

	for i := 0; i < 5; i++ {
		if _, err := src.ReadFrame(); err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
	}
}

func TestMockSource_FramesAreCopies(t *testing.T) {
	src := NewMockSource(FramesOf(skeleton.StandingSkeleton()), true)
	src.Open()

	f, _ := src.ReadFrame()
	f.Bodies[0].TrackingID = 99

	f, _ = src.ReadFrame()
	if f.Bodies[0].TrackingID != 1 {
		t.Error("mutating a returned frame changed the recorded frame")
	}
}
