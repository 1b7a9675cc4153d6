package sensor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"testing"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

// readFrame reads one length-prefixed image, the way the pose service does.
func readFrame(r io.Reader) ([]byte, error) {
	length := make([]byte, 4)
	if _, err := io.ReadFull(r, length); err != nil {
		return nil, err
	}
	data := make([]byte, binary.BigEndian.Uint32(length))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	raw := buf.Bytes()
	if len(raw) != 4+len(payload) {
		t.Fatalf("wrote %d bytes, want %d", len(raw), 4+len(payload))
	}
	if got := binary.BigEndian.Uint32(raw[:4]); got != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", got, len(payload))
	}

	data, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload = %v, want %v", data, payload)
	}
}

func TestParseResponse(t *testing.T) {
	line := []byte(`{"bodies":[{"id":7,"joints":{` +
		`"Head":{"x":0.1,"y":0.6,"z":2.0,"state":"Tracked"},` +
		`"HandLeft":{"x":-0.3,"y":0.1,"z":1.9,"state":"Inferred"},` +
		`"Neck":{"x":0,"y":0.45,"z":2.0,"orientation":[0,0,0,2]}}}]}` + "\n")

	bodies, err := DecodeBodies(line)
	if err != nil {
		t.Fatalf("DecodeBodies() error = %v", err)
	}
	if len(bodies) != 1 {
		t.Fatalf("expected 1 body, got %d", len(bodies))
	}

	b := bodies[0]
	if b.TrackingID != 7 || !b.Tracked {
		t.Errorf("body = id %d tracked %v", b.TrackingID, b.Tracked)
	}

	head := b.Skeleton.Joint(skeleton.Head)
	if head.TrackingState != skeleton.Tracked || head.Position.Y != 0.6 {
		t.Errorf("head = %+v", head)
	}
	if got := b.Skeleton.Joint(skeleton.HandLeft).TrackingState; got != skeleton.Inferred {
		t.Errorf("hand left state = %v, want Inferred", got)
	}
	// Missing state means tracked
	if got := b.Skeleton.Joint(skeleton.Neck).TrackingState; got != skeleton.Tracked {
		t.Errorf("neck state = %v, want Tracked", got)
	}
	// Rotations are normalized
	if w := b.Skeleton.Orientation(skeleton.Neck).Rotation.W; math.Abs(w-1) > 1e-9 {
		t.Errorf("neck rotation w = %f, want 1", w)
	}
	// Joints the service did not report stay untracked
	if got := b.Skeleton.Joint(skeleton.FootRight).TrackingState; got != skeleton.NotTracked {
		t.Errorf("foot right state = %v, want NotTracked", got)
	}
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"invalid json", `{"bodies":`},
		{"unknown joint", `{"bodies":[{"id":1,"joints":{"Tail":{"x":0,"y":0,"z":0}}}]}`},
		{"unknown state", `{"bodies":[{"id":1,"joints":{"Head":{"x":0,"y":0,"z":0,"state":"Maybe"}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeBodies([]byte(tt.line)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseResponse_NoBodies(t *testing.T) {
	bodies, err := DecodeBodies([]byte(`{"bodies":[]}`))
	if err != nil {
		t.Fatalf("DecodeBodies() error = %v", err)
	}
	if bodies == nil || len(bodies) != 0 {
		t.Errorf("expected empty slice, got %v", bodies)
	}
}

func TestNewProcessEstimator_MissingCommand(t *testing.T) {
	if _, err := NewProcessEstimator(ProcessConfig{}); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := NewProcessEstimator(ProcessConfig{Command: "vitruvius-no-such-binary"}); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestProcessEstimator_Estimate(t *testing.T) {
	est, err := NewProcessEstimator(ProcessConfig{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess"},
		Env:     []string{"VITRUVIUS_WANT_HELPER_PROCESS=1"},
	})
	if err != nil {
		t.Fatalf("NewProcessEstimator() error = %v", err)
	}
	defer est.Close()

	for i, size := range []int{3, 11} {
		bodies, err := est.Estimate(make([]byte, size))
		if err != nil {
			t.Fatalf("Estimate() call %d error = %v", i, err)
		}
		if len(bodies) != 1 {
			t.Fatalf("expected 1 body, got %d", len(bodies))
		}
		// The helper reports the payload size as the tracking id
		if bodies[0].TrackingID != uint64(size) {
			t.Errorf("tracking id = %d, want %d", bodies[0].TrackingID, size)
		}
	}

	if err := est.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// TestHelperProcess is not a real test. It stands in for the pose service
// when the test binary is started by TestProcessEstimator_Estimate.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("VITRUVIUS_WANT_HELPER_PROCESS") != "1" {
		return
	}

	r := bufio.NewReader(os.Stdin)
	for {
		data, err := readFrame(r)
		if err != nil {
			os.Exit(0)
		}
		fmt.Printf(`{"bodies":[{"id":%d,"joints":{"SpineBase":{"x":0,"y":-0.2,"z":2,"state":"Tracked"}}}]}`+"\n", len(data))
	}
}
