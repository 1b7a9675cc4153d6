package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/sensor"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

type fakeBodies struct {
	body *sensor.Body
	mu   sync.Mutex
}

func (f *fakeBodies) LatestBody() (sensor.Body, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.body == nil {
		return sensor.Body{}, false
	}
	return *f.body, true
}

func dial(t *testing.T, h *SkeletonHandler) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Wait until the handler registered the client
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		n := len(h.clients)
		h.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestSkeletonHandler_BroadcastsSkeleton(t *testing.T) {
	body := sensor.FramesOf(skeleton.StandingSkeleton())[0].Bodies[0]
	h := newSkeletonHandler(&fakeBodies{body: &body}, 10*time.Millisecond)
	defer h.Close()

	conn := dial(t, h)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg skeletonMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Type != "skeleton" || msg.TrackingID != 1 {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Joints) != int(skeleton.JointCount) {
		t.Errorf("got %d joints, want %d", len(msg.Joints), skeleton.JointCount)
	}
	if msg.Height <= 0 {
		t.Errorf("height = %v, want positive", msg.Height)
	}
}

func TestSkeletonHandler_BroadcastEvent(t *testing.T) {
	// No body, so only gesture messages are sent
	h := newSkeletonHandler(&fakeBodies{}, 10*time.Millisecond)
	defer h.Close()

	conn := dial(t, h)
	h.BroadcastEvent(gesture.Event{Gesture: gesture.SwipeLeft, Score: 0.8, Timestamp: time.Now()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg gestureMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Type != "gesture" || msg.Event.Gesture != gesture.SwipeLeft {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestSkeletonHandler_CloseTwice(t *testing.T) {
	h := newSkeletonHandler(&fakeBodies{}, time.Millisecond)
	h.Close()
	h.Close()
}
