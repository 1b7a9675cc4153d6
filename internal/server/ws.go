package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/sensor"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// BodySource provides the currently tracked body.
type BodySource interface {
	LatestBody() (sensor.Body, bool)
}

// skeletonMessage is sent for every broadcast tick while a body is tracked.
type skeletonMessage struct {
	Type       string                          `json:"type"`
	TrackingID uint64                          `json:"trackingId"`
	Height     float64                         `json:"height"`
	Joints     map[string]skeleton.JointRecord `json:"joints"`
	Timestamp  int64                           `json:"timestamp"`
}

// gestureMessage is sent whenever a gesture is recognized.
type gestureMessage struct {
	Type  string        `json:"type"`
	Event gesture.Event `json:"event"`
}

// SkeletonHandler broadcasts the tracked skeleton and recognized gestures
// via WebSocket.
type SkeletonHandler struct {
	bodies   BodySource
	interval time.Duration
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// NewSkeletonHandler creates a SkeletonHandler and starts broadcasting.
func NewSkeletonHandler(bodies BodySource) *SkeletonHandler {
	return newSkeletonHandler(bodies, 66*time.Millisecond) // ~15 FPS
}

func newSkeletonHandler(bodies BodySource, interval time.Duration) *SkeletonHandler {
	h := &SkeletonHandler{
		bodies:   bodies,
		interval: interval,
		clients:  make(map[*websocket.Conn]bool),
		done:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SkeletonHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// BroadcastEvent sends a recognized gesture to all connected clients.
func (h *SkeletonHandler) BroadcastEvent(e gesture.Event) {
	msg, err := json.Marshal(gestureMessage{Type: "gesture", Event: e})
	if err != nil {
		return
	}
	h.send(msg)
}

// Close stops broadcasting.
func (h *SkeletonHandler) Close() {
	h.once.Do(func() { close(h.done) })
}

// broadcast sends skeleton data to all connected clients.
func (h *SkeletonHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}

		h.mu.Lock()
		idle := len(h.clients) == 0
		h.mu.Unlock()
		if idle {
			continue
		}

		body, ok := h.bodies.LatestBody()
		if !ok {
			continue
		}

		msg, err := json.Marshal(skeletonMessage{
			Type:       "skeleton",
			TrackingID: body.TrackingID,
			Height:     body.Skeleton.Height(),
			Joints:     body.Skeleton.SerializeAll(),
			Timestamp:  time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}
		h.send(msg)
	}
}

// send writes msg to every client. Writes hold the lock since a
// websocket connection supports one concurrent writer.
func (h *SkeletonHandler) send(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
		}
	}
}
