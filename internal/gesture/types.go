// Package gesture recognizes body gestures from a stream of tracked skeletons.
package gesture

import (
	"fmt"
	"time"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

// Type identifies a recognized gesture. The value is the payload published
// to the broker.
type Type string

const (
	JoinedHands Type = "joined_hands"
	Menu        Type = "menu"
	SwipeDown   Type = "swipe_down"
	SwipeLeft   Type = "swipe_left"
	SwipeRight  Type = "swipe_right"
	SwipeUp     Type = "swipe_up"
	WaveLeft    Type = "wave_left"
	WaveRight   Type = "wave_right"
	ZoomIn      Type = "zoom_in"
	ZoomOut     Type = "zoom_out"
)

// Types returns every known gesture type.
func Types() []Type {
	return []Type{JoinedHands, Menu, SwipeDown, SwipeLeft, SwipeRight, SwipeUp, WaveLeft, WaveRight, ZoomIn, ZoomOut}
}

// Topic returns the payload published for the gesture.
func (t Type) Topic() string {
	return string(t)
}

// ParseType returns the gesture type for its payload name.
func ParseType(name string) (Type, error) {
	for _, t := range Types() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown gesture %q", name)
}

// Signal selects which per-frame measurement a dynamic gesture is traced on.
type Signal string

const (
	// SignalHandRight is the right hand position relative to the shoulders.
	SignalHandRight Signal = "hand_right"
	// SignalHandLeft is the left hand position relative to the shoulders.
	SignalHandLeft Signal = "hand_left"
	// SignalHandSpread is the distance between both hands, carried in X.
	SignalHandSpread Signal = "hand_spread"
)

// Signals returns every signal the controller buffers.
func Signals() []Signal {
	return []Signal{SignalHandRight, SignalHandLeft, SignalHandSpread}
}

// PathPoint is one sample of a signal.
type PathPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"` // milliseconds
}

// Template describes a dynamic gesture as a reference path.
type Template struct {
	ID        string
	Gesture   Type
	Signal    Signal
	Path      []PathPoint
	Tolerance float64 // maximum DTW distance for a match
	MinExtent float64 // minimum travel in meters before the path is considered

	// Guard, when set, must accept the current skeleton for the template to match.
	Guard func(s *skeleton.Skeleton) bool
}

// Match is a template that matched the buffered input.
type Match struct {
	Template *Template
	Score    float64 // 0-1, higher is better
	Distance float64
}

// Event is emitted when a gesture is recognized.
type Event struct {
	Gesture   Type      `json:"gesture"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
