package gesture

import "github.com/ayusman/vitruvius/internal/skeleton"

// Built-in template defaults.
const (
	DefaultTolerance = 0.2
	waveTolerance    = 0.12
	swipeExtent      = 0.3
	waveExtent       = 0.2
	zoomExtent       = 0.25
	templatePoints   = 9
)

// line returns n evenly spaced points from (x0, y0) to (x1, y1).
func line(x0, y0, x1, y1 float64, n int) []PathPoint {
	path := make([]PathPoint, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		path[i] = PathPoint{
			X:         x0 + f*(x1-x0),
			Y:         y0 + f*(y1-y0),
			Timestamp: int64(i) * 33,
		}
	}
	return path
}

// zigzag returns a path oscillating along X between 0 and 1, starting at 0.
func zigzag(strokes, pointsPerStroke int) []PathPoint {
	var path []PathPoint
	for s := 0; s < strokes; s++ {
		x0, x1 := 0.0, 1.0
		if s%2 == 1 {
			x0, x1 = 1.0, 0.0
		}
		stroke := line(x0, 0, x1, 0, pointsPerStroke)
		if s > 0 {
			stroke = stroke[1:]
		}
		path = append(path, stroke...)
	}
	for i := range path {
		path[i].Timestamp = int64(i) * 33
	}
	return path
}

func handAbove(hand, ref skeleton.JointType) func(s *skeleton.Skeleton) bool {
	return func(s *skeleton.Skeleton) bool {
		return s.Joint(hand).Position.Y > s.Joint(ref).Position.Y
	}
}

func bothHandsAbove(ref skeleton.JointType) func(s *skeleton.Skeleton) bool {
	return func(s *skeleton.Skeleton) bool {
		y := s.Joint(ref).Position.Y
		return s.Joint(skeleton.HandLeft).Position.Y > y && s.Joint(skeleton.HandRight).Position.Y > y
	}
}

// DefaultTemplates returns the built-in dynamic gesture templates.
//
// Swipe left is traced with the right hand and swipe right with the left hand,
// so the return stroke of one swipe does not read as the other.
func DefaultTemplates() []*Template {
	return []*Template{
		{
			ID: "builtin-swipe-left", Gesture: SwipeLeft, Signal: SignalHandRight,
			Path: line(1, 0, 0, 0, templatePoints), Tolerance: DefaultTolerance, MinExtent: swipeExtent,
			Guard: handAbove(skeleton.HandRight, skeleton.SpineBase),
		},
		{
			ID: "builtin-swipe-right", Gesture: SwipeRight, Signal: SignalHandLeft,
			Path: line(0, 0, 1, 0, templatePoints), Tolerance: DefaultTolerance, MinExtent: swipeExtent,
			Guard: handAbove(skeleton.HandLeft, skeleton.SpineBase),
		},
		{
			ID: "builtin-swipe-up", Gesture: SwipeUp, Signal: SignalHandRight,
			Path: line(0, 0, 0, 1, templatePoints), Tolerance: DefaultTolerance, MinExtent: swipeExtent,
		},
		{
			ID: "builtin-swipe-down", Gesture: SwipeDown, Signal: SignalHandRight,
			Path: line(0, 1, 0, 0, templatePoints), Tolerance: DefaultTolerance, MinExtent: swipeExtent,
		},
		{
			ID: "builtin-wave-right", Gesture: WaveRight, Signal: SignalHandRight,
			Path: zigzag(4, 5), Tolerance: waveTolerance, MinExtent: waveExtent,
			Guard: handAbove(skeleton.HandRight, skeleton.ElbowRight),
		},
		{
			ID: "builtin-wave-left", Gesture: WaveLeft, Signal: SignalHandLeft,
			Path: zigzag(4, 5), Tolerance: waveTolerance, MinExtent: waveExtent,
			Guard: handAbove(skeleton.HandLeft, skeleton.ElbowLeft),
		},
		{
			ID: "builtin-zoom-in", Gesture: ZoomIn, Signal: SignalHandSpread,
			Path: line(0, 0, 1, 0, templatePoints), Tolerance: DefaultTolerance, MinExtent: zoomExtent,
			Guard: bothHandsAbove(skeleton.SpineMid),
		},
		{
			ID: "builtin-zoom-out", Gesture: ZoomOut, Signal: SignalHandSpread,
			Path: line(1, 0, 0, 0, templatePoints), Tolerance: DefaultTolerance, MinExtent: zoomExtent,
			Guard: bothHandsAbove(skeleton.SpineMid),
		},
	}
}
