package gesture

import (
	"sync"
	"time"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

// Config holds configuration options for gesture recognition.
type Config struct {
	// Window is the maximum number of frames buffered per signal.
	Window int

	// MinFrames is the number of buffered frames needed before dynamic matching.
	MinFrames int

	// Cooldown suppresses further events after a gesture is recognized.
	Cooldown time.Duration

	// JoinedHandsDistance is the maximum hand distance in meters for joined hands.
	JoinedHandsDistance float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Window:              30,
		MinFrames:           10,
		Cooldown:            time.Second,
		JoinedHandsDistance: 0.1,
	}
}

// Controller recognizes gestures from consecutive skeletons of one body.
type Controller struct {
	config   Config
	poses    []Pose
	matcher  *DynamicMatcher
	buffers  map[Signal][]PathPoint
	held     map[Type]bool
	lastFire time.Time
	handlers []func(Event)
	now      func() time.Time
	mu       sync.Mutex
}

// NewController creates a Controller with the built-in poses and templates.
func NewController(config Config) *Controller {
	def := DefaultConfig()
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.MinFrames <= 0 {
		config.MinFrames = def.MinFrames
	}
	if config.MinFrames > config.Window {
		config.MinFrames = config.Window
	}
	if config.JoinedHandsDistance <= 0 {
		config.JoinedHandsDistance = def.JoinedHandsDistance
	}

	c := &Controller{
		config:  config,
		poses:   DefaultPoses(),
		matcher: NewDynamicMatcher(),
		buffers: make(map[Signal][]PathPoint),
		held:    make(map[Type]bool),
		now:     time.Now,
	}
	for _, t := range DefaultTemplates() {
		c.matcher.AddTemplate(t)
	}
	return c
}

// OnRecognized registers a callback invoked for every recognized gesture.
func (c *Controller) OnRecognized(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// Matcher returns the dynamic matcher so callers can add or remove templates.
func (c *Controller) Matcher() *DynamicMatcher {
	return c.matcher
}

// Reset clears all buffered motion, e.g. when the tracked body changes.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers = make(map[Signal][]PathPoint)
	c.held = make(map[Type]bool)
}

// Update feeds the next skeleton of the tracked body and returns the
// gestures recognized on this frame.
func (c *Controller) Update(s *skeleton.Skeleton) []Event {
	if s == nil {
		return nil
	}

	c.mu.Lock()
	now := c.now()
	events := c.update(s, now)
	handlers := make([]func(Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	// Call the handlers outside the lock to prevent deadlocks
	for _, e := range events {
		for _, h := range handlers {
			h(e)
		}
	}

	return events
}

func (c *Controller) update(s *skeleton.Skeleton, now time.Time) []Event {
	ts := now.UnixMilli()
	for _, signal := range Signals() {
		p, ok := Trace(signal, s, ts)
		if !ok {
			delete(c.buffers, signal)
			continue
		}
		buf := c.buffers[signal]
		if len(buf) >= c.config.Window {
			copy(buf, buf[1:])
			buf = buf[:c.config.Window-1]
		}
		c.buffers[signal] = append(buf, p)
	}

	coolingDown := !c.lastFire.IsZero() && now.Sub(c.lastFire) < c.config.Cooldown

	for _, pose := range c.poses {
		if !pose.Check(s, c.config) {
			c.held[pose.Gesture] = false
			continue
		}
		if c.held[pose.Gesture] || coolingDown {
			continue
		}
		c.held[pose.Gesture] = true
		c.lastFire = now
		return []Event{{Gesture: pose.Gesture, Score: 1, Timestamp: now}}
	}

	if coolingDown {
		return nil
	}

	var best *Match
	for _, signal := range Signals() {
		buf := c.buffers[signal]
		if len(buf) < c.config.MinFrames {
			continue
		}
		matches := c.matcher.Match(signal, buf, s)
		if len(matches) > 0 && (best == nil || matches[0].Score > best.Score) {
			m := matches[0]
			best = &m
		}
	}
	if best == nil {
		return nil
	}

	// Clear buffered motion to prevent repeated triggers
	c.buffers = make(map[Signal][]PathPoint)
	c.lastFire = now
	return []Event{{Gesture: best.Template.Gesture, Score: best.Score, Timestamp: now}}
}

// Trace samples signal from the skeleton. It reports false when the joints
// the signal depends on are not tracked.
func Trace(signal Signal, s *skeleton.Skeleton, ts int64) (PathPoint, bool) {
	switch signal {
	case SignalHandRight, SignalHandLeft:
		hand := s.Joint(skeleton.HandRight)
		if signal == SignalHandLeft {
			hand = s.Joint(skeleton.HandLeft)
		}
		ref := s.Joint(skeleton.SpineShoulder)
		if !tracked(hand, ref) {
			return PathPoint{}, false
		}
		return PathPoint{
			X:         hand.Position.X - ref.Position.X,
			Y:         hand.Position.Y - ref.Position.Y,
			Timestamp: ts,
		}, true

	case SignalHandSpread:
		left := s.Joint(skeleton.HandLeft)
		right := s.Joint(skeleton.HandRight)
		if !tracked(left, right) {
			return PathPoint{}, false
		}
		return PathPoint{X: skeleton.Distance(left, right), Timestamp: ts}, true
	}
	return PathPoint{}, false
}
