package sensor

import (
	"errors"
	"sync"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

// MockSource plays back prepared frames for testing.
type MockSource struct {
	frames  []Frame
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
}

func NewMockSource(frames []Frame, loop bool) *MockSource {
	return &MockSource{
		frames: frames,
		loop:   loop,
	}
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockSource) ReadFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}
	if len(s.frames) == 0 {
		return nil, errors.New("no frames available")
	}
	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, errors.New("no more frames")
		}
		s.index = 0
	}

	frame := s.frames[s.index]
	frame.Bodies = append([]Body(nil), frame.Bodies...)
	s.index++

	return &frame, nil
}

// SetFrames replaces the frame sequence
func (s *MockSource) SetFrames(frames []Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.index = 0
}

// FramesOf wraps each skeleton in a single-body frame, 33ms apart.
func FramesOf(skeletons ...skeleton.Skeleton) []Frame {
	frames := make([]Frame, len(skeletons))
	for i, sk := range skeletons {
		frames[i] = Frame{
			Timestamp: int64(i) * 33,
			Bodies:    []Body{{TrackingID: 1, Tracked: true, Skeleton: sk}},
		}
	}
	return frames
}

// MockEstimator is a test implementation of the Estimator interface.
type MockEstimator struct {
	bodies []Body
	err    error
	calls  int
	mu     sync.Mutex
}

func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetBodies sets the bodies that will be returned by Estimate.
func (m *MockEstimator) SetBodies(bodies []Body) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = bodies
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Estimate was called.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEstimator) Estimate(jpeg []byte) ([]Body, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.bodies, nil
}

func (m *MockEstimator) Close() error {
	return nil
}
