package sensor

import (
	"fmt"
	"sync"
	"time"
)

// PoseConfig holds configuration options for a PoseSource.
type PoseConfig struct {
	// MotionThreshold is the percentage of changed pixels counted as motion.
	// Zero disables motion gating.
	MotionThreshold float64

	// IdleTimeout is how long the scene must be still before the last
	// estimate is reused instead of calling the estimator.
	IdleTimeout time.Duration
}

// DefaultPoseConfig returns a PoseConfig with sensible default values.
func DefaultPoseConfig() PoseConfig {
	return PoseConfig{
		MotionThreshold: 1.0,
		IdleTimeout:     2 * time.Second,
	}
}

// PoseSource reads images from a camera and estimates bodies from them.
type PoseSource struct {
	config     PoseConfig
	camera     Camera
	estimator  Estimator
	motion     *MotionDetector
	open       bool
	lastMotion time.Time
	lastBodies []Body
	latest     []byte
	now        func() time.Time
	mu         sync.Mutex
}

// NewPoseSource creates a PoseSource over the given camera and estimator.
func NewPoseSource(camera Camera, estimator Estimator, config PoseConfig) *PoseSource {
	s := &PoseSource{
		config:    config,
		camera:    camera,
		estimator: estimator,
		now:       time.Now,
	}
	if config.MotionThreshold > 0 {
		s.motion = NewMotionDetector(config.MotionThreshold)
	}
	return s
}

// Open opens the camera.
func (s *PoseSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	s.open = true
	s.lastMotion = s.now()
	return nil
}

// Close closes the camera and the estimator.
func (s *PoseSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false
	s.lastBodies = nil
	if s.motion != nil {
		s.motion.Reset()
	}

	camErr := s.camera.Close()
	estErr := s.estimator.Close()
	if camErr != nil {
		return camErr
	}
	return estErr
}

// ReadFrame captures one image and returns the bodies in it.
func (s *PoseSource) ReadFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrSourceNotOpen
	}

	snap, err := s.camera.Capture()
	if err != nil {
		return nil, err
	}
	defer snap.Close()
	s.latest = snap.JPEG

	now := s.now()
	if s.motion != nil {
		if moved, _ := s.motion.Detect(&snap.Mat); moved {
			s.lastMotion = now
		} else if s.lastBodies != nil && now.Sub(s.lastMotion) > s.config.IdleTimeout {
			return &Frame{Timestamp: now.UnixMilli(), Bodies: s.lastBodies}, nil
		}
	}

	bodies, err := s.estimator.Estimate(snap.JPEG)
	if err != nil {
		return nil, fmt.Errorf("estimate pose: %w", err)
	}
	s.lastBodies = bodies

	return &Frame{Timestamp: now.UnixMilli(), Bodies: bodies}, nil
}

// LatestJPEG returns the most recently captured image.
func (s *PoseSource) LatestJPEG() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}
