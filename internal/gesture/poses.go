package gesture

import "github.com/ayusman/vitruvius/internal/skeleton"

// Pose is a gesture recognized from a single skeleton.
type Pose struct {
	Gesture Type
	Check   func(s *skeleton.Skeleton, cfg Config) bool
}

// DefaultPoses returns the built-in static poses.
func DefaultPoses() []Pose {
	return []Pose{
		{Gesture: JoinedHands, Check: joinedHands},
		{Gesture: Menu, Check: menu},
	}
}

func tracked(joints ...skeleton.Joint) bool {
	for _, j := range joints {
		if j.TrackingState == skeleton.NotTracked {
			return false
		}
	}
	return true
}

// joinedHands holds when both hands touch in front of the torso.
func joinedHands(s *skeleton.Skeleton, cfg Config) bool {
	left := s.Joint(skeleton.HandLeft)
	right := s.Joint(skeleton.HandRight)
	spine := s.Joint(skeleton.SpineMid)
	if !tracked(left, right, spine) {
		return false
	}

	return left.DistanceFrom(right) < cfg.JoinedHandsDistance &&
		left.Position.Y > spine.Position.Y &&
		right.Position.Y > spine.Position.Y
}

// menu holds while the left hand is raised above the head and the right
// hand rests below the spine.
func menu(s *skeleton.Skeleton, _ Config) bool {
	left := s.Joint(skeleton.HandLeft)
	right := s.Joint(skeleton.HandRight)
	head := s.Joint(skeleton.Head)
	spine := s.Joint(skeleton.SpineMid)
	if !tracked(left, right, head, spine) {
		return false
	}

	return left.Position.Y > head.Position.Y && right.Position.Y < spine.Position.Y
}
