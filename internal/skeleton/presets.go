package skeleton

// StandingSkeleton returns a fully tracked person standing upright two meters
// in front of the sensor with arms relaxed. Upper height is 0.80 m and each
// leg measures 0.88 m.
func StandingSkeleton() Skeleton {
	s := NewSkeleton()
	set := func(t JointType, x, y float64) {
		s.SetJoint(t, Point3D{X: x, Y: y, Z: 2.0}, Tracked)
	}

	// Torso
	set(Head, 0, 0.60)
	set(Neck, 0, 0.45)
	set(SpineShoulder, 0, 0.40)
	set(SpineMid, 0, 0.10)
	set(SpineBase, 0, -0.20)

	// Arms hanging down
	set(ShoulderLeft, -0.18, 0.40)
	set(ElbowLeft, -0.22, 0.12)
	set(WristLeft, -0.24, -0.12)
	set(HandLeft, -0.24, -0.20)
	set(HandTipLeft, -0.24, -0.28)
	set(ThumbLeft, -0.21, -0.22)
	set(ShoulderRight, 0.18, 0.40)
	set(ElbowRight, 0.22, 0.12)
	set(WristRight, 0.24, -0.12)
	set(HandRight, 0.24, -0.20)
	set(HandTipRight, 0.24, -0.28)
	set(ThumbRight, 0.21, -0.22)

	// Legs
	set(HipLeft, -0.10, -0.22)
	set(KneeLeft, -0.10, -0.66)
	set(AnkleLeft, -0.10, -1.06)
	set(FootLeft, -0.10, -1.10)
	set(HipRight, 0.10, -0.22)
	set(KneeRight, 0.10, -0.66)
	set(AnkleRight, 0.10, -1.06)
	set(FootRight, 0.10, -1.10)

	return s
}

// JoinedHandsSkeleton returns a standing person holding both hands together
// in front of the chest.
func JoinedHandsSkeleton() Skeleton {
	s := StandingSkeleton()
	s.SetJoint(ElbowLeft, Point3D{X: -0.20, Y: 0.15, Z: 1.85}, Tracked)
	s.SetJoint(WristLeft, Point3D{X: -0.05, Y: 0.20, Z: 1.70}, Tracked)
	s.SetJoint(HandLeft, Point3D{X: -0.02, Y: 0.22, Z: 1.68}, Tracked)
	s.SetJoint(ElbowRight, Point3D{X: 0.20, Y: 0.15, Z: 1.85}, Tracked)
	s.SetJoint(WristRight, Point3D{X: 0.05, Y: 0.20, Z: 1.70}, Tracked)
	s.SetJoint(HandRight, Point3D{X: 0.02, Y: 0.22, Z: 1.68}, Tracked)
	return s
}

// MenuSkeleton returns a standing person holding the left hand up beside
// the head while the right arm hangs down.
func MenuSkeleton() Skeleton {
	s := StandingSkeleton()
	s.SetJoint(ElbowLeft, Point3D{X: -0.30, Y: 0.50, Z: 1.95}, Tracked)
	s.SetJoint(WristLeft, Point3D{X: -0.30, Y: 0.70, Z: 1.95}, Tracked)
	s.SetJoint(HandLeft, Point3D{X: -0.30, Y: 0.78, Z: 1.95}, Tracked)
	return s
}

// WithHands returns a copy of s with both hands moved to the given positions.
func WithHands(s Skeleton, left, right Point3D) Skeleton {
	s.SetJoint(HandLeft, left, Tracked)
	s.SetJoint(HandRight, right, Tracked)
	return s
}
