package skeleton

import "math"

// HeadDivergence compensates for the head joint sitting at eye level
// rather than at the top of the skull.
const HeadDivergence = 0.1

// Distance returns the length of the segment between two joints in meters.
func Distance(p1, p2 Joint) float64 {
	dx := p1.Position.X - p2.Position.X
	dy := p1.Position.Y - p2.Position.Y
	dz := p1.Position.Z - p2.Position.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Length returns the total length of the polyline through the given joints.
// Fewer than two joints yield zero.
func Length(joints ...Joint) float64 {
	var length float64
	for i := 0; i < len(joints)-1; i++ {
		length += Distance(joints[i], joints[i+1])
	}
	return length
}

// DistanceFrom returns the distance between j and other.
func (j Joint) DistanceFrom(other Joint) float64 {
	return Distance(j, other)
}

// NumberOfTrackedJoints counts the joints whose state is exactly Tracked.
func NumberOfTrackedJoints(joints ...Joint) int {
	tracked := 0
	for _, j := range joints {
		if j.TrackingState == Tracked {
			tracked++
		}
	}
	return tracked
}

// UpperHeight returns the head to waist length in meters.
// Useful for seated users whose legs are not tracked.
func (s *Skeleton) UpperHeight() float64 {
	return Length(
		s.Joints[Head],
		s.Joints[ShoulderCenter],
		s.Joints[Spine],
		s.Joints[HipCenter],
	)
}

// Height estimates the standing height in meters.
//
// The leg length is taken from whichever leg has more tracked joints; the
// right leg is used when both are tracked equally well.
func (s *Skeleton) Height() float64 {
	left := s.LeftLeg()
	right := s.RightLeg()

	var legLength float64
	if NumberOfTrackedJoints(left[:]...) > NumberOfTrackedJoints(right[:]...) {
		legLength = Length(left[:]...)
	} else {
		legLength = Length(right[:]...)
	}

	return s.UpperHeight() + legLength + HeadDivergence
}

// LeftLeg returns hip, knee, ankle and foot of the left leg.
func (s *Skeleton) LeftLeg() [4]Joint {
	return [4]Joint{s.Joints[HipLeft], s.Joints[KneeLeft], s.Joints[AnkleLeft], s.Joints[FootLeft]}
}

// RightLeg returns hip, knee, ankle and foot of the right leg.
func (s *Skeleton) RightLeg() [4]Joint {
	return [4]Joint{s.Joints[HipRight], s.Joints[KneeRight], s.Joints[AnkleRight], s.Joints[FootRight]}
}

// ScaleTo maps the joint into a width x height pixel canvas. The skeleton
// space is assumed to span [-maxX, maxX] and [-maxY, maxY]. Y is flipped
// because image rows grow downward. Z is left untouched.
func (j Joint) ScaleTo(width, height int, maxX, maxY float64) Joint {
	j.Position = Point3D{
		X: scale(width, maxX, j.Position.X),
		Y: scale(height, maxY, -j.Position.Y),
		Z: j.Position.Z,
	}
	return j
}

// ScaleToCanvas is ScaleTo with a unit skeleton space.
func (j Joint) ScaleToCanvas(width, height int) Joint {
	return j.ScaleTo(width, height, 1.0, 1.0)
}

// scale projects a position onto [0, maxPixel]. The canvas center uses integer
// division, so odd sizes center on the lower pixel. A result that is not a
// number (NaN input, or zero range at the origin) lands on the center.
func scale(maxPixel int, maxSkeleton, position float64) float64 {
	center := float64(maxPixel / 2)
	value := ((float64(maxPixel)/maxSkeleton)/2)*position + center

	if math.IsNaN(value) {
		return center
	}
	if value > float64(maxPixel) {
		return float64(maxPixel)
	}
	if value < 0 {
		return 0
	}
	return value
}
