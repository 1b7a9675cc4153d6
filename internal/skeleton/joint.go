// Package skeleton provides the body-tracking data model and the geometry helpers
// used to measure, scale and serialize tracked skeletons.
package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// JointType identifies a tracked body part.
type JointType int

// Joint types in sensor order.
const (
	SpineBase JointType = iota
	SpineMid
	Neck
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeft
	ShoulderRight
	ElbowRight
	WristRight
	HandRight
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight
	SpineShoulder
	HandTipLeft
	ThumbLeft
	HandTipRight
	ThumbRight
	JointCount
)

// Names used by the first generation sensor for the torso joints.
const (
	HipCenter      = SpineBase
	Spine          = SpineMid
	ShoulderCenter = Neck
)

var jointNames = [JointCount]string{
	"SpineBase", "SpineMid", "Neck", "Head",
	"ShoulderLeft", "ElbowLeft", "WristLeft", "HandLeft",
	"ShoulderRight", "ElbowRight", "WristRight", "HandRight",
	"HipLeft", "KneeLeft", "AnkleLeft", "FootLeft",
	"HipRight", "KneeRight", "AnkleRight", "FootRight",
	"SpineShoulder", "HandTipLeft", "ThumbLeft", "HandTipRight", "ThumbRight",
}

// String returns the joint name, e.g. "HipLeft".
func (t JointType) String() string {
	if t < 0 || t >= JointCount {
		return fmt.Sprintf("JointType(%d)", int(t))
	}
	return jointNames[t]
}

// ParseJointType returns the joint type with the given name.
func ParseJointType(name string) (JointType, error) {
	for i, n := range jointNames {
		if n == name {
			return JointType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint type %q", name)
}

// TrackingState describes how reliably a joint position was measured.
type TrackingState int

const (
	// NotTracked means the sensor has no data for the joint.
	NotTracked TrackingState = iota
	// Inferred means the position was estimated from neighbouring joints.
	Inferred
	// Tracked means the joint was measured directly.
	Tracked
)

func (s TrackingState) String() string {
	switch s {
	case NotTracked:
		return "NotTracked"
	case Inferred:
		return "Inferred"
	case Tracked:
		return "Tracked"
	default:
		return fmt.Sprintf("TrackingState(%d)", int(s))
	}
}

// ParseTrackingState returns the tracking state with the given name.
func ParseTrackingState(name string) (TrackingState, error) {
	switch name {
	case "NotTracked":
		return NotTracked, nil
	case "Inferred":
		return Inferred, nil
	case "Tracked":
		return Tracked, nil
	}
	return NotTracked, fmt.Errorf("unknown tracking state %q", name)
}

// Point3D is a position in camera space, in meters.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Joint is a single tracked body part.
type Joint struct {
	Type          JointType
	Position      Point3D
	TrackingState TrackingState
}

// BoneOrientation is the rotation of the bone ending at EndJoint,
// relative to its parent bone.
type BoneOrientation struct {
	StartJoint JointType
	EndJoint   JointType
	Rotation   mgl64.Quat
}

// parents maps each joint to the joint its bone starts from.
var parents = [JointCount]JointType{
	SpineBase:     SpineBase,
	SpineMid:      SpineBase,
	Neck:          SpineShoulder,
	Head:          Neck,
	ShoulderLeft:  SpineShoulder,
	ElbowLeft:     ShoulderLeft,
	WristLeft:     ElbowLeft,
	HandLeft:      WristLeft,
	ShoulderRight: SpineShoulder,
	ElbowRight:    ShoulderRight,
	WristRight:    ElbowRight,
	HandRight:     WristRight,
	HipLeft:       SpineBase,
	KneeLeft:      HipLeft,
	AnkleLeft:     KneeLeft,
	FootLeft:      AnkleLeft,
	HipRight:      SpineBase,
	KneeRight:     HipRight,
	AnkleRight:    KneeRight,
	FootRight:     AnkleRight,
	SpineShoulder: SpineMid,
	HandTipLeft:   HandLeft,
	ThumbLeft:     HandLeft,
	HandTipRight:  HandRight,
	ThumbRight:    HandRight,
}

// Parent returns the joint the bone ending at t starts from.
func Parent(t JointType) JointType {
	return parents[t]
}

// Skeleton holds one body in one frame. There is exactly one entry per joint
// type; missing data is expressed through the joint's tracking state.
type Skeleton struct {
	Joints       [JointCount]Joint
	Orientations [JointCount]BoneOrientation
}

// NewSkeleton returns a skeleton with every joint untracked at the origin
// and identity bone rotations.
func NewSkeleton() Skeleton {
	var s Skeleton
	for i := JointType(0); i < JointCount; i++ {
		s.Joints[i] = Joint{Type: i, TrackingState: NotTracked}
		s.Orientations[i] = BoneOrientation{
			StartJoint: parents[i],
			EndJoint:   i,
			Rotation:   mgl64.QuatIdent(),
		}
	}
	return s
}

// Joint returns the joint of the given type.
func (s *Skeleton) Joint(t JointType) Joint {
	return s.Joints[t]
}

// Orientation returns the bone orientation ending at the given joint.
func (s *Skeleton) Orientation(t JointType) BoneOrientation {
	return s.Orientations[t]
}

// SetJoint stores a joint position and tracking state.
func (s *Skeleton) SetJoint(t JointType, p Point3D, state TrackingState) {
	s.Joints[t] = Joint{Type: t, Position: p, TrackingState: state}
}

// SetRotation stores the hierarchical rotation of the bone ending at t.
func (s *Skeleton) SetRotation(t JointType, q mgl64.Quat) {
	s.Orientations[t].Rotation = q
}
