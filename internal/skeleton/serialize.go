package skeleton

// JointRecord is the wire form of one joint: position, tracking state and
// the rotation of the bone ending at the joint as [X, Y, Z, W].
type JointRecord struct {
	X                  float64    `json:"X"`
	Y                  float64    `json:"Y"`
	Z                  float64    `json:"Z"`
	State              string     `json:"state"`
	RotationFrom       string     `json:"rotationFrom"`
	RotationQuaternion [4]float64 `json:"rotationQuaternion"`
}

// SerializeJoint projects the joint of type t into a JointRecord.
func (s *Skeleton) SerializeJoint(t JointType) JointRecord {
	joint := s.Joints[t]
	bone := s.Orientations[t]
	q := bone.Rotation

	return JointRecord{
		X:                  joint.Position.X,
		Y:                  joint.Position.Y,
		Z:                  joint.Position.Z,
		State:              joint.TrackingState.String(),
		RotationFrom:       bone.StartJoint.String(),
		RotationQuaternion: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
	}
}

// SerializeAll returns a record for every joint keyed by joint name.
func (s *Skeleton) SerializeAll() map[string]JointRecord {
	records := make(map[string]JointRecord, JointCount)
	for t := JointType(0); t < JointCount; t++ {
		records[t.String()] = s.SerializeJoint(t)
	}
	return records
}
