// Package detector turns video frames into holistic landmarks and fixed-width landmark vectors.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Pose landmark indices used by the vector layout, following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	PoseNose          = 0
	PoseLeftEar       = 7
	PoseRightEar      = 8
	PoseMouthLeft     = 9
	PoseMouthRight    = 10
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
	PoseLeftElbow     = 13
	PoseRightElbow    = 14
	PoseLeftWrist     = 15
	PoseRightWrist    = 16
	NumPoseLandmarks  = 33
)

// Vector layout. The pose block covers ears, mouth, shoulders, elbows and wrists.
const (
	PoseStart = PoseLeftEar
	PoseEnd   = PoseRightWrist + 1

	PoseValues = (PoseEnd - PoseStart) * 4 // x, y, z, visibility
	HandValues = NumLandmarks * 3          // x, y, z

	LeftHandOffset  = PoseValues
	RightHandOffset = PoseValues + HandValues

	VectorLen = PoseValues + 2*HandValues
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PosePoint is a pose landmark with the model's visibility estimate.
type PosePoint struct {
	Point3D
	Visibility float64 `json:"visibility"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// LandmarkSet is the holistic model output for one frame.
// Any group is nil when the model did not find it in the frame.
type LandmarkSet struct {
	Pose      []PosePoint    `json:"pose"`
	LeftHand  *HandLandmarks `json:"left_hand"`
	RightHand *HandLandmarks `json:"right_hand"`
}

// Empty reports whether no group was detected.
func (s *LandmarkSet) Empty() bool {
	return s == nil || (len(s.Pose) == 0 && s.LeftHand == nil && s.RightHand == nil)
}

// Vector is the fixed-width per-frame row: pose[7:17] as (x, y, z, visibility),
// then the left hand and the right hand as (x, y, z).
type Vector [VectorLen]float64

// Vector flattens the set into the row layout. Absent groups stay zero.
func (s *LandmarkSet) Vector() Vector {
	var v Vector
	if s == nil {
		return v
	}

	if len(s.Pose) > 0 {
		for i := PoseStart; i < PoseEnd && i < len(s.Pose); i++ {
			p := s.Pose[i]
			o := (i - PoseStart) * 4
			v[o] = p.X
			v[o+1] = p.Y
			v[o+2] = p.Z
			v[o+3] = p.Visibility
		}
	}

	putHand(v[LeftHandOffset:RightHandOffset], s.LeftHand)
	putHand(v[RightHandOffset:], s.RightHand)

	return v
}

func putHand(dst []float64, h *HandLandmarks) {
	if h == nil {
		return
	}
	for i, p := range h.Points {
		dst[i*3] = p.X
		dst[i*3+1] = p.Y
		dst[i*3+2] = p.Z
	}
}
