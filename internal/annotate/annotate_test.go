package annotate

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/detector"
)

func blankFrame() gocv.Mat {
	m := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return m
}

func drawnPixels(m gocv.Mat) int {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)
	return gocv.CountNonZero(gray)
}

func TestDraw_EmptySetLeavesFrame(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()

	Draw(&frame, &detector.LandmarkSet{})
	Draw(&frame, nil)

	if n := drawnPixels(frame); n != 0 {
		t.Errorf("%d pixels drawn for an empty set, want 0", n)
	}
}

func TestDraw_Landmarks(t *testing.T) {
	tests := []struct {
		name string
		set  *detector.LandmarkSet
	}{
		{name: "full set", set: detector.SigningLandmarks()},
		{name: "right hand only", set: &detector.LandmarkSet{RightHand: detector.SigningLandmarks().RightHand}},
		{name: "pose only", set: &detector.LandmarkSet{Pose: detector.SigningLandmarks().Pose}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := blankFrame()
			defer frame.Close()

			Draw(&frame, tt.set)

			if n := drawnPixels(frame); n == 0 {
				t.Error("expected landmarks to be drawn")
			}
		})
	}
}

func TestDraw_HiddenPosePoints(t *testing.T) {
	set := detector.SigningLandmarks()
	set.LeftHand, set.RightHand = nil, nil
	for i := range set.Pose {
		set.Pose[i].Visibility = 0.1
	}

	frame := blankFrame()
	defer frame.Close()

	Draw(&frame, set)

	if n := drawnPixels(frame); n != 0 {
		t.Errorf("%d pixels drawn for invisible pose points, want 0", n)
	}
}

func TestConnections_InRange(t *testing.T) {
	for _, c := range HandConnections {
		if c[0] >= detector.NumLandmarks || c[1] >= detector.NumLandmarks {
			t.Errorf("hand connection %v out of range", c)
		}
	}
	for _, c := range PoseConnections {
		if c[0] >= detector.NumPoseLandmarks || c[1] >= detector.NumPoseLandmarks {
			t.Errorf("pose connection %v out of range", c)
		}
	}
}
