// Package annotate draws holistic landmarks onto frames for display.
// Nothing here is on the data path: annotated frames are never extracted.
package annotate

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/detector"
)

var (
	poseColor       = color.RGBA{R: 80, G: 220, B: 100}
	leftHandColor   = color.RGBA{R: 245, G: 117, B: 66}
	rightHandColor  = color.RGBA{R: 66, G: 117, B: 245}
	connectionColor = color.RGBA{R: 224, G: 224, B: 224}
)

// HandConnections are the bone segments of a MediaPipe hand.
var HandConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// PoseConnections are the upper-body segments of a MediaPipe pose.
var PoseConnections = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8},
	{detector.PoseMouthLeft, detector.PoseMouthRight},
	{detector.PoseLeftShoulder, detector.PoseRightShoulder},
	{detector.PoseLeftShoulder, detector.PoseLeftElbow}, {detector.PoseLeftElbow, detector.PoseLeftWrist},
	{detector.PoseRightShoulder, detector.PoseRightElbow}, {detector.PoseRightElbow, detector.PoseRightWrist},
	{detector.PoseLeftWrist, 17}, {detector.PoseLeftWrist, 19}, {detector.PoseLeftWrist, 21}, {17, 19},
	{detector.PoseRightWrist, 18}, {detector.PoseRightWrist, 20}, {detector.PoseRightWrist, 22}, {18, 20},
	{detector.PoseLeftShoulder, 23}, {detector.PoseRightShoulder, 24}, {23, 24},
}

// minVisibility hides pose points the model considers off-screen.
const minVisibility = 0.5

// Draw overlays set on frame in place. Coordinates are normalized to the frame size.
func Draw(frame *gocv.Mat, set *detector.LandmarkSet) {
	if frame == nil || frame.Empty() || set.Empty() {
		return
	}

	w, h := frame.Cols(), frame.Rows()

	if len(set.Pose) > 0 {
		pts := make([]image.Point, len(set.Pose))
		visible := make([]bool, len(set.Pose))
		for i, p := range set.Pose {
			pts[i] = toPixel(p.Point3D, w, h)
			visible[i] = p.Visibility >= minVisibility
		}
		for _, c := range PoseConnections {
			if c[0] < len(pts) && c[1] < len(pts) && visible[c[0]] && visible[c[1]] {
				gocv.Line(frame, pts[c[0]], pts[c[1]], connectionColor, 2)
			}
		}
		for i, pt := range pts {
			if visible[i] {
				gocv.Circle(frame, pt, 3, poseColor, -1)
			}
		}
	}

	drawHand(frame, set.LeftHand, leftHandColor, w, h)
	drawHand(frame, set.RightHand, rightHandColor, w, h)
}

func drawHand(frame *gocv.Mat, hand *detector.HandLandmarks, c color.RGBA, w, h int) {
	if hand == nil {
		return
	}

	var pts [detector.NumLandmarks]image.Point
	for i, p := range hand.Points {
		pts[i] = toPixel(p, w, h)
	}
	for _, conn := range HandConnections {
		gocv.Line(frame, pts[conn[0]], pts[conn[1]], connectionColor, 2)
	}
	for _, pt := range pts {
		gocv.Circle(frame, pt, 4, c, -1)
	}
}

func toPixel(p detector.Point3D, w, h int) image.Point {
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
}
