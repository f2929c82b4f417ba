// Package fixtures generates synthetic frames and videos for tests.
package fixtures

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/capture"
)

// Frames returns n BGR frames of a white square moving right across a black background.
// The caller owns the mats.
func Frames(n, width, height int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	side := max(height/4, 1)
	for i := range frames {
		frames[i] = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
		x := (i * 4) % max(width-side, 1)
		rect := image.Rect(x, height/2-side/2, x+side, height/2+side/2)
		gocv.Rectangle(&frames[i], rect, color.RGBA{R: 255, G: 255, B: 255}, -1)
	}
	return frames
}

// WriteVideo writes n synthetic frames to path.
func WriteVideo(path string, n, width, height int) error {
	frames := Frames(n, width, height)
	defer capture.CloseAll(frames)

	if err := capture.WriteVideo(path, frames, capture.DefaultFPS); err != nil {
		return fmt.Errorf("write fixture video: %w", err)
	}
	return nil
}
