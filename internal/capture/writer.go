package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultCodec is the FOURCC used for .mp4 output.
const DefaultCodec = "mp4v"

// DefaultFPS is used when the source did not report a frame rate.
const DefaultFPS = 25.0

// ErrNoFrames is returned when asked to write an empty video.
var ErrNoFrames = errors.New("no frames to write")

// WriteVideo encodes frames into a video file at path, overwriting it.
// Every frame must have the size of the first one.
func WriteVideo(path string, frames []gocv.Mat, fps float64) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if fps <= 0 {
		fps = DefaultFPS
	}

	width, height := frames[0].Cols(), frames[0].Rows()

	w, err := gocv.VideoWriterFile(path, DefaultCodec, fps, width, height, frames[0].Channels() > 1)
	if err != nil {
		return fmt.Errorf("open writer %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return fmt.Errorf("open writer %s: codec %s unavailable", path, DefaultCodec)
	}

	for i := range frames {
		if frames[i].Cols() != width || frames[i].Rows() != height {
			w.Close()
			return fmt.Errorf("frame %d is %dx%d, want %dx%d", i, frames[i].Cols(), frames[i].Rows(), width, height)
		}
		if err := w.Write(frames[i]); err != nil {
			w.Close()
			return fmt.Errorf("write frame %d: %w", i, err)
		}
	}

	return w.Close()
}
