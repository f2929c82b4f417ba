// Package capture provides video frame sources and sinks using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultDevice is the capture target used when none is given.
const DefaultDevice = "0"

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrEndOfStream is returned when a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrReadFailed is returned when a live device fails to deliver a frame.
	// The failure is transient; the caller may read again.
	ErrReadFailed = errors.New("failed to read frame")
)

// Info describes the stream behind an open source.
// FrameCount is zero for live devices.
type Info struct {
	Width      int
	Height     int
	FrameCount int
	FPS        float64
}

// Source is a scoped sequence of BGR frames in temporal order.
type Source interface {
	Open() error
	// Read returns the next frame. The caller is responsible for closing it.
	Read() (*gocv.Mat, error)
	Close() error
	IsOpen() bool
	Info() Info
}

// videoSource reads from a video file or a capture device using GoCV.
type videoSource struct {
	target   string
	deviceID int
	isDevice bool
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewSource creates a Source for target. A target that parses as an integer
// is a device index; anything else is a file path.
func NewSource(target string) Source {
	if target == "" {
		target = DefaultDevice
	}

	s := &videoSource{target: target}
	if id, err := strconv.Atoi(target); err == nil {
		s.deviceID = id
		s.isDevice = true
	}
	return s
}

// Open opens the underlying file or device.
func (s *videoSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if s.isDevice {
		capture, err = gocv.VideoCaptureDevice(s.deviceID)
	} else {
		capture, err = gocv.VideoCaptureFile(s.target)
	}
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return fmt.Errorf("open %s: %w", s.target, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open %s: capture not opened", s.target)
	}

	s.capture = capture
	s.running = true

	return nil
}

// Close releases the capture handle. Closing a closed source is a no-op.
func (s *videoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false

	return err
}

// Read reads the next frame.
// A file that yields no frame has ended; a device that yields no frame has failed transiently.
func (s *videoSource) Read() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if s.isDevice {
			return nil, ErrReadFailed
		}
		return nil, ErrEndOfStream
	}

	return &mat, nil
}

// IsOpen returns true if the source is currently open.
func (s *videoSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Info returns the stream properties reported by the backend.
func (s *videoSource) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return Info{}
	}

	info := Info{
		Width:  int(s.capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(s.capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    s.capture.Get(gocv.VideoCaptureFPS),
	}
	if !s.isDevice {
		info.FrameCount = int(s.capture.Get(gocv.VideoCaptureFrameCount))
	}
	return info
}

// ReadAll opens src, buffers every frame until the end of stream and closes src.
// It must not be used with a live device. The caller owns the returned mats.
func ReadAll(src Source) ([]gocv.Mat, Info, error) {
	if err := src.Open(); err != nil {
		return nil, Info{}, err
	}
	defer src.Close()

	info := src.Info()

	var frames []gocv.Mat
	for {
		frame, err := src.Read()
		if errors.Is(err, ErrEndOfStream) {
			break
		}
		if err != nil {
			CloseAll(frames)
			return nil, info, err
		}
		frames = append(frames, *frame)
	}

	return frames, info, nil
}

// CloseAll closes every mat in frames.
func CloseAll(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}
