package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded frames for testing.
// It behaves like a file: ErrEndOfStream once the frames are consumed.
type MockSource struct {
	frames  []*gocv.Mat
	failAt  map[int]bool
	index   int
	reads   int
	mu      sync.Mutex
	running bool
	closes  int
	fps     float64
}

func NewMockSource(frames []*gocv.Mat) *MockSource {
	return &MockSource{
		frames: frames,
		failAt: make(map[int]bool),
		fps:    25,
	}
}

// FailRead makes the n-th call to Read (0-based) return ErrReadFailed.
func (s *MockSource) FailRead(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt[n] = true
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	s.reads = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.closes++
	return nil
}

func (s *MockSource) Read() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}

	n := s.reads
	s.reads++
	if s.failAt[n] {
		return nil, ErrReadFailed
	}

	if s.index >= len(s.frames) {
		return nil, ErrEndOfStream
	}

	// Clone the frame so the original isn't modified
	frame := s.frames[s.index].Clone()
	s.index++

	return &frame, nil
}

func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *MockSource) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{FrameCount: len(s.frames), FPS: s.fps}
	if len(s.frames) > 0 {
		info.Width = s.frames[0].Cols()
		info.Height = s.frames[0].Rows()
	}
	return info
}

// Closes returns how many times Close was called.
func (s *MockSource) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
