package annotate

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/detector"
)

// Window display settings.
const (
	WindowName   = "Annotated hands"
	WindowSize   = 1000
	FrameDelayMs = 40
)

// Window shows annotated frames in a local OpenCV window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a resizable window.
func NewWindow() *Window {
	w := gocv.NewWindow(WindowName)
	w.SetWindowProperty(gocv.WindowPropertyAutosize, gocv.WindowNormal)
	w.ResizeWindow(WindowSize, WindowSize)
	return &Window{window: w}
}

// Show draws set on frame, shows it mirrored like a selfie view and waits one
// frame delay. It reports true when the user pressed 'q'.
func (w *Window) Show(frame *gocv.Mat, set *detector.LandmarkSet) bool {
	Draw(frame, set)

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(*frame, &mirrored, 1)

	w.window.IMShow(mirrored)
	return w.window.WaitKey(FrameDelayMs)&0xFF == 'q'
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
