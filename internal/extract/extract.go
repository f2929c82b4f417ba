// Package extract runs the per-frame landmark extraction loop over a frame source.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/capture"
	"github.com/ayusman/signprep/internal/dataset"
	"github.com/ayusman/signprep/internal/detector"
	"github.com/ayusman/signprep/internal/metrics"
)

// DefaultMaxReadFailures is how many consecutive transient read failures end a live run.
const DefaultMaxReadFailures = 30

// Display shows frames while they are processed.
type Display interface {
	// Show presents the frame with its landmarks and reports whether the user asked to stop.
	Show(frame *gocv.Mat, set *detector.LandmarkSet) bool
	Close() error
}

// Options controls one extraction run.
type Options struct {
	// OutPath is where the landmark table is written. Empty means no table is kept.
	OutPath string
	// Display, when set, receives every frame after detection.
	Display Display
	// MaxReadFailures overrides DefaultMaxReadFailures when positive.
	MaxReadFailures int
	// FinalizeOnCancel keeps the rows read so far when ctx is done.
	// Otherwise a cancelled run writes nothing and returns ctx.Err().
	FinalizeOnCancel bool
}

// Result summarizes one extraction run.
type Result struct {
	Frames          int
	Rows            int
	Written         bool
	Stopped         bool
	PoseAbsent      int
	LeftHandAbsent  int
	RightHandAbsent int
}

// Extractor turns videos into landmark tables with one detector.
type Extractor struct {
	detector detector.Detector
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates an Extractor. The detector stays owned by the caller.
func New(d detector.Detector, logger *zap.Logger, m *metrics.Metrics) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		detector: d,
		logger:   logger,
		metrics:  m,
	}
}

// Extract runs the loop over the video file at in and writes the table to out.
// A cancelled extraction writes nothing.
func (e *Extractor) Extract(ctx context.Context, in, out string) (Result, error) {
	return e.Run(ctx, capture.NewSource(in), Options{OutPath: out})
}

// Run reads src until it ends, the display asks to stop or ctx is done.
// Every frame read becomes one row, zero-filled where nothing was detected.
// The detector is reset first so no tracking state carries over from another video.
// The table is finalized at end of stream and on a display stop; src is always closed.
func (e *Extractor) Run(ctx context.Context, src capture.Source, opts Options) (Result, error) {
	var res Result

	maxFailures := opts.MaxReadFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxReadFailures
	}

	if err := src.Open(); err != nil {
		return res, err
	}
	defer src.Close()

	if err := e.detector.Reset(); err != nil {
		return res, fmt.Errorf("reset detector: %w", err)
	}

	var table *dataset.Table
	if opts.OutPath != "" {
		table = dataset.NewTable()
	}

	failures := 0
loop:
	for {
		if err := ctx.Err(); err != nil {
			e.logger.Info("extraction interrupted", zap.Error(err), zap.Int("frames", res.Frames))
			if !opts.FinalizeOnCancel {
				return res, err
			}
			break
		}

		frame, err := src.Read()
		switch {
		case errors.Is(err, capture.ErrEndOfStream):
			break loop
		case errors.Is(err, capture.ErrReadFailed):
			failures++
			if failures >= maxFailures {
				return res, fmt.Errorf("%d consecutive read failures: %w", failures, err)
			}
			continue
		case err != nil:
			return res, err
		}
		failures = 0

		set, err := e.detector.Detect(frame)
		if err != nil {
			frame.Close()
			return res, fmt.Errorf("detect frame %d: %w", res.Frames, err)
		}
		res.Frames++
		e.count(set, &res)

		if table != nil {
			table.Append(set.Vector())
		}

		stop := false
		if opts.Display != nil {
			stop = opts.Display.Show(frame, set)
		}
		frame.Close()

		if stop {
			res.Stopped = true
			break
		}
	}

	if table == nil {
		return res, nil
	}
	res.Rows = table.Len()

	if err := table.Finalize(opts.OutPath); err != nil {
		return res, err
	}
	res.Written = true
	e.metrics.TableWritten()

	e.logger.Debug("landmarks written",
		zap.String("path", opts.OutPath),
		zap.Int("rows", res.Rows),
	)

	return res, nil
}

func (e *Extractor) count(set *detector.LandmarkSet, res *Result) {
	e.metrics.Frame()
	if set == nil || len(set.Pose) == 0 {
		res.PoseAbsent++
		e.metrics.Absent(metrics.GroupPose)
	}
	if set == nil || set.LeftHand == nil {
		res.LeftHandAbsent++
		e.metrics.Absent(metrics.GroupLeftHand)
	}
	if set == nil || set.RightHand == nil {
		res.RightHandAbsent++
		e.metrics.Absent(metrics.GroupRightHand)
	}
}
