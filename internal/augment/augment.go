package augment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/capture"
)

// ErrEmptySequence is returned when there are no frames to augment, or when the
// drawn time shift removes every frame.
var ErrEmptySequence = errors.New("augmented sequence is empty")

// Augmenter applies one random draw of Params to a whole video.
type Augmenter struct {
	bounds Bounds
	rng    *rand.Rand
	logger *zap.Logger
}

// New creates an Augmenter. A nil rng is replaced by a randomly seeded one.
func New(bounds Bounds, rng *rand.Rand, logger *zap.Logger) *Augmenter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Augmenter{
		bounds: bounds,
		rng:    rng,
		logger: logger,
	}
}

// Augment draws Params once and returns transformed copies of the frames that
// survive the time shift. The input frames are not modified; the caller owns both slices.
func (a *Augmenter) Augment(frames []gocv.Mat) ([]gocv.Mat, Params, error) {
	if len(frames) == 0 {
		return nil, Params{}, ErrEmptySequence
	}

	p := Draw(a.rng, a.bounds, frames[0].Cols(), frames[0].Rows(), len(frames))

	out, err := Apply(frames, p)
	return out, p, err
}

// Apply cuts frames by p.TimeShift and transforms every remaining frame by p.
func Apply(frames []gocv.Mat, p Params) ([]gocv.Mat, error) {
	lo, hi := TimeShift(len(frames), p.TimeShift)
	if lo >= hi {
		return nil, ErrEmptySequence
	}

	out := make([]gocv.Mat, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Transform(frames[i], p))
	}
	return out, nil
}

// Transform returns a new frame: frame rotated by p.Angle about its center, then
// translated by (p.ShiftX, p.ShiftY), then mirrored horizontally when p.Mirror.
// The size is kept, interpolation is nearest-neighbor and uncovered pixels are black.
func Transform(frame gocv.Mat, p Params) gocv.Mat {
	out := frame.Clone()
	size := image.Pt(frame.Cols(), frame.Rows())

	if p.Angle != 0 {
		m := gocv.GetRotationMatrix2D(image.Pt(size.X/2, size.Y/2), p.Angle, 1.0)
		out = warp(out, m, size)
		m.Close()
	}

	if p.ShiftX != 0 || p.ShiftY != 0 {
		m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
		m.SetDoubleAt(0, 0, 1)
		m.SetDoubleAt(0, 1, 0)
		m.SetDoubleAt(0, 2, float64(p.ShiftX))
		m.SetDoubleAt(1, 0, 0)
		m.SetDoubleAt(1, 1, 1)
		m.SetDoubleAt(1, 2, float64(p.ShiftY))
		out = warp(out, m, size)
		m.Close()
	}

	if p.Mirror {
		flipped := gocv.NewMat()
		gocv.Flip(out, &flipped, 1)
		out.Close()
		out = flipped
	}

	return out
}

// warp applies the affine m to src, closing src.
func warp(src gocv.Mat, m gocv.Mat, size image.Point) gocv.Mat {
	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, m, size, gocv.InterpolationNearestNeighbor, gocv.BorderConstant, color.RGBA{})
	src.Close()
	return dst
}

// AugmentFile reads the video at in, augments it and writes the result to out,
// overwriting it. It returns the drawn Params and the number of frames written.
// Nothing is written when the result is empty.
func (a *Augmenter) AugmentFile(ctx context.Context, in, out string) (Params, int, error) {
	frames, info, err := capture.ReadAll(capture.NewSource(in))
	if err != nil {
		return Params{}, 0, fmt.Errorf("read %s: %w", in, err)
	}
	defer capture.CloseAll(frames)

	if err := ctx.Err(); err != nil {
		return Params{}, 0, err
	}

	augmented, p, err := a.Augment(frames)
	if err != nil {
		a.logger.Warn("augmentation produced no frames",
			zap.String("input", in),
			zap.Int("frames", len(frames)),
			zap.Stringer("params", p),
		)
		return p, 0, err
	}
	defer capture.CloseAll(augmented)

	if err := capture.WriteVideo(out, augmented, info.FPS); err != nil {
		return p, 0, fmt.Errorf("write %s: %w", out, err)
	}

	a.logger.Debug("video augmented",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("frames_in", len(frames)),
		zap.Int("frames_out", len(augmented)),
		zap.Stringer("params", p),
	)

	return p, len(augmented), nil
}
