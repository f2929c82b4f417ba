// Package augment produces randomly transformed copies of videos for data augmentation.
package augment

import (
	"fmt"
	"math/rand/v2"
)

// Bounds limits the random draw of Params.
type Bounds struct {
	// MaxAngle is the largest rotation in degrees, either direction.
	MaxAngle float64
	// MaxShift is the largest translation as a fraction of the frame width/height.
	MaxShift float64
	// MaxTimeShift is the largest time shift as a fraction of the frame count.
	MaxTimeShift float64
	// Mirror enables the 50% chance of a horizontal flip.
	Mirror bool
}

// DefaultBounds returns the bounds used for dataset augmentation.
func DefaultBounds() Bounds {
	return Bounds{
		MaxAngle:     35,
		MaxShift:     0.2,
		MaxTimeShift: 0.3,
		Mirror:       true,
	}
}

// Params is one draw of transformations, applied identically to every frame of a video.
type Params struct {
	Mirror    bool
	Angle     float64 // degrees, counter-clockwise
	ShiftX    int     // pixels, positive moves content right
	ShiftY    int     // pixels, positive moves content down
	TimeShift int     // frames, positive drops leading frames, negative drops trailing frames
}

// IsIdentity reports whether p leaves frames untouched.
func (p Params) IsIdentity() bool {
	return !p.Mirror && p.Angle == 0 && p.ShiftX == 0 && p.ShiftY == 0 && p.TimeShift == 0
}

func (p Params) String() string {
	return fmt.Sprintf("mirror=%t angle=%.2f shift=(%d,%d) time_shift=%d", p.Mirror, p.Angle, p.ShiftX, p.ShiftY, p.TimeShift)
}

// Draw samples Params for a video of frames frames of width x height pixels.
// Pixel and frame amounts are truncated toward zero.
func Draw(rng *rand.Rand, b Bounds, width, height, frames int) Params {
	var p Params

	if b.Mirror {
		p.Mirror = rng.IntN(2) == 1
	}
	p.Angle = uniform(rng, b.MaxAngle)
	p.ShiftX = int(uniform(rng, b.MaxShift) * float64(width))
	p.ShiftY = int(uniform(rng, b.MaxShift) * float64(height))
	p.TimeShift = int(uniform(rng, b.MaxTimeShift) * float64(frames))

	return p
}

// uniform draws from [-limit, limit]. A zero limit always yields 0.
func uniform(rng *rand.Rand, limit float64) float64 {
	if limit == 0 {
		return 0
	}
	return (2*rng.Float64() - 1) * limit
}

// TimeShift returns the [lo, hi) window of n frames that survives shift.
// The window is empty when |shift| >= n.
func TimeShift(n, shift int) (lo, hi int) {
	switch {
	case shift > 0:
		return min(shift, n), n
	case shift < 0:
		return 0, max(n+shift, 0)
	default:
		return 0, n
	}
}
