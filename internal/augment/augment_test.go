package augment

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gocv.io/x/gocv"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// numberedFrames returns n single-channel frames whose pixels all equal their index.
func numberedFrames(n, rows, cols int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(i), 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	}
	return frames
}

func closeAll(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}

func TestDraw_ZeroBoundsIsIdentity(t *testing.T) {
	rng := newRNG(1)
	for i := 0; i < 100; i++ {
		p := Draw(rng, Bounds{}, 640, 480, 90)
		if !p.IsIdentity() {
			t.Fatalf("draw %d = %v, want identity", i, p)
		}
	}
}

func TestDraw_WithinBounds(t *testing.T) {
	const (
		width  = 640
		height = 480
		frames = 100
	)
	b := DefaultBounds()
	rng := newRNG(42)

	mirrored := 0
	const draws = 2000
	for i := 0; i < draws; i++ {
		p := Draw(rng, b, width, height, frames)

		if math.Abs(p.Angle) > b.MaxAngle {
			t.Fatalf("angle %f outside ±%f", p.Angle, b.MaxAngle)
		}
		if abs(p.ShiftX) > int(b.MaxShift*width) {
			t.Fatalf("shift x %d outside ±%d", p.ShiftX, int(b.MaxShift*width))
		}
		if abs(p.ShiftY) > int(b.MaxShift*height) {
			t.Fatalf("shift y %d outside ±%d", p.ShiftY, int(b.MaxShift*height))
		}
		if abs(p.TimeShift) > int(b.MaxTimeShift*frames) {
			t.Fatalf("time shift %d outside ±%d", p.TimeShift, int(b.MaxTimeShift*frames))
		}
		if p.Mirror {
			mirrored++
		}
	}

	// Loose bounds around the expected 50%.
	if mirrored < draws*4/10 || mirrored > draws*6/10 {
		t.Errorf("mirrored %d of %d draws, expected about half", mirrored, draws)
	}
}

func TestDraw_MirrorDisabled(t *testing.T) {
	b := DefaultBounds()
	b.Mirror = false
	rng := newRNG(7)

	for i := 0; i < 200; i++ {
		if Draw(rng, b, 100, 100, 10).Mirror {
			t.Fatal("mirror drawn while disabled")
		}
	}
}

func TestTimeShift(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		shift  int
		lo, hi int
	}{
		{name: "no shift", n: 10, shift: 0, lo: 0, hi: 10},
		{name: "drop leading", n: 10, shift: 3, lo: 3, hi: 10},
		{name: "drop trailing", n: 10, shift: -3, lo: 0, hi: 7},
		{name: "positive equals length", n: 10, shift: 10, lo: 10, hi: 10},
		{name: "negative equals length", n: 10, shift: -10, lo: 0, hi: 0},
		{name: "positive beyond length", n: 10, shift: 25, lo: 10, hi: 10},
		{name: "negative beyond length", n: 10, shift: -25, lo: 0, hi: 0},
		{name: "empty input", n: 0, shift: 2, lo: 0, hi: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := TimeShift(tt.n, tt.shift)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("TimeShift(%d, %d) = [%d, %d), want [%d, %d)", tt.n, tt.shift, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestApply_TimeShiftDropsFrames(t *testing.T) {
	frames := numberedFrames(10, 8, 8)
	defer closeAll(frames)

	t.Run("positive drops the first T frames", func(t *testing.T) {
		out, err := Apply(frames, Params{TimeShift: 3})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		defer closeAll(out)

		if len(out) != 7 {
			t.Fatalf("len = %d, want 7", len(out))
		}
		for i := range out {
			if got := out[i].GetUCharAt(0, 0); int(got) != i+3 {
				t.Errorf("out[%d] came from frame %d, want %d", i, got, i+3)
			}
		}
	})

	t.Run("negative drops the last T frames", func(t *testing.T) {
		out, err := Apply(frames, Params{TimeShift: -4})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		defer closeAll(out)

		if len(out) != 6 {
			t.Fatalf("len = %d, want 6", len(out))
		}
		for i := range out {
			if got := out[i].GetUCharAt(0, 0); int(got) != i {
				t.Errorf("out[%d] came from frame %d, want %d", i, got, i)
			}
		}
	})

	t.Run("shift consuming every frame is empty", func(t *testing.T) {
		for _, shift := range []int{10, -10, 11} {
			out, err := Apply(frames, Params{TimeShift: shift})
			if !errors.Is(err, ErrEmptySequence) {
				t.Errorf("Apply(shift=%d) error = %v, want ErrEmptySequence", shift, err)
			}
			if len(out) != 0 {
				t.Errorf("Apply(shift=%d) returned %d frames", shift, len(out))
			}
		}
	})
}

func TestAugment_ZeroBoundsIdentity(t *testing.T) {
	frames := make([]gocv.Mat, 6)
	for i := range frames {
		frames[i] = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(10*i), 50, 200, 0), 24, 32, gocv.MatTypeCV8UC3)
		frames[i].SetUCharAt(3, 5, 255)
	}
	defer closeAll(frames)

	a := New(Bounds{}, newRNG(3), nil)

	out, p, err := a.Augment(frames)
	if err != nil {
		t.Fatalf("Augment() error = %v", err)
	}
	defer closeAll(out)

	if !p.IsIdentity() {
		t.Errorf("params = %v, want identity", p)
	}
	if len(out) != len(frames) {
		t.Fatalf("len = %d, want %d", len(out), len(frames))
	}
	for i := range out {
		if !bytes.Equal(out[i].ToBytes(), frames[i].ToBytes()) {
			t.Errorf("frame %d differs from input", i)
		}
	}
}

func TestAugment_Empty(t *testing.T) {
	a := New(DefaultBounds(), newRNG(1), nil)

	if _, _, err := a.Augment(nil); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("Augment(nil) error = %v, want ErrEmptySequence", err)
	}
}

func TestAugment_KeepsFrameSize(t *testing.T) {
	frames := numberedFrames(20, 48, 64)
	defer closeAll(frames)

	a := New(DefaultBounds(), newRNG(99), nil)
	out, p, err := a.Augment(frames)
	if err != nil {
		t.Fatalf("Augment() error = %v", err)
	}
	defer closeAll(out)

	lo, hi := TimeShift(len(frames), p.TimeShift)
	if len(out) != hi-lo {
		t.Errorf("len = %d, want %d for %v", len(out), hi-lo, p)
	}
	for i := range out {
		if out[i].Rows() != 48 || out[i].Cols() != 64 {
			t.Fatalf("frame %d is %dx%d, want 64x48", i, out[i].Cols(), out[i].Rows())
		}
	}
}

func TestTransform(t *testing.T) {
	const rows, cols = 20, 30

	marked := func() gocv.Mat {
		m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
		m.SetTo(gocv.NewScalar(0, 0, 0, 0))
		m.SetUCharAt(4, 6, 255)
		return m
	}

	t.Run("identity clones", func(t *testing.T) {
		src := marked()
		defer src.Close()

		out := Transform(src, Params{})
		defer out.Close()

		if !bytes.Equal(out.ToBytes(), src.ToBytes()) {
			t.Error("identity transform changed the frame")
		}
	})

	t.Run("shift moves content by whole pixels", func(t *testing.T) {
		src := marked()
		defer src.Close()

		out := Transform(src, Params{ShiftX: 3, ShiftY: 2})
		defer out.Close()

		if out.GetUCharAt(6, 9) != 255 {
			t.Error("marked pixel not found at (row 6, col 9) after shift")
		}
		if out.GetUCharAt(4, 6) != 0 {
			t.Error("original position should be cleared")
		}
		if gocv.CountNonZero(out) != 1 {
			t.Errorf("CountNonZero = %d, want 1", gocv.CountNonZero(out))
		}
	})

	t.Run("mirror flips columns", func(t *testing.T) {
		src := marked()
		defer src.Close()

		out := Transform(src, Params{Mirror: true})
		defer out.Close()

		if out.GetUCharAt(4, cols-1-6) != 255 {
			t.Error("marked pixel not mirrored")
		}
	})

	t.Run("rotation keeps size", func(t *testing.T) {
		src := marked()
		defer src.Close()

		out := Transform(src, Params{Angle: 30})
		defer out.Close()

		if out.Rows() != rows || out.Cols() != cols {
			t.Errorf("size = %dx%d, want %dx%d", out.Cols(), out.Rows(), cols, rows)
		}
		if out.GetUCharAt(4, 6) == 255 && gocv.CountNonZero(out) == 1 {
			t.Error("rotation left the frame unchanged")
		}
	})

	t.Run("shift out of frame blanks it", func(t *testing.T) {
		src := marked()
		defer src.Close()

		out := Transform(src, Params{ShiftX: cols})
		defer out.Close()

		if gocv.CountNonZero(out) != 0 {
			t.Error("expected an empty frame")
		}
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
