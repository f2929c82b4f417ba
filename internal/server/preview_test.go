package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/detector"
)

func TestPreview_Next(t *testing.T) {
	p := NewPreview()
	defer p.Close()

	if p.Latest().Seq != 0 {
		t.Fatal("new preview should have no frames")
	}

	got := make(chan Snapshot, 1)
	go func() {
		snap, ok := p.Next(context.Background(), 0)
		if ok {
			got <- snap
		}
		close(got)
	}()

	var vec detector.Vector
	vec[0] = 1
	p.Publish([]byte{0xff, 0xd8}, vec)

	select {
	case snap, ok := <-got:
		if !ok {
			t.Fatal("Next() returned false")
		}
		if snap.Seq != 1 || snap.Vector[0] != 1 || len(snap.JPEG) != 2 {
			t.Errorf("snapshot = %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next() did not wake on Publish")
	}
}

func TestPreview_NextReturnsBufferedSnapshot(t *testing.T) {
	p := NewPreview()
	p.Publish(nil, detector.Vector{})
	p.Publish(nil, detector.Vector{})

	snap, ok := p.Next(context.Background(), 0)
	if !ok || snap.Seq != 2 {
		t.Errorf("Next(0) = %d, %v; want latest snapshot 2", snap.Seq, ok)
	}
}

func TestPreview_NextStops(t *testing.T) {
	t.Run("on context", func(t *testing.T) {
		p := NewPreview()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, ok := p.Next(ctx, 0); ok {
			t.Error("Next() should return false when ctx is done")
		}
	})

	t.Run("on close", func(t *testing.T) {
		p := NewPreview()
		go func() {
			time.Sleep(20 * time.Millisecond)
			p.Close()
		}()

		if _, ok := p.Next(context.Background(), 0); ok {
			t.Error("Next() should return false after Close")
		}
		if err := p.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})
}

func TestPreview_ShowPublishesJPEG(t *testing.T) {
	p := NewPreview()
	defer p.Close()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()
	before := frame.ToBytes()

	set := detector.SigningLandmarks()
	if stop := p.Show(&frame, set); stop {
		t.Error("Show() should never ask to stop")
	}

	snap := p.Latest()
	if snap.Seq != 1 {
		t.Fatalf("Seq = %d, want 1", snap.Seq)
	}
	if len(snap.JPEG) < 2 || snap.JPEG[0] != 0xff || snap.JPEG[1] != 0xd8 {
		t.Error("published frame is not a JPEG")
	}
	if snap.Vector != set.Vector() {
		t.Error("published vector differs from the landmark set")
	}

	// The caller's frame is not drawn on.
	if !bytes.Equal(frame.ToBytes(), before) {
		t.Error("Show() modified the input frame")
	}
}
