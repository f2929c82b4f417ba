package server

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/signprep/internal/annotate"
	"github.com/ayusman/signprep/internal/detector"
)

// Snapshot is the most recent processed frame.
type Snapshot struct {
	Seq    int
	JPEG   []byte
	Vector detector.Vector
}

// Preview publishes annotated frames to HTTP clients. It satisfies the
// extraction display, so a headless run can be watched from a browser.
type Preview struct {
	mu      sync.Mutex
	latest  Snapshot
	changed chan struct{}
	closed  bool
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{changed: make(chan struct{})}
}

// Show annotates a copy of frame and publishes it. It never asks to stop.
func (p *Preview) Show(frame *gocv.Mat, set *detector.LandmarkSet) bool {
	annotated := frame.Clone()
	defer annotated.Close()
	annotate.Draw(&annotated, set)

	buf, err := gocv.IMEncode(".jpg", annotated)
	if err != nil {
		return false
	}
	defer buf.Close()

	// GetBytes aliases native memory freed by Close.
	jpeg := append([]byte(nil), buf.GetBytes()...)
	p.Publish(jpeg, set.Vector())
	return false
}

// Publish stores a new snapshot and wakes every waiting client.
func (p *Preview) Publish(jpeg []byte, vec detector.Vector) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.latest = Snapshot{Seq: p.latest.Seq + 1, JPEG: jpeg, Vector: vec}
	close(p.changed)
	p.changed = make(chan struct{})
}

// Latest returns the current snapshot; Seq is 0 before the first frame.
func (p *Preview) Latest() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Next blocks until a snapshot newer than seq exists and returns it.
// It returns false when ctx is done or the preview is closed.
func (p *Preview) Next(ctx context.Context, seq int) (Snapshot, bool) {
	for {
		p.mu.Lock()
		snap, changed, closed := p.latest, p.changed, p.closed
		p.mu.Unlock()

		if snap.Seq > seq {
			return snap, true
		}
		if closed {
			return Snapshot{}, false
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return Snapshot{}, false
		}
	}
}

// Close ends every stream. Close is idempotent.
func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.changed)
	}
	return nil
}
