package camera

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
)

// ErrSinkBusy is returned by Claim while another capture holds the sink.
var ErrSinkBusy = errors.New("video sink is in use by another capture")

// Frame is one decoded camera frame as held by the sink.
type Frame struct {
	Image      image.Image
	Seq        uint64
	ReceivedAt time.Time
}

// Sink is the live video sink: it always holds the most recent frame bound
// from the camera stream and drops older ones.
type Sink struct {
	mu      sync.RWMutex
	current Frame
	hasAny  bool
	seq     uint64
	ready   chan struct{}

	claimMu sync.Mutex
	claimed bool
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{ready: make(chan struct{})}
}

// Set replaces the current frame.
func (s *Sink) Set(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = Frame{Image: img, Seq: s.seq, ReceivedAt: time.Now()}
	if !s.hasAny {
		s.hasAny = true
		close(s.ready)
	}
}

// Current returns the latest frame image, or false when nothing was ever bound.
func (s *Sink) Current() (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasAny {
		return nil, false
	}
	return s.current.Image, true
}

// Latest returns the latest frame with its metadata.
func (s *Sink) Latest() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.hasAny
}

// WaitFrame blocks until the first frame arrives or ctx is done.
func (s *Sink) WaitFrame(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Claim marks the sink as in use by one capture. The returned release func
// must be called when the capture is done; calling it twice is a no-op.
func (s *Sink) Claim() (func(), error) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	if s.claimed {
		return nil, ErrSinkBusy
	}
	s.claimed = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.claimMu.Lock()
			s.claimed = false
			s.claimMu.Unlock()
		})
	}, nil
}
