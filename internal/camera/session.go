package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrAlreadyStarted is returned when Start is called on a session that was
// already started once.
var ErrAlreadyStarted = errors.New("camera session already started")

// AccessError reports why a source could not be opened. It matches ErrAccessDenied.
type AccessError struct {
	Source string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("camera %s: access denied: %v", e.Source, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

func (e *AccessError) Is(target error) bool {
	return target == ErrAccessDenied
}

func errInvalidSize(w, h int) error {
	return fmt.Errorf("invalid frame size %dx%d", w, h)
}

// State is the lifecycle state of a Session.
type State int

// Session lifecycle: Absent → Acquiring → Bound → Released.
const (
	StateAbsent State = iota
	StateAcquiring
	StateBound
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateAcquiring:
		return "acquiring"
	case StateBound:
		return "bound"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// BoundStream describes the stream bound to the sink by a successful Start.
type BoundStream struct {
	Source  string
	BoundAt time.Time
}

// Session owns the camera stream: it acquires it once, pumps its frames into
// the sink until released, and is never restarted.
type Session struct {
	source Source
	sink   *Sink
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	started bool
	feed    Feed
	bound   *BoundStream
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession creates a session that binds source to sink.
func NewSession(source Source, sink *Sink, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{source: source, sink: sink, logger: logger}
}

// Sink returns the video sink the session binds to.
func (s *Session) Sink() *Sink {
	return s.sink
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the acquisition error of a failed Start, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Bound returns the bound stream, or nil when the camera is not bound.
func (s *Session) Bound() *BoundStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateBound {
		return nil
	}
	return s.bound
}

// Start requests access to the camera and binds the resulting stream to the
// sink. It may only be called once; a failed Start leaves the session Absent
// and the sink without frames.
func (s *Session) Start(ctx context.Context) (*BoundStream, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.started = true
	s.state = StateAcquiring
	s.mu.Unlock()

	s.logger.Info("camera acquiring", "source", s.source.Name())

	feed, err := s.source.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrAccessDenied) {
			err = &AccessError{Source: s.source.Name(), Err: err}
		}
		s.mu.Lock()
		s.state = StateAbsent
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("camera access failed", "source", s.source.Name(), "error", err)
		return nil, err
	}

	// The pump outlives the Start call; it stops on Release only.
	pumpCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	bound := &BoundStream{Source: s.source.Name(), BoundAt: time.Now()}

	s.mu.Lock()
	s.feed = feed
	s.bound = bound
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateBound
	done := s.done
	s.mu.Unlock()

	go s.pump(pumpCtx, feed, done)

	s.logger.Info("camera bound", "source", bound.Source)
	return bound, nil
}

func (s *Session) pump(ctx context.Context, feed Feed, done chan struct{}) {
	defer close(done)

	var failures int
	for {
		img, err := feed.Next(ctx)
		switch {
		case err == nil:
			failures = 0
			s.sink.Set(img)
		case ctx.Err() != nil, errors.Is(err, ErrFeedClosed):
			return
		default:
			// Keep the last good frame in the sink and keep trying.
			failures++
			if failures == 1 || failures%50 == 0 {
				s.logger.Warn("camera frame failed", "source", s.source.Name(), "failures", failures, "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(min(failures, 10)) * 100 * time.Millisecond):
			}
		}
	}
}

// Release stops pumping frames and closes the stream. The sink keeps its
// last frame. Release on a session that never bound is a no-op.
func (s *Session) Release() error {
	s.mu.Lock()
	if s.state != StateBound {
		s.mu.Unlock()
		return nil
	}
	s.state = StateReleased
	cancel, feed, done := s.cancel, s.feed, s.done
	s.mu.Unlock()

	cancel()
	<-done

	if err := feed.Close(); err != nil {
		return fmt.Errorf("closing camera feed: %w", err)
	}
	s.logger.Info("camera released", "source", s.source.Name())
	return nil
}
