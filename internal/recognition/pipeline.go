// Package recognition implements the capture-and-recognize pipeline.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/capture"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/listview"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// ErrBusy is returned when a capture is triggered while another one is in
// flight. The trigger is dropped and nothing is rendered.
var ErrBusy = errors.New("capture already in progress")

// State is a pipeline state. Every run goes
// Idle → Capturing → Encoding → Submitting → Rendering → Idle.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateEncoding
	StateSubmitting
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StateSubmitting:
		return "submitting"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Recognizer submits one encoded frame to the backend.
type Recognizer interface {
	Recognize(ctx context.Context, frame api.Image) ([]api.RecognitionResult, error)
}

// Sink is the video sink frames are captured from.
type Sink interface {
	capture.FrameSource
	Claim() (func(), error)
}

// Notifier is told about every successful recognition.
type Notifier interface {
	PublishRecognition(ctx context.Context, captureID string, results []api.RecognitionResult) error
}

// Outcome is the result of one successful run.
type Outcome struct {
	CaptureID string
	Results   []api.RecognitionResult
}

// Pipeline serializes capture runs: at most one recognize request is in
// flight at any time.
type Pipeline struct {
	state atomic.Int32

	sink      Sink
	canvas    *capture.Canvas
	capturer  *capture.Capturer
	client    Recognizer
	accessLog listview.Refresher
	notifier  Notifier
	renderer  ui.Renderer
	msgs      config.Messages
	logger    *slog.Logger

	publishing sync.WaitGroup
}

// New creates an idle pipeline. accessLog is refreshed after every
// successful submission and may be nil.
func New(sink Sink, canvas *capture.Canvas, client Recognizer, accessLog listview.Refresher,
	renderer ui.Renderer, msgs config.Messages, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sink:      sink,
		canvas:    canvas,
		capturer:  capture.NewCapturer(),
		client:    client,
		accessLog: accessLog,
		renderer:  renderer,
		msgs:      msgs,
		logger:    logger,
	}
}

// SetNotifier sets the recognition notifier. Call before the first Capture.
func (p *Pipeline) SetNotifier(n Notifier) {
	p.notifier = n
}

// State returns the current state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) transition(from, to State) {
	if !p.state.CompareAndSwap(int32(from), int32(to)) {
		// Only the run that left Idle moves the state, so this is a bug.
		panic(fmt.Sprintf("recognition pipeline: transition %s -> %s from state %s", from, to, p.State()))
	}
	p.logger.Debug("pipeline state", "from", from, "to", to)
}

// Capture runs the pipeline once: draw the current frame, encode it, submit
// it and render one row per result. A successful submission triggers one
// access log refresh, even when no subject was found. A failed one renders
// the error and triggers nothing. Triggers while a run is in flight return
// ErrBusy.
func (p *Pipeline) Capture(ctx context.Context) (*Outcome, error) {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateCapturing)) {
		p.logger.Debug("capture dropped, pipeline busy", "state", p.State())
		return nil, ErrBusy
	}
	p.logger.Debug("pipeline state", "from", StateIdle, "to", StateCapturing)
	defer func() {
		p.state.Store(int32(StateIdle))
		p.logger.Debug("pipeline state", "to", StateIdle)
	}()

	release, err := p.sink.Claim()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}
	defer release()

	if !p.capturer.Draw(p.sink, p.canvas) {
		p.logger.Debug("no camera frame, capturing canvas as is")
	}

	p.transition(StateCapturing, StateEncoding)
	frame, err := capture.Await(ctx, p.capturer.Encode(p.canvas))
	if err != nil {
		return nil, p.fail(StateEncoding, err)
	}

	p.transition(StateEncoding, StateSubmitting)
	results, err := p.client.Recognize(ctx, frame.Payload())
	if err != nil {
		return nil, p.fail(StateSubmitting, err)
	}

	p.transition(StateSubmitting, StateRendering)
	lines := make([]ui.Line, 0, len(results))
	for _, r := range results {
		text := fmt.Sprintf(p.msgs.RecognitionRowFormat, r.Name, r.Timestamp)
		if r.Recognized {
			lines = append(lines, ui.Success(text))
		} else {
			lines = append(lines, ui.Error(text))
		}
	}
	p.renderer.Render(ui.RegionRecognizeStatus, lines...)

	if p.accessLog != nil {
		p.accessLog.Trigger()
	}
	if p.notifier != nil {
		p.publish(context.WithoutCancel(ctx), p.notifier, frame.ID, results)
	}

	p.logger.Info("capture recognized", "capture_id", frame.ID, "results", len(results))
	return &Outcome{CaptureID: frame.ID, Results: results}, nil
}

// publish sends the outcome in the background so a slow broker never keeps
// the pipeline busy.
func (p *Pipeline) publish(ctx context.Context, notifier Notifier, captureID string, results []api.RecognitionResult) {
	p.publishing.Go(func() {
		if err := notifier.PublishRecognition(ctx, captureID, results); err != nil {
			p.logger.Warn("failed to publish recognition", "capture_id", captureID, "error", err)
		}
	})
}

// Wait blocks until every pending recognition event has been published.
func (p *Pipeline) Wait() {
	p.publishing.Wait()
}

// fail renders err and moves to Rendering. The deferred reset returns to Idle.
func (p *Pipeline) fail(from State, err error) error {
	p.transition(from, StateRendering)
	p.logger.Warn("capture failed", "state", from, "error", err)
	p.renderer.Render(ui.RegionRecognizeStatus, ui.ErrorLine(err, p.msgs))
	return fmt.Errorf("recognize capture: %w", err)
}
