// Package kiosk wires the backend client, camera, flows and renderer together.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/capture"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/listview"
	"github.com/kozaktomas/face-kiosk/internal/notify"
	"github.com/kozaktomas/face-kiosk/internal/recognition"
	"github.com/kozaktomas/face-kiosk/internal/registration"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// App is one kiosk: a single camera, canvas and pipeline shared by every flow.
type App struct {
	Config       *config.Config
	Client       *api.Client
	Camera       *camera.Session
	Sink         *camera.Sink
	Canvas       *capture.Canvas
	People       *listview.View[api.Person]
	AccessLog    *listview.View[api.AccessLogEntry]
	Registration *registration.Flow
	Pipeline     *recognition.Pipeline
	Publisher    *notify.MQTTPublisher // nil unless MQTT is configured

	renderer ui.Renderer
	logger   *slog.Logger
}

// Options tune New.
type Options struct {
	CaptureDir string // saves every backend response when set
	Logger     *slog.Logger
}

// New builds the kiosk from cfg. Nothing is started: call Start for the camera.
func New(cfg *config.Config, renderer ui.Renderer, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := api.NewClientWithCapture(cfg.Backend.URL, opts.CaptureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	client.SetLogger(logger.With("component", "api"))
	if cfg.Backend.Timeout > 0 {
		client.SetTimeout(cfg.Backend.Timeout)
	}

	source, err := camera.ParseSource(cfg.Camera.Source, cfg.Camera.CanvasWidth, cfg.Camera.CanvasHeight, cfg.Camera.FPS)
	if err != nil {
		return nil, fmt.Errorf("invalid camera source: %w", err)
	}
	sink := camera.NewSink()
	canvas := capture.NewCanvas(cfg.Camera.CanvasWidth, cfg.Camera.CanvasHeight)
	msgs := cfg.Messages

	people := listview.NewPeopleView(client, renderer, msgs, logger.With("component", "people"))
	accessLog := listview.NewAccessLogView(client, renderer, msgs, logger.With("component", "access_log"))

	app := &App{
		Config:       cfg,
		Client:       client,
		Camera:       camera.NewSession(source, sink, logger.With("component", "camera")),
		Sink:         sink,
		Canvas:       canvas,
		People:       people,
		AccessLog:    accessLog,
		Registration: registration.NewFlow(client, people, renderer, msgs, logger.With("component", "registration")),
		Pipeline:     recognition.New(sink, canvas, client, accessLog, renderer, msgs, logger.With("component", "recognition")),
		renderer:     renderer,
		logger:       logger,
	}

	if cfg.MQTT.Enabled() {
		app.Publisher = notify.NewMQTTPublisher(cfg.MQTT, logger.With("component", "mqtt"))
		app.Pipeline.SetNotifier(app.Publisher)
	}

	return app, nil
}

// Start acquires the camera and connects the notifier. A camera failure is
// rendered once into the recognize status region and returned, but the kiosk
// stays usable: captures then submit a blank or stale canvas.
func (a *App) Start(ctx context.Context) error {
	var errs []error

	if _, err := a.Camera.Start(ctx); err != nil {
		a.renderer.Render(ui.RegionRecognizeStatus, ui.ErrorLine(err, a.Config.Messages))
		errs = append(errs, err)
	}

	if a.Publisher != nil {
		if err := a.Publisher.Connect(ctx); err != nil {
			a.logger.Warn("recognition events disabled", "error", err)
			a.Pipeline.SetNotifier(nil)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close releases the camera, waits for pending list refreshes and event
// publishes, then disconnects the notifier.
func (a *App) Close() {
	if err := a.Camera.Release(); err != nil {
		a.logger.Warn("camera release failed", "error", err)
	}
	a.People.Wait()
	a.AccessLog.Wait()
	a.Pipeline.Wait()
	if a.Publisher != nil {
		a.Publisher.Close()
	}
}
