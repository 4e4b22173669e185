// Package listview implements the people list and access log displays.
// Both are full-snapshot reads: every refresh clears the region and re-renders
// whatever the backend returns.
package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// Refresher is what flows use to request a list refresh after a mutation.
type Refresher interface {
	Trigger()
}

// PeopleLister fetches the registered people.
type PeopleLister interface {
	ListPeople(ctx context.Context) ([]api.Person, error)
}

// AccessLogReader fetches the access log.
type AccessLogReader interface {
	AccessLog(ctx context.Context) ([]AccessLogEntry, error)
}

// AccessLogEntry is re-exported so callers need not import api for fakes.
type AccessLogEntry = api.AccessLogEntry

// View renders one backend list into one region.
type View[T any] struct {
	name     string
	region   ui.Region
	fetch    func(ctx context.Context) ([]T, error)
	row      func(T) ui.Line
	empty    string
	failed   string
	msgs     config.Messages
	renderer ui.Renderer
	logger   *slog.Logger

	wg sync.WaitGroup
}

// Refresh clears the region, fetches the list and renders one row per item,
// a placeholder row when there are none, or a single error row on failure.
func (v *View[T]) Refresh(ctx context.Context) error {
	v.renderer.Clear(v.region)

	items, err := v.fetch(ctx)
	if err != nil {
		v.logger.Warn("list refresh failed", "list", v.name, "error", err)
		v.renderer.Render(v.region, ui.Error(v.failureText(err)))
		return fmt.Errorf("refresh %s: %w", v.name, err)
	}

	if len(items) == 0 {
		v.renderer.Render(v.region, ui.Info(v.empty))
		return nil
	}

	lines := make([]ui.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, v.row(item))
	}
	v.renderer.Render(v.region, lines...)
	v.logger.Debug("list refreshed", "list", v.name, "rows", len(items))
	return nil
}

func (v *View[T]) failureText(err error) string {
	if errors.Is(err, api.ErrNetworkFailure) {
		return v.msgs.ConnectionError
	}
	return v.failed
}

// Trigger starts a refresh in the background and returns immediately.
func (v *View[T]) Trigger() {
	v.wg.Go(func() {
		// Failures are already rendered and logged.
		_ = v.Refresh(context.Background())
	})
}

// Wait blocks until every triggered refresh has finished.
func (v *View[T]) Wait() {
	v.wg.Wait()
}

// NewPeopleView renders /list_people into the people list region.
func NewPeopleView(client PeopleLister, renderer ui.Renderer, msgs config.Messages, logger *slog.Logger) *View[api.Person] {
	return &View[api.Person]{
		name:   "people",
		region: ui.RegionPeopleList,
		fetch:  client.ListPeople,
		row: func(p api.Person) ui.Line {
			return ui.Info(fmt.Sprintf(msgs.PersonRowFormat, p.ID, p.Name))
		},
		empty:    msgs.PeopleEmpty,
		failed:   msgs.PeopleError,
		msgs:     msgs,
		renderer: renderer,
		logger:   orDefault(logger),
	}
}

// NewAccessLogView renders /access_log into the log list region. Rows are
// styled by whether the attempt was recognized.
func NewAccessLogView(client AccessLogReader, renderer ui.Renderer, msgs config.Messages, logger *slog.Logger) *View[AccessLogEntry] {
	return &View[AccessLogEntry]{
		name:   "access_log",
		region: ui.RegionLogList,
		fetch:  client.AccessLog,
		row: func(e AccessLogEntry) ui.Line {
			if e.Recognized {
				return ui.Success(fmt.Sprintf(msgs.LogRowFormat, e.IdentifiedName, e.Timestamp, msgs.LogRecognized))
			}
			return ui.Error(fmt.Sprintf(msgs.LogRowFormat, e.IdentifiedName, e.Timestamp, msgs.LogUnknown))
		},
		empty:    msgs.LogEmpty,
		failed:   msgs.LogError,
		msgs:     msgs,
		renderer: renderer,
		logger:   orDefault(logger),
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
