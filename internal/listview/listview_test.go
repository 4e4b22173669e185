package listview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

func testMessages(t *testing.T) config.Messages {
	t.Helper()
	msgs, err := config.LoadMessages("en")
	if err != nil {
		t.Fatalf("failed to load messages: %v", err)
	}
	return msgs
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupBackend creates a mock backend serving fixed bodies per path.
func setupBackend(t *testing.T, status int, bodies map[string]string) (*api.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client, &hits
}

func TestPeopleView_Rows(t *testing.T) {
	client, _ := setupBackend(t, http.StatusOK, map[string]string{
		"/list_people": `[{"id": 1, "nome": "Ana"}, {"id": 2, "nome": "Bruno"}]`,
	})
	board := ui.NewBoard()
	view := NewPeopleView(client, board, testMessages(t), quietLogger())

	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	lines := board.Lines(ui.RegionPeopleList)
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if lines[0].Text != "ID: 1, Name: Ana" || lines[0].Style != ui.StyleInfo {
		t.Errorf("unexpected first row %+v", lines[0])
	}
	if lines[1].Text != "ID: 2, Name: Bruno" {
		t.Errorf("unexpected second row %+v", lines[1])
	}
}

func TestPeopleView_EmptyShowsPlaceholder(t *testing.T) {
	client, _ := setupBackend(t, http.StatusOK, map[string]string{"/list_people": `[]`})
	board := ui.NewBoard()
	board.Render(ui.RegionPeopleList, ui.Info("stale"))
	view := NewPeopleView(client, board, testMessages(t), quietLogger())

	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	lines := board.Lines(ui.RegionPeopleList)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one placeholder row, got %d", len(lines))
	}
	if lines[0].Text != "No entries." {
		t.Errorf("unexpected placeholder %q", lines[0].Text)
	}
	if lines[0].Style == ui.StyleError {
		t.Error("placeholder must not be error styled")
	}
}

func TestPeopleView_Rejected(t *testing.T) {
	client, _ := setupBackend(t, http.StatusInternalServerError, map[string]string{
		"/list_people": `{"error": "db down"}`,
	})
	board := ui.NewBoard()
	view := NewPeopleView(client, board, testMessages(t), quietLogger())

	err := view.Refresh(context.Background())
	if !errors.Is(err, api.ErrRejected) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	lines := board.Lines(ui.RegionPeopleList)
	if len(lines) != 1 || lines[0].Style != ui.StyleError || lines[0].Text != "Error loading the people list." {
		t.Errorf("unexpected rows %+v", lines)
	}
}

func TestAccessLogView_Rows(t *testing.T) {
	client, _ := setupBackend(t, http.StatusOK, map[string]string{
		"/access_log": `[
			{"id": 7, "nome_identificado": "Ana", "timestamp": "2024-01-01T10:00:00Z", "reconhecido": true},
			{"id": 8, "nome_identificado": "Unknown", "timestamp": "2024-01-01T10:00:05Z", "reconhecido": false}
		]`,
	})
	board := ui.NewBoard()
	view := NewAccessLogView(client, board, testMessages(t), quietLogger())

	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	lines := board.Lines(ui.RegionLogList)
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if lines[0].Text != "Ana - 2024-01-01T10:00:00Z - Recognized" || lines[0].Style != ui.StyleSuccess {
		t.Errorf("unexpected first row %+v", lines[0])
	}
	if lines[1].Text != "Unknown - 2024-01-01T10:00:05Z - Unknown" || lines[1].Style != ui.StyleError {
		t.Errorf("unexpected second row %+v", lines[1])
	}
}

func TestAccessLogView_TransportErrorClearsPrevious(t *testing.T) {
	client, _ := setupBackend(t, http.StatusOK, map[string]string{
		"/access_log": `[{"nome_identificado": "Ana", "timestamp": "t", "reconhecido": true}]`,
	})
	board := ui.NewBoard()
	msgs := testMessages(t)
	view := NewAccessLogView(client, board, msgs, quietLogger())

	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	// Point the client at a closed server so the next fetch fails in transport.
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	deadClient, err := api.NewClient(deadURL)
	if err != nil {
		t.Fatal(err)
	}
	view = NewAccessLogView(deadClient, board, msgs, quietLogger())

	err = view.Refresh(context.Background())
	if !errors.Is(err, api.ErrNetworkFailure) {
		t.Fatalf("expected network failure, got %v", err)
	}

	lines := board.Lines(ui.RegionLogList)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one error row, got %d: %+v", len(lines), lines)
	}
	if lines[0].Style != ui.StyleError || lines[0].Text != msgs.ConnectionError {
		t.Errorf("unexpected error row %+v", lines[0])
	}
}

func TestAccessLogView_EmptyPlaceholder(t *testing.T) {
	client, _ := setupBackend(t, http.StatusOK, map[string]string{"/access_log": `null`})
	board := ui.NewBoard()
	view := NewAccessLogView(client, board, testMessages(t), quietLogger())

	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	lines := board.Lines(ui.RegionLogList)
	if len(lines) != 1 || lines[0].Text != "No entries." {
		t.Errorf("unexpected rows %+v", lines)
	}
}

func TestView_TriggerAndWait(t *testing.T) {
	client, hits := setupBackend(t, http.StatusOK, map[string]string{"/list_people": `[]`})
	board := ui.NewBoard()
	view := NewPeopleView(client, board, testMessages(t), quietLogger())

	view.Trigger()
	view.Trigger()
	view.Wait()

	if hits.Load() != 2 {
		t.Errorf("expected 2 fetches, got %d", hits.Load())
	}
	if len(board.Lines(ui.RegionPeopleList)) != 1 {
		t.Errorf("expected placeholder row after triggered refreshes")
	}
}

// recordingRenderer records the order of calls.
type recordingRenderer struct {
	calls []string
}

func (r *recordingRenderer) Render(region ui.Region, lines ...ui.Line) {
	r.calls = append(r.calls, "render:"+string(region))
}

func (r *recordingRenderer) Clear(region ui.Region) {
	r.calls = append(r.calls, "clear:"+string(region))
}

func TestView_ClearsBeforeFetching(t *testing.T) {
	rec := &recordingRenderer{}
	var sawClear bool
	view := &View[api.Person]{
		name:   "people",
		region: ui.RegionPeopleList,
		fetch: func(ctx context.Context) ([]api.Person, error) {
			sawClear = len(rec.calls) == 1 && rec.calls[0] == "clear:people-list"
			return nil, nil
		},
		row:      func(p api.Person) ui.Line { return ui.Info(p.Name) },
		empty:    "none",
		renderer: rec,
		logger:   quietLogger(),
	}

	if err := view.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !sawClear {
		t.Errorf("expected region cleared before fetch, calls: %v", rec.calls)
	}
	if len(rec.calls) != 2 {
		t.Errorf("expected clear then render, got %v", rec.calls)
	}
}
