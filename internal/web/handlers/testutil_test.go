package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/kiosk"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// testConfig creates a minimal config pointing at backendURL
func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	msgs, err := config.LoadMessages("en")
	if err != nil {
		t.Fatalf("failed to load messages: %v", err)
	}
	return &config.Config{
		Backend:  config.BackendConfig{URL: backendURL},
		Camera:   config.CameraConfig{Source: "pattern", FPS: 50, CanvasWidth: 32, CanvasHeight: 24},
		Locale:   "en",
		Messages: msgs,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupMockBackend creates a mock recognition backend for handler tests
func setupMockBackend(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// setupKiosk builds a kiosk against the mock backend. The camera is started
// only when startCamera is true.
func setupKiosk(t *testing.T, server *httptest.Server, startCamera bool) (*KioskHandler, *kiosk.App, *ui.Board) {
	t.Helper()
	board := ui.NewBoard()
	app, err := kiosk.New(testConfig(t, server.URL), board, kiosk.Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("failed to create kiosk: %v", err)
	}
	t.Cleanup(app.Close)

	if startCamera {
		if err := app.Start(context.Background()); err != nil {
			t.Fatalf("failed to start kiosk: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Sink.WaitFrame(ctx); err != nil {
			t.Fatalf("no camera frame: %v", err)
		}
	}
	return NewKioskHandler(app, board, quietLogger()), app, board
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
