package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// fakeSource is a Source whose Open result is scripted
type fakeSource struct {
	openErr error
	opens   atomic.Int32
	feed    *fakeFeed
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Open(ctx context.Context) (Feed, error) {
	s.opens.Add(1)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.feed, nil
}

type fakeFeed struct {
	frames chan image.Image
	closed atomic.Bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{frames: make(chan image.Image, 4)}
}

func (f *fakeFeed) Next(ctx context.Context) (image.Image, error) {
	select {
	case img := <-f.frames:
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeFeed) Close() error {
	f.closed.Store(true)
	return nil
}

func TestSink_EmptyUntilSet(t *testing.T) {
	sink := NewSink()
	if _, ok := sink.Current(); ok {
		t.Fatal("expected empty sink")
	}

	img := solidImage(2, 2, color.White)
	sink.Set(img)
	got, ok := sink.Current()
	if !ok || got != img {
		t.Fatal("expected current frame to be the one set")
	}

	sink.Set(solidImage(2, 2, color.Black))
	frame, _ := sink.Latest()
	if frame.Seq != 2 {
		t.Errorf("expected seq 2, got %d", frame.Seq)
	}
}

func TestSink_WaitFrame(t *testing.T) {
	sink := NewSink()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := sink.WaitFrame(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	go sink.Set(solidImage(1, 1, color.White))
	if err := sink.WaitFrame(context.Background()); err != nil {
		t.Fatalf("WaitFrame failed: %v", err)
	}
}

func TestSink_ClaimIsExclusive(t *testing.T) {
	sink := NewSink()

	release, err := sink.Claim()
	if err != nil {
		t.Fatalf("first Claim failed: %v", err)
	}
	if _, err := sink.Claim(); !errors.Is(err, ErrSinkBusy) {
		t.Fatalf("expected ErrSinkBusy, got %v", err)
	}

	release()
	release() // second call is a no-op

	release2, err := sink.Claim()
	if err != nil {
		t.Fatalf("Claim after release failed: %v", err)
	}
	release2()
}

func TestSession_StartBindsAndPumps(t *testing.T) {
	feed := newFakeFeed()
	src := &fakeSource{feed: feed}
	sink := NewSink()
	session := NewSession(src, sink, quietLogger())

	if session.State() != StateAbsent {
		t.Fatalf("expected absent state, got %s", session.State())
	}

	bound, err := session.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if bound.Source != "fake" {
		t.Errorf("expected source fake, got %q", bound.Source)
	}
	if session.State() != StateBound {
		t.Errorf("expected bound state, got %s", session.State())
	}

	feed.frames <- solidImage(4, 4, color.White)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sink.WaitFrame(ctx); err != nil {
		t.Fatalf("expected frame in sink: %v", err)
	}

	if err := session.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !feed.closed.Load() {
		t.Error("expected feed to be closed on release")
	}
	if session.State() != StateReleased {
		t.Errorf("expected released state, got %s", session.State())
	}
	if _, ok := sink.Current(); !ok {
		t.Error("expected sink to keep its last frame after release")
	}
}

func TestSession_StartOnlyOnce(t *testing.T) {
	src := &fakeSource{feed: newFakeFeed()}
	session := NewSession(src, NewSink(), quietLogger())
	defer session.Release()

	if _, err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := session.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if src.opens.Load() != 1 {
		t.Errorf("expected one Open, got %d", src.opens.Load())
	}
}

func TestSession_AccessDenied(t *testing.T) {
	src := &fakeSource{openErr: errors.New("permission refused")}
	sink := NewSink()
	session := NewSession(src, sink, quietLogger())

	_, err := session.Start(context.Background())
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if session.State() != StateAbsent {
		t.Errorf("expected absent state after failure, got %s", session.State())
	}
	if !errors.Is(session.Err(), ErrAccessDenied) {
		t.Errorf("expected Err() to report access denied, got %v", session.Err())
	}
	if session.Bound() != nil {
		t.Error("expected no bound stream after failure")
	}
	if err := session.Release(); err != nil {
		t.Errorf("Release on unbound session should be a no-op, got %v", err)
	}
	if _, ok := sink.Current(); ok {
		t.Error("expected sink without frames")
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		raw      string
		wantName string
		wantErr  bool
	}{
		{"", "pattern", false},
		{"pattern", "pattern", false},
		{"still:/tmp/faces", "still:/tmp/faces", false},
		{"snapshot:http://cam.local/snap.jpg", "snapshot:http://cam.local/snap.jpg", false},
		{"still:", "", true},
		{"snapshot:", "", true},
		{"webcam:0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			src, err := ParseSource(tt.raw, 64, 48, 10)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSource(%q) failed: %v", tt.raw, err)
			}
			if src.Name() != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, src.Name())
			}
		})
	}

	if _, err := ParseSource("pattern", 64, 48, 0); err == nil {
		t.Error("expected error for zero fps")
	}
}

func TestPatternSource_Frames(t *testing.T) {
	feed, err := NewPatternSource(32, 24, time.Millisecond).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer feed.Close()

	img, err := feed.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("unexpected frame size %v", img.Bounds())
	}

	feed.Close()
	if _, err := feed.Next(context.Background()); !errors.Is(err, ErrFeedClosed) {
		t.Errorf("expected ErrFeedClosed after Close, got %v", err)
	}
}

func TestPatternSource_InvalidSize(t *testing.T) {
	if _, err := NewPatternSource(0, 10, time.Millisecond).Open(context.Background()); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestStillSource_Directory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), solidImage(8, 8, color.White))
	writePNG(t, filepath.Join(dir, "b.png"), solidImage(16, 16, color.Black))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600); err != nil {
		t.Fatal(err)
	}

	feed, err := NewStillSource(dir, time.Millisecond).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer feed.Close()

	var widths []int
	for range 3 {
		img, err := feed.Next(context.Background())
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		widths = append(widths, img.Bounds().Dx())
	}
	if widths[0] != 8 || widths[1] != 16 || widths[2] != 8 {
		t.Errorf("expected frames to cycle in name order, got widths %v", widths)
	}
}

func TestStillSource_Missing(t *testing.T) {
	_, err := NewStillSource(filepath.Join(t.TempDir(), "missing.png"), time.Millisecond).Open(context.Background())
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestStillSource_EmptyDirectory(t *testing.T) {
	_, err := NewStillSource(t.TempDir(), time.Millisecond).Open(context.Background())
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestSnapshotSource(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(10, 6, color.White)); err != nil {
		t.Fatal(err)
	}
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	feed, err := NewSnapshotSource(server.URL, time.Millisecond, nil).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer feed.Close()

	for range 2 {
		img, err := feed.Next(context.Background())
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if img.Bounds().Dx() != 10 {
			t.Errorf("unexpected width %d", img.Bounds().Dx())
		}
	}
	// Open probes once, the first Next reuses the probe, the second fetches again.
	if hits.Load() != 2 {
		t.Errorf("expected 2 snapshot requests, got %d", hits.Load())
	}
}

func TestSnapshotSource_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewSnapshotSource(server.URL, time.Millisecond, nil).Open(context.Background())
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestSession_StartHungSnapshotCameraTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Accept the connection, never answer.
		<-r.Context().Done()
	}))
	defer server.Close()

	src := NewSnapshotSource(server.URL, time.Millisecond, nil)
	src.SetTimeout(100 * time.Millisecond)
	session := NewSession(src, NewSink(), quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := session.Start(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ErrAccessDenied) {
			t.Errorf("expected ErrAccessDenied, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Start still blocked, state=%s", session.State())
	}
	if session.State() != StateAbsent {
		t.Errorf("expected state absent, got %s", session.State())
	}
}
