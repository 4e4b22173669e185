package ui

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/capture"
	"github.com/kozaktomas/face-kiosk/internal/config"
)

func TestBoard_StartsEmpty(t *testing.T) {
	b := NewBoard()
	snap := b.Snapshot()
	if snap.Version != 0 {
		t.Errorf("expected version 0, got %d", snap.Version)
	}
	for _, r := range Regions() {
		lines, ok := snap.Regions[r]
		if !ok {
			t.Errorf("region %s missing from snapshot", r)
		}
		if len(lines) != 0 {
			t.Errorf("region %s not empty: %v", r, lines)
		}
	}
}

func TestBoard_RenderReplaces(t *testing.T) {
	b := NewBoard()
	b.Render(RegionPeopleList, Info("a"), Info("b"))
	b.Render(RegionPeopleList, Error("c"))

	lines := b.Lines(RegionPeopleList)
	if len(lines) != 1 || lines[0].Text != "c" || lines[0].Style != StyleError {
		t.Errorf("unexpected lines %+v", lines)
	}

	b.Render(RegionPeopleList)
	if got := b.Lines(RegionPeopleList); len(got) != 0 {
		t.Errorf("expected empty region, got %+v", got)
	}
}

func TestBoard_LinesAreCopies(t *testing.T) {
	b := NewBoard()
	in := []Line{Info("x")}
	b.Render(RegionLogList, in...)
	in[0].Text = "mutated"

	out := b.Lines(RegionLogList)
	out[0].Text = "also mutated"

	if got := b.Lines(RegionLogList)[0].Text; got != "x" {
		t.Errorf("board state leaked, got %q", got)
	}
}

func TestBoard_Subscribe(t *testing.T) {
	b := NewBoard()
	ch := b.Subscribe()

	b.Render(RegionRegisterStatus, Success("Person registered"))
	b.Clear(RegionRegisterStatus)

	first := <-ch
	if first.Region != RegionRegisterStatus || first.Version != 1 || len(first.Lines) != 1 {
		t.Errorf("unexpected first update %+v", first)
	}
	second := <-ch
	if second.Version != 2 || len(second.Lines) != 0 {
		t.Errorf("unexpected second update %+v", second)
	}

	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("expected channel closed after unsubscribe")
	}
	// Rendering after unsubscribe must not panic on the closed channel.
	b.Render(RegionRegisterStatus, Info("later"))
}

func TestBoard_SlowListenerDoesNotBlock(t *testing.T) {
	b := NewBoard()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range 100 {
		b.Render(RegionLogList, Info("row"))
	}
	if b.Snapshot().Version != 100 {
		t.Errorf("expected version 100, got %d", b.Snapshot().Version)
	}
}

func TestBoard_Concurrent(t *testing.T) {
	b := NewBoard()
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				b.Render(RegionRecognizeStatus, Info("x"))
				_ = b.Snapshot()
			}
		})
	}
	wg.Wait()
	if b.Snapshot().Version != 400 {
		t.Errorf("expected version 400, got %d", b.Snapshot().Version)
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf)
	r.Clear(RegionRecognizeStatus)
	r.Render(RegionRecognizeStatus, Success("Ana - now"), Error("Unknown - now"), Info("plain"))

	want := "[ok] Ana - now\n[!!] Unknown - now\nplain\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestMulti(t *testing.T) {
	a, c := NewBoard(), NewBoard()
	m := Multi{a, c}
	m.Render(RegionPeopleList, Info("p"))
	if len(a.Lines(RegionPeopleList)) != 1 || len(c.Lines(RegionPeopleList)) != 1 {
		t.Fatal("expected both renderers to receive the render")
	}
	m.Clear(RegionPeopleList)
	if len(a.Lines(RegionPeopleList)) != 0 || len(c.Lines(RegionPeopleList)) != 0 {
		t.Fatal("expected both renderers to be cleared")
	}
}

func TestErrorText(t *testing.T) {
	msgs, err := config.LoadMessages("en")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", &api.Error{Kind: api.KindNetworkFailure, Endpoint: "recognize", Err: errors.New("refused")}, msgs.ConnectionError},
		{"rejected", &api.Error{Kind: api.KindRejected, Status: 400, Message: "No face found"}, "Error: No face found"},
		{"rejected wrapped", fmt.Errorf("register: %w", &api.Error{Kind: api.KindRejected, Message: api.UnknownErrorMessage}), "Error: unknown error"},
		{"malformed", &api.Error{Kind: api.KindMalformedResponse, Err: errors.New("bad json")}, msgs.MalformedResponse},
		{"camera", &camera.AccessError{Source: "pattern", Err: errors.New("gone")}, msgs.CameraUnavailable},
		{"encode", fmt.Errorf("%w: disk", capture.ErrEncode), msgs.EncodeFailed},
		{"other", errors.New("boom"), "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorText(tt.err, msgs); got != tt.want {
				t.Errorf("ErrorText() = %q, want %q", got, tt.want)
			}
			if line := ErrorLine(tt.err, msgs); line.Style != StyleError {
				t.Errorf("expected error style, got %q", line.Style)
			}
		})
	}
}
