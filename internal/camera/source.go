package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
)

// ErrAccessDenied covers both refused permission and an absent or
// unreachable device.
var ErrAccessDenied = errors.New("camera access denied")

// ErrFeedClosed is returned by Feed.Next once a feed has no more frames.
var ErrFeedClosed = errors.New("camera feed closed")

// Source acquires a video-only stream from a capture device.
type Source interface {
	// Open requests access to the device. Failures wrap ErrAccessDenied.
	Open(ctx context.Context) (Feed, error)
	Name() string
}

// Feed is an acquired stream of frames.
type Feed interface {
	// Next blocks until the next frame is available.
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// ParseSource builds a Source from a CAMERA_SOURCE value:
//
//	pattern              synthetic test frames
//	still:<file-or-dir>  a still image, or every image in a directory in turn
//	snapshot:<url>       an IP camera JPEG snapshot endpoint, polled
func ParseSource(raw string, width, height, fps int) (Source, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid camera fps %d", fps)
	}
	interval := time.Second / time.Duration(fps)

	kind, arg, _ := strings.Cut(raw, ":")
	switch kind {
	case "", "pattern":
		return NewPatternSource(width, height, interval), nil
	case "still":
		if arg == "" {
			return nil, errors.New("still camera source requires a path (still:<file-or-dir>)")
		}
		return NewStillSource(arg, interval), nil
	case "snapshot":
		if arg == "" {
			return nil, errors.New("snapshot camera source requires a URL (snapshot:<url>)")
		}
		return NewSnapshotSource(arg, interval, nil), nil
	default:
		return nil, fmt.Errorf("unknown camera source %q", kind)
	}
}

// ticker paces feeds that produce frames on their own schedule.
type ticker struct {
	interval time.Duration
	last     time.Time
}

func (t *ticker) wait(ctx context.Context) error {
	if t.last.IsZero() {
		t.last = time.Now()
		return nil
	}
	next := t.last.Add(t.interval)
	if d := time.Until(next); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.last = time.Now()
	return nil
}
