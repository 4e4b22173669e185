package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
)

// StillSource replays still images as a camera: a single file repeats
// forever, a directory cycles through its images in name order.
type StillSource struct {
	path     string
	interval time.Duration
}

// NewStillSource creates a source backed by an image file or directory.
func NewStillSource(path string, interval time.Duration) *StillSource {
	return &StillSource{path: path, interval: interval}
}

func (s *StillSource) Name() string {
	return "still:" + s.path
}

// isStillImage checks if a file has an extension the still source can decode
func isStillImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".bmp":
		return true
	default:
		return false
	}
}

func (s *StillSource) Open(ctx context.Context) (Feed, error) {
	paths, err := s.imagePaths()
	if err != nil {
		return nil, &AccessError{Source: s.Name(), Err: err}
	}

	frames := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decodeImageFile(p)
		if err != nil {
			return nil, &AccessError{Source: s.Name(), Err: err}
		}
		frames = append(frames, img)
	}

	return &stillFeed{frames: frames, tick: ticker{interval: s.interval}}, nil
}

func (s *StillSource) imagePaths() ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", s.path, err)
	}
	if !info.IsDir() {
		return []string{s.path}, nil
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", s.path, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && isStillImage(entry.Name()) {
			paths = append(paths, filepath.Join(s.path, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", s.path)
	}
	slices.Sort(paths)
	return paths, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // operator-configured camera path
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

type stillFeed struct {
	frames []image.Image
	tick   ticker

	mu     sync.Mutex
	next   int
	closed bool
}

func (f *stillFeed) Next(ctx context.Context) (image.Image, error) {
	if err := f.tick.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrFeedClosed
	}
	if len(f.frames) == 0 {
		return nil, errors.New("still feed has no frames")
	}
	img := f.frames[f.next%len(f.frames)]
	f.next++
	return img, nil
}

func (f *stillFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
