package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"
)

// PatternSource generates synthetic frames for demos and tests: a gradient
// background with a bar that moves one step per frame.
type PatternSource struct {
	width    int
	height   int
	interval time.Duration
}

// NewPatternSource creates a synthetic source of the given size and pace.
func NewPatternSource(width, height int, interval time.Duration) *PatternSource {
	return &PatternSource{width: width, height: height, interval: interval}
}

func (p *PatternSource) Name() string {
	return "pattern"
}

func (p *PatternSource) Open(ctx context.Context) (Feed, error) {
	if p.width <= 0 || p.height <= 0 {
		return nil, &AccessError{Source: p.Name(), Err: errInvalidSize(p.width, p.height)}
	}
	return &patternFeed{src: p, tick: ticker{interval: p.interval}}, nil
}

type patternFeed struct {
	src  *PatternSource
	tick ticker

	mu     sync.Mutex
	seq    int
	closed bool
}

func (f *patternFeed) Next(ctx context.Context) (image.Image, error) {
	if err := f.tick.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrFeedClosed
	}
	f.seq++
	return f.render(f.seq), nil
}

func (f *patternFeed) render(seq int) *image.RGBA {
	w, h := f.src.width, f.src.height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	barWidth := max(w/16, 1)
	barX := (seq * barWidth) % w

	for y := range h {
		for x := range w {
			c := color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 96, A: 255}
			if x >= barX && x < barX+barWidth {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func (f *patternFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
