package ui

import (
	"fmt"
	"io"
	"sync"
)

// TextRenderer prints region updates as plain lines, for the CLI.
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer creates a renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (t *TextRenderer) Render(region Region, lines ...Line) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintf(t.w, "%s%s\n", marker(line.Style), line.Text)
	}
}

// Clear prints nothing; the terminal keeps its scrollback.
func (t *TextRenderer) Clear(Region) {}

func marker(s Style) string {
	switch s {
	case StyleSuccess:
		return "[ok] "
	case StyleError:
		return "[!!] "
	default:
		return ""
	}
}
