package ui

import (
	"slices"
	"sync"

	"github.com/kozaktomas/face-kiosk/internal/constants"
)

// Update is broadcast to subscribers whenever a region changes.
type Update struct {
	Region  Region `json:"region"`
	Lines   []Line `json:"lines"`
	Version uint64 `json:"version"`
}

// Snapshot is the state of every region at one version.
type Snapshot struct {
	Version uint64            `json:"version"`
	Regions map[Region][]Line `json:"regions"`
}

// Board is an in-memory Renderer holding the current lines of every region.
// It is safe for concurrent use and notifies subscribers of each change.
type Board struct {
	mu      sync.RWMutex
	regions map[Region][]Line
	version uint64

	listenersMu sync.RWMutex
	listeners   []chan Update
}

// NewBoard creates a board with every region empty.
func NewBoard() *Board {
	regions := make(map[Region][]Line)
	for _, r := range Regions() {
		regions[r] = []Line{}
	}
	return &Board{regions: regions}
}

func (b *Board) Render(region Region, lines ...Line) {
	b.set(region, slices.Clone(lines))
}

func (b *Board) Clear(region Region) {
	b.set(region, []Line{})
}

func (b *Board) set(region Region, lines []Line) {
	if lines == nil {
		lines = []Line{}
	}

	// send under the state lock so subscribers see versions in order
	b.mu.Lock()
	defer b.mu.Unlock()
	b.version++
	b.regions[region] = lines
	b.send(Update{Region: region, Lines: slices.Clone(lines), Version: b.version})
}

// Lines returns a copy of the current lines of region.
func (b *Board) Lines(region Region) []Line {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.regions[region])
}

// Snapshot returns a copy of every region.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	regions := make(map[Region][]Line, len(b.regions))
	for r, lines := range b.regions {
		regions[r] = slices.Clone(lines)
	}
	return Snapshot{Version: b.version, Regions: regions}
}

// Subscribe adds an update listener.
func (b *Board) Subscribe() chan Update {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	ch := make(chan Update, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// Unsubscribe removes an update listener and closes it.
func (b *Board) Unsubscribe(ch chan Update) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *Board) send(u Update) {
	b.listenersMu.RLock()
	defer b.listenersMu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- u:
		default:
			// Listener buffer full, skip. It resyncs from a snapshot.
		}
	}
}
