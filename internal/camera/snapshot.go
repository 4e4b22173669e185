package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"
)

// maxSnapshotSize bounds a single snapshot download (16 MB).
const maxSnapshotSize = 16 << 20

// DefaultSnapshotTimeout bounds one snapshot request, including the first one made by Open.
const DefaultSnapshotTimeout = 5 * time.Second

// SnapshotSource polls an IP camera's still-image endpoint (JPEG or PNG).
type SnapshotSource struct {
	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
}

// NewSnapshotSource creates a polling source. A nil client uses http.DefaultClient.
func NewSnapshotSource(url string, interval time.Duration, client *http.Client) *SnapshotSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SnapshotSource{url: url, interval: interval, timeout: DefaultSnapshotTimeout, client: client}
}

// SetTimeout changes the per-request timeout. Zero or negative keeps the current one.
func (s *SnapshotSource) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

func (s *SnapshotSource) Name() string {
	return "snapshot:" + s.url
}

// Open fetches one snapshot to prove the camera is reachable and authorized.
func (s *SnapshotSource) Open(ctx context.Context) (Feed, error) {
	img, err := s.fetch(ctx)
	if err != nil {
		return nil, &AccessError{Source: s.Name(), Err: err}
	}
	return &snapshotFeed{src: s, first: img, tick: ticker{interval: s.interval}}, nil
}

func (s *SnapshotSource) fetch(ctx context.Context) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := s.client.Do(req) //nolint:gosec // operator-configured camera URL
	if err != nil {
		return nil, fmt.Errorf("could not reach camera: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot failed with status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return img, nil
}

type snapshotFeed struct {
	src  *SnapshotSource
	tick ticker

	mu     sync.Mutex
	first  image.Image
	closed bool
}

func (f *snapshotFeed) Next(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFeedClosed
	}
	if f.first != nil {
		img := f.first
		f.first = nil
		f.mu.Unlock()
		return img, nil
	}
	f.mu.Unlock()

	if err := f.tick.wait(ctx); err != nil {
		return nil, err
	}
	return f.src.fetch(ctx)
}

func (f *snapshotFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
