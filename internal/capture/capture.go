// Package capture samples single frames from the video sink onto a fixed-size
// canvas and encodes them for upload.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/constants"
)

// ErrEncode is returned when the canvas contents cannot be encoded.
var ErrEncode = errors.New("failed to encode captured frame")

// FrameSource provides the current visual frame of a video sink.
type FrameSource interface {
	Current() (image.Image, bool)
}

// Canvas is the fixed-size drawing surface captures are rendered onto.
// It is blank until the first successful draw.
type Canvas struct {
	mu  sync.Mutex
	img *image.RGBA
}

// NewCanvas creates a canvas. Non-positive dimensions fall back to the defaults.
func NewCanvas(width, height int) *Canvas {
	if width <= 0 {
		width = constants.DefaultCanvasWidth
	}
	if height <= 0 {
		height = constants.DefaultCanvasHeight
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Snapshot returns a copy of the canvas pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := image.NewRGBA(c.img.Rect)
	copy(cp.Pix, c.img.Pix)
	return cp
}

// CapturedFrame is one encoded capture. It belongs to the capture that made it.
type CapturedFrame struct {
	ID           string
	Width        int
	Height       int
	EncodedBytes []byte
	MIMEType     string
	FileName     string
}

// Payload returns the frame as a multipart image for the backend.
func (f *CapturedFrame) Payload() api.Image {
	return api.Image{FileName: f.FileName, ContentType: f.MIMEType, Data: f.EncodedBytes}
}

// EncodeResult is delivered by Encode once the encoder finishes.
type EncodeResult struct {
	Frame *CapturedFrame
	Err   error
}

// Capturer draws sink frames onto a canvas and encodes them as PNG.
type Capturer struct {
	encoder png.Encoder
}

// NewCapturer creates a capturer producing PNG payloads.
func NewCapturer() *Capturer {
	return &Capturer{encoder: png.Encoder{CompressionLevel: png.BestSpeed}}
}

// Draw overlays the current frame of src onto the whole canvas, stretching it
// to the canvas size. When src has no frame the canvas keeps whatever it held
// before (blank, or the previous capture) and Draw reports false.
func (c *Capturer) Draw(src FrameSource, canvas *Canvas) bool {
	img, ok := src.Current()
	if !ok || img == nil {
		return false
	}

	canvas.mu.Lock()
	defer canvas.mu.Unlock()
	draw.ApproxBiLinear.Scale(canvas.img, canvas.img.Bounds(), img, img.Bounds(), draw.Src, nil)
	return true
}

// Encode encodes the canvas contents in the background. The pixels are copied
// before Encode returns, so later draws do not affect the result.
func (c *Capturer) Encode(canvas *Canvas) <-chan EncodeResult {
	pixels := canvas.Snapshot()
	out := make(chan EncodeResult, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.encoder.Encode(&buf, pixels); err != nil {
			out <- EncodeResult{Err: fmt.Errorf("%w: %w", ErrEncode, err)}
			return
		}
		out <- EncodeResult{Frame: &CapturedFrame{
			ID:           uuid.NewString(),
			Width:        pixels.Rect.Dx(),
			Height:       pixels.Rect.Dy(),
			EncodedBytes: buf.Bytes(),
			MIMEType:     constants.CaptureMIMEType,
			FileName:     constants.CaptureFileName,
		}}
	}()

	return out
}

// Await blocks until the encode result arrives or ctx is done.
func Await(ctx context.Context, results <-chan EncodeResult) (*CapturedFrame, error) {
	select {
	case res := <-results:
		return res.Frame, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
