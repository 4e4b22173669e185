package handlers

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/constants"
	"github.com/kozaktomas/face-kiosk/internal/kiosk"
	"github.com/kozaktomas/face-kiosk/internal/registration"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// previewMaxSize bounds the longer side of the preview image.
const previewMaxSize = 640

// KioskHandler exposes the kiosk flows to the page.
type KioskHandler struct {
	app    *kiosk.App
	board  *ui.Board
	logger *slog.Logger
}

// NewKioskHandler creates a new kiosk handler.
func NewKioskHandler(app *kiosk.App, board *ui.Board, logger *slog.Logger) *KioskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KioskHandler{app: app, board: board, logger: logger}
}

// HealthCheck reports the kiosk state and the camera binding or its
// acquisition error. The backend is not contacted.
func (h *KioskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{
		"status":   "ok",
		"camera":   h.app.Camera.State().String(),
		"pipeline": h.app.Pipeline.State().String(),
	}
	if bound := h.app.Camera.Bound(); bound != nil {
		health["camera_source"] = bound.Source
	}
	if err := h.app.Camera.Err(); err != nil {
		health["camera_error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, health)
}

// BackendHealth checks that the recognition backend answers.
func (h *KioskHandler) BackendHealth(w http.ResponseWriter, r *http.Request) {
	banner, err := h.app.Client.Ping(r.Context())
	if err != nil {
		respondError(w, statusForError(err), ui.ErrorText(err, h.app.Config.Messages))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": banner})
}

// Register handles the registration form: a "name" field and an "image" file.
// Missing inputs are reported by the flow, never sent to the backend.
func (h *KioskHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)

	// A plain form carries no file, so the flow reports the missing image.
	var img *api.Image
	err := r.ParseMultipartForm(constants.MaxUploadSize)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	default:
		img, err = formImage(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read image")
			return
		}
	}

	form := registration.NewForm(r.FormValue(constants.FieldName), img)
	resp, err := h.app.Registration.Submit(r.Context(), form)
	if err != nil {
		h.logger.Debug("registration request failed", "name", sanitizeForLog(r.FormValue(constants.FieldName)), "error", err)
		respondFlowError(w, err, h.app.Config.Messages)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// formImage reads the optional image part. A missing part yields nil.
func formImage(r *http.Request) (*api.Image, error) {
	file, header, err := r.FormFile(constants.FieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &api.Image{FileName: header.Filename, ContentType: contentType, Data: data}, nil
}

// Capture runs one recognition. A capture already in flight answers 409.
func (h *KioskHandler) Capture(w http.ResponseWriter, r *http.Request) {
	out, err := h.app.Pipeline.Capture(r.Context())
	if err != nil {
		respondFlowError(w, err, h.app.Config.Messages)
		return
	}
	results := out.Results
	if results == nil {
		results = []api.RecognitionResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"capture_id": out.CaptureID,
		"results":    results,
	})
}

// RefreshPeople re-reads the people list and returns the rendered rows.
func (h *KioskHandler) RefreshPeople(w http.ResponseWriter, r *http.Request) {
	if err := h.app.People.Refresh(r.Context()); err != nil {
		respondFlowError(w, err, h.app.Config.Messages)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"lines": h.board.Lines(ui.RegionPeopleList)})
}

// RefreshAccessLog re-reads the access log and returns the rendered rows.
func (h *KioskHandler) RefreshAccessLog(w http.ResponseWriter, r *http.Request) {
	if err := h.app.AccessLog.Refresh(r.Context()); err != nil {
		respondFlowError(w, err, h.app.Config.Messages)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"lines": h.board.Lines(ui.RegionLogList)})
}

// Regions returns every display region.
func (h *KioskHandler) Regions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.Snapshot())
}

// Preview returns the current camera frame as JPEG.
func (h *KioskHandler) Preview(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.app.Sink.Latest()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no camera frame")
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitPreview(frame.Image), &jpeg.Options{Quality: constants.PreviewJPEGQuality}); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode preview")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// fitPreview scales img down to previewMaxSize while keeping aspect ratio.
func fitPreview(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= previewMaxSize && height <= previewMaxSize {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = previewMaxSize
		newHeight = max(height*previewMaxSize/width, 1)
	} else {
		newHeight = previewMaxSize
		newWidth = max(width*previewMaxSize/height, 1)
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
