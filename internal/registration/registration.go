// Package registration implements the person registration flow.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/listview"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// ErrValidation is returned when the name or image is missing. No request is sent.
var ErrValidation = errors.New("name and image are required")

// Registrar submits registrations to the backend.
type Registrar interface {
	RegisterPerson(ctx context.Context, name string, image api.Image) (*api.RegisterResponse, error)
}

// Form holds the registration inputs until they are submitted.
type Form struct {
	mu    sync.Mutex
	name  string
	image *api.Image
}

// NewForm creates a form with the given inputs. A nil image means none was chosen.
func NewForm(name string, image *api.Image) *Form {
	return &Form{name: name, image: image}
}

// Values returns the current inputs.
func (f *Form) Values() (string, *api.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name, f.image
}

// Set replaces both inputs.
func (f *Form) Set(name string, image *api.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name, f.image = name, image
}

// Reset empties both inputs.
func (f *Form) Reset() {
	f.Set("", nil)
}

// Empty reports whether both inputs are empty.
func (f *Form) Empty() bool {
	name, image := f.Values()
	return name == "" && image == nil
}

// Validate checks that both inputs are present and returns the trimmed name.
// A blank name counts as missing.
func Validate(name string, image *api.Image) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || image == nil || image.Empty() {
		return "", ErrValidation
	}
	return name, nil
}

// Flow submits registrations and renders the outcome into the register status region.
type Flow struct {
	client   Registrar
	people   listview.Refresher
	renderer ui.Renderer
	msgs     config.Messages
	logger   *slog.Logger
}

// NewFlow creates a registration flow. people is refreshed after every
// successful registration and may be nil.
func NewFlow(client Registrar, people listview.Refresher, renderer ui.Renderer, msgs config.Messages, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{client: client, people: people, renderer: renderer, msgs: msgs, logger: logger}
}

// Submit validates the form and sends it. On success the server message is
// rendered, the form is reset and the people list refresh is triggered once.
// On failure the form is left as it was.
func (f *Flow) Submit(ctx context.Context, form *Form) (*api.RegisterResponse, error) {
	rawName, image := form.Values()
	name, err := Validate(rawName, image)
	if err != nil {
		f.renderer.Render(ui.RegionRegisterStatus, ui.Error(f.msgs.RegistrationMissingFields))
		return nil, err
	}

	resp, err := f.client.RegisterPerson(ctx, name, *image)
	if err != nil {
		f.logger.Warn("registration failed", "name", name, "error", err)
		f.renderer.Render(ui.RegionRegisterStatus, ui.ErrorLine(err, f.msgs))
		return nil, fmt.Errorf("register %q: %w", name, err)
	}

	f.renderer.Render(ui.RegionRegisterStatus, ui.Success(resp.Message))
	form.Reset()
	if f.people != nil {
		f.people.Trigger()
	}
	f.logger.Info("person registered", "name", name)
	return resp, nil
}

// LoadImageFile reads an image file into a multipart payload.
func LoadImageFile(path string) (*api.Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided image path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &api.Image{
		FileName:    filepath.Base(path),
		ContentType: imageContentType(path, data),
		Data:        data,
	}, nil
}

func imageContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
