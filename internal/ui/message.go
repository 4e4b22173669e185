package ui

import (
	"errors"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/capture"
	"github.com/kozaktomas/face-kiosk/internal/config"
)

// ErrorText converts a flow error into the user-visible message for it.
func ErrorText(err error, msgs config.Messages) string {
	switch {
	case errors.Is(err, api.ErrNetworkFailure):
		return msgs.ConnectionError
	case errors.Is(err, api.ErrMalformedResponse):
		return msgs.MalformedResponse
	case errors.Is(err, camera.ErrAccessDenied):
		return msgs.CameraUnavailable
	case errors.Is(err, capture.ErrEncode):
		return msgs.EncodeFailed
	}
	if apiErr, ok := api.AsError(err); ok {
		return msgs.Errorf(apiErr.Message)
	}
	return msgs.Errorf(err.Error())
}

// ErrorLine is ErrorText as an error-styled line.
func ErrorLine(err error, msgs config.Messages) Line {
	return Error(ErrorText(err, msgs))
}
