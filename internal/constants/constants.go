// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Backend endpoints, relative to the configured backend base address
const (
	EndpointRegisterPerson = "register_person_api"
	EndpointRecognize      = "recognize"
	EndpointListPeople     = "list_people"
	EndpointAccessLog      = "access_log"
	// EndpointHome answers with a plain-text banner when the backend is up
	EndpointHome = ""
)

// Multipart form fields
const (
	FieldName  = "name"
	FieldImage = "image"
)

// Capture constants
const (
	// CaptureMIMEType is the fixed encoding of every captured frame
	CaptureMIMEType = "image/png"

	// CaptureFileName is the file name attached to the captured frame in the multipart body
	CaptureFileName = "webcam.png"

	// DefaultCanvasWidth and DefaultCanvasHeight size the capture surface
	DefaultCanvasWidth  = 640
	DefaultCanvasHeight = 480

	// DefaultCameraFPS is the rate at which camera frames are pumped into the video sink
	DefaultCameraFPS = 10
)

// Web constants
const (
	// MaxUploadSize is the maximum size of a registration upload (32 MB)
	MaxUploadSize = 32 << 20

	// EventChannelBuffer is the buffer size of each region-update listener
	EventChannelBuffer = 16

	// PreviewJPEGQuality is the JPEG quality of the live preview endpoint
	PreviewJPEGQuality = 75
)
