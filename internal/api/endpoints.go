package api

import (
	"context"

	"github.com/kozaktomas/face-kiosk/internal/constants"
)

// RegisterPerson submits a name and reference image. The backend answers 201
// for a new person and 200 when an existing person's image is replaced.
func (c *Client) RegisterPerson(ctx context.Context, name string, image Image) (*RegisterResponse, error) {
	raw, err := c.SubmitMultipart(ctx, constants.EndpointRegisterPerson,
		TextField(constants.FieldName, name),
		FileField(constants.FieldImage, image),
	)
	if err != nil {
		return nil, err
	}
	resp, err := decodeJSON[RegisterResponse](constants.EndpointRegisterPerson, raw)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recognize submits one encoded frame. The response holds one result per
// subject found; an empty slice is a valid answer.
func (c *Client) Recognize(ctx context.Context, frame Image) ([]RecognitionResult, error) {
	raw, err := c.SubmitMultipart(ctx, constants.EndpointRecognize, FileField(constants.FieldImage, frame))
	if err != nil {
		return nil, err
	}
	return decodeList[RecognitionResult](constants.EndpointRecognize, raw)
}

// ListPeople fetches the full set of registered people.
func (c *Client) ListPeople(ctx context.Context) ([]Person, error) {
	raw, err := c.FetchJSON(ctx, constants.EndpointListPeople)
	if err != nil {
		return nil, err
	}
	return decodeList[Person](constants.EndpointListPeople, raw)
}

// AccessLog fetches a full snapshot of the access log.
func (c *Client) AccessLog(ctx context.Context) ([]AccessLogEntry, error) {
	raw, err := c.FetchJSON(ctx, constants.EndpointAccessLog)
	if err != nil {
		return nil, err
	}
	return decodeList[AccessLogEntry](constants.EndpointAccessLog, raw)
}

// decodeList decodes a JSON array, mapping a JSON null to an empty slice.
func decodeList[T any](endpoint string, raw []byte) ([]T, error) {
	items, err := decodeJSON[[]T](endpoint, raw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
