package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
)

// SubmitJSON POSTs bodyFields as JSON and classifies the response.
func (c *Client) SubmitJSON(ctx context.Context, endpoint string, bodyFields any) (json.RawMessage, error) {
	payload, err := json.Marshal(bodyFields)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint)
}

// SubmitMultipart POSTs fields as multipart/form-data and classifies the response.
func (c *Client) SubmitMultipart(ctx context.Context, endpoint string, fields ...Field) (json.RawMessage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, field := range fields {
		if err := writeField(writer, field); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		described := make([]string, 0, len(fields))
		for _, f := range fields {
			described = append(described, f.describe())
		}
		c.logger.Debug("multipart submit", "endpoint", endpoint, "fields", strings.Join(described, ", "))
	}

	return c.do(req, endpoint)
}

// FetchJSON GETs endpoint and classifies the response.
func (c *Client) FetchJSON(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, endpoint)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do sends the request and applies the classification rule shared by every
// endpoint: the body is always read as JSON, 2xx is success, anything else is
// a rejection carrying the body's "error" field.
func (c *Client) do(req *http.Request, endpoint string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		c.logger.Debug("backend unreachable", "endpoint", endpoint, "request_id", req.Header.Get("X-Request-ID"), "error", err)
		return nil, &Error{Kind: KindNetworkFailure, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("could not read response body: %w", err)}
	}

	c.captureResponse(endpoint, resp.StatusCode, body)
	c.logger.Debug("backend response", "endpoint", endpoint, "status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"), "bytes", len(body))

	return classify(endpoint, resp.StatusCode, body)
}

func classify(endpoint string, status int, body []byte) (json.RawMessage, error) {
	if !isSuccessStatus(status) {
		return nil, &Error{Kind: KindRejected, Endpoint: endpoint, Status: status, Message: rejectionMessage(body)}
	}
	if !json.Valid(body) {
		return nil, &Error{Kind: KindMalformedResponse, Endpoint: endpoint, Status: status, Err: fmt.Errorf("response body is not valid JSON (%d bytes)", len(body))}
	}
	return json.RawMessage(body), nil
}

// rejectionMessage extracts the "error" field, or UnknownErrorMessage when the
// body is not JSON or the field is missing.
func rejectionMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == "" {
		return UnknownErrorMessage
	}
	return eb.Error
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// decodeJSON unmarshals a classified body into T.
// A body that does not match the expected shape is a malformed response.
func decodeJSON[T any](endpoint string, raw json.RawMessage) (T, error) {
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, &Error{Kind: KindMalformedResponse, Endpoint: endpoint, Status: http.StatusOK, Err: fmt.Errorf("could not unmarshal response: %w", err)}
	}
	return result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeField(writer *multipart.Writer, field Field) error {
	if !field.isFile() {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return fmt.Errorf("could not write field %s: %w", field.Name, err)
		}
		return nil
	}

	contentType := field.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field.Name), quoteEscaper.Replace(field.FileName)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(field.Data); err != nil {
		return fmt.Errorf("could not copy file data: %w", err)
	}
	return nil
}
