package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozaktomas/face-kiosk/internal/constants"
)

// Client is the single chokepoint for calls to the recognition backend.
// It holds no application state beyond its configuration.
type Client struct {
	URL        string
	parsedURL  *url.URL
	httpClient *http.Client
	captureDir string
	logger     *slog.Logger
}

// NewClient creates a backend client for the given base address.
func NewClient(rawURL string) (*Client, error) {
	return NewClientWithCapture(rawURL, "")
}

// NewClientWithCapture creates a backend client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewClientWithCapture(rawURL, captureDir string) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: missing host", rawURL)
	}

	c := &Client{
		URL:        parsed.String(),
		parsedURL:  parsed,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	if captureDir != "" {
		if err := c.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetTimeout bounds every request. Zero (the default) means no timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// resolveURL builds a full URL from the base address and an endpoint path.
func (c *Client) resolveURL(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		u := *c.parsedURL
		if u.Path == "" {
			u.Path = "/"
		}
		return u.String()
	}
	return c.parsedURL.JoinPath(endpoint).String()
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, status int, body []byte) {
	if c.captureDir == "" {
		return
	}

	name := strings.ReplaceAll(strings.Trim(endpoint, "/"), "/", "_")
	if name == "" {
		name = "home"
	}
	timestamp := time.Now().Format("20060102_150405.000")
	path := filepath.Join(c.captureDir, fmt.Sprintf("%s_%d_%s.json", name, status, timestamp))

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		c.logger.Warn("failed to capture response", "path", path, "error", err)
	}
}

// Ping checks that the backend answers on its home endpoint.
// The home endpoint replies with plain text, so no JSON parsing happens.
func (c *Client) Ping(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, constants.EndpointHome, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return "", &Error{Kind: KindNetworkFailure, Endpoint: "/", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetworkFailure, Endpoint: "/", Status: resp.StatusCode, Err: err}
	}

	if !isSuccessStatus(resp.StatusCode) {
		return "", &Error{Kind: KindRejected, Endpoint: "/", Status: resp.StatusCode, Message: rejectionMessage(body)}
	}
	return strings.TrimSpace(string(body)), nil
}
