// Package ingester implements the backend client over its form and
// multipart REST API. The backend owns batches, hash state and sync
// cursors; this client only moves data and never stores anything
// locally.
package ingester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
)

const (
	userAgent       = "ferry-agent"
	formContentType = "application/x-www-form-urlencoded"

	// maxErrorBody bounds how much of a failed response body is read
	// for its message.
	maxErrorBody = 4096
)

// transport injects the User-Agent and Authorization headers on each
// request.
type transport struct {
	apiKey string
	base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", userAgent)
	if t.apiKey != "" {
		clone.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return t.base.RoundTrip(clone)
}

// Client talks to one backend deployment.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ driven.Ingester = (*Client)(nil)

// New creates a backend client from settings. The endpoint must be
// configured; an empty API key leaves requests unauthenticated.
func New(settings domain.IngesterSettings) (*Client, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("ingester endpoint: %w", domain.ErrNotConfigured)
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultHTTPTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &transport{apiKey: settings.APIKey, base: http.DefaultTransport},
		},
	}, nil
}

// do performs one request and returns the raw response body.
// Transport failures and unwanted statuses come back as
// *domain.FetchError. A wantStatus of zero accepts any 2xx.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, wantStatus int) ([]byte, error) {
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if wantStatus > 0 {
		ok = resp.StatusCode == wantStatus
	}
	if !ok {
		return nil, responseError(op, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Op: op, URL: u, Err: fmt.Errorf("read response: %w", err)}
	}
	return data, nil
}

// doJSON performs one request and decodes the JSON response into out.
// A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, op, method, path, contentType string, body io.Reader, wantStatus int, out any) error {
	data, err := c.do(ctx, op, method, path, contentType, body, wantStatus)
	if err != nil || out == nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.FetchError{Op: op, URL: c.baseURL + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// apiError is the error body shape the backend reports failures in:
// an error field, or a detail that is either a message or a
// structured validation report.
type apiError struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (e apiError) text() string {
	if e.Error != "" {
		return e.Error
	}
	if len(e.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(e.Detail, &s) == nil {
		return s
	}
	return string(e.Detail)
}

// responseError maps an unwanted backend response to a
// *domain.FetchError, carrying the body's message when present. The
// response body is consumed; closing it stays with the caller.
func responseError(op string, resp *http.Response) error {
	fe := &domain.FetchError{
		Op:         op,
		StatusCode: resp.StatusCode,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		fe.URL = resp.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fe
	}
	var msg apiError
	if json.Unmarshal(body, &msg) == nil {
		if text := msg.text(); text != "" {
			fe.Err = errors.New(text)
		}
	}
	return fe
}
