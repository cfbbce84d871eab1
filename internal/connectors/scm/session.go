// Package scm holds the plumbing shared by the repository hosting
// providers: the authenticated HTTP session, the numbered-page loop
// and the mapping from API responses to domain errors.
package scm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// UserAgent identifies the agent on every outbound API request.
const UserAgent = "ferry-agent"

// transport injects the User-Agent and Authorization headers on each
// request.
type transport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	if t.token != "" {
		clone.Header.Set("Authorization", "token "+t.token)
	}
	return t.base.RoundTrip(clone)
}

// NewClient builds the authenticated HTTP client the raw REST
// providers share. An empty token leaves requests anonymous; a
// non-positive timeout falls back to the default.
func NewClient(token string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = domain.DefaultHTTPTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &transport{token: token, base: http.DefaultTransport},
	}
}

// GetJSON performs one GET against url and decodes the JSON body into
// out. Transport failures and non-2xx statuses come back as
// *domain.FetchError so callers can classify them with the domain
// helpers. A nil out discards the body.
func GetJSON(ctx context.Context, client *http.Client, op, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &domain.FetchError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ResponseError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.FetchError{Op: op, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
