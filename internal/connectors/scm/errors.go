package scm

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// maxErrorBody bounds how much of a failed response body is read for
// its message.
const maxErrorBody = 4096

// apiMessage is the error body shape GitHub-style and Gitea-style
// APIs share. Gitea reports some failures through the errors array
// instead of the message field.
type apiMessage struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func (m apiMessage) text() string {
	detail := strings.Join(m.Errors, "; ")
	switch {
	case m.Message == "":
		return detail
	case detail == "":
		return m.Message
	default:
		return m.Message + ": " + detail
	}
}

// ResponseError maps a non-2xx API response to a *domain.FetchError,
// carrying the body's message and errors fields when present. The
// response body is consumed; closing it stays with the caller.
func ResponseError(op string, resp *http.Response) error {
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
	var msg apiMessage
	if json.Unmarshal(body, &msg) == nil {
		if text := msg.text(); text != "" {
			fe.Err = errors.New(text)
		}
	}
	return fe
}
