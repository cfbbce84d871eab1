package ingester

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// statusRecord is the wire shape of one classification row.
type statusRecord struct {
	Status string `json:"status"`
}

// DiffStatus submits the full uri-to-hash map for a source in one
// call and returns the backend's classification per URI, verbatim.
// The diff service checks the response for totality.
func (c *Client) DiffStatus(ctx context.Context, source string, hashes map[string]string) (map[string]domain.DiffStatus, error) {
	data, err := json.Marshal(hashes)
	if err != nil {
		return nil, fmt.Errorf("encode hashes: %w", err)
	}

	form := url.Values{}
	form.Set("source", source)
	form.Set("data", string(data))

	var records map[string]statusRecord
	err = c.doJSON(ctx, "diff status", http.MethodPost, "/source-status",
		formContentType, strings.NewReader(form.Encode()), 0, &records)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]domain.DiffStatus, len(records))
	for uri, rec := range records {
		statuses[uri] = domain.DiffStatus(rec.Status)
	}
	return statuses, nil
}
