package ingester

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// syncStateRecord is the wire shape of a stored cursor.
type syncStateRecord struct {
	Source        string `json:"source"`
	Branch        string `json:"branch"`
	LastCommitSHA string `json:"last_commit_sha"`
	LastSyncDate  string `json:"last_sync_date"`
}

// SyncState reads the stored cursor for a source. A source that never
// synced returns (nil, nil).
func (c *Client) SyncState(ctx context.Context, source string) (*domain.SyncState, error) {
	var rec syncStateRecord
	err := c.doJSON(ctx, "get sync state", http.MethodGet, "/sync-state/"+url.PathEscape(source),
		"", http.NoBody, 0, &rec)
	if domain.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	at, err := parseSyncTime(rec.LastSyncDate)
	if err != nil {
		return nil, domain.StateError{Source: source, Reason: err.Error()}
	}

	state := &domain.SyncState{
		Source:        rec.Source,
		Branch:        rec.Branch,
		LastCommitSHA: rec.LastCommitSHA,
		LastSyncAt:    at,
	}
	if state.Source == "" {
		state.Source = source
	}
	return state, nil
}

// PutSyncState stores the cursor for a source, with optional run
// metadata for operators.
func (c *Client) PutSyncState(ctx context.Context, state domain.SyncState, metadata map[string]any) error {
	form := url.Values{}
	form.Set("commit_sha", state.LastCommitSHA)
	form.Set("branch", state.Branch)
	if len(metadata) > 0 {
		meta, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		form.Set("metadata", string(meta))
	}

	return c.doJSON(ctx, "put sync state", http.MethodPut, "/sync-state/"+url.PathEscape(state.Source),
		formContentType, strings.NewReader(form.Encode()), 0, nil)
}

// DeleteSyncState removes the cursor for a source, forcing the next
// incremental run to start from a full sync. Deleting an absent
// cursor is not an error.
func (c *Client) DeleteSyncState(ctx context.Context, source string) error {
	err := c.doJSON(ctx, "delete sync state", http.MethodDelete, "/sync-state/"+url.PathEscape(source),
		"", http.NoBody, 0, nil)
	if domain.IsNotFound(err) {
		return nil
	}
	return err
}

// parseSyncTime accepts the backend's timestamp with or without a
// zone offset. Stored cursors must stay readable, so an unparseable
// value is an error rather than a silent nil.
func parseSyncTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if at, err := time.Parse(layout, value); err == nil {
			return &at, nil
		}
	}
	return nil, fmt.Errorf("unparseable sync timestamp %q", value)
}
