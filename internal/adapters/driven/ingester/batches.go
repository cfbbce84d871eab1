package ingester

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// batchRecord is the wire shape of one batch.
type batchRecord struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
	Name   string `json:"name"`
}

// ListBatches returns every batch the backend knows about. The
// listing endpoint has no source filter, so callers scan.
func (c *Client) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	var records []batchRecord
	if err := c.doJSON(ctx, "list batches", http.MethodGet, "/batch/", "", http.NoBody, 0, &records); err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, len(records))
	for _, rec := range records {
		batches = append(batches, domain.Batch{ID: rec.ID, Source: rec.Source, Name: rec.Name})
	}
	return batches, nil
}

// CreateBatch creates a batch for a source and returns it with the
// backend-assigned ID.
func (c *Client) CreateBatch(ctx context.Context, source, name string) (*domain.Batch, error) {
	form := url.Values{}
	form.Set("source", source)
	form.Set("name", name)

	var rec batchRecord
	err := c.doJSON(ctx, "create batch", http.MethodPost, "/batch/",
		formContentType, strings.NewReader(form.Encode()), http.StatusCreated, &rec)
	if err != nil {
		return nil, err
	}
	return &domain.Batch{ID: rec.ID, Source: source, Name: name}, nil
}

// StartWorkflows triggers backend processing for a batch and returns
// the backend's raw response for the run summary.
func (c *Client) StartWorkflows(ctx context.Context, batchID int64, priority int, workflowDefinitionID, paramSetID string) ([]byte, error) {
	form := url.Values{}
	form.Set("batch_id", strconv.FormatInt(batchID, 10))
	form.Set("priority", strconv.Itoa(priority))
	if workflowDefinitionID != "" {
		form.Set("workflow_definition_id", workflowDefinitionID)
	}
	if paramSetID != "" {
		form.Set("param_id", paramSetID)
	}

	return c.do(ctx, "start workflows", http.MethodPost, "/batch/start-workflows",
		formContentType, strings.NewReader(form.Encode()), http.StatusCreated)
}
