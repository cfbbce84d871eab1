package driven

import (
	"context"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// Ingester is the document-ingestion backend. One implementation
// exists per backend deployment; all runs in this process share it.
type Ingester interface {
	// ListBatches returns every batch the backend knows about.
	ListBatches(ctx context.Context) ([]domain.Batch, error)

	// CreateBatch creates a batch for a source and returns it with
	// the backend-assigned ID.
	CreateBatch(ctx context.Context, source, name string) (*domain.Batch, error)

	// DiffStatus submits the full uri-to-hash map for a source in
	// one call and returns the backend's classification per URI.
	DiffStatus(ctx context.Context, source string, hashes map[string]string) (map[string]domain.DiffStatus, error)

	// Upload sends one item's content and metadata into a batch.
	Upload(ctx context.Context, source string, batchID int64, item domain.Item) error

	// StartWorkflows triggers backend processing for a batch and
	// returns the backend's raw response.
	StartWorkflows(ctx context.Context, batchID int64, priority int, workflowDefinitionID, paramSetID string) ([]byte, error)

	// SyncState reads the stored cursor for a source. A source that
	// never synced returns (nil, nil).
	SyncState(ctx context.Context, source string) (*domain.SyncState, error)

	// PutSyncState stores the cursor for a source, with optional
	// run metadata for operators.
	PutSyncState(ctx context.Context, state domain.SyncState, metadata map[string]any) error

	// DeleteSyncState removes the cursor for a source. Deleting an
	// absent cursor is not an error.
	DeleteSyncState(ctx context.Context, source string) error
}
