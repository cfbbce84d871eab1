package driving

import (
	"context"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// Ingestor runs full ingestion against a source: diff, batch
// resolution, upload, optional workflow trigger.
type Ingestor interface {
	// Run ingests pre-enumerated items as one run against a source.
	// Item failures are collected in the summary; authorization and
	// state errors abort the run.
	Run(ctx context.Context, source domain.Source, items []domain.Item, opts domain.RunOptions) (*domain.RunSummary, error)

	// RunSource enumerates a repository source and ingests the
	// result, honouring the content filter in opts.
	RunSource(ctx context.Context, source domain.Source, opts domain.RunOptions) (*domain.RunSummary, error)

	// CheckStatus classifies items against backend state without
	// uploading anything.
	CheckStatus(ctx context.Context, source domain.Source, items []domain.Item) (map[string]domain.DiffStatus, error)
}

// ManifestRunner runs ingestion for filesystem and WebDAV sources,
// where the item universe comes from an inventory manifest or a
// direct tree walk rather than a repository provider.
type ManifestRunner interface {
	// RunManifest ingests the records of a local manifest file.
	// Content is read from the storage provider rooted at root, and
	// only for items the backend reports as pending.
	RunManifest(ctx context.Context, source domain.Source, manifestPath, root string, opts domain.RunOptions) (*domain.RunSummary, error)

	// RunTree walks the storage source rooted at root and ingests
	// the result without a manifest.
	RunTree(ctx context.Context, source domain.Source, root string, opts domain.RunOptions) (*domain.RunSummary, error)
}

// CommitSyncer advances repository sources incrementally using commit
// history and a backend-persisted cursor.
type CommitSyncer interface {
	// RunIncremental processes the commit delta since the stored
	// cursor. A source without state falls back to a full run and
	// records a baseline cursor afterwards.
	RunIncremental(ctx context.Context, source domain.Source, opts domain.RunOptions) (*domain.RunSummary, error)

	// State reads the stored cursor, (nil, nil) when absent.
	State(ctx context.Context, source domain.Source) (*domain.SyncState, error)

	// Reset removes the stored cursor so the next incremental run
	// starts from scratch.
	Reset(ctx context.Context, source domain.Source) error
}
