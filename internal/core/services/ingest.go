package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
	"github.com/custodia-labs/ferry-cli/internal/logger"
	"github.com/custodia-labs/ferry-cli/internal/render"
)

// Ensure IngestService implements the interfaces.
var (
	_ driving.Ingestor       = (*IngestService)(nil)
	_ driving.ManifestRunner = (*IngestService)(nil)
)

// contentLoader reads an item's bytes lazily at upload time.
type contentLoader func(ctx context.Context, uri string) (*domain.Item, error)

// IngestService runs the ingestion state machine: enumerate, diff,
// resolve batch, upload, optionally trigger workflows.
type IngestService struct {
	ingester driven.Ingester
	factory  driven.ProviderFactory
	differ   *StatusDiffer
	resolver *BatchResolver
	settings domain.Settings
}

// NewIngestService creates an ingest service. The factory is only
// needed for RunSource and may be nil for inventory-driven use.
func NewIngestService(ingester driven.Ingester, factory driven.ProviderFactory, settings domain.Settings) *IngestService {
	return &IngestService{
		ingester: ingester,
		factory:  factory,
		differ:   NewStatusDiffer(ingester),
		resolver: NewBatchResolver(ingester),
		settings: settings,
	}
}

// Run ingests pre-enumerated items as one run against a source.
func (s *IngestService) Run(ctx context.Context, source domain.Source, items []domain.Item, opts domain.RunOptions) (*domain.RunSummary, error) {
	if err := ValidateRunOptions(opts); err != nil {
		return nil, err
	}

	summary := newSummary(source.ID)
	err := s.runItems(ctx, source, items, opts, summary, nil)
	return summary, err
}

// RunManifest ingests the records of a local manifest file. Content
// is read through the storage provider only for items the diff
// reports as pending, so an up-to-date source costs no reads at all.
func (s *IngestService) RunManifest(ctx context.Context, source domain.Source, manifestPath, root string, opts domain.RunOptions) (*domain.RunSummary, error) {
	if err := ValidateRunOptions(opts); err != nil {
		return nil, err
	}

	summary := newSummary(source.ID)

	records, err := inventory.Read(manifestPath)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}
	if opts.SkipInvalid {
		kept := inventory.Valid(records)
		if dropped := len(records) - len(kept); dropped > 0 {
			logger.Warn("Skipping %d invalid records", dropped)
		}
		records = kept
	}
	logger.Info("Loaded %d records from %s", len(records), manifestPath)

	provider, err := s.factory.Storage(source, root)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}

	err = s.runItems(ctx, source, inventory.Items(records), opts, summary, provider.Fetch)
	return summary, err
}

// RunTree walks a storage source and ingests the result without a
// manifest. The walk carries content, so every candidate file is read
// up front.
func (s *IngestService) RunTree(ctx context.Context, source domain.Source, root string, opts domain.RunOptions) (*domain.RunSummary, error) {
	if err := ValidateRunOptions(opts); err != nil {
		return nil, err
	}

	summary := newSummary(source.ID)

	provider, err := s.factory.Storage(source, root)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}

	logger.Section("Walking " + source.ID)
	items, err := provider.ListTree(ctx, "", s.settings.Extensions)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}
	if opts.SkipInvalid {
		items = inventory.ValidItems(items)
	}

	err = s.runItems(ctx, source, items, opts, summary, nil)
	return summary, err
}

// RunSource enumerates a repository source and ingests the result,
// honouring the content filter in opts.
func (s *IngestService) RunSource(ctx context.Context, source domain.Source, opts domain.RunOptions) (*domain.RunSummary, error) {
	if err := ValidateRunOptions(opts); err != nil {
		return nil, err
	}

	summary := newSummary(source.ID)

	provider, err := s.factory.Repository(source, opts)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}

	items, err := s.enumerate(ctx, provider, source, opts)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}

	err = s.runItems(ctx, source, items, opts, summary, nil)
	return summary, err
}

// CheckStatus classifies items against backend state without
// uploading anything.
func (s *IngestService) CheckStatus(ctx context.Context, source domain.Source, items []domain.Item) (map[string]domain.DiffStatus, error) {
	return s.differ.Diff(ctx, source.ID, hashMap(items))
}

// enumerate builds the full candidate item list for a repository
// source: the file tree, the rendered issues, or both.
func (s *IngestService) enumerate(ctx context.Context, provider driven.RepositoryProvider, source domain.Source, opts domain.RunOptions) ([]domain.Item, error) {
	logger.Section("Enumerating " + source.ID)
	filter := effectiveFilter(opts)

	var items []domain.Item

	if filter.IncludesFiles() {
		files, err := provider.ListTree(ctx, "", s.settings.Extensions)
		if err != nil {
			return nil, fmt.Errorf("list tree: %w", err)
		}
		logger.Info("Found %d files", len(files))
		items = append(items, files...)
	}

	if filter.IncludesIssues() {
		issues, err := provider.ListIssues(ctx, opts.IncludeComments, nil)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		logger.Info("Found %d issues", len(issues))
		for _, issue := range issues {
			items = append(items, render.IssueItem(issue, source.Owner, source.Repo))
		}
	}

	return items, nil
}

// runItems drives the state machine over an enumerated item set,
// filling in the summary as it goes. Pre-seeded summary errors (e.g.
// fetch failures from the incremental path) count against the
// workflow gate like upload failures do. A non-nil load defers
// content reads until an item is known to need uploading.
func (s *IngestService) runItems(ctx context.Context, source domain.Source, items []domain.Item, opts domain.RunOptions, summary *domain.RunSummary, load contentLoader) error {
	summary.Enumerated = len(items)

	// Diffing. An empty item set is a complete no-op: no diff call,
	// no batch, no workflow.
	summary.State = domain.StateDiffing
	if len(items) == 0 {
		logger.Info("Nothing enumerated for %s", source.ID)
		summary.State = domain.StateDone
		summary.UpToDate = len(summary.Errors) == 0
		return nil
	}

	statuses, err := s.differ.Diff(ctx, source.ID, hashMap(items))
	if err != nil {
		summary.State = domain.StateFailed
		return err
	}

	processable := Processable(items, statuses)
	summary.ToProcess = len(processable)
	logger.Info("%d of %d items need upload", len(processable), len(items))

	// An empty diff is the second no-op exit: the backend already
	// has everything, so no batch is resolved or created.
	if len(processable) == 0 {
		summary.State = domain.StateDone
		summary.UpToDate = len(summary.Errors) == 0
		return nil
	}

	// BatchResolving.
	summary.State = domain.StateBatchResolving
	batch, err := s.resolver.Resolve(ctx, source.ID, batchName(source, opts))
	if err != nil {
		summary.State = domain.StateFailed
		return err
	}
	summary.BatchID = batch.ID

	// Uploading. Sequential and best-effort: one item's failure must
	// not abort the loop. Authorization failures are the exception,
	// retrying N-1 more items with bad credentials helps nobody.
	summary.State = domain.StateUploading
	for _, item := range items {
		if !statuses[item.URI].Processable() {
			continue
		}
		upload := item
		upload.Metadata = item.UploadMetadata()

		if load != nil && upload.Content == nil {
			fetched, err := load(ctx, item.URI)
			if err != nil {
				if domain.IsAuthorization(err) {
					summary.State = domain.StateFailed
					return fmt.Errorf("fetch %s: %w", item.URI, err)
				}
				logger.Warn("Fetch failed for %s: %v", item.URI, err)
				summary.Errors = append(summary.Errors, domain.ItemError{URI: item.URI, Stage: "fetch", Err: err})
				continue
			}
			upload.Content = fetched.Content
		}

		if err := s.ingester.Upload(ctx, source.ID, batch.ID, upload); err != nil {
			if domain.IsAuthorization(err) {
				summary.State = domain.StateFailed
				return fmt.Errorf("upload %s: %w", item.URI, err)
			}
			logger.Warn("Upload failed for %s: %v", item.URI, err)
			summary.Errors = append(summary.Errors, domain.ItemError{URI: item.URI, Stage: "upload", Err: err})
			continue
		}
		logger.Debug("Uploaded %s", item.URI)
		summary.Ingested = append(summary.Ingested, item.URI)
	}

	// WorkflowTriggering. Only on request, only after a fully clean
	// upload loop that moved at least one item.
	if opts.StartWorkflows && summary.Clean() && len(summary.Ingested) > 0 {
		summary.State = domain.StateWorkflowTriggering
		result, err := s.ingester.StartWorkflows(ctx, batch.ID, opts.Priority, opts.WorkflowDefinitionID, opts.ParamSetID)
		if err != nil {
			summary.State = domain.StateFailed
			return fmt.Errorf("start workflows for batch %d: %w", batch.ID, err)
		}
		summary.Workflow = result
		logger.Info("Workflows started for batch %d", batch.ID)
	} else if opts.StartWorkflows {
		logger.Warn("Skipping workflow trigger: %d errors, %d ingested", len(summary.Errors), len(summary.Ingested))
	}

	summary.State = domain.StateDone
	logger.Info("Run %s done: %d ingested, %d errors", summary.RunID, len(summary.Ingested), len(summary.Errors))
	return nil
}

// newSummary seeds a run summary with a fresh run ID.
func newSummary(source string) *domain.RunSummary {
	return &domain.RunSummary{
		RunID:  uuid.New().String(),
		Source: source,
		State:  domain.StateEnumerating,
	}
}

// hashMap builds the uri-to-hash map submitted to the diff call.
func hashMap(items []domain.Item) map[string]string {
	hashes := make(map[string]string, len(items))
	for _, item := range items {
		hashes[item.URI] = item.ContentHash
	}
	return hashes
}

// batchName picks the advisory batch label for a run.
func batchName(source domain.Source, opts domain.RunOptions) string {
	if opts.BatchName != "" {
		return opts.BatchName
	}
	return source.ID
}
