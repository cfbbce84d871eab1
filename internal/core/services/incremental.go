package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ferry-cli/internal/logger"
	"github.com/custodia-labs/ferry-cli/internal/render"
)

// Ensure CommitSyncService implements the interface.
var _ driving.CommitSyncer = (*CommitSyncService)(nil)

// CommitSyncService advances repository sources incrementally. It
// keeps a last-processed-commit cursor in the backend and only
// fetches files touched since that commit, instead of walking the
// whole tree every run.
type CommitSyncService struct {
	ingester driven.Ingester
	factory  driven.ProviderFactory
	ingest   *IngestService
	settings domain.Settings
}

// NewCommitSyncService creates a commit sync service.
func NewCommitSyncService(ingester driven.Ingester, factory driven.ProviderFactory, ingest *IngestService, settings domain.Settings) *CommitSyncService {
	return &CommitSyncService{
		ingester: ingester,
		factory:  factory,
		ingest:   ingest,
		settings: settings,
	}
}

// RunIncremental processes the commit delta since the stored cursor.
// The cursor only advances after a run with zero item errors, so a
// failed run is reprocessed from the same commit on the next attempt
// (at-least-once, never lost).
func (s *CommitSyncService) RunIncremental(ctx context.Context, source domain.Source, opts domain.RunOptions) (*domain.RunSummary, error) {
	if err := ValidateRunOptions(opts); err != nil {
		return nil, err
	}

	summary := newSummary(source.ID)

	provider, err := s.factory.Repository(source, opts)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}

	state, err := s.ingester.SyncState(ctx, source.ID)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, fmt.Errorf("read sync state: %w", err)
	}

	if state == nil || !state.HasCursor() {
		return s.baselineRun(ctx, provider, source, opts, summary)
	}
	return s.deltaRun(ctx, provider, source, opts, *state, summary)
}

// baselineRun handles a source without a cursor: full enumeration,
// then the current head is recorded so later runs can go commit-wise.
// The head is read before the walk, so files committed mid-run are
// re-examined next time rather than skipped.
func (s *CommitSyncService) baselineRun(ctx context.Context, provider driven.RepositoryProvider, source domain.Source, opts domain.RunOptions, summary *domain.RunSummary) (*domain.RunSummary, error) {
	logger.Section("Baseline sync for " + source.ID)

	head, err := provider.Head(ctx)
	if err != nil {
		if !domain.IsNotFound(err) {
			summary.State = domain.StateFailed
			return summary, fmt.Errorf("resolve head: %w", err)
		}
		// A branch with no commits yet. Run anyway, just without a
		// cursor to record.
		head = ""
		logger.Warn("No commits on branch for %s", source.ID)
	}

	items, err := s.ingest.enumerate(ctx, provider, source, opts)
	if err != nil {
		summary.State = domain.StateFailed
		return summary, err
	}

	if err := s.ingest.runItems(ctx, source, items, opts, summary, nil); err != nil {
		return summary, err
	}

	if !summary.Clean() {
		logger.Warn("Baseline had %d errors, cursor not recorded", len(summary.Errors))
		return summary, nil
	}
	if head == "" {
		return summary, nil
	}

	if err := s.putCursor(ctx, source, opts, head, map[string]any{
		"mode":           "baseline",
		"files_ingested": len(summary.Ingested),
	}); err != nil {
		return summary, err
	}
	summary.NewCommitSHA = head
	return summary, nil
}

// deltaRun handles a source with a cursor: fold the commits since the
// cursor into a changed/removed partition, fetch only changed paths,
// and re-render issues updated since the last sync.
func (s *CommitSyncService) deltaRun(ctx context.Context, provider driven.RepositoryProvider, source domain.Source, opts domain.RunOptions, state domain.SyncState, summary *domain.RunSummary) (*domain.RunSummary, error) {
	logger.Section("Incremental sync for " + source.ID)
	logger.Debug("Cursor at %s", state.LastCommitSHA)
	filter := effectiveFilter(opts)

	var commits []domain.Commit
	if filter.IncludesFiles() {
		var err error
		commits, err = provider.ListCommitsSince(ctx, state.LastCommitSHA)
		if err != nil {
			summary.State = domain.StateFailed
			return summary, fmt.Errorf("list commits since %s: %w", state.LastCommitSHA, err)
		}
		logger.Info("%d commits since %s", len(commits), state.LastCommitSHA)
	}

	var items []domain.Item
	if filter.IncludesIssues() {
		issues, err := provider.ListIssues(ctx, opts.IncludeComments, state.LastSyncAt)
		if err != nil {
			summary.State = domain.StateFailed
			return summary, fmt.Errorf("list issues: %w", err)
		}
		logger.Info("%d issues updated since last sync", len(issues))
		for _, issue := range issues {
			items = append(items, render.IssueItem(issue, source.Owner, source.Repo))
		}
	}

	if len(commits) == 0 && len(items) == 0 {
		logger.Info("Source %s is up to date", source.ID)
		summary.State = domain.StateDone
		summary.UpToDate = true
		return summary, nil
	}

	summary.CommitsProcessed = len(commits)

	if len(commits) > 0 {
		changed, removed, err := s.commitDelta(ctx, provider, commits)
		if err != nil {
			summary.State = domain.StateFailed
			return summary, err
		}

		summary.Removed = len(removed)
		for _, path := range removed {
			// The backend exposes no delete operation, so removals
			// are surfaced in the summary only.
			logger.Warn("Removed upstream, still in backend: %s", path)
		}

		for _, path := range changed {
			item, err := provider.Fetch(ctx, path)
			if err != nil {
				if domain.IsAuthorization(err) {
					summary.State = domain.StateFailed
					return summary, fmt.Errorf("fetch %s: %w", path, err)
				}
				logger.Warn("Fetch failed for %s: %v", path, err)
				summary.Errors = append(summary.Errors, domain.ItemError{URI: path, Stage: "fetch", Err: err})
				continue
			}
			items = append(items, *item)
		}
	}

	if err := s.ingest.runItems(ctx, source, items, opts, summary, nil); err != nil {
		return summary, err
	}

	if !summary.Clean() {
		logger.Warn("Run had %d errors, cursor stays at %s", len(summary.Errors), state.LastCommitSHA)
		return summary, nil
	}

	// Commit listings are newest first.
	newSHA := state.LastCommitSHA
	if len(commits) > 0 {
		newSHA = commits[0].SHA
	}
	if err := s.putCursor(ctx, source, opts, newSHA, map[string]any{
		"commits_processed": len(commits),
		"files_ingested":    len(summary.Ingested),
		"files_removed":     summary.Removed,
	}); err != nil {
		return summary, err
	}
	summary.NewCommitSHA = newSHA
	return summary, nil
}

// commitDelta populates each commit's file list and folds the range
// into changed and removed path sets, extension filter applied.
func (s *CommitSyncService) commitDelta(ctx context.Context, provider driven.RepositoryProvider, commits []domain.Commit) (changed, removed []string, err error) {
	for i := range commits {
		if len(commits[i].Files) > 0 {
			continue
		}
		details, err := provider.CommitDetails(ctx, commits[i].SHA)
		if err != nil {
			// Without the file list the delta is unknowable, so the
			// whole range fails rather than silently shrinking.
			return nil, nil, fmt.Errorf("commit details %s: %w", commits[i].SHA, err)
		}
		commits[i].Files = details.Files
	}

	delta := domain.FoldCommits(commits)
	for _, path := range delta.Changed {
		if domain.ExtensionAllowed(path, s.settings.Extensions) {
			changed = append(changed, path)
		}
	}
	for _, path := range delta.Removed {
		if domain.ExtensionAllowed(path, s.settings.Extensions) {
			removed = append(removed, path)
		}
	}
	logger.Debug("Delta: %d changed, %d removed after extension filter", len(changed), len(removed))
	return changed, removed, nil
}

// putCursor writes the sync cursor through the backend.
func (s *CommitSyncService) putCursor(ctx context.Context, source domain.Source, opts domain.RunOptions, sha string, metadata map[string]any) error {
	now := time.Now().UTC()
	state := domain.SyncState{
		Source:        source.ID,
		Branch:        effectiveBranch(opts),
		LastCommitSHA: sha,
		LastSyncAt:    &now,
	}
	if err := s.ingester.PutSyncState(ctx, state, metadata); err != nil {
		return fmt.Errorf("store sync state: %w", err)
	}
	logger.Info("Cursor advanced to %s", sha)
	return nil
}

// State reads the stored cursor, (nil, nil) when absent.
func (s *CommitSyncService) State(ctx context.Context, source domain.Source) (*domain.SyncState, error) {
	return s.ingester.SyncState(ctx, source.ID)
}

// Reset removes the stored cursor so the next incremental run starts
// from scratch.
func (s *CommitSyncService) Reset(ctx context.Context, source domain.Source) error {
	if err := s.ingester.DeleteSyncState(ctx, source.ID); err != nil {
		return fmt.Errorf("delete sync state: %w", err)
	}
	logger.Info("Sync state cleared for %s", source.ID)
	return nil
}
