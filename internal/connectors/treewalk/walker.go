// Package treewalk enumerates hierarchical sources with bounded
// concurrency.
//
// The walker expands directories from an explicit worklist, one
// frontier at a time, and fetches matching leaves through a bounded
// pool. Nothing recurses and nothing spawns per-entry goroutines
// beyond the frontier, so arbitrarily large trees walk in constant
// goroutine budget.
package treewalk

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// Entry is one directory listing entry.
type Entry struct {
	// Path is the entry's path relative to the walk root's source.
	Path string

	// IsDir marks directories for further expansion.
	IsDir bool
}

// Source yields directory entries and leaf content for the walker.
// Filesystem, WebDAV and repository providers all implement it.
type Source interface {
	// List returns the entries of one directory.
	List(ctx context.Context, dir string) ([]Entry, error)

	// Fetch retrieves one leaf item, content and hash included.
	Fetch(ctx context.Context, path string) (*domain.Item, error)
}

// Walker walks a Source with bounded fan-out.
type Walker struct {
	source        Source
	maxConcurrent int
}

// New creates a walker. maxConcurrent bounds in-flight List and Fetch
// calls; values below 1 are raised to 1.
func New(source Source, maxConcurrent int) *Walker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Walker{source: source, maxConcurrent: maxConcurrent}
}

// Walk enumerates every leaf under root whose extension is in the
// allow-list and fetches its content. Results come back sorted by URI
// so runs are deterministic. Any listing or fetch failure fails the
// walk; leaves that sniff to application/octet-stream are rejected
// with a warning instead of being ingested silently.
func (w *Walker) Walk(ctx context.Context, root string, extensions []string) ([]domain.Item, error) {
	leaves, err := w.expand(ctx, root, extensions)
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return []domain.Item{}, nil
	}

	items, err := w.fetchAll(ctx, leaves)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, item := range items {
		if item.MIMEType == domain.MIMETypeOctetStream {
			logger.Warn("Rejecting %s: undetectable content type", item.URI)
			continue
		}
		kept = append(kept, item)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].URI < kept[j].URI })
	return kept, nil
}

type listResult struct {
	entries []Entry
	err     error
}

// expand drains the directory worklist frontier by frontier and
// returns the matching leaf paths.
func (w *Walker) expand(ctx context.Context, root string, extensions []string) ([]string, error) {
	var leaves []string
	frontier := []string{root}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results := make([]listResult, len(frontier))
		sem := make(chan struct{}, w.maxConcurrent)
		var wg sync.WaitGroup

		for i, dir := range frontier {
			wg.Add(1)
			go func(i int, dir string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				entries, err := w.source.List(ctx, dir)
				results[i] = listResult{entries: entries, err: err}
			}(i, dir)
		}
		wg.Wait()

		var next []string
		for i, res := range results {
			if res.err != nil {
				return nil, fmt.Errorf("list %s: %w", frontier[i], res.err)
			}
			for _, entry := range res.entries {
				if entry.IsDir {
					next = append(next, entry.Path)
					continue
				}
				if domain.ExtensionAllowed(entry.Path, extensions) {
					leaves = append(leaves, entry.Path)
				}
			}
		}
		logger.Debug("Expanded %d directories, %d queued, %d leaves so far", len(frontier), len(next), len(leaves))
		frontier = next
	}

	return leaves, nil
}

// fetchAll retrieves every leaf through the bounded pool. Each leaf
// writes into its own slot, so no lock is needed.
func (w *Walker) fetchAll(ctx context.Context, leaves []string) ([]domain.Item, error) {
	items := make([]domain.Item, len(leaves))
	errs := make([]error, len(leaves))
	sem := make(chan struct{}, w.maxConcurrent)
	var wg sync.WaitGroup

	for i, path := range leaves {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			item, err := w.source.Fetch(ctx, path)
			if err != nil {
				errs[i] = err
				return
			}
			items[i] = *item
		}(i, path)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", leaves[i], err)
		}
	}
	return items, nil
}
