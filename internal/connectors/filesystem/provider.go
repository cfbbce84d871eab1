// Package filesystem provides the local-directory source provider
// used by fs runs, manifest builds and the watch loop.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/connectors/treewalk"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
)

// Ensure Provider satisfies the provider and walker contracts.
var (
	_ driven.SourceProvider = (*Provider)(nil)
	_ treewalk.Source       = (*Provider)(nil)
)

// Provider reads items from a local directory tree. Item URIs are
// paths relative to the root, with forward slashes on every platform.
type Provider struct {
	sourceID string
	root     string
	walker   *treewalk.Walker
}

// New creates a filesystem provider rooted at root.
func New(sourceID, root string, maxConcurrent int) *Provider {
	p := &Provider{sourceID: sourceID, root: root}
	p.walker = treewalk.New(p, maxConcurrent)
	return p
}

// Kind returns the filesystem source kind.
func (p *Provider) Kind() domain.SourceKind {
	return domain.SourceKindFilesystem
}

// SourceID returns the configured source identifier.
func (p *Provider) SourceID() string {
	return p.sourceID
}

// Root returns the directory the provider reads from.
func (p *Provider) Root() string {
	return p.root
}

// ListTree walks the tree under root and returns every allowed leaf,
// content included, sorted by URI.
func (p *Provider) ListTree(ctx context.Context, root string, extensions []string) ([]domain.Item, error) {
	info, err := os.Stat(p.abs(root))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root directory %s does not exist", p.abs(root))
	}
	return p.walker.Walk(ctx, root, extensions)
}

// ListIssues is not supported for filesystem sources.
func (p *Provider) ListIssues(_ context.Context, _ bool, _ *time.Time) ([]domain.Issue, error) {
	return nil, fmt.Errorf("filesystem source: %w", domain.ErrNotSupported)
}

// List returns one directory's entries for the walker. Hidden entries
// are skipped.
func (p *Provider) List(_ context.Context, dir string) ([]treewalk.Entry, error) {
	dirents, err := os.ReadDir(p.abs(dir))
	if err != nil {
		return nil, err
	}
	entries := make([]treewalk.Entry, 0, len(dirents))
	for _, de := range dirents {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		entries = append(entries, treewalk.Entry{
			Path:  path.Join(dir, de.Name()),
			IsDir: de.IsDir(),
		})
	}
	return entries, nil
}

// Fetch reads one file relative to the root and builds its item.
func (p *Provider) Fetch(_ context.Context, uri string) (*domain.Item, error) {
	full := p.abs(uri)
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", full, err)
	}

	var lastMod *time.Time
	if info, err := os.Stat(full); err == nil {
		mod := info.ModTime().UTC()
		lastMod = &mod
	}

	return &domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindFile,
		Content:     content,
		ContentHash: domain.HashFile(content),
		MIMEType:    inventory.DetectMIME(uri, content),
		Metadata: map[string]string{
			"filename":  path.Base(uri),
			"extension": domain.PathExtension(uri),
			"size":      strconv.Itoa(len(content)),
		},
		LastModified: lastMod,
	}, nil
}

// abs maps a slash-relative URI onto the provider root.
func (p *Provider) abs(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}
