// Package gitcli serves repository file trees from a local shallow
// clone instead of the contents API. It decorates a repository
// provider: ListTree and Fetch read from disk, while issue, metadata
// and commit operations stay on the wrapped provider. Item URIs,
// hashes and metadata match the API transport, so recorded hash state
// survives switching between the two.
package gitcli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

const defaultBranch = "main"

// Provider is the local-clone decorator around an API provider.
type Provider struct {
	inner  driven.RepositoryProvider
	source domain.Source
	branch string
	runner *Runner

	mu     sync.Mutex
	synced bool
}

var _ driven.RepositoryProvider = (*Provider)(nil)

// New wraps inner so file-tree operations run against a local shallow
// clone kept under the configured clone directory.
func New(inner driven.RepositoryProvider, source domain.Source, settings domain.SCMSettings, opts domain.RunOptions) *Provider {
	branch := opts.Branch
	if branch == "" {
		branch = defaultBranch
	}
	return &Provider{
		inner:  inner,
		source: source,
		branch: branch,
		runner: NewRunner(settings.CloneDir, settings.GitTimeout),
	}
}

// Kind returns the wrapped provider's source kind.
func (p *Provider) Kind() domain.SourceKind {
	return p.inner.Kind()
}

// SourceID returns the wrapped provider's source identifier.
func (p *Provider) SourceID() string {
	return p.inner.SourceID()
}

// BaseEndpoint returns the wrapped provider's API endpoint.
func (p *Provider) BaseEndpoint() string {
	return p.inner.BaseEndpoint()
}

// AuthToken returns the wrapped provider's API token.
func (p *Provider) AuthToken() string {
	return p.inner.AuthToken()
}

// Repository delegates to the wrapped provider.
func (p *Provider) Repository(ctx context.Context) (*domain.Repository, error) {
	return p.inner.Repository(ctx)
}

// ListIssues delegates to the wrapped provider.
func (p *Provider) ListIssues(ctx context.Context, includeComments bool, since *time.Time) ([]domain.Issue, error) {
	return p.inner.ListIssues(ctx, includeComments, since)
}

// Head delegates to the wrapped provider.
func (p *Provider) Head(ctx context.Context) (string, error) {
	return p.inner.Head(ctx)
}

// ListCommitsSince delegates to the wrapped provider.
func (p *Provider) ListCommitsSince(ctx context.Context, sinceSHA string) ([]domain.Commit, error) {
	return p.inner.ListCommitsSince(ctx, sinceSHA)
}

// CommitDetails delegates to the wrapped provider.
func (p *Provider) CommitDetails(ctx context.Context, sha string) (*domain.Commit, error) {
	return p.inner.CommitDetails(ctx, sha)
}

// ListTree enumerates the clone working tree. Files that cannot be
// read are skipped with a warning rather than failing the run, and
// files whose content type cannot be determined are rejected the same
// way the API transport rejects them.
func (p *Provider) ListTree(ctx context.Context, root string, extensions []string) ([]domain.Item, error) {
	dir, err := p.syncClone(ctx)
	if err != nil {
		return nil, err
	}

	walkRoot := dir
	if root != "" {
		if err := Sanitize("root", root); err != nil {
			return nil, err
		}
		walkRoot = filepath.Join(dir, filepath.FromSlash(root))
	}

	var uris []string
	err = filepath.WalkDir(walkRoot, func(walkPath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(dir, walkPath)
		if relErr != nil {
			return relErr
		}
		uri := filepath.ToSlash(rel)
		if domain.ExtensionAllowed(uri, extensions) {
			uris = append(uris, uri)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk clone: %w", err)
	}
	sort.Strings(uris)

	items := make([]domain.Item, 0, len(uris))
	for _, uri := range uris {
		item, err := p.readLocal(ctx, dir, uri)
		if err != nil {
			logger.Warn("Skipping %s: %v", uri, err)
			continue
		}
		if item.MIMEType == domain.MIMETypeOctetStream {
			logger.Warn("Rejecting %s: undetectable content type", uri)
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// Fetch reads one file from the clone working tree.
func (p *Provider) Fetch(ctx context.Context, uri string) (*domain.Item, error) {
	dir, err := p.syncClone(ctx)
	if err != nil {
		return nil, err
	}
	return p.readLocal(ctx, dir, uri)
}

// syncClone brings the local clone up to date once per provider
// lifetime. Later calls reuse the synced tree.
func (p *Provider) syncClone(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir, err := p.runner.RepoDir(p.source.Owner, p.source.Repo)
	if err != nil {
		return "", err
	}
	if p.synced {
		return dir, nil
	}

	cloneURL, err := CloneURL(p.inner.BaseEndpoint(), p.source.Owner, p.source.Repo, p.inner.AuthToken())
	if err != nil {
		return "", err
	}
	if err := p.runner.Ensure(ctx, cloneURL, p.branch, dir); err != nil {
		return "", err
	}
	p.synced = true
	return dir, nil
}

// readLocal builds an item from a file in the clone at dir. The URI is
// the clone-relative path with forward slashes, identical to what the
// contents API would report.
func (p *Provider) readLocal(ctx context.Context, dir, uri string) (*domain.Item, error) {
	native := filepath.FromSlash(uri)
	if !filepath.IsLocal(native) {
		return nil, domain.ValidationError{URI: uri, Reason: "path escapes the repository"}
	}

	content, err := os.ReadFile(filepath.Join(dir, native))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}

	item := &domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindRepoFile,
		Content:     content,
		ContentHash: domain.HashRepoFile(content),
		MIMEType:    inventory.DetectMIME(uri, content),
		Metadata: map[string]string{
			"filename":  path.Base(uri),
			"extension": domain.PathExtension(uri),
			"size":      strconv.Itoa(len(content)),
		},
	}

	// Commit details are best effort: a file git does not know about
	// simply carries no commit metadata.
	if sha, at, err := p.runner.FileLastCommit(ctx, dir, uri); err == nil && sha != "" {
		item.Metadata["last_commit_sha"] = sha
		item.LastModified = at
	}
	return item, nil
}
