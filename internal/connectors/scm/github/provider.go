// Package github implements the repository provider for GitHub and
// GitHub-compatible hosting APIs on top of go-github. File trees come
// from the contents API through the shared tree walker, issues and
// commits from their listing endpoints.
package github

import (
	"context"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/connectors/treewalk"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// DefaultBranch is used when a run does not name a branch.
const DefaultBranch = "main"

// Provider ingests one GitHub repository.
type Provider struct {
	source   domain.Source
	branch   string
	endpoint string
	token    string
	client   *Client
	walker   *treewalk.Walker
}

var (
	_ driven.RepositoryProvider = (*Provider)(nil)
	_ treewalk.Source           = (*Provider)(nil)
)

// New creates a provider for the given repository source.
func New(source domain.Source, settings domain.SCMSettings, opts domain.RunOptions, maxConcurrent int) (*Provider, error) {
	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client, err := NewClient(context.Background(), endpoint, settings.Token)
	if err != nil {
		return nil, err
	}

	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	p := &Provider{
		source:   source,
		branch:   branch,
		endpoint: endpoint,
		token:    settings.Token,
		client:   client,
	}
	p.walker = treewalk.New(p, maxConcurrent)
	return p, nil
}

// newWithClient wires a provider over a prepared API client.
func newWithClient(source domain.Source, branch string, client *Client, maxConcurrent int) *Provider {
	p := &Provider{
		source:   source,
		branch:   branch,
		endpoint: DefaultEndpoint,
		client:   client,
	}
	p.walker = treewalk.New(p, maxConcurrent)
	return p
}

// Kind returns the source kind.
func (p *Provider) Kind() domain.SourceKind {
	return domain.SourceKindGitHub
}

// SourceID returns the stable source identifier.
func (p *Provider) SourceID() string {
	return p.source.ID
}

// BaseEndpoint returns the API base URL.
func (p *Provider) BaseEndpoint() string {
	return p.endpoint
}

// AuthToken returns the configured API token.
func (p *Provider) AuthToken() string {
	return p.token
}

// Repository fetches the repository metadata.
func (p *Provider) Repository(ctx context.Context) (*domain.Repository, error) {
	repo, err := p.client.Repository(ctx, p.source.Owner, p.source.Repo)
	if err != nil {
		return nil, err
	}
	return &domain.Repository{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Description:   repo.GetDescription(),
		Private:       repo.GetPrivate(),
	}, nil
}

// ListTree walks the repository file tree on the configured branch. A
// repository with no commits yet lists as empty instead of failing.
func (p *Provider) ListTree(ctx context.Context, root string, extensions []string) ([]domain.Item, error) {
	items, err := p.walker.Walk(ctx, root, extensions)
	if err != nil {
		if emptyRepository(err) {
			logger.Info("Repository %s has no commits on %s", p.source.ID, p.branch)
			return []domain.Item{}, nil
		}
		return nil, err
	}
	return items, nil
}

// emptyRepository recognises the 404 GitHub answers for a repository
// without commits on the requested branch. A plain "Not Found" stays
// an error so a mistyped repository never passes for an empty one.
func emptyRepository(err error) bool {
	if !domain.IsNotFound(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "empty") || strings.Contains(msg, "no commit")
}
