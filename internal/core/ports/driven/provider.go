package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// SourceProvider enumerates and fetches items from one configured
// source. Each source kind (filesystem, webdav, github, gitea)
// implements this interface.
type SourceProvider interface {
	// Kind returns the source kind identifier.
	Kind() domain.SourceKind

	// SourceID returns the stable source identifier items are
	// ingested under.
	SourceID() string

	// ListTree recursively lists and fetches every leaf under root
	// whose extension is in the allow-list. Directories are expanded
	// with bounded concurrent fan-out; results come back flattened
	// and sorted by URI.
	ListTree(ctx context.Context, root string, extensions []string) ([]domain.Item, error)

	// ListIssues lists the source's issues, optionally with
	// comments. A non-nil since restricts to issues updated after
	// that instant. Non-repository sources return
	// domain.ErrNotSupported.
	ListIssues(ctx context.Context, includeComments bool, since *time.Time) ([]domain.Issue, error)

	// Fetch retrieves a single item by URI, content and hash
	// included.
	Fetch(ctx context.Context, uri string) (*domain.Item, error)
}

// RepositoryProvider is a SourceProvider backed by a Git hosting
// platform, adding repository metadata and commit history.
type RepositoryProvider interface {
	SourceProvider

	// BaseEndpoint returns the API base URL the provider talks to.
	BaseEndpoint() string

	// AuthToken returns the configured API token, "" when anonymous.
	AuthToken() string

	// Repository returns the repository metadata.
	Repository(ctx context.Context) (*domain.Repository, error)

	// Head returns the SHA of the newest commit on the configured
	// branch.
	Head(ctx context.Context) (string, error)

	// ListCommitsSince returns commits after the marker commit,
	// newest first, marker excluded. An empty marker returns the
	// most recent commits up to the provider's page cap.
	ListCommitsSince(ctx context.Context, sinceSHA string) ([]domain.Commit, error)

	// CommitDetails returns one commit with its file list populated.
	CommitDetails(ctx context.Context, sha string) (*domain.Commit, error)
}

// ProviderFactory builds providers from a source and run options.
// Implementations choose the concrete platform client and wrap it
// with the git CLI decorator when requested.
type ProviderFactory interface {
	// Repository builds a provider for a repository source.
	Repository(source domain.Source, opts domain.RunOptions) (RepositoryProvider, error)

	// Storage builds a provider for a filesystem or WebDAV source
	// rooted at base. Storage providers do not support issues.
	Storage(source domain.Source, base string) (SourceProvider, error)
}
