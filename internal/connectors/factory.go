// Package connectors builds source providers. Each subpackage
// implements one transport: local filesystem trees, WebDAV shares,
// and the GitHub-style and Gitea-style hosting APIs, with a git CLI
// decorator that serves file trees from a local clone on request.
package connectors

import (
	"fmt"

	"github.com/custodia-labs/ferry-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/ferry-cli/internal/connectors/scm/gitcli"
	"github.com/custodia-labs/ferry-cli/internal/connectors/scm/gitea"
	"github.com/custodia-labs/ferry-cli/internal/connectors/scm/github"
	"github.com/custodia-labs/ferry-cli/internal/connectors/webdav"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
)

// Factory builds providers for every supported source kind out of one
// run's settings.
type Factory struct {
	settings domain.Settings
}

var _ driven.ProviderFactory = (*Factory)(nil)

// NewFactory creates the provider factory.
func NewFactory(settings domain.Settings) *Factory {
	return &Factory{settings: settings}
}

// Repository builds the platform provider for a repository source,
// wrapped with the git CLI decorator when the run asks for it.
func (f *Factory) Repository(source domain.Source, opts domain.RunOptions) (driven.RepositoryProvider, error) {
	var (
		provider driven.RepositoryProvider
		err      error
	)
	switch source.Kind {
	case domain.SourceKindGitHub:
		provider, err = github.New(source, f.settings.SCM, opts, f.settings.MaxConcurrent)
	case domain.SourceKindGitea:
		provider, err = gitea.New(source, f.settings.SCM, opts, f.settings.MaxConcurrent)
	default:
		return nil, fmt.Errorf("repository source %s: %w", source.Kind, domain.ErrNotSupported)
	}
	if err != nil {
		return nil, err
	}

	if opts.UseGitCLI {
		return gitcli.New(provider, source, f.settings.SCM, opts), nil
	}
	return provider, nil
}

// Storage builds a provider for a filesystem or WebDAV source rooted
// at base.
func (f *Factory) Storage(source domain.Source, base string) (driven.SourceProvider, error) {
	switch source.Kind {
	case domain.SourceKindFilesystem:
		return filesystem.New(source.ID, base, f.settings.MaxConcurrent), nil
	case domain.SourceKindWebDAV:
		return webdav.New(source.ID, base, f.settings.WebDAV, f.settings.MaxConcurrent)
	default:
		return nil, fmt.Errorf("storage source %s: %w", source.Kind, domain.ErrNotSupported)
	}
}
