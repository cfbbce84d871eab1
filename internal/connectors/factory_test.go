package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/ferry-cli/internal/connectors/scm/gitcli"
	"github.com/custodia-labs/ferry-cli/internal/connectors/scm/gitea"
	"github.com/custodia-labs/ferry-cli/internal/connectors/scm/github"
	"github.com/custodia-labs/ferry-cli/internal/connectors/webdav"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

func testFactory() *Factory {
	settings := domain.DefaultSettings()
	settings.SCM.Endpoint = "https://git.example.test/api/v1"
	settings.WebDAV.Endpoint = "https://dav.example.test"
	return NewFactory(settings)
}

// TestFactory_Repository tests repository provider selection.
func TestFactory_Repository(t *testing.T) {
	factory := testFactory()

	t.Run("github", func(t *testing.T) {
		source := domain.NewRepoSource(domain.SourceKindGitHub, "acme", "docs")

		provider, err := factory.Repository(source, domain.RunOptions{})

		require.NoError(t, err)
		assert.IsType(t, &github.Provider{}, provider)
		assert.Equal(t, "github:acme:docs", provider.SourceID())
	})

	t.Run("gitea", func(t *testing.T) {
		source := domain.NewRepoSource(domain.SourceKindGitea, "acme", "docs")

		provider, err := factory.Repository(source, domain.RunOptions{})

		require.NoError(t, err)
		assert.IsType(t, &gitea.Provider{}, provider)
	})

	t.Run("gitea requires an endpoint", func(t *testing.T) {
		bare := NewFactory(domain.DefaultSettings())
		source := domain.NewRepoSource(domain.SourceKindGitea, "acme", "docs")

		_, err := bare.Repository(source, domain.RunOptions{})

		require.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("git cli decorates the platform provider", func(t *testing.T) {
		source := domain.NewRepoSource(domain.SourceKindGitea, "acme", "docs")

		provider, err := factory.Repository(source, domain.RunOptions{UseGitCLI: true})

		require.NoError(t, err)
		assert.IsType(t, &gitcli.Provider{}, provider)
		assert.Equal(t, "gitea:acme:docs", provider.SourceID())
	})

	t.Run("storage kinds are rejected", func(t *testing.T) {
		source := domain.Source{Kind: domain.SourceKindFilesystem, ID: "filesystem:docs"}

		_, err := factory.Repository(source, domain.RunOptions{})

		require.ErrorIs(t, err, domain.ErrNotSupported)
	})
}

// TestFactory_Storage tests storage provider selection.
func TestFactory_Storage(t *testing.T) {
	factory := testFactory()

	t.Run("filesystem", func(t *testing.T) {
		source := domain.Source{Kind: domain.SourceKindFilesystem, ID: "filesystem:docs"}

		provider, err := factory.Storage(source, t.TempDir())

		require.NoError(t, err)
		assert.IsType(t, &filesystem.Provider{}, provider)
		assert.Equal(t, "filesystem:docs", provider.SourceID())
	})

	t.Run("webdav", func(t *testing.T) {
		source := domain.Source{Kind: domain.SourceKindWebDAV, ID: "webdav:share"}

		provider, err := factory.Storage(source, "/manuals")

		require.NoError(t, err)
		assert.IsType(t, &webdav.Provider{}, provider)
	})

	t.Run("webdav requires an endpoint", func(t *testing.T) {
		bare := NewFactory(domain.DefaultSettings())
		source := domain.Source{Kind: domain.SourceKindWebDAV, ID: "webdav:share"}

		_, err := bare.Storage(source, "/manuals")

		require.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("repository kinds are rejected", func(t *testing.T) {
		source := domain.NewRepoSource(domain.SourceKindGitHub, "acme", "docs")

		_, err := factory.Storage(source, "")

		require.ErrorIs(t, err, domain.ErrNotSupported)
	})
}
