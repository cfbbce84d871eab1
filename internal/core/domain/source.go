package domain

import "fmt"

// SourceKind identifies the kind of origin an item set comes from.
type SourceKind string

// Available source kinds.
const (
	// SourceKindFilesystem is a local directory tree.
	SourceKindFilesystem SourceKind = "filesystem"

	// SourceKindWebDAV is a remote WebDAV share.
	SourceKindWebDAV SourceKind = "webdav"

	// SourceKindGitHub is a GitHub-style hosting API.
	SourceKindGitHub SourceKind = "github"

	// SourceKindGitea is a Gitea-style hosting API.
	SourceKindGitea SourceKind = "gitea"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindFilesystem, SourceKindWebDAV, SourceKindGitHub, SourceKindGitea:
		return true
	default:
		return false
	}
}

// IsRepository returns true for kinds backed by a Git hosting platform.
func (k SourceKind) IsRepository() bool {
	return k == SourceKindGitHub || k == SourceKindGitea
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// Source is a logical origin of items. The identifier is the join key
// between local enumeration and backend batch/status state, so it must
// be stable across runs.
type Source struct {
	// Kind is the source kind.
	Kind SourceKind

	// ID is the stable source identifier: {kind}:{owner}:{repo} for
	// repository sources, or an arbitrary user-chosen string for
	// filesystem/WebDAV sources.
	ID string

	// Owner is the repository owner (repository sources only).
	Owner string

	// Repo is the repository name (repository sources only).
	Repo string
}

// RepoSourceID builds the stable identifier for a repository source.
// The content filter is a run option, never part of the identity.
func RepoSourceID(kind SourceKind, owner, repo string) string {
	return fmt.Sprintf("%s:%s:%s", kind, owner, repo)
}

// NewRepoSource builds a Source for a repository.
func NewRepoSource(kind SourceKind, owner, repo string) Source {
	return Source{
		Kind:  kind,
		ID:    RepoSourceID(kind, owner, repo),
		Owner: owner,
		Repo:  repo,
	}
}
