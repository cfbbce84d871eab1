package domain

import (
	"sort"
	"time"
)

// Repository is the metadata of a repository source.
type Repository struct {
	// Owner is the repository owner or organisation.
	Owner string

	// Name is the repository name.
	Name string

	// FullName is "owner/name".
	FullName string

	// DefaultBranch is the branch the host serves by default.
	DefaultBranch string

	// Description is the free-form repository description.
	Description string

	// Private reports whether the repository is private.
	Private bool
}

// Issue is a repository issue as enumerated from the hosting API.
// Pull requests are excluded before this type is built.
type Issue struct {
	// Number is the issue number within the repository.
	Number int

	// Title is the issue title.
	Title string

	// Body is the raw Markdown body.
	Body string

	// State is the hosting platform's state string (open, closed).
	State string

	// Author is the login of the issue author.
	Author string

	// Assignee is the login of the assignee, or "" when unassigned.
	Assignee string

	// URL is the API URL of the issue, used to match repo-wide
	// comment listings back to their parent issue.
	URL string

	// CreatedAt is when the issue was opened.
	CreatedAt time.Time

	// UpdatedAt is when the issue last changed.
	UpdatedAt time.Time

	// Comments are the issue's comments, populated on request.
	Comments []IssueComment
}

// IssueComment is a single comment on an issue.
type IssueComment struct {
	// Author is the login of the comment author.
	Author string

	// Body is the raw Markdown body.
	Body string

	// IssueURL is the API URL of the parent issue.
	IssueURL string

	// CreatedAt is when the comment was posted.
	CreatedAt time.Time
}

// FileStatus is the normalised change status of a file within a commit.
type FileStatus string

// Normalised commit file statuses.
const (
	// FileAdded is a file introduced by the commit.
	FileAdded FileStatus = "added"

	// FileModified is a file changed by the commit.
	FileModified FileStatus = "modified"

	// FileRemoved is a file deleted by the commit.
	FileRemoved FileStatus = "removed"
)

// CommitFile is one file touched by a commit.
type CommitFile struct {
	// Path is the repo-relative file path.
	Path string

	// Status is the normalised change status.
	Status FileStatus
}

// Commit is a repository commit, optionally carrying its file list.
type Commit struct {
	// SHA is the commit hash.
	SHA string

	// Message is the first line of the commit message.
	Message string

	// Files are the files touched by the commit. Populated by the
	// commit-details call, empty in plain listings.
	Files []CommitFile
}

// CommitDelta is the file-level difference across a commit range,
// folded oldest to newest so the final status of each path wins.
type CommitDelta struct {
	// Changed are paths added or modified within the range.
	Changed []string

	// Removed are paths deleted within the range.
	Removed []string
}

// FoldCommits computes the CommitDelta for commits ordered newest
// first, as returned by commit listings. A path re-added after a
// removal ends up changed, and vice versa.
func FoldCommits(newestFirst []Commit) CommitDelta {
	changed := make(map[string]bool)
	removed := make(map[string]bool)

	for i := len(newestFirst) - 1; i >= 0; i-- {
		for _, f := range newestFirst[i].Files {
			if f.Path == "" {
				continue
			}
			if f.Status == FileRemoved {
				removed[f.Path] = true
				delete(changed, f.Path)
			} else {
				changed[f.Path] = true
				delete(removed, f.Path)
			}
		}
	}

	return CommitDelta{
		Changed: sortedKeys(changed),
		Removed: sortedKeys(removed),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
