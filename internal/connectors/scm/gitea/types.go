package gitea

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// Wire records for the Gitea REST API. Only the fields the agent
// reads are declared; everything else in the responses is dropped.

type userRecord struct {
	Login string `json:"login"`
}

type repoRecord struct {
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   string     `json:"description"`
	Private       bool       `json:"private"`
	DefaultBranch string     `json:"default_branch"`
	Owner         userRecord `json:"owner"`
}

func (r *repoRecord) repository() *domain.Repository {
	return &domain.Repository{
		Owner:         r.Owner.Login,
		Name:          r.Name,
		FullName:      r.FullName,
		DefaultBranch: r.DefaultBranch,
		Description:   r.Description,
		Private:       r.Private,
	}
}

// pullMeta marks an issue record as a pull request. Only its presence
// matters; Gitea mixes pull requests into the issue listing.
type pullMeta struct {
	Merged bool `json:"merged"`
}

type issueRecord struct {
	Number      int         `json:"number"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	State       string      `json:"state"`
	URL         string      `json:"url"`
	User        *userRecord `json:"user"`
	Assignee    *userRecord `json:"assignee"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	PullRequest *pullMeta   `json:"pull_request"`
}

func (r *issueRecord) issue() domain.Issue {
	issue := domain.Issue{
		Number:    r.Number,
		Title:     r.Title,
		Body:      r.Body,
		State:     r.State,
		URL:       r.URL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		issue.Author = r.User.Login
	}
	if r.Assignee != nil {
		issue.Assignee = r.Assignee.Login
	}
	return issue
}

type commentRecord struct {
	Body      string      `json:"body"`
	IssueURL  string      `json:"issue_url"`
	User      *userRecord `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

func (r *commentRecord) comment() domain.IssueComment {
	comment := domain.IssueComment{
		Body:      r.Body,
		IssueURL:  r.IssueURL,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		comment.Author = r.User.Login
	}
	return comment
}

// contentRecord is one entry of the contents API: a directory listing
// element, or a full file record when a leaf path is requested.
type contentRecord struct {
	Name              string     `json:"name"`
	Path              string     `json:"path"`
	Type              string     `json:"type"`
	Size              int64      `json:"size"`
	Encoding          string     `json:"encoding"`
	Content           string     `json:"content"`
	LastCommitSHA     string     `json:"last_commit_sha"`
	LastCommitterDate *time.Time `json:"last_committer_date"`
}

// decode returns the record's content bytes. Gitea serves file
// content base64-encoded; any other declared encoding comes back
// verbatim.
func (r *contentRecord) decode() ([]byte, error) {
	if r.Content == "" {
		return []byte{}, nil
	}
	if r.Encoding != "" && r.Encoding != "base64" {
		return []byte(r.Content), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(r.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.Path, err)
	}
	return decoded, nil
}

type commitRecord struct {
	SHA    string             `json:"sha"`
	Commit commitMeta         `json:"commit"`
	Files  []commitFileRecord `json:"files"`
}

type commitMeta struct {
	Message string `json:"message"`
}

type commitFileRecord struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"`
}
