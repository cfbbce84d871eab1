package github

import (
	"context"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/ferry-cli/internal/connectors/scm"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

const (
	commitsPerPage = 100

	// maxCommitPages bounds a single delta listing. A marker further
	// back than this is stale enough that callers should fall back to
	// a full sync.
	maxCommitPages = 10
)

// Head returns the SHA of the newest commit on the configured branch.
func (p *Provider) Head(ctx context.Context) (string, error) {
	commits, err := p.client.Commits(ctx, p.source.Owner, p.source.Repo, &gh.CommitsListOptions{
		SHA:         p.branch,
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", err
	}
	if len(commits) == 0 {
		return "", domain.StateError{Source: p.source.ID, Reason: "branch " + p.branch + " has no commits"}
	}
	return commits[0].GetSHA(), nil
}

// ListCommitsSince returns the commits after the marker, newest first,
// marker excluded. An empty marker returns the most recent commits up
// to the page cap.
func (p *Provider) ListCommitsSince(ctx context.Context, sinceSHA string) ([]domain.Commit, error) {
	out := []domain.Commit{}
	opts := &gh.CommitsListOptions{
		SHA:         p.branch,
		ListOptions: gh.ListOptions{PerPage: commitsPerPage},
	}

	for page := 1; page <= maxCommitPages; page++ {
		opts.Page = page
		commits, err := p.client.Commits(ctx, p.source.Owner, p.source.Repo, opts)
		if err != nil {
			return nil, err
		}
		if len(commits) == 0 {
			break
		}
		for _, c := range commits {
			if sinceSHA != "" && c.GetSHA() == sinceSHA {
				return out, nil
			}
			out = append(out, domain.Commit{
				SHA:     c.GetSHA(),
				Message: scm.FirstLine(c.GetCommit().GetMessage()),
			})
		}
		if len(commits) < commitsPerPage {
			break
		}
	}
	return out, nil
}

// CommitDetails returns one commit with its file list. Statuses are
// normalised to added/modified/removed; a rename counts as a removal
// of the old path plus an addition of the new one.
func (p *Provider) CommitDetails(ctx context.Context, sha string) (*domain.Commit, error) {
	rc, err := p.client.Commit(ctx, p.source.Owner, p.source.Repo, sha)
	if err != nil {
		return nil, err
	}

	commit := &domain.Commit{
		SHA:     rc.GetSHA(),
		Message: scm.FirstLine(rc.GetCommit().GetMessage()),
	}
	for _, f := range rc.Files {
		commit.Files = append(commit.Files, scm.FileChanges(f.GetFilename(), f.GetPreviousFilename(), f.GetStatus())...)
	}
	return commit, nil
}
