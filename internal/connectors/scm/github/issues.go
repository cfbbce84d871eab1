package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// ListIssues enumerates the repository's issues, open and closed,
// excluding pull requests. Without a since marker, comments come from
// one repo-wide listing matched back to parent issues by issue URL;
// with a marker only the updated issues are listed and their comments
// fetched individually.
func (p *Provider) ListIssues(ctx context.Context, includeComments bool, since *time.Time) ([]domain.Issue, error) {
	raw, err := p.client.Issues(ctx, p.source.Owner, p.source.Repo, since)
	if err != nil {
		return nil, err
	}

	issues := make([]domain.Issue, 0, len(raw))
	for _, is := range raw {
		if is.IsPullRequest() {
			continue
		}
		issues = append(issues, convertIssue(is))
	}
	logger.Debug("Listed %d issues for %s", len(issues), p.source.ID)

	if !includeComments || len(issues) == 0 {
		return issues, nil
	}

	if since == nil {
		comments, err := p.client.Comments(ctx, p.source.Owner, p.source.Repo, 0, nil)
		if err != nil {
			return nil, err
		}
		attachRepoComments(issues, comments)
		return issues, nil
	}

	for i := range issues {
		comments, err := p.client.Comments(ctx, p.source.Owner, p.source.Repo, issues[i].Number, nil)
		if err != nil {
			return nil, err
		}
		issues[i].Comments = convertComments(comments)
	}
	return issues, nil
}

// attachRepoComments distributes a repo-wide comment listing onto the
// issues it belongs to, matched by the parent issue URL.
func attachRepoComments(issues []domain.Issue, comments []*gh.IssueComment) {
	byIssue := make(map[string][]domain.IssueComment)
	for _, c := range comments {
		byIssue[c.GetIssueURL()] = append(byIssue[c.GetIssueURL()], convertComment(c))
	}
	for i := range issues {
		issues[i].Comments = byIssue[issues[i].URL]
	}
}

func convertIssue(is *gh.Issue) domain.Issue {
	return domain.Issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		Body:      is.GetBody(),
		State:     is.GetState(),
		Author:    is.GetUser().GetLogin(),
		Assignee:  is.GetAssignee().GetLogin(),
		URL:       is.GetURL(),
		CreatedAt: is.GetCreatedAt().Time,
		UpdatedAt: is.GetUpdatedAt().Time,
	}
}

func convertComment(c *gh.IssueComment) domain.IssueComment {
	return domain.IssueComment{
		Author:    c.GetUser().GetLogin(),
		Body:      c.GetBody(),
		IssueURL:  c.GetIssueURL(),
		CreatedAt: c.GetCreatedAt().Time,
	}
}

func convertComments(raw []*gh.IssueComment) []domain.IssueComment {
	out := make([]domain.IssueComment, 0, len(raw))
	for _, c := range raw {
		out = append(out, convertComment(c))
	}
	return out
}
