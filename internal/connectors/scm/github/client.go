package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// DefaultEndpoint is the public GitHub API base URL.
const DefaultEndpoint = "https://api.github.com"

// Client wraps the go-github client with rate limiting and the
// paginated listing loops the provider needs.
type Client struct {
	gh      *gh.Client
	limiter *RateLimiter
}

// NewClient builds an API client. An empty endpoint selects public
// GitHub; anything else is treated as a GitHub-compatible installation.
// An empty token leaves requests anonymous.
func NewClient(ctx context.Context, endpoint, token string) (*Client, error) {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = domain.DefaultHTTPTimeout

	ghc := gh.NewClient(hc)
	if endpoint != "" && endpoint != DefaultEndpoint {
		var err error
		ghc, err = ghc.WithEnterpriseURLs(endpoint, endpoint)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", endpoint, err)
		}
	}

	return &Client{gh: ghc, limiter: NewRateLimiter()}, nil
}

// newClientWith wires a client over a prepared go-github client and
// limiter.
func newClientWith(ghc *gh.Client, limiter *RateLimiter) *Client {
	return &Client{gh: ghc, limiter: limiter}
}

// Repository fetches the repository metadata.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, wrapError("get repo", err)
	}
	c.update(resp)
	return repository, nil
}

// Contents fetches one contents-API path: a file record for leaves, a
// directory listing otherwise.
func (c *Client) Contents(ctx context.Context, owner, repo, path, ref string) (*gh.RepositoryContent, []*gh.RepositoryContent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, nil, wrapError("get contents", err)
	}
	c.update(resp)
	return file, dir, nil
}

// Blob fetches a blob by SHA. The contents API returns empty content
// for large files, so leaves fall back to this call.
func (c *Client) Blob(ctx context.Context, owner, repo, sha string) (*gh.Blob, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	blob, resp, err := c.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, wrapError("get blob", err)
	}
	c.update(resp)
	return blob, nil
}

// Issues drains the repository's issue listing, open and closed. A
// non-nil since restricts to issues updated after that instant.
func (c *Client) Issues(ctx context.Context, owner, repo string, since *time.Time) ([]*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	if since != nil {
		opts.Since = *since
	}

	var all []*gh.Issue
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrapError("list issues", err)
		}
		c.update(resp)
		all = append(all, issues...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

// Comments drains issue comments. Number 0 lists every comment in the
// repository in one pass, which is how comments are matched to issues
// on a full sync.
func (c *Client) Comments(ctx context.Context, owner, repo string, number int, since *time.Time) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{
		Since:       since,
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []*gh.IssueComment
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, wrapError("list comments", err)
		}
		c.update(resp)
		all = append(all, comments...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// Commits fetches one page of the commit listing.
func (c *Client) Commits(ctx context.Context, owner, repo string, opts *gh.CommitsListOptions) ([]*gh.RepositoryCommit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, wrapError("list commits", err)
	}
	c.update(resp)
	return commits, nil
}

// Commit fetches one commit with its file list.
func (c *Client) Commit(ctx context.Context, owner, repo, sha string) (*gh.RepositoryCommit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, wrapError("get commit", err)
	}
	c.update(resp)
	return commit, nil
}

func (c *Client) update(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.limiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github failures into domain errors so callers
// can classify them uniformly.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		fe := &domain.FetchError{Op: op, StatusCode: ghErr.Response.StatusCode}
		if ghErr.Message != "" {
			fe.Err = errors.New(ghErr.Message)
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			fe.URL = ghErr.Response.Request.URL.String()
		}
		return fe
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.FetchError{Op: op, StatusCode: http.StatusForbidden, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
