// Package gitea implements the repository provider for Gitea
// installations against the raw REST API. File trees come from the
// contents API through the shared tree walker; issues, comments and
// commits from their paginated listing endpoints.
package gitea

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/connectors/scm"
	"github.com/custodia-labs/ferry-cli/internal/connectors/treewalk"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

const (
	// DefaultBranch is used when a run does not name a branch.
	DefaultBranch = "main"

	commitsPerPage = 100

	// maxCommitPages bounds a single delta listing. A marker further
	// back than this is stale enough that callers should fall back to
	// a full sync.
	maxCommitPages = 10
)

// Provider ingests one Gitea repository.
type Provider struct {
	source   domain.Source
	branch   string
	endpoint string
	token    string
	client   *http.Client
	walker   *treewalk.Walker
}

var (
	_ driven.RepositoryProvider = (*Provider)(nil)
	_ treewalk.Source           = (*Provider)(nil)
)

// New creates a provider for the given repository source. Gitea has no
// public default installation, so the endpoint must be configured, with
// its /api/v1 prefix included.
func New(source domain.Source, settings domain.SCMSettings, opts domain.RunOptions, maxConcurrent int) (*Provider, error) {
	if settings.Endpoint == "" {
		return nil, fmt.Errorf("gitea endpoint: %w", domain.ErrNotConfigured)
	}

	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	p := &Provider{
		source:   source,
		branch:   branch,
		endpoint: strings.TrimRight(settings.Endpoint, "/"),
		token:    settings.Token,
		client:   scm.NewClient(settings.Token, 0),
	}
	p.walker = treewalk.New(p, maxConcurrent)
	return p, nil
}

// Kind returns the source kind.
func (p *Provider) Kind() domain.SourceKind {
	return domain.SourceKindGitea
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
	var rec repoRecord
	if err := p.get(ctx, "get repo", p.api(p.repoPath()), &rec); err != nil {
		return nil, err
	}
	return rec.repository(), nil
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

// emptyRepository recognises the 404 Gitea answers for a repository
// without commits on the requested branch. A plain "Not Found" stays
// an error so a mistyped repository never passes for an empty one.
func emptyRepository(err error) bool {
	return domain.IsNotFound(err) && strings.Contains(strings.ToLower(err.Error()), "object does not exist")
}

// List returns one directory level of the contents API. Symlinks and
// submodules carry no ingestible content and are skipped.
func (p *Provider) List(ctx context.Context, dir string) ([]treewalk.Entry, error) {
	file, records, err := p.contents(ctx, dir)
	if err != nil {
		return nil, err
	}
	if file != nil {
		return nil, fmt.Errorf("%s is a file, not a directory", dir)
	}

	out := make([]treewalk.Entry, 0, len(records))
	for _, rec := range records {
		switch rec.Type {
		case "dir":
			out = append(out, treewalk.Entry{Path: rec.Path, IsDir: true})
		case "file":
			out = append(out, treewalk.Entry{Path: rec.Path, IsDir: false})
		}
	}
	return out, nil
}

// Fetch retrieves one repository file by its repo-relative path.
func (p *Provider) Fetch(ctx context.Context, uri string) (*domain.Item, error) {
	file, _, err := p.contents(ctx, uri)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", uri)
	}

	content, err := file.decode()
	if err != nil {
		return nil, err
	}

	item := &domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindRepoFile,
		Content:     content,
		ContentHash: domain.HashRepoFile(content),
		MIMEType:    inventory.DetectMIME(uri, content),
		Metadata: map[string]string{
			"filename":  path.Base(uri),
			"extension": domain.PathExtension(uri),
			"size":      strconv.Itoa(len(content)),
		},
		LastModified: file.LastCommitterDate,
	}
	if file.LastCommitSHA != "" {
		item.Metadata["last_commit_sha"] = file.LastCommitSHA
	}
	return item, nil
}

// contents fetches one contents-API path: a file record for leaves, a
// directory listing otherwise. The endpoint serves both shapes, told
// apart by the JSON container.
func (p *Provider) contents(ctx context.Context, treePath string) (*contentRecord, []contentRecord, error) {
	var raw json.RawMessage
	if err := p.get(ctx, "get contents", p.contentsURL(treePath), &raw); err != nil {
		return nil, nil, err
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var records []contentRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, nil, fmt.Errorf("decode contents %s: %w", treePath, err)
		}
		return nil, records, nil
	}

	var file contentRecord
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("decode contents %s: %w", treePath, err)
	}
	return &file, nil, nil
}

// ListIssues enumerates the repository's issues, open and closed,
// excluding the pull requests Gitea mixes into the same listing.
// Without a since marker, comments come from one repo-wide listing
// matched back to parent issues by issue URL; with a marker only the
// updated issues are listed and their comments fetched individually.
func (p *Provider) ListIssues(ctx context.Context, includeComments bool, since *time.Time) ([]domain.Issue, error) {
	records, err := scm.Paginate(ctx, p.client, "list issues", p.issuesURL(since), dropPullRequests)
	if err != nil {
		return nil, err
	}

	issues := make([]domain.Issue, 0, len(records))
	for i := range records {
		issues = append(issues, records[i].issue())
	}
	logger.Debug("Listed %d issues for %s", len(issues), p.source.ID)

	if !includeComments || len(issues) == 0 {
		return issues, nil
	}

	if since == nil {
		comments, err := scm.Paginate[commentRecord](ctx, p.client, "list comments", p.commentsURL(), nil)
		if err != nil {
			return nil, err
		}
		attachRepoComments(issues, comments)
		return issues, nil
	}

	for i := range issues {
		comments, err := p.issueComments(ctx, issues[i].Number)
		if err != nil {
			return nil, err
		}
		issues[i].Comments = comments
	}
	return issues, nil
}

// dropPullRequests filters pull request records out of an issue page.
func dropPullRequests(page []issueRecord) []issueRecord {
	kept := page[:0]
	for _, rec := range page {
		if rec.PullRequest == nil {
			kept = append(kept, rec)
		}
	}
	return kept
}

// attachRepoComments distributes a repo-wide comment listing onto the
// issues it belongs to, matched by the parent issue URL.
func attachRepoComments(issues []domain.Issue, comments []commentRecord) {
	byIssue := make(map[string][]domain.IssueComment)
	for i := range comments {
		c := comments[i].comment()
		byIssue[c.IssueURL] = append(byIssue[c.IssueURL], c)
	}
	for i := range issues {
		issues[i].Comments = byIssue[issues[i].URL]
	}
}

// issueComments fetches the comments of one issue.
func (p *Provider) issueComments(ctx context.Context, number int) ([]domain.IssueComment, error) {
	var records []commentRecord
	u := p.api(p.repoPath() + "/issues/" + strconv.Itoa(number) + "/comments")
	if err := p.get(ctx, "list comments", u, &records); err != nil {
		return nil, err
	}

	out := make([]domain.IssueComment, 0, len(records))
	for i := range records {
		out = append(out, records[i].comment())
	}
	return out, nil
}

// Head returns the SHA of the newest commit on the configured branch.
func (p *Provider) Head(ctx context.Context) (string, error) {
	var records []commitRecord
	if err := p.get(ctx, "list commits", p.commitsURL(1, 1), &records); err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", domain.StateError{Source: p.source.ID, Reason: "branch " + p.branch + " has no commits"}
	}
	return records[0].SHA, nil
}

// ListCommitsSince returns the commits after the marker, newest first,
// marker excluded. An empty marker returns the most recent commits up
// to the page cap.
func (p *Provider) ListCommitsSince(ctx context.Context, sinceSHA string) ([]domain.Commit, error) {
	out := []domain.Commit{}

	for page := 1; page <= maxCommitPages; page++ {
		var records []commitRecord
		if err := p.get(ctx, "list commits", p.commitsURL(commitsPerPage, page), &records); err != nil {
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		for _, rec := range records {
			if sinceSHA != "" && rec.SHA == sinceSHA {
				return out, nil
			}
			out = append(out, domain.Commit{SHA: rec.SHA, Message: scm.FirstLine(rec.Commit.Message)})
		}
		if len(records) < commitsPerPage {
			break
		}
	}
	return out, nil
}

// CommitDetails returns one commit with its file list. Statuses are
// normalised to added/modified/removed; a rename counts as a removal
// of the old path plus an addition of the new one.
func (p *Provider) CommitDetails(ctx context.Context, sha string) (*domain.Commit, error) {
	var rec commitRecord
	u := p.api(p.repoPath() + "/git/commits/" + url.PathEscape(sha))
	if err := p.get(ctx, "get commit", u, &rec); err != nil {
		return nil, err
	}

	commit := &domain.Commit{SHA: rec.SHA, Message: scm.FirstLine(rec.Commit.Message)}
	for _, f := range rec.Files {
		commit.Files = append(commit.Files, scm.FileChanges(f.Filename, f.PreviousFilename, f.Status)...)
	}
	return commit, nil
}

// get performs one paced API request.
func (p *Provider) get(ctx context.Context, op, u string, out any) error {
	if err := scm.Pace(ctx); err != nil {
		return err
	}
	return scm.GetJSON(ctx, p.client, op, u, out)
}

func (p *Provider) api(apiPath string) string {
	return p.endpoint + apiPath
}

func (p *Provider) repoPath() string {
	return "/repos/" + p.source.Owner + "/" + p.source.Repo
}

func (p *Provider) contentsURL(treePath string) string {
	u := p.api(p.repoPath() + "/contents")
	if treePath != "" {
		u += "/" + escapePath(treePath)
	}
	return u + "?ref=" + url.QueryEscape(p.branch)
}

// escapePath escapes each segment of a tree path, keeping the
// separators literal.
func escapePath(treePath string) string {
	segments := strings.Split(treePath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (p *Provider) issuesURL(since *time.Time) func(page int) string {
	return func(page int) string {
		u := p.api(p.repoPath()+"/issues") + "?page=" + strconv.Itoa(page) + "&state=all&type=issues"
		if since != nil {
			u += "&since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
		}
		return u
	}
}

func (p *Provider) commentsURL() func(page int) string {
	return func(page int) string {
		return p.api(p.repoPath()+"/issues/comments") + "?page=" + strconv.Itoa(page)
	}
}

func (p *Provider) commitsURL(limit, page int) string {
	return p.api(p.repoPath()+"/commits") + "?sha=" + url.QueryEscape(p.branch) +
		"&limit=" + strconv.Itoa(limit) + "&page=" + strconv.Itoa(page)
}
