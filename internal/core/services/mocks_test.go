package services

import (
	"context"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
)

// Ensure mocks implement the ports.
var (
	_ driven.Ingester           = (*mockIngester)(nil)
	_ driven.RepositoryProvider = (*mockProvider)(nil)
	_ driven.ProviderFactory    = (*mockFactory)(nil)
)

// mockIngester implements driven.Ingester with canned responses and
// call recording.
type mockIngester struct {
	batches   []domain.Batch
	listErr   error
	listCalls int
	nextID    int64
	created   []domain.Batch
	createErr error
	diffFunc  func(source string, hashes map[string]string) (map[string]domain.DiffStatus, error)
	diffCalls int
	uploads   []string
	uploadedM map[string]map[string]string
	uploadedC map[string][]byte
	uploadErr map[string]error
	wfCalls   int
	wfResult  []byte
	wfErr     error
	state     *domain.SyncState
	stateErr  error
	putStates []domain.SyncState
	putMeta   []map[string]any
	putErr    error
	deleted   []string
	deleteErr error
}

func (m *mockIngester) ListBatches(_ context.Context) ([]domain.Batch, error) {
	m.listCalls++
	return m.batches, m.listErr
}

func (m *mockIngester) CreateBatch(_ context.Context, source, name string) (*domain.Batch, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	batch := domain.Batch{ID: m.nextID, Source: source, Name: name}
	m.created = append(m.created, batch)
	m.batches = append(m.batches, batch)
	return &batch, nil
}

func (m *mockIngester) DiffStatus(_ context.Context, source string, hashes map[string]string) (map[string]domain.DiffStatus, error) {
	m.diffCalls++
	if m.diffFunc != nil {
		return m.diffFunc(source, hashes)
	}
	statuses := make(map[string]domain.DiffStatus, len(hashes))
	for uri := range hashes {
		statuses[uri] = domain.StatusNew
	}
	return statuses, nil
}

func (m *mockIngester) Upload(_ context.Context, _ string, _ int64, item domain.Item) error {
	if err, ok := m.uploadErr[item.URI]; ok {
		return err
	}
	m.uploads = append(m.uploads, item.URI)
	if m.uploadedM == nil {
		m.uploadedM = make(map[string]map[string]string)
	}
	m.uploadedM[item.URI] = item.Metadata
	if m.uploadedC == nil {
		m.uploadedC = make(map[string][]byte)
	}
	m.uploadedC[item.URI] = item.Content
	return nil
}

func (m *mockIngester) StartWorkflows(_ context.Context, _ int64, _ int, _, _ string) ([]byte, error) {
	m.wfCalls++
	if m.wfErr != nil {
		return nil, m.wfErr
	}
	if m.wfResult == nil {
		return []byte(`{"started":true}`), nil
	}
	return m.wfResult, nil
}

func (m *mockIngester) SyncState(_ context.Context, _ string) (*domain.SyncState, error) {
	return m.state, m.stateErr
}

func (m *mockIngester) PutSyncState(_ context.Context, state domain.SyncState, metadata map[string]any) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.putStates = append(m.putStates, state)
	m.putMeta = append(m.putMeta, metadata)
	return nil
}

func (m *mockIngester) DeleteSyncState(_ context.Context, source string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, source)
	return nil
}

// mockProvider implements driven.RepositoryProvider over fixed data.
type mockProvider struct {
	kind        domain.SourceKind
	id          string
	tree        []domain.Item
	treeErr     error
	issues      []domain.Issue
	issuesErr   error
	issuesSince []*time.Time
	fetchFunc   func(uri string) (*domain.Item, error)
	fetched     []string
	head        string
	headErr     error
	headCalls   int
	commits     []domain.Commit
	commitsErr  error
	sinceSHAs   []string
	details     map[string][]domain.CommitFile
	detailsErr  error
}

func (m *mockProvider) Kind() domain.SourceKind { return m.kind }
func (m *mockProvider) SourceID() string        { return m.id }
func (m *mockProvider) BaseEndpoint() string    { return "https://api.example.test" }
func (m *mockProvider) AuthToken() string       { return "" }

func (m *mockProvider) ListTree(_ context.Context, _ string, _ []string) ([]domain.Item, error) {
	return m.tree, m.treeErr
}

func (m *mockProvider) ListIssues(_ context.Context, _ bool, since *time.Time) ([]domain.Issue, error) {
	m.issuesSince = append(m.issuesSince, since)
	return m.issues, m.issuesErr
}

func (m *mockProvider) Fetch(_ context.Context, uri string) (*domain.Item, error) {
	m.fetched = append(m.fetched, uri)
	if m.fetchFunc != nil {
		return m.fetchFunc(uri)
	}
	content := []byte("content of " + uri)
	return &domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindRepoFile,
		Content:     content,
		ContentHash: domain.HashRepoFile(content),
		MIMEType:    domain.MIMETypeMarkdown,
	}, nil
}

func (m *mockProvider) Repository(_ context.Context) (*domain.Repository, error) {
	return &domain.Repository{Owner: "team", Name: "docs", FullName: "team/docs", DefaultBranch: "main"}, nil
}

func (m *mockProvider) Head(_ context.Context) (string, error) {
	m.headCalls++
	return m.head, m.headErr
}

func (m *mockProvider) ListCommitsSince(_ context.Context, sinceSHA string) ([]domain.Commit, error) {
	m.sinceSHAs = append(m.sinceSHAs, sinceSHA)
	return m.commits, m.commitsErr
}

func (m *mockProvider) CommitDetails(_ context.Context, sha string) (*domain.Commit, error) {
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	return &domain.Commit{SHA: sha, Files: m.details[sha]}, nil
}

// mockFactory hands out one fixed provider.
type mockFactory struct {
	provider driven.RepositoryProvider
	storage  driven.SourceProvider
	base     string
	err      error
}

func (m *mockFactory) Repository(_ domain.Source, _ domain.RunOptions) (driven.RepositoryProvider, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.provider, nil
}

func (m *mockFactory) Storage(_ domain.Source, base string) (driven.SourceProvider, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.base = base
	return m.storage, nil
}

// fileItem builds a filesystem-kind item with a real hash.
func fileItem(uri, content string) domain.Item {
	return domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindFile,
		Content:     []byte(content),
		ContentHash: domain.HashFile([]byte(content)),
		MIMEType:    domain.MIMETypeMarkdown,
		Metadata:    map[string]string{"content-type": domain.MIMETypeMarkdown},
	}
}

// repoItem builds a repository-kind item with a real hash.
func repoItem(uri, content string) domain.Item {
	return domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindRepoFile,
		Content:     []byte(content),
		ContentHash: domain.HashRepoFile([]byte(content)),
		MIMEType:    domain.MIMETypeMarkdown,
	}
}

// statuses builds a diff response assigning one status to every URI.
func statuses(status domain.DiffStatus, uris ...string) map[string]domain.DiffStatus {
	out := make(map[string]domain.DiffStatus, len(uris))
	for _, uri := range uris {
		out[uri] = status
	}
	return out
}
