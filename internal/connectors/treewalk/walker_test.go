package treewalk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// fakeSource serves a fixed tree map of dir -> entries.
type fakeSource struct {
	tree     map[string][]Entry
	listErr  map[string]error
	fetchErr map[string]error
	mime     map[string]string

	mu         sync.Mutex
	inFlight   int32
	maxSeen    int32
	listCalls  []string
	fetchCalls []string
}

func (f *fakeSource) List(_ context.Context, dir string) ([]Entry, error) {
	f.track()
	defer f.untrack()
	f.mu.Lock()
	f.listCalls = append(f.listCalls, dir)
	f.mu.Unlock()
	if err := f.listErr[dir]; err != nil {
		return nil, err
	}
	return f.tree[dir], nil
}

func (f *fakeSource) Fetch(_ context.Context, path string) (*domain.Item, error) {
	f.track()
	defer f.untrack()
	f.mu.Lock()
	f.fetchCalls = append(f.fetchCalls, path)
	f.mu.Unlock()
	if err := f.fetchErr[path]; err != nil {
		return nil, err
	}
	mime := domain.MIMETypeMarkdown
	if m, ok := f.mime[path]; ok {
		mime = m
	}
	content := []byte("content of " + path)
	return &domain.Item{
		URI:         path,
		Kind:        domain.ItemKindFile,
		Content:     content,
		ContentHash: domain.HashFile(content),
		MIMEType:    mime,
	}, nil
}

func (f *fakeSource) track() {
	now := atomic.AddInt32(&f.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if now <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, now) {
			return
		}
	}
}

func (f *fakeSource) untrack() {
	atomic.AddInt32(&f.inFlight, -1)
}

func sampleTree() map[string][]Entry {
	return map[string][]Entry{
		"": {
			{Path: "docs", IsDir: true},
			{Path: "src", IsDir: true},
			{Path: "README.md", IsDir: false},
			{Path: "logo.png", IsDir: false},
		},
		"docs": {
			{Path: "docs/guide.md", IsDir: false},
			{Path: "docs/internal", IsDir: true},
		},
		"docs/internal": {
			{Path: "docs/internal/notes.md", IsDir: false},
		},
		"src": {
			{Path: "src/main.go", IsDir: false},
		},
	}
}

// TestWalk_FiltersAndSorts tests recursive enumeration with the allow-list
func TestWalk_FiltersAndSorts(t *testing.T) {
	source := &fakeSource{tree: sampleTree()}
	walker := New(source, 3)

	items, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	uris := make([]string, len(items))
	for i, item := range items {
		uris[i] = item.URI
	}
	assert.Equal(t, []string{"README.md", "docs/guide.md", "docs/internal/notes.md"}, uris)
}

// TestWalk_FetchesContent tests that every returned leaf carries content and hash
func TestWalk_FetchesContent(t *testing.T) {
	source := &fakeSource{tree: sampleTree()}
	walker := New(source, 2)

	items, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	for _, item := range items {
		assert.NotEmpty(t, item.Content)
		assert.Equal(t, domain.HashFile(item.Content), item.ContentHash)
	}
}

// TestWalk_DirectoriesNotFetched tests that directories are expanded, not fetched
func TestWalk_DirectoriesNotFetched(t *testing.T) {
	source := &fakeSource{tree: sampleTree()}
	walker := New(source, 2)

	_, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	for _, fetched := range source.fetchCalls {
		assert.True(t, strings.HasSuffix(fetched, ".md"), "fetched %s", fetched)
	}
	assert.Contains(t, source.listCalls, "docs/internal")
}

// TestWalk_BoundedConcurrency tests the fan-out cap
func TestWalk_BoundedConcurrency(t *testing.T) {
	wide := map[string][]Entry{"": {}}
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md", "f.md", "g.md", "h.md"} {
		wide[""] = append(wide[""], Entry{Path: name})
	}
	source := &fakeSource{tree: wide}
	walker := New(source, 2)

	_, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	assert.LessOrEqual(t, source.maxSeen, int32(2))
}

// TestWalk_EmptyTree tests walking a source with no matching leaves
func TestWalk_EmptyTree(t *testing.T) {
	source := &fakeSource{tree: map[string][]Entry{"": {{Path: "bin", IsDir: true}}, "bin": {}}}
	walker := New(source, 2)

	items, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, source.fetchCalls)
}

// TestWalk_ListFailure tests that a directory listing failure fails the walk
func TestWalk_ListFailure(t *testing.T) {
	source := &fakeSource{
		tree:    sampleTree(),
		listErr: map[string]error{"docs": errors.New("permission denied")},
	}
	walker := New(source, 2)

	_, err := walker.Walk(context.Background(), "", []string{"md"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs")
}

// TestWalk_FetchFailure tests that a leaf fetch failure fails the walk
func TestWalk_FetchFailure(t *testing.T) {
	source := &fakeSource{
		tree:     sampleTree(),
		fetchErr: map[string]error{"docs/guide.md": errors.New("gone")},
	}
	walker := New(source, 2)

	_, err := walker.Walk(context.Background(), "", []string{"md"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs/guide.md")
}

// TestWalk_RejectsOctetStream tests that undetectable content types are dropped
func TestWalk_RejectsOctetStream(t *testing.T) {
	source := &fakeSource{
		tree: sampleTree(),
		mime: map[string]string{"docs/guide.md": domain.MIMETypeOctetStream},
	}
	walker := New(source, 2)

	items, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	for _, item := range items {
		assert.NotEqual(t, "docs/guide.md", item.URI)
	}
	require.Len(t, items, 2)
}

// TestWalk_CancelledContext tests early exit on cancellation
func TestWalk_CancelledContext(t *testing.T) {
	source := &fakeSource{tree: sampleTree()}
	walker := New(source, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := walker.Walk(ctx, "", []string{"md"})

	assert.ErrorIs(t, err, context.Canceled)
}

// TestNew_ClampsConcurrency tests the lower bound on fan-out
func TestNew_ClampsConcurrency(t *testing.T) {
	walker := New(&fakeSource{tree: sampleTree()}, 0)

	items, err := walker.Walk(context.Background(), "", []string{"md"})

	require.NoError(t, err)
	assert.Len(t, items, 3)
}
