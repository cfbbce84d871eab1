package webdav

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studio-b12/gowebdav"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// fakeInfo implements os.FileInfo for fake share entries.
type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() os.FileMode  { return 0o644 }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.dir }
func (f fakeInfo) Sys() any           { return nil }

// fakeClient serves a fixed share layout. Keys are absolute paths;
// directories map to nil content.
type fakeClient struct {
	files    map[string][]byte
	dirs     map[string]bool
	readErr  map[string]error
	listErr  map[string]error
	statErr  map[string]error
	reads    []string
	listings []string
}

func (f *fakeClient) ReadDir(p string) ([]os.FileInfo, error) {
	f.listings = append(f.listings, p)
	if err := f.listErr[p]; err != nil {
		return nil, err
	}
	if !f.dirs[p] {
		return nil, statusError("ReadDir", p, 404)
	}
	var infos []os.FileInfo
	seen := map[string]bool{}
	prefix := strings.TrimSuffix(p, "/") + "/"
	if p == "/" {
		prefix = "/"
	}
	for full := range f.files {
		if !strings.HasPrefix(full, prefix) {
			continue
		}
		rest := strings.TrimPrefix(full, prefix)
		head := strings.SplitN(rest, "/", 2)[0]
		if head == "" || seen[head] {
			continue
		}
		seen[head] = true
		infos = append(infos, fakeInfo{name: head, size: int64(len(f.files[full])), dir: strings.Contains(rest, "/")})
	}
	for dir := range f.dirs {
		if !strings.HasPrefix(dir, prefix) || dir == p {
			continue
		}
		rest := strings.TrimPrefix(dir, prefix)
		head := strings.SplitN(rest, "/", 2)[0]
		if head == "" || seen[head] {
			continue
		}
		seen[head] = true
		infos = append(infos, fakeInfo{name: head, dir: true})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

func (f *fakeClient) Read(p string) ([]byte, error) {
	f.reads = append(f.reads, p)
	if err := f.readErr[p]; err != nil {
		return nil, err
	}
	content, ok := f.files[p]
	if !ok {
		return nil, statusError("Read", p, 404)
	}
	return content, nil
}

func (f *fakeClient) Stat(p string) (os.FileInfo, error) {
	if err := f.statErr[p]; err != nil {
		return nil, err
	}
	if f.dirs[p] {
		return fakeInfo{name: p, dir: true}, nil
	}
	if content, ok := f.files[p]; ok {
		return fakeInfo{name: p, size: int64(len(content))}, nil
	}
	return nil, statusError("Stat", p, 404)
}

// statusError builds the error shape gowebdav returns for HTTP
// failures.
func statusError(op, path string, code int) error {
	return &os.PathError{Op: op, Path: path, Err: gowebdav.StatusError{Status: code}}
}

func shareClient() *fakeClient {
	return &fakeClient{
		files: map[string][]byte{
			"/documents/report.pdf":        []byte("%PDF report"),
			"/documents/legal/terms.docx":  []byte("terms"),
			"/documents/legal/.draft.docx": []byte("draft"),
			"/documents/readme.md":         []byte("# share"),
		},
		dirs: map[string]bool{
			"/":                true,
			"/documents":       true,
			"/documents/legal": true,
		},
	}
}

func TestProvider_ListTree(t *testing.T) {
	t.Run("walks the collection relative to base", func(t *testing.T) {
		fake := shareClient()
		p := newWithClient("dav-docs", "/documents", fake, 2)

		items, err := p.ListTree(context.Background(), "", []string{"pdf", "docx"})

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "legal/terms.docx", items[0].URI, "URIs are base-relative and sorted")
		assert.Equal(t, "report.pdf", items[1].URI)
		assert.Equal(t, []byte("terms"), items[0].Content)
		assert.Equal(t, domain.HashFile([]byte("terms")), items[0].ContentHash)
		assert.Equal(t, domain.SourceKindWebDAV, p.Kind())
	})

	t.Run("skips hidden entries", func(t *testing.T) {
		fake := shareClient()
		p := newWithClient("dav-docs", "/documents", fake, 2)

		items, err := p.ListTree(context.Background(), "", []string{"docx"})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "legal/terms.docx", items[0].URI)
	})

	t.Run("fails when base is missing", func(t *testing.T) {
		fake := shareClient()
		p := newWithClient("dav-docs", "/absent", fake, 2)

		_, err := p.ListTree(context.Background(), "", []string{"pdf"})

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("surfaces authorization failures", func(t *testing.T) {
		fake := shareClient()
		fake.statErr = map[string]error{"/documents": statusError("Stat", "/documents", 401)}
		p := newWithClient("dav-docs", "/documents", fake, 2)

		_, err := p.ListTree(context.Background(), "", []string{"pdf"})

		require.Error(t, err)
		assert.True(t, domain.IsAuthorization(err))
	})
}

func TestProvider_Fetch(t *testing.T) {
	t.Run("downloads one file", func(t *testing.T) {
		fake := shareClient()
		p := newWithClient("dav-docs", "/documents", fake, 2)

		item, err := p.Fetch(context.Background(), "legal/terms.docx")

		require.NoError(t, err)
		assert.Equal(t, "legal/terms.docx", item.URI)
		assert.Equal(t, domain.ItemKindFile, item.Kind)
		assert.Equal(t, []byte("terms"), item.Content)
		assert.Equal(t, domain.HashFile([]byte("terms")), item.ContentHash)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", item.MIMEType)
		assert.Equal(t, "terms.docx", item.Metadata["filename"])
		assert.Equal(t, "docx", item.Metadata["extension"])
		assert.Equal(t, "5", item.Metadata["size"])
		assert.Nil(t, item.LastModified, "WebDAV offers no reliable change timestamp")
		assert.Equal(t, []string{"/documents/legal/terms.docx"}, fake.reads)
	})

	t.Run("maps missing files to not found", func(t *testing.T) {
		fake := shareClient()
		p := newWithClient("dav-docs", "/documents", fake, 2)

		_, err := p.Fetch(context.Background(), "absent.pdf")

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("maps credential failures to authorization", func(t *testing.T) {
		fake := shareClient()
		fake.readErr = map[string]error{"/documents/report.pdf": statusError("Read", "/documents/report.pdf", 403)}
		p := newWithClient("dav-docs", "/documents", fake, 2)

		_, err := p.Fetch(context.Background(), "report.pdf")

		require.Error(t, err)
		assert.True(t, domain.IsAuthorization(err))
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		fake := shareClient()
		p := newWithClient("dav-docs", "/documents", fake, 2)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Fetch(ctx, "report.pdf")

		require.Error(t, err)
		assert.Empty(t, fake.reads, "no network call after cancellation")
	})
}

func TestProvider_ListIssues(t *testing.T) {
	t.Run("reports not supported", func(t *testing.T) {
		p := newWithClient("dav-docs", "/documents", shareClient(), 2)

		_, err := p.ListIssues(context.Background(), false, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotSupported)
	})
}

func TestNew(t *testing.T) {
	t.Run("requires configured settings", func(t *testing.T) {
		_, err := New("dav-docs", "/documents", domain.WebDAVSettings{}, 2)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("builds a provider from settings", func(t *testing.T) {
		settings := domain.WebDAVSettings{Endpoint: "https://dav.example.test", Username: "u", Password: "p"}

		p, err := New("dav-docs", "/documents", settings, 2)

		require.NoError(t, err)
		assert.Equal(t, "/documents", p.Base())
	})
}
