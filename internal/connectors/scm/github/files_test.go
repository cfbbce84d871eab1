package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// TestProvider_Fetch tests single-file retrieval.
func TestProvider_Fetch(t *testing.T) {
	t.Run("decodes inline content", func(t *testing.T) {
		srv := contentsServer(t)
		p := testProvider(t, srv)

		item, err := p.Fetch(context.Background(), "readme.md")

		require.NoError(t, err)
		assert.Equal(t, "readme.md", item.URI)
		assert.Equal(t, []byte("# readme"), item.Content)
		assert.Equal(t, domain.HashRepoFile([]byte("# readme")), item.ContentHash)
		assert.Equal(t, "readme.md", item.Metadata["filename"])
		assert.Equal(t, "md", item.Metadata["extension"])
		assert.Equal(t, "8", item.Metadata["size"])
		assert.Nil(t, item.LastModified)
	})

	t.Run("falls back to the blob API for large files", func(t *testing.T) {
		blobCalls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/docs/contents/big.md", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{
				"type": "file", "name": "big.md", "path": "big.md", "sha": "bigsha",
				"size": 2000000, "content": "", "encoding": "none",
			})
		})
		mux.HandleFunc("/repos/acme/docs/git/blobs/bigsha", func(w http.ResponseWriter, r *http.Request) {
			blobCalls++
			// Blob payloads arrive base64-encoded with embedded newlines.
			encoded := b64("large body")
			writeJSON(t, w, map[string]any{
				"sha": "bigsha", "size": 10, "encoding": "base64",
				"content": encoded[:4] + "\n" + encoded[4:],
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		item, err := testProvider(t, srv).Fetch(context.Background(), "big.md")

		require.NoError(t, err)
		assert.Equal(t, 1, blobCalls)
		assert.Equal(t, []byte("large body"), item.Content)
		assert.Equal(t, domain.HashRepoFile([]byte("large body")), item.ContentHash)
	})

	t.Run("empty file skips the blob call", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/docs/contents/empty.md", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{
				"type": "file", "name": "empty.md", "path": "empty.md", "sha": "s0",
				"size": 0, "content": "", "encoding": "base64",
			})
		})
		mux.HandleFunc("/repos/acme/docs/git/", func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected blob call: %s", r.URL.Path)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		item, err := testProvider(t, srv).Fetch(context.Background(), "empty.md")

		require.NoError(t, err)
		assert.Empty(t, item.Content)
		assert.Equal(t, domain.HashRepoFile(nil), item.ContentHash)
	})

	t.Run("rejects directories", func(t *testing.T) {
		srv := contentsServer(t)
		p := testProvider(t, srv)

		_, err := p.Fetch(context.Background(), "guides")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a file")
	})
}

// TestProvider_List tests one directory level.
func TestProvider_List(t *testing.T) {
	t.Run("separates files and directories", func(t *testing.T) {
		srv := contentsServer(t)
		p := testProvider(t, srv)

		entries, err := p.List(context.Background(), "")

		require.NoError(t, err)
		require.Len(t, entries, 3, "symlink entries are skipped")
		assert.Equal(t, "readme.md", entries[0].Path)
		assert.False(t, entries[0].IsDir)
		assert.Equal(t, "guides", entries[2].Path)
		assert.True(t, entries[2].IsDir)
	})

	t.Run("octet-stream leaves are rejected by the walk", func(t *testing.T) {
		junk := string([]byte{0x00, 0x01, 0xff, 0xfe, 0x00, 0x9c})
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/docs/contents/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/contents/") {
				writeJSON(t, w, []map[string]any{
					{"type": "file", "name": "blob.bin", "path": "blob.bin", "sha": "s9", "size": 6},
				})
				return
			}
			writeJSON(t, w, map[string]any{
				"type": "file", "name": "blob.bin", "path": "blob.bin", "sha": "s9",
				"size": 6, "content": b64(junk), "encoding": "base64",
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		items, err := testProvider(t, srv).ListTree(context.Background(), "", []string{"bin"})

		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
