package ingester

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// TestClient_DiffStatus tests the one-shot hash diff.
func TestClient_DiffStatus(t *testing.T) {
	hashes := map[string]string{
		"guides/setup.md": "aaa1",
		"readme.md":       "bbb2",
	}

	t.Run("submits the map and decodes statuses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/source-status", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "gitea:acme:docs", r.FormValue("source"))

			var submitted map[string]string
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &submitted))
			assert.Equal(t, hashes, submitted)

			writeJSON(t, w, http.StatusOK, map[string]statusRecord{
				"guides/setup.md": {Status: "new"},
				"readme.md":       {Status: "match"},
			})
		}))
		defer srv.Close()

		statuses, err := testClient(t, srv).DiffStatus(context.Background(), "gitea:acme:docs", hashes)

		require.NoError(t, err)
		assert.Equal(t, map[string]domain.DiffStatus{
			"guides/setup.md": domain.StatusNew,
			"readme.md":       domain.StatusMatch,
		}, statuses)
	})

	t.Run("passes unknown statuses through for the differ to reject", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]statusRecord{
				"readme.md": {Status: "pending"},
			})
		}))
		defer srv.Close()

		statuses, err := testClient(t, srv).DiffStatus(context.Background(), "gitea:acme:docs", hashes)

		require.NoError(t, err)
		assert.Equal(t, domain.DiffStatus("pending"), statuses["readme.md"])
	})
}
