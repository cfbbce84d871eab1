package ingester

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// TestClient_SyncState tests cursor reads.
func TestClient_SyncState(t *testing.T) {
	t.Run("decodes a stored cursor", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/sync-state/gitea:acme:docs", r.URL.Path)
			writeJSON(t, w, http.StatusOK, syncStateRecord{
				Source:        "gitea:acme:docs",
				Branch:        "main",
				LastCommitSHA: "c9",
				LastSyncDate:  "2026-08-20T10:00:00Z",
			})
		}))
		defer srv.Close()

		state, err := testClient(t, srv).SyncState(context.Background(), "gitea:acme:docs")

		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "gitea:acme:docs", state.Source)
		assert.Equal(t, "main", state.Branch)
		assert.Equal(t, "c9", state.LastCommitSHA)
		require.NotNil(t, state.LastSyncAt)
		assert.Equal(t, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC), state.LastSyncAt.UTC())
		assert.True(t, state.HasCursor())
	})

	t.Run("accepts a timestamp without a zone", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, syncStateRecord{
				Source:       "gitea:acme:docs",
				Branch:       "main",
				LastSyncDate: "2026-08-20T10:00:00.123456",
			})
		}))
		defer srv.Close()

		state, err := testClient(t, srv).SyncState(context.Background(), "gitea:acme:docs")

		require.NoError(t, err)
		require.NotNil(t, state.LastSyncAt)
		assert.Equal(t, 2026, state.LastSyncAt.Year())
		assert.False(t, state.HasCursor())
	})

	t.Run("never synced returns nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		}))
		defer srv.Close()

		state, err := testClient(t, srv).SyncState(context.Background(), "gitea:acme:docs")

		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("corrupt timestamp is a state error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, syncStateRecord{
				Source:       "gitea:acme:docs",
				LastSyncDate: "yesterday",
			})
		}))
		defer srv.Close()

		_, err := testClient(t, srv).SyncState(context.Background(), "gitea:acme:docs")

		var se domain.StateError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "gitea:acme:docs", se.Source)
	})

	t.Run("missing fields fall back to the request source", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]string{"branch": "main"})
		}))
		defer srv.Close()

		state, err := testClient(t, srv).SyncState(context.Background(), "gitea:acme:docs")

		require.NoError(t, err)
		assert.Equal(t, "gitea:acme:docs", state.Source)
		assert.Nil(t, state.LastSyncAt)
	})
}

// TestClient_PutSyncState tests cursor writes.
func TestClient_PutSyncState(t *testing.T) {
	state := domain.SyncState{
		Source:        "gitea:acme:docs",
		Branch:        "main",
		LastCommitSHA: "c9",
	}

	t.Run("puts the cursor form", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/sync-state/gitea:acme:docs", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "c9", r.FormValue("commit_sha"))
			assert.Equal(t, "main", r.FormValue("branch"))
			assert.False(t, r.Form.Has("metadata"))
			writeJSON(t, w, http.StatusOK, map[string]string{"source": "gitea:acme:docs"})
		}))
		defer srv.Close()

		err := testClient(t, srv).PutSyncState(context.Background(), state, nil)

		require.NoError(t, err)
	})

	t.Run("attaches run metadata when present", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.JSONEq(t, `{"ingested": 3}`, r.FormValue("metadata"))
			writeJSON(t, w, http.StatusOK, map[string]string{})
		}))
		defer srv.Close()

		err := testClient(t, srv).PutSyncState(context.Background(), state, map[string]any{"ingested": 3})

		require.NoError(t, err)
	})
}

// TestClient_DeleteSyncState tests cursor resets.
func TestClient_DeleteSyncState(t *testing.T) {
	t.Run("deletes the cursor", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/sync-state/gitea:acme:docs", r.URL.Path)
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "deleted"})
		}))
		defer srv.Close()

		err := testClient(t, srv).DeleteSyncState(context.Background(), "gitea:acme:docs")

		require.NoError(t, err)
	})

	t.Run("tolerates an absent cursor", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		}))
		defer srv.Close()

		err := testClient(t, srv).DeleteSyncState(context.Background(), "gitea:acme:docs")

		require.NoError(t, err)
	})

	t.Run("other failures surface", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		}))
		defer srv.Close()

		err := testClient(t, srv).DeleteSyncState(context.Background(), "gitea:acme:docs")

		assert.ErrorContains(t, err, "boom")
	})
}
