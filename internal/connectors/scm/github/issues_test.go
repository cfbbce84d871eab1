package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProvider_ListIssues tests issue listing and comment matching.
func TestProvider_ListIssues(t *testing.T) {
	issueURL := func(n string) string { return "https://api.example.test/repos/acme/docs/issues/" + n }

	newServer := func(t *testing.T) (*httptest.Server, *[]string) {
		var paths []string
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/docs/issues", func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			assert.Equal(t, "all", r.URL.Query().Get("state"))
			issues := []map[string]any{
				{
					"number": 2, "title": "Fix typos", "body": "Several typos", "state": "open",
					"user": map[string]any{"login": "ann"}, "url": issueURL("2"),
					"created_at": "2026-02-01T10:00:00Z", "updated_at": "2026-02-02T10:00:00Z",
				},
				{
					"number": 3, "title": "A pull request", "state": "open",
					"url":          issueURL("3"),
					"pull_request": map[string]any{"url": "https://api.example.test/pulls/3"},
				},
				{
					"number": 1, "title": "Broken link", "body": "404 on docs page", "state": "closed",
					"user": map[string]any{"login": "bob"}, "assignee": map[string]any{"login": "ann"},
					"url":        issueURL("1"),
					"created_at": "2026-01-01T10:00:00Z", "updated_at": "2026-01-05T10:00:00Z",
				},
			}
			if r.URL.Query().Get("since") != "" {
				issues = issues[:1]
			}
			writeJSON(t, w, issues)
		})
		mux.HandleFunc("/repos/acme/docs/issues/comments", func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			writeJSON(t, w, []map[string]any{
				{"body": "me too", "user": map[string]any{"login": "cass"}, "issue_url": issueURL("1"), "created_at": "2026-01-02T10:00:00Z"},
				{"body": "fixed now", "user": map[string]any{"login": "ann"}, "issue_url": issueURL("1"), "created_at": "2026-01-03T10:00:00Z"},
				{"body": "which pages?", "user": map[string]any{"login": "dan"}, "issue_url": issueURL("2"), "created_at": "2026-02-01T12:00:00Z"},
			})
		})
		mux.HandleFunc("/repos/acme/docs/issues/2/comments", func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			writeJSON(t, w, []map[string]any{
				{"body": "which pages?", "user": map[string]any{"login": "dan"}, "issue_url": issueURL("2"), "created_at": "2026-02-01T12:00:00Z"},
			})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)
		return srv, &paths
	}

	t.Run("excludes pull requests", func(t *testing.T) {
		srv, _ := newServer(t)

		issues, err := testProvider(t, srv).ListIssues(context.Background(), false, nil)

		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, 2, issues[0].Number)
		assert.Equal(t, 1, issues[1].Number)
		assert.Equal(t, "ann", issues[0].Author)
		assert.Equal(t, "ann", issues[1].Assignee)
		assert.Equal(t, 2026, issues[0].CreatedAt.Year())
	})

	t.Run("full listing matches repo-wide comments by issue URL", func(t *testing.T) {
		srv, paths := newServer(t)

		issues, err := testProvider(t, srv).ListIssues(context.Background(), true, nil)

		require.NoError(t, err)
		require.Len(t, issues, 2)
		require.Len(t, issues[0].Comments, 1)
		assert.Equal(t, "which pages?", issues[0].Comments[0].Body)
		require.Len(t, issues[1].Comments, 2)
		assert.Equal(t, "me too", issues[1].Comments[0].Body)
		assert.Equal(t, "fixed now", issues[1].Comments[1].Body)
		assert.Contains(t, *paths, "/repos/acme/docs/issues/comments", "one repo-wide listing, not per issue")
	})

	t.Run("incremental listing fetches comments per issue", func(t *testing.T) {
		srv, paths := newServer(t)
		since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		issues, err := testProvider(t, srv).ListIssues(context.Background(), true, &since)

		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, 2, issues[0].Number)
		require.Len(t, issues[0].Comments, 1)
		assert.Contains(t, *paths, "/repos/acme/docs/issues/2/comments")
		assert.NotContains(t, *paths, "/repos/acme/docs/issues/comments")
	})

	t.Run("drains paginated listings", func(t *testing.T) {
		var srv *httptest.Server
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/docs/issues", func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("page") {
			case "", "1":
				w.Header().Set("Link", `<`+srv.URL+`/repos/acme/docs/issues?page=2>; rel="next"`)
				writeJSON(t, w, []map[string]any{{"number": 1, "title": "first", "url": issueURL("1")}})
			default:
				writeJSON(t, w, []map[string]any{{"number": 2, "title": "second", "url": issueURL("2")}})
			}
		})
		srv = httptest.NewServer(mux)
		defer srv.Close()

		issues, err := testProvider(t, srv).ListIssues(context.Background(), false, nil)

		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "first", issues[0].Title)
		assert.Equal(t, "second", issues[1].Title)
	})

	t.Run("no issues is not an error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/docs/issues", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, []map[string]any{})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		issues, err := testProvider(t, srv).ListIssues(context.Background(), true, nil)

		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}
