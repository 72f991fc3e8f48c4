package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/github"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return client
}

// repoJSON is a helper struct for building GitHub API repository responses.
type repoJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Fork        bool     `json:"fork"`
	HTMLURL     string   `json:"html_url"`
	Owner       userJSON `json:"owner"`
	CreatedAt   string   `json:"created_at"`
}

type userJSON struct {
	Login string `json:"login"`
}

type starJSON struct {
	StarredAt string   `json:"starred_at"`
	Repo      repoJSON `json:"repo"`
}

func TestListCreatedRepos_MapsFields(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/repos", r.URL.Path)
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("direction"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]repoJSON{
			{
				Name:        "new-lib",
				Description: "A very new library",
				Fork:        false,
				HTMLURL:     "https://github.com/alice/new-lib",
				Owner:       userJSON{Login: "alice"},
				CreatedAt:   "2026-02-28T11:00:00Z",
			},
			{
				Name:      "forked-thing",
				Fork:      true,
				HTMLURL:   "https://github.com/alice/forked-thing",
				Owner:     userJSON{Login: "alice"},
				CreatedAt: "2026-02-27T09:00:00Z",
			},
		})
	})

	client := newTestClient(t, handler)

	repos, err := client.ListCreatedRepos(context.Background(), "alice", 100)
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, "new-lib", repos[0].Name)
	assert.Equal(t, "A very new library", repos[0].Description)
	assert.False(t, repos[0].Fork)
	assert.Equal(t, "https://github.com/alice/new-lib", repos[0].URL)
	assert.Equal(t, "alice", repos[0].Owner)
	assert.Equal(t, time.Date(2026, 2, 28, 11, 0, 0, 0, time.UTC), repos[0].CreatedAt)

	assert.True(t, repos[1].Fork)
}

func TestListCreatedRepos_NonSuccessIsError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	client := newTestClient(t, handler)

	repos, err := client.ListCreatedRepos(context.Background(), "ghost", 100)
	require.Error(t, err)
	assert.Nil(t, repos)
	assert.Contains(t, err.Error(), "listing repositories for ghost")
}

func TestListCreatedRepos_EmptyResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	})

	client := newTestClient(t, handler)

	repos, err := client.ListCreatedRepos(context.Background(), "alice", 100)
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestListStarredRepos_MapsFields(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/starred", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]starJSON{
			{
				StarredAt: "2026-03-01T08:00:00Z",
				Repo: repoJSON{
					Name:        "cool-tool",
					Description: "Does cool things",
					HTMLURL:     "https://github.com/stranger/cool-tool",
					Owner:       userJSON{Login: "stranger"},
					CreatedAt:   "2024-06-01T00:00:00Z",
				},
			},
		})
	})

	client := newTestClient(t, handler)

	repos, err := client.ListStarredRepos(context.Background(), "alice", 3)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	assert.Equal(t, "cool-tool", repos[0].Name)
	assert.Equal(t, "Does cool things", repos[0].Description)
	assert.Equal(t, "stranger", repos[0].Owner)
	assert.Equal(t, "https://github.com/stranger/cool-tool", repos[0].URL)
}

func TestListStarredRepos_NonSuccessIsError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"oops"}`, http.StatusInternalServerError)
	})

	client := newTestClient(t, handler)

	_, err := client.ListStarredRepos(context.Background(), "alice", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing starred repositories for alice")
}
