// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, optional PAT auth)
//
// An empty token leaves the client unauthenticated. The endpoints used
// here are public; a token only raises the rate limit.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ListCreatedRepos retrieves up to limit repositories owned by username,
// sorted by creation time descending. A single page is fetched; the
// recency filter upstream makes older pages irrelevant.
func (c *Client) ListCreatedRepos(ctx context.Context, username string, limit int) ([]model.RepoSummary, error) {
	opts := &gh.RepositoryListByUserOptions{
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	}

	repos, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", username, err)
	}

	logRateLimit(resp, username+"/repos", len(repos))

	out := make([]model.RepoSummary, 0, len(repos))
	for _, r := range repos {
		out = append(out, mapRepo(r))
	}

	return out, nil
}

// ListStarredRepos retrieves up to limit repositories starred by
// username, most recently starred first.
func (c *Client) ListStarredRepos(ctx context.Context, username string, limit int) ([]model.RepoSummary, error) {
	opts := &gh.ActivityListStarredOptions{
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	}

	starred, resp, err := c.gh.Activity.ListStarred(ctx, username, opts)
	if err != nil {
		return nil, fmt.Errorf("listing starred repositories for %s: %w", username, err)
	}

	logRateLimit(resp, username+"/starred", len(starred))

	out := make([]model.RepoSummary, 0, len(starred))
	for _, s := range starred {
		out = append(out, mapRepo(s.GetRepository()))
	}

	return out, nil
}

// mapRepo converts a go-github Repository to a domain model RepoSummary.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapRepo(r *gh.Repository) model.RepoSummary {
	return model.RepoSummary{
		Name:        r.GetName(),
		Description: r.GetDescription(),
		Fork:        r.GetFork(),
		URL:         r.GetHTMLURL(),
		Owner:       r.GetOwner().GetLogin(),
		CreatedAt:   r.GetCreatedAt().Time,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
