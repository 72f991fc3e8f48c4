// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

const (
	// repoFetchLimit bounds one repo listing to a single API page.
	repoFetchLimit = 100
	// starFetchLimit keeps star polling to the few most recent events.
	starFetchLimit = 3
	// starTickOffset staggers the star ticker so the two loops' API
	// calls never land in the same instant.
	starTickOffset = 10 * time.Second
)

// seedRequest asks the service goroutine to record a single user's
// current activity as already seen, without notifying.
type seedRequest struct {
	username string
	done     chan error
}

// WatchService orchestrates periodic GitHub polling, diffing against
// the dedup records, and notification delivery. All polling and
// seeding work funnels through the goroutine running Start, and every
// state mutation goes through the serialized StateStore, so no two
// read-modify-persist cycles can interleave.
type WatchService struct {
	ghClient driven.GitHubClient
	store    driven.StateStore
	notifier driven.Notifier

	pollInterval  time.Duration
	recencyWindow time.Duration
	cycleTimeout  time.Duration
	seedFirstRun  bool

	seedCh chan seedRequest

	now func() time.Time
}

// NewWatchService creates a new WatchService. recencyWindow is how far
// back a repository's creation time may lie and still be notified
// about. seedFirstRun makes the initial pass record everything as
// already seen without notifying; pass true after a cold start so the
// service does not flood the channel with historical activity.
func NewWatchService(
	ghClient driven.GitHubClient,
	store driven.StateStore,
	notifier driven.Notifier,
	pollInterval time.Duration,
	recencyWindow time.Duration,
	cycleTimeout time.Duration,
	seedFirstRun bool,
) *WatchService {
	return &WatchService{
		ghClient:      ghClient,
		store:         store,
		notifier:      notifier,
		pollInterval:  pollInterval,
		recencyWindow: recencyWindow,
		cycleTimeout:  cycleTimeout,
		seedFirstRun:  seedFirstRun,
		seedCh:        make(chan seedRequest),
		now:           time.Now,
	}
}

// Start begins the polling loops. It runs an immediate repo pass and
// star pass, then polls on the configured interval; star polling runs
// on a slightly offset ticker. It also listens for seed requests.
// Start blocks until the context is canceled.
func (s *WatchService) Start(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		slog.Error("initial poll failed", "error", err)
	}

	repoTicker := time.NewTicker(s.pollInterval)
	defer repoTicker.Stop()
	starTicker := time.NewTicker(s.pollInterval + starTickOffset)
	defer starTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch service stopped")
			return
		case <-repoTicker.C:
			if err := s.runRepoCycle(ctx, nil, false); err != nil {
				slog.Error("repo cycle failed", "error", err)
			}
		case <-starTicker.C:
			if err := s.runStarCycle(ctx, nil, false); err != nil {
				slog.Error("star cycle failed", "error", err)
			}
		case req := <-s.seedCh:
			req.done <- s.handleSeed(ctx, req.username)
		}
	}
}

// RunOnce performs one repo pass and one star pass over the full watch
// list and returns. The first call honors seedFirstRun. Used for the
// initial pass and for the batch run mode.
func (s *WatchService) RunOnce(ctx context.Context) error {
	seed := s.seedFirstRun
	s.seedFirstRun = false

	if err := s.runRepoCycle(ctx, nil, seed); err != nil {
		return err
	}
	return s.runStarCycle(ctx, nil, seed)
}

// SeedUser records username's current repositories and stars as
// already seen, without notifying. The request is handed to the
// service goroutine so it cannot interleave with a running cycle.
// It blocks until seeding completes or the context is canceled.
func (s *WatchService) SeedUser(ctx context.Context, username string) error {
	done := make(chan error, 1)

	select {
	case s.seedCh <- seedRequest{username: username, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Seed synchronously records the given users' current activity as
// already seen. Intended for the composition root before Start is
// running; once Start is up, use SeedUser.
func (s *WatchService) Seed(ctx context.Context, usernames []string) error {
	if err := s.runRepoCycle(ctx, usernames, true); err != nil {
		return err
	}
	return s.runStarCycle(ctx, usernames, true)
}

// handleSeed dispatches a seed request from the service goroutine.
func (s *WatchService) handleSeed(ctx context.Context, username string) error {
	return s.Seed(ctx, []string{username})
}

// runRepoCycle checks the given usernames (nil means the full watch
// list) for newly created repositories. A gateway failure aborts that
// username's check only; the rest of the cycle still runs and the next
// tick retries from scratch.
func (s *WatchService) runRepoCycle(ctx context.Context, usernames []string, seed bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	start := s.now()

	if usernames == nil {
		var err error
		usernames, err = s.store.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("listing watched users: %w", err)
		}
	}

	var checkErrors int
	for _, username := range usernames {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := s.checkUserRepos(ctx, username, seed); err != nil {
			slog.Error("repo check failed", "user", username, "error", err)
			checkErrors++
		}
	}

	slog.Info("repo cycle complete",
		"users", len(usernames),
		"errors", checkErrors,
		"seed", seed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// runStarCycle checks the given usernames (nil means the full watch
// list) for newly starred repositories.
func (s *WatchService) runStarCycle(ctx context.Context, usernames []string, seed bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	start := s.now()

	watched, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing watched users: %w", err)
	}
	if usernames == nil {
		usernames = watched
	}

	var checkErrors int
	for _, username := range usernames {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := s.checkUserStars(ctx, username, watched, seed); err != nil {
			slog.Error("star check failed", "user", username, "error", err)
			checkErrors++
		}
	}

	slog.Info("star cycle complete",
		"users", len(usernames),
		"errors", checkErrors,
		"seed", seed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// checkUserRepos is the core poll-and-diff logic for one username's
// repositories: fetch, drop forks, drop anything outside the recency
// window, then record-and-notify each survivor. The dedup record is
// persisted before the notification goes out, so a crash mid-loop can
// drop at most one message but never duplicate one.
func (s *WatchService) checkUserRepos(ctx context.Context, username string, seed bool) error {
	repos, err := s.ghClient.ListCreatedRepos(ctx, username, repoFetchLimit)
	if err != nil {
		return err
	}

	cutoff := s.now().Add(-s.recencyWindow)

	var notified, seeded, alreadySeen int
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		if !repo.CreatedAt.After(cutoff) {
			continue
		}

		inserted, err := s.store.MarkRepoNotified(ctx, username, repo.Name)
		if err != nil {
			return fmt.Errorf("recording repo %s for %s: %w", repo.Name, username, err)
		}
		if !inserted {
			alreadySeen++
			continue
		}
		if seed {
			seeded++
			continue
		}

		// The record is already durable; a failed delivery costs one
		// message, never a duplicate.
		if err := s.notifier.Notify(ctx, formatRepoMessage(repo)); err != nil {
			slog.Error("repo notification failed", "user", username, "repo", repo.Name, "error", err)
			continue
		}
		notified++
	}

	slog.Info("repos checked",
		"user", username,
		"fetched", len(repos),
		"notified", notified,
		"seeded", seeded,
		"already_seen", alreadySeen,
	)

	return nil
}

// checkUserStars checks one username's most recent stars. Stars on
// repositories owned by a watched user are skipped entirely: one
// watched user starring another's repo is noise, and the repo itself
// was (or will be) announced by the repo cycle.
func (s *WatchService) checkUserStars(ctx context.Context, username string, watched []string, seed bool) error {
	stars, err := s.ghClient.ListStarredRepos(ctx, username, starFetchLimit)
	if err != nil {
		return err
	}

	var notified, seeded, alreadySeen int
	for _, repo := range stars {
		if isWatched(watched, repo.Owner) {
			continue
		}

		inserted, err := s.store.MarkStarNotified(ctx, repo.Name)
		if err != nil {
			return fmt.Errorf("recording star %s: %w", repo.Name, err)
		}
		if !inserted {
			alreadySeen++
			continue
		}
		if seed {
			seeded++
			continue
		}

		if err := s.notifier.Notify(ctx, formatStarMessage(username, repo)); err != nil {
			slog.Error("star notification failed", "user", username, "repo", repo.Name, "error", err)
			continue
		}
		notified++
	}

	slog.Info("stars checked",
		"user", username,
		"fetched", len(stars),
		"notified", notified,
		"seeded", seeded,
		"already_seen", alreadySeen,
	)

	return nil
}

// isWatched reports whether owner is one of the watched usernames.
// GitHub logins are case-insensitive.
func isWatched(watched []string, owner string) bool {
	for _, u := range watched {
		if strings.EqualFold(u, owner) {
			return true
		}
	}
	return false
}
