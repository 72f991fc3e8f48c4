// Package jsonstate persists the watch list and dedup records in a
// single JSON file.
package jsonstate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"crawshaw.dev/jsonfile"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StateStore = (*Store)(nil)

// state is the on-disk shape. Field names are a compatibility contract
// with existing state files and must round-trip exactly.
type state struct {
	Usernames []string            `json:"usernames"`
	Repos     map[string][]string `json:"repos"`
	Stars     []string            `json:"stars"`
}

// Store is the file-backed implementation of the StateStore port. The
// underlying jsonfile serializes every Write and replaces the whole
// file atomically, so concurrent mutation paths cannot interleave
// their read-modify-persist cycles. Dedup sets grow without bound;
// that is an accepted property of the design, not a leak.
type Store struct {
	f     *jsonfile.JSONFile[state]
	fresh bool
}

// Open loads the state file at path, creating it if missing. A file
// that exists but does not parse is logged, discarded, and replaced
// with empty state. Callers should check Fresh and seed instead of
// notifying when no prior state survived.
func Open(path string) (*Store, error) {
	fresh := false
	f, err := jsonfile.Load[state](path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f, err = jsonfile.New[state](path)
		fresh = true
	case err != nil:
		slog.Warn("state file unreadable, starting fresh", "path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, fmt.Errorf("removing malformed state file %s: %w", path, rmErr)
		}
		f, err = jsonfile.New[state](path)
		fresh = true
	}
	if err != nil {
		return nil, fmt.Errorf("opening state file %s: %w", path, err)
	}

	return &Store{f: f, fresh: fresh}, nil
}

// Fresh reports whether Open found no usable prior state. The watch
// service runs its first pass in seeding mode when this is true.
func (s *Store) Fresh() bool { return s.fresh }

// AddUser appends username to the watch list and persists.
func (s *Store) AddUser(_ context.Context, username string) error {
	return s.f.Write(func(st *state) error {
		if slices.Contains(st.Usernames, username) {
			return fmt.Errorf("add user %s: %w", username, driven.ErrUserAlreadyWatched)
		}
		st.Usernames = append(st.Usernames, username)
		return nil
	})
}

// RemoveUser removes username from the watch list and persists. The
// user's repo dedup records stay in place so a later re-add does not
// replay old history.
func (s *Store) RemoveUser(_ context.Context, username string) error {
	return s.f.Write(func(st *state) error {
		i := slices.Index(st.Usernames, username)
		if i < 0 {
			return fmt.Errorf("remove user %s: %w", username, driven.ErrUserNotWatched)
		}
		st.Usernames = slices.Delete(st.Usernames, i, i+1)
		return nil
	})
}

// ListUsers returns the watch list in insertion order.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	var users []string
	s.f.Read(func(st *state) {
		users = slices.Clone(st.Usernames)
	})
	return users, nil
}

// MarkRepoNotified records repoName in username's dedup set. It
// reports whether the record was newly inserted; the file is durable
// before it returns true.
func (s *Store) MarkRepoNotified(_ context.Context, username, repoName string) (bool, error) {
	inserted := false
	err := s.f.Write(func(st *state) error {
		if slices.Contains(st.Repos[username], repoName) {
			return nil
		}
		if st.Repos == nil {
			st.Repos = make(map[string][]string)
		}
		st.Repos[username] = append(st.Repos[username], repoName)
		inserted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("marking repo %s for %s: %w", repoName, username, err)
	}
	return inserted, nil
}

// MarkStarNotified records repoName in the global star dedup set, with
// the same semantics as MarkRepoNotified.
func (s *Store) MarkStarNotified(_ context.Context, repoName string) (bool, error) {
	inserted := false
	err := s.f.Write(func(st *state) error {
		if slices.Contains(st.Stars, repoName) {
			return nil
		}
		st.Stars = append(st.Stars, repoName)
		inserted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("marking star %s: %w", repoName, err)
	}
	return inserted, nil
}
