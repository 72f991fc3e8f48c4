package driven

import (
	"context"
	"errors"
)

// Sentinel errors returned by StateStore implementations.
var (
	// ErrUserAlreadyWatched indicates the username is already on the watch list.
	ErrUserAlreadyWatched = errors.New("user already watched")

	// ErrUserNotWatched indicates the username is not on the watch list.
	ErrUserNotWatched = errors.New("user not watched")
)

// StateStore defines the driven port for watch-list and dedup-record
// persistence. Every mutation is durable before the method returns,
// and implementations serialize all operations: only one
// read-modify-persist cycle is in flight at a time.
type StateStore interface {
	// AddUser appends username to the watch list.
	// Returns ErrUserAlreadyWatched if it is already present.
	AddUser(ctx context.Context, username string) error
	// RemoveUser removes username from the watch list. Dedup records
	// for the user are kept so a later re-add does not replay old
	// history. Returns ErrUserNotWatched if the username is absent.
	RemoveUser(ctx context.Context, username string) error
	// ListUsers returns the watch list in insertion order.
	ListUsers(ctx context.Context) ([]string, error)
	// MarkRepoNotified records repoName in username's dedup set and
	// persists before returning. It reports whether the record was
	// newly inserted; false means it was already present and nothing
	// changed. The check-and-insert is atomic.
	MarkRepoNotified(ctx context.Context, username, repoName string) (bool, error)
	// MarkStarNotified records repoName in the global star dedup set,
	// with the same semantics as MarkRepoNotified.
	MarkStarNotified(ctx context.Context, repoName string) (bool, error)
}
