package model

import "time"

// RepoSummary is the transient result of one gateway fetch: a single
// repository with just the fields needed for filtering and
// notification. Only the name outlives the fetch, as part of a dedup
// record.
type RepoSummary struct {
	Name        string
	Description string
	Fork        bool
	URL         string
	Owner       string
	CreatedAt   time.Time
}
