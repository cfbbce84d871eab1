package domain

import "time"

// SyncState is the backend-persisted cursor for commit-based
// incremental sync of one repository source. The agent computes the
// next value; the backend is the system of record.
type SyncState struct {
	// Source is the repository source identifier.
	Source string

	// Branch is the branch the cursor applies to.
	Branch string

	// LastCommitSHA is the last fully processed commit. Empty means no
	// sync has completed yet.
	LastCommitSHA string

	// LastSyncAt is when the cursor was last advanced. Issues updated
	// after this instant are refetched on the next incremental run.
	LastSyncAt *time.Time
}

// HasCursor returns true when a previous sync recorded a commit.
func (s SyncState) HasCursor() bool {
	return s.LastCommitSHA != ""
}
