package domain

// Batch is a backend-owned grouping of items under one source.
// The backend assigns the ID and creation time; the agent only ever
// resolves (find-or-create) a batch, never duplicates one for the same
// source within a run.
type Batch struct {
	// ID is the backend-assigned numeric identifier.
	ID int64

	// Source is the source identifier the batch was created for.
	Source string

	// Name is the advisory human-readable label.
	Name string
}

// DiffStatus classifies an item relative to the backend's stored hash
// state for its source.
type DiffStatus string

// Classification returned by the status-diff call.
const (
	// StatusNew means the backend has no record of the URI.
	StatusNew DiffStatus = "new"

	// StatusMismatch means the stored hash differs from the submitted one.
	StatusMismatch DiffStatus = "mismatch"

	// StatusMatch means the stored hash equals the submitted one.
	StatusMatch DiffStatus = "match"
)

// IsValid returns true if the status is recognised.
func (s DiffStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusMismatch, StatusMatch:
		return true
	default:
		return false
	}
}

// Processable returns true when the item needs to be uploaded.
// Matched items are dropped from the upload set and otherwise untouched.
func (s DiffStatus) Processable() bool {
	return s == StatusNew || s == StatusMismatch
}

// String returns the string representation.
func (s DiffStatus) String() string {
	return string(s)
}
