package domain

// ContentFilter selects which content kinds a repository run ingests.
type ContentFilter string

// Supported content filters.
const (
	// FilterAll ingests repository files and issues.
	FilterAll ContentFilter = "all"

	// FilterFiles ingests repository files only.
	FilterFiles ContentFilter = "files"

	// FilterIssues ingests issues only.
	FilterIssues ContentFilter = "issues"
)

// IsValid reports whether the filter is a recognised value.
func (f ContentFilter) IsValid() bool {
	switch f {
	case FilterAll, FilterFiles, FilterIssues:
		return true
	}
	return false
}

// IncludesFiles reports whether repository files pass the filter.
func (f ContentFilter) IncludesFiles() bool {
	return f == FilterAll || f == FilterFiles
}

// IncludesIssues reports whether issues pass the filter.
func (f ContentFilter) IncludesIssues() bool {
	return f == FilterAll || f == FilterIssues
}

// String returns the filter as its wire value.
func (f ContentFilter) String() string {
	return string(f)
}

// RunOptions carries the per-run knobs a caller sets before starting
// an ingestion run.
type RunOptions struct {
	// Filter selects files, issues or both for repository sources.
	Filter ContentFilter

	// Branch overrides the repository branch for this run.
	Branch string

	// BatchName overrides the derived batch name.
	BatchName string

	// StartWorkflows triggers backend workflows after a clean upload.
	StartWorkflows bool

	// WorkflowDefinitionID identifies the workflow definition to
	// start. Required when StartWorkflows is set.
	WorkflowDefinitionID string

	// ParamSetID identifies an optional workflow parameter set.
	ParamSetID string

	// Priority is the workflow priority.
	Priority int

	// IncludeComments fetches issue comments when issues pass the
	// filter.
	IncludeComments bool

	// UseGitCLI routes file-tree operations through a local shallow
	// clone instead of the hosting API.
	UseGitCLI bool

	// SkipInvalid drops items failing inventory validation instead
	// of aborting the run.
	SkipInvalid bool
}

// RunState is the phase an ingestion run is in.
type RunState string

// Ingestion run states, in order of progress.
const (
	StateEnumerating        RunState = "enumerating"
	StateDiffing            RunState = "diffing"
	StateBatchResolving     RunState = "batch_resolving"
	StateUploading          RunState = "uploading"
	StateWorkflowTriggering RunState = "workflow_triggering"
	StateDone               RunState = "done"
	StateFailed             RunState = "failed"
)

// String returns the state as its wire value.
func (s RunState) String() string {
	return string(s)
}

// ItemError records a single item's failure without aborting the run.
type ItemError struct {
	// URI is the item that failed.
	URI string

	// Stage is the phase the failure happened in.
	Stage string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e ItemError) Error() string {
	return e.URI + " (" + e.Stage + "): " + e.Err.Error()
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e ItemError) Unwrap() error {
	return e.Err
}

// RunSummary is the outcome of one ingestion run.
type RunSummary struct {
	// RunID uniquely identifies the run.
	RunID string

	// Source is the source identifier the run ingested from.
	Source string

	// State is the final run state.
	State RunState

	// BatchID is the backend batch used, 0 when no batch was needed.
	BatchID int64

	// Enumerated is the number of items found at the source.
	Enumerated int

	// ToProcess is the number of items the status diff selected.
	ToProcess int

	// Ingested lists the URIs uploaded successfully.
	Ingested []string

	// Errors lists per-item failures.
	Errors []ItemError

	// Removed is the number of paths deleted upstream, reported for
	// incremental runs. The backend has no delete operation, so the
	// paths are surfaced here only.
	Removed int

	// CommitsProcessed is the number of commits folded into an
	// incremental run.
	CommitsProcessed int

	// NewCommitSHA is the cursor written after a clean incremental
	// run.
	NewCommitSHA string

	// Workflow is the backend's raw workflow-trigger response.
	Workflow []byte

	// UpToDate reports that the run found nothing to do.
	UpToDate bool
}

// Clean reports whether the run finished without item errors.
func (s *RunSummary) Clean() bool {
	return len(s.Errors) == 0
}
