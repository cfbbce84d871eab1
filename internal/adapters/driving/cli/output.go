package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
)

// summaryOutput is the JSON shape of a run summary. Item errors
// flatten to strings so the output stays consumable by scripts.
type summaryOutput struct {
	RunID            string          `json:"run_id"`
	Source           string          `json:"source"`
	State            string          `json:"state"`
	BatchID          int64           `json:"batch_id,omitempty"`
	Enumerated       int             `json:"enumerated"`
	ToProcess        int             `json:"to_process"`
	Ingested         []string        `json:"ingested,omitempty"`
	Errors           []errorOutput   `json:"errors,omitempty"`
	Removed          int             `json:"removed,omitempty"`
	CommitsProcessed int             `json:"commits_processed,omitempty"`
	NewCommitSHA     string          `json:"new_commit_sha,omitempty"`
	Workflow         json.RawMessage `json:"workflow,omitempty"`
	UpToDate         bool            `json:"up_to_date"`
}

type errorOutput struct {
	URI   string `json:"uri"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func newSummaryOutput(s *domain.RunSummary) summaryOutput {
	out := summaryOutput{
		RunID:            s.RunID,
		Source:           s.Source,
		State:            string(s.State),
		BatchID:          s.BatchID,
		Enumerated:       s.Enumerated,
		ToProcess:        s.ToProcess,
		Ingested:         s.Ingested,
		Removed:          s.Removed,
		CommitsProcessed: s.CommitsProcessed,
		NewCommitSHA:     s.NewCommitSHA,
		UpToDate:         s.UpToDate,
	}
	for _, e := range s.Errors {
		out.Errors = append(out.Errors, errorOutput{URI: e.URI, Stage: e.Stage, Error: e.Err.Error()})
	}
	// The workflow payload passes through only when it is valid JSON.
	if json.Valid(s.Workflow) {
		out.Workflow = json.RawMessage(s.Workflow)
	}
	return out
}

// outputSummary prints a run summary as text or JSON.
func outputSummary(cmd *cobra.Command, s *domain.RunSummary, asJSON bool) error {
	if asJSON {
		return outputJSON(cmd, newSummaryOutput(s))
	}
	printSummary(cmd, s)
	return nil
}

// printSummary renders the human-readable run report.
func printSummary(cmd *cobra.Command, s *domain.RunSummary) {
	cmd.Printf("Run %s: %s\n", s.RunID, s.State)
	cmd.Printf("  Source:     %s\n", s.Source)
	cmd.Printf("  Enumerated: %d\n", s.Enumerated)
	cmd.Printf("  To process: %d\n", s.ToProcess)
	cmd.Printf("  Ingested:   %d\n", len(s.Ingested))
	if s.BatchID != 0 {
		cmd.Printf("  Batch:      %d\n", s.BatchID)
	}
	if s.CommitsProcessed > 0 {
		cmd.Printf("  Commits:    %d\n", s.CommitsProcessed)
	}
	if s.Removed > 0 {
		cmd.Printf("  Removed upstream: %d (not deleted from the backend)\n", s.Removed)
	}
	if s.NewCommitSHA != "" {
		cmd.Printf("  Cursor:     %s\n", s.NewCommitSHA)
	}
	if len(s.Errors) > 0 {
		cmd.Printf("\nErrors (%d):\n", len(s.Errors))
		for _, e := range s.Errors {
			cmd.Printf("  %s (%s): %v\n", e.URI, e.Stage, e.Err)
		}
	}
	if len(s.Workflow) > 0 {
		cmd.Println("\nWorkflow response:")
		cmd.Printf("  %s\n", string(s.Workflow))
	}
	if s.UpToDate {
		cmd.Println("Source is up to date.")
	}
}

// printValidations renders the manifest validation report: totals
// first, then one line per invalid record. Reporting only; callers
// decide whether invalid records are fatal.
func printValidations(cmd *cobra.Command, path string, checks []inventory.Validation) {
	invalid := make([]inventory.Validation, 0)
	for _, v := range checks {
		if !v.Valid {
			invalid = append(invalid, v)
		}
	}
	cmd.Printf("Validation for %s\n", path)
	cmd.Printf("Total files: %d\n", len(checks))
	if len(invalid) == 0 {
		cmd.Println("All records are valid.")
		return
	}
	cmd.Printf("Found %d invalid files:\n", len(invalid))
	for _, v := range invalid {
		cmd.Printf("  %s: %s (%s)\n", v.Path, v.Reason, v.ContentType)
	}
}

// printStatuses renders the check-status report. Pending files are the
// ones the backend diff marked for upload.
func printStatuses(cmd *cobra.Command, statuses map[string]domain.DiffStatus, detail bool) {
	pending := make([]string, 0)
	for uri, status := range statuses {
		if status.Processable() {
			pending = append(pending, uri)
		}
	}
	sort.Strings(pending)
	cmd.Printf("Files to process: %d\n", len(pending))
	cmd.Printf("Total files: %d\n", len(statuses))
	if detail {
		for _, uri := range pending {
			cmd.Printf("  %s: %s\n", uri, statuses[uri])
		}
	}
}

// issueOutput is the JSON shape of a repository issue.
type issueOutput struct {
	Number    int             `json:"number"`
	Title     string          `json:"title"`
	State     string          `json:"state"`
	Author    string          `json:"author"`
	Assignee  string          `json:"assignee,omitempty"`
	Body      string          `json:"body,omitempty"`
	URL       string          `json:"url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Comments  []commentOutput `json:"comments,omitempty"`
}

type commentOutput struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func newIssueOutputs(issues []domain.Issue) []issueOutput {
	out := make([]issueOutput, 0, len(issues))
	for i := range issues {
		issue := issueOutput{
			Number:    issues[i].Number,
			Title:     issues[i].Title,
			State:     issues[i].State,
			Author:    issues[i].Author,
			Assignee:  issues[i].Assignee,
			Body:      issues[i].Body,
			URL:       issues[i].URL,
			CreatedAt: issues[i].CreatedAt,
			UpdatedAt: issues[i].UpdatedAt,
		}
		for _, c := range issues[i].Comments {
			issue.Comments = append(issue.Comments, commentOutput{
				Author:    c.Author,
				Body:      c.Body,
				CreatedAt: c.CreatedAt,
			})
		}
		out = append(out, issue)
	}
	return out
}

// repoOutput is the JSON shape of repository metadata.
type repoOutput struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Description   string `json:"description,omitempty"`
	Private       bool   `json:"private"`
}

// syncStateOutput is the JSON shape of a stored sync cursor.
type syncStateOutput struct {
	Source        string     `json:"source"`
	Branch        string     `json:"branch"`
	LastCommitSHA string     `json:"last_commit_sha"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
}

// outputJSON prints any presentation value with stable indentation.
func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
