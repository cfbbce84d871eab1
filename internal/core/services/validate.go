package services

import (
	"errors"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// ValidateRunOptions rejects option combinations before any network
// call is made.
func ValidateRunOptions(opts domain.RunOptions) error {
	if opts.StartWorkflows && opts.WorkflowDefinitionID == "" {
		return errors.New("starting workflows requires a workflow definition id")
	}
	if opts.Filter != "" && !opts.Filter.IsValid() {
		return errors.New("content filter must be all, files or issues")
	}
	if opts.Priority < 0 {
		return errors.New("priority must not be negative")
	}
	return nil
}

// effectiveFilter defaults an unset content filter to all.
func effectiveFilter(opts domain.RunOptions) domain.ContentFilter {
	if opts.Filter == "" {
		return domain.FilterAll
	}
	return opts.Filter
}

// effectiveBranch defaults an unset branch to main.
func effectiveBranch(opts domain.RunOptions) string {
	if opts.Branch == "" {
		return "main"
	}
	return opts.Branch
}
