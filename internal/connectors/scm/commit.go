package scm

import (
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// FileChanges maps one changed file of a commit onto the normalised
// change set. A rename counts as a removal of the old path plus an
// addition of the new one; unknown statuses count as modifications.
func FileChanges(path, previousPath, status string) []domain.CommitFile {
	switch status {
	case "removed", "deleted":
		return []domain.CommitFile{{Path: path, Status: domain.FileRemoved}}
	case "renamed":
		changes := make([]domain.CommitFile, 0, 2)
		if previousPath != "" {
			changes = append(changes, domain.CommitFile{Path: previousPath, Status: domain.FileRemoved})
		}
		return append(changes, domain.CommitFile{Path: path, Status: domain.FileAdded})
	case "added":
		return []domain.CommitFile{{Path: path, Status: domain.FileAdded}}
	default:
		return []domain.CommitFile{{Path: path, Status: domain.FileModified}}
	}
}

// FirstLine returns the subject line of a commit message.
func FirstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}
