// Package render builds Markdown documents from repository issues.
//
// Rendering is pure: the same issue always produces the same bytes,
// which keeps the content hash stable across runs so unchanged issues
// diff as matches.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

const timestampLayout = "2006-01-02 15:04"

// Issue renders a repository issue to Markdown.
func Issue(issue domain.Issue, owner, repo string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Issue #%d: %s\n\n", issue.Number, issue.Title))

	sb.WriteString(fmt.Sprintf("**Repository:** %s/%s | **Author:** @%s | **State:** %s",
		owner, repo, issue.Author, issue.State))
	if issue.Assignee != "" {
		sb.WriteString(fmt.Sprintf(" | **Assignee:** @%s", issue.Assignee))
	}
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("*Created: %s | Updated: %s*\n\n",
		issue.CreatedAt.UTC().Format(timestampLayout),
		issue.UpdatedAt.UTC().Format(timestampLayout)))

	sb.WriteString("## Description\n\n")
	if issue.Body != "" {
		sb.WriteString(issue.Body)
	} else {
		sb.WriteString("*No description provided.*")
	}
	sb.WriteString("\n\n")

	if len(issue.Comments) > 0 {
		sb.WriteString("## Comments\n\n")
		for _, comment := range issue.Comments {
			sb.WriteString(fmt.Sprintf("### @%s (%s)\n\n%s\n\n",
				comment.Author,
				comment.CreatedAt.UTC().Format(timestampLayout),
				comment.Body))
		}
	}

	return sb.String()
}

// IssueItem renders an issue and wraps it as an ingestible item. The
// URI is /{owner}/{repo}/issues/{number}, stable across runs.
func IssueItem(issue domain.Issue, owner, repo string) domain.Item {
	content := []byte(Issue(issue, owner, repo))
	updated := issue.UpdatedAt

	return domain.Item{
		URI:         fmt.Sprintf("/%s/%s/issues/%d", owner, repo, issue.Number),
		Kind:        domain.ItemKindIssue,
		Content:     content,
		ContentHash: domain.HashIssue(content),
		MIMEType:    domain.MIMETypeMarkdown,
		Metadata: map[string]string{
			"title":        issue.Title,
			"state":        issue.State,
			"assignee":     issue.Assignee,
			"date":         issue.CreatedAt.UTC().Format(time.RFC3339),
			"comments":     strconv.Itoa(len(issue.Comments)),
			"content-type": domain.MIMETypeMarkdown,
		},
		LastModified: &updated,
	}
}
