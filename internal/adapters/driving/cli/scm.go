package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

var scmCmd = &cobra.Command{
	Use:   "scm",
	Short: "Ingest documents from GitHub and Gitea repositories",
	Long: `Enumerate, inspect and ingest repository content. Repositories are
addressed as <kind> <owner> <repo>, where kind is github or gitea.
Gitea needs scm.endpoint configured; tokens come from scm.token or the
FERRY_SCM_TOKEN environment variable.`,
}

var scmListIssuesCmd = &cobra.Command{
	Use:   "list-issues [kind] [owner] [repo]",
	Short: "List a repository's issues",
	Args:  cobra.ExactArgs(3),
	RunE:  runSCMListIssues,
}

var scmGetRepoCmd = &cobra.Command{
	Use:   "get-repo [kind] [owner] [repo]",
	Short: "Show repository metadata",
	Args:  cobra.ExactArgs(3),
	RunE:  runSCMGetRepo,
}

var scmRunInventoryCmd = &cobra.Command{
	Use:   "run-inventory [kind] [owner] [repo]",
	Short: "Ingest a repository's files and issues",
	Args:  cobra.ExactArgs(3),
	RunE:  runSCMRunInventory,
}

var scmRunIncrementalCmd = &cobra.Command{
	Use:   "run-incremental [kind] [owner] [repo]",
	Short: "Ingest the commit delta since the last sync",
	Long: `Processes only files changed since the stored sync cursor. A repository
without a cursor gets a full run and a baseline cursor afterwards.`,
	Args: cobra.ExactArgs(3),
	RunE: runSCMRunIncremental,
}

var scmSyncStateCmd = &cobra.Command{
	Use:   "sync-state [kind] [owner] [repo]",
	Short: "Show the stored sync cursor",
	Args:  cobra.ExactArgs(3),
	RunE:  runSCMSyncState,
}

var scmResetSyncCmd = &cobra.Command{
	Use:   "reset-sync [kind] [owner] [repo]",
	Short: "Clear the stored sync cursor",
	Long:  "Removes the sync cursor so the next incremental run starts from scratch.",
	Args:  cobra.ExactArgs(3),
	RunE:  runSCMResetSync,
}

// Flags for the scm commands.
var (
	scmFilter          string
	scmBranch          string
	scmUseGitCLI       bool
	scmIncludeComments bool
	scmJSON            bool
)

func init() {
	for _, cmd := range []*cobra.Command{scmRunInventoryCmd, scmRunIncrementalCmd} {
		cmd.Flags().StringVar(&scmFilter, "filter", "all", "content filter (all, files or issues)")
		cmd.Flags().StringVar(&scmBranch, "branch", "", "repository branch (default main)")
		cmd.Flags().BoolVar(&scmUseGitCLI, "use-git-cli", false, "enumerate files through a local git clone")
		cmd.Flags().BoolVar(&scmIncludeComments, "include-comments", false, "include issue comments")
		cmd.Flags().BoolVar(&scmJSON, "json", false, "output the run summary as JSON")
		addWorkflowFlags(cmd)
	}
	scmListIssuesCmd.Flags().BoolVar(&scmIncludeComments, "include-comments", false, "include issue comments")
	scmListIssuesCmd.Flags().BoolVar(&scmJSON, "json", false, "output issues as JSON")
	scmGetRepoCmd.Flags().BoolVar(&scmJSON, "json", false, "output metadata as JSON")
	scmSyncStateCmd.Flags().BoolVar(&scmJSON, "json", false, "output the sync state as JSON")

	scmCmd.AddCommand(scmListIssuesCmd)
	scmCmd.AddCommand(scmGetRepoCmd)
	scmCmd.AddCommand(scmRunInventoryCmd)
	scmCmd.AddCommand(scmRunIncrementalCmd)
	scmCmd.AddCommand(scmSyncStateCmd)
	scmCmd.AddCommand(scmResetSyncCmd)
	rootCmd.AddCommand(scmCmd)
}

// repoSource parses the kind/owner/repo argument triple.
func repoSource(args []string) (domain.Source, error) {
	kind := domain.SourceKind(args[0])
	if !kind.IsRepository() {
		return domain.Source{}, fmt.Errorf("%q is not a repository source kind (use github or gitea)", args[0])
	}
	return domain.NewRepoSource(kind, args[1], args[2]), nil
}

// scmRunOptions layers the repository flags onto the shared run
// options.
func scmRunOptions() domain.RunOptions {
	opts := runOptions()
	opts.Filter = domain.ContentFilter(scmFilter)
	opts.Branch = scmBranch
	opts.IncludeComments = scmIncludeComments
	opts.UseGitCLI = scmUseGitCLI
	return opts
}

func runSCMListIssues(cmd *cobra.Command, args []string) error {
	if providerFactory == nil {
		return errors.New("provider factory not configured")
	}
	source, err := repoSource(args)
	if err != nil {
		return err
	}
	ctx := context.Background()

	provider, err := providerFactory.Repository(source, domain.RunOptions{})
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}
	issues, err := provider.ListIssues(ctx, scmIncludeComments, nil)
	if err != nil {
		return fmt.Errorf("failed to list issues: %w", err)
	}

	if scmJSON {
		return outputJSON(cmd, newIssueOutputs(issues))
	}
	if len(issues) == 0 {
		cmd.Printf("No issues found for %s/%s.\n", source.Owner, source.Repo)
		return nil
	}
	cmd.Printf("Issues for %s/%s:\n\n", source.Owner, source.Repo)
	for i := range issues {
		cmd.Printf("  #%d %s [%s]\n", issues[i].Number, issues[i].Title, issues[i].State)
		cmd.Printf("    Author: %s\n", issues[i].Author)
		if issues[i].Assignee != "" {
			cmd.Printf("    Assignee: %s\n", issues[i].Assignee)
		}
		if len(issues[i].Comments) > 0 {
			cmd.Printf("    Comments: %d\n", len(issues[i].Comments))
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d issues\n", len(issues))
	return nil
}

func runSCMGetRepo(cmd *cobra.Command, args []string) error {
	if providerFactory == nil {
		return errors.New("provider factory not configured")
	}
	source, err := repoSource(args)
	if err != nil {
		return err
	}
	ctx := context.Background()

	provider, err := providerFactory.Repository(source, domain.RunOptions{})
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}
	repo, err := provider.Repository(ctx)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}

	if scmJSON {
		return outputJSON(cmd, repoOutput{
			Owner:         repo.Owner,
			Name:          repo.Name,
			FullName:      repo.FullName,
			DefaultBranch: repo.DefaultBranch,
			Description:   repo.Description,
			Private:       repo.Private,
		})
	}
	visibility := "public"
	if repo.Private {
		visibility = "private"
	}
	cmd.Printf("Repository: %s\n\n", repo.FullName)
	cmd.Printf("  Default branch: %s\n", repo.DefaultBranch)
	if repo.Description != "" {
		cmd.Printf("  Description:    %s\n", repo.Description)
	}
	cmd.Printf("  Visibility:     %s\n", visibility)
	return nil
}

func runSCMRunInventory(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errNoBackend
	}
	source, err := repoSource(args)
	if err != nil {
		return err
	}

	summary, err := ingestor.RunSource(context.Background(), source, scmRunOptions())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return outputSummary(cmd, summary, scmJSON)
}

func runSCMRunIncremental(cmd *cobra.Command, args []string) error {
	if commitSyncer == nil {
		return errNoBackend
	}
	source, err := repoSource(args)
	if err != nil {
		return err
	}

	summary, err := commitSyncer.RunIncremental(context.Background(), source, scmRunOptions())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return outputSummary(cmd, summary, scmJSON)
}

func runSCMSyncState(cmd *cobra.Command, args []string) error {
	if commitSyncer == nil {
		return errNoBackend
	}
	source, err := repoSource(args)
	if err != nil {
		return err
	}

	state, err := commitSyncer.State(context.Background(), source)
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}
	if state == nil || !state.HasCursor() {
		cmd.Printf("No sync state recorded for %s.\n", source.ID)
		return nil
	}

	if scmJSON {
		return outputJSON(cmd, syncStateOutput{
			Source:        state.Source,
			Branch:        state.Branch,
			LastCommitSHA: state.LastCommitSHA,
			LastSyncAt:    state.LastSyncAt,
		})
	}
	cmd.Printf("Sync state for %s:\n\n", source.ID)
	cmd.Printf("  Branch:      %s\n", state.Branch)
	cmd.Printf("  Last commit: %s\n", state.LastCommitSHA)
	if state.LastSyncAt != nil {
		cmd.Printf("  Last sync:   %s\n", state.LastSyncAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runSCMResetSync(cmd *cobra.Command, args []string) error {
	if commitSyncer == nil {
		return errNoBackend
	}
	source, err := repoSource(args)
	if err != nil {
		return err
	}

	if err := commitSyncer.Reset(context.Background(), source); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}
	cmd.Printf("Sync state reset for %s.\n", source.ID)
	return nil
}
