// Package cli is the cobra command tree of the ferry agent. Commands
// stay thin: they parse arguments into domain values, call a driving
// port and format the result.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ferry-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ferry-cli/internal/adapters/driven/ingester"
	"github.com/custodia-labs/ferry-cli/internal/connectors"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ferry-cli/internal/core/services"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

// Services behind the commands. Execute wires the production graph on
// first run; tests install doubles and mark the graph wired.
var (
	ingestor        driving.Ingestor
	manifestRunner  driving.ManifestRunner
	commitSyncer    driving.CommitSyncer
	providerFactory driven.ProviderFactory
	configStore     driven.ConfigStore
	agentSettings   domain.Settings

	wired bool
)

// errNoBackend is returned by commands that need the ingestion backend
// when no endpoint is configured.
var errNoBackend = errors.New("backend not configured: set ingester.base_url with 'ferry config set'")

// Root flags.
var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "ferry",
	Short: "Ship documents from configured sources to an ingestion backend",
	Long: `Ferry enumerates documents from filesystem, WebDAV, GitHub and Gitea
sources, diffs them against backend state by content hash, and uploads
whatever is new or changed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if wired {
			return nil
		}
		if err := wireServices(); err != nil {
			return err
		}
		wired = true
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.ferry)")
}

// Execute runs the command tree. It is the entry point for cmd/ferry.
func Execute() error {
	return rootCmd.Execute()
}

// wireServices builds the production service graph from the config
// store. A missing backend endpoint is not an error here: the
// backend-facing services stay nil and the commands that need them
// say so.
func wireServices() error {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("failed to open config store: %w", err)
	}
	configStore = store
	agentSettings = file.LoadSettings(store)
	providerFactory = connectors.NewFactory(agentSettings)

	client, err := ingester.New(agentSettings.Ingester)
	if err != nil {
		logger.Debug("Backend client unavailable: %v", err)
		return nil
	}
	ingest := services.NewIngestService(client, providerFactory, agentSettings)
	ingestor = ingest
	manifestRunner = ingest
	commitSyncer = services.NewCommitSyncService(client, providerFactory, ingest, agentSettings)
	return nil
}

// Workflow trigger flags, shared by every run command.
var (
	startWorkflows       bool
	workflowDefinitionID string
	paramSetID           string
	workflowPriority     int
	batchName            string
)

// addWorkflowFlags registers the workflow trigger flags on a run
// command.
func addWorkflowFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&startWorkflows, "start-workflows", false, "trigger backend workflows after a clean run")
	cmd.Flags().StringVar(&workflowDefinitionID, "workflow-definition-id", "", "workflow definition to start")
	cmd.Flags().StringVar(&paramSetID, "param-set-id", "", "workflow parameter set")
	cmd.Flags().IntVar(&workflowPriority, "priority", 0, "workflow priority")
	cmd.Flags().StringVar(&batchName, "batch-name", "", "override the derived batch name")
}

// runOptions assembles the options every run command shares. Source
// specific fields are layered on by the callers.
func runOptions() domain.RunOptions {
	return domain.RunOptions{
		BatchName:            batchName,
		StartWorkflows:       startWorkflows,
		WorkflowDefinitionID: workflowDefinitionID,
		ParamSetID:           paramSetID,
		Priority:             workflowPriority,
	}
}
