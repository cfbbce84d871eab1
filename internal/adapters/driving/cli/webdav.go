package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

var webdavCmd = &cobra.Command{
	Use:   "webdav",
	Short: "Ingest documents from a WebDAV share",
	Long: `Build, validate and ingest manifests for WebDAV collections.

A <path> argument accepts either a local inventory manifest or a
collection path on the share (for example /documents), which is walked
on the fly. Credentials come from the webdav.* configuration keys or
the FERRY_WEBDAV_PASSWORD environment variable.`,
}

var webdavBuildConfigCmd = &cobra.Command{
	Use:   "build-config [collection]",
	Short: "Walk a collection into an inventory manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebdavBuildConfig,
}

var webdavValidateConfigCmd = &cobra.Command{
	Use:   "validate-config [path]",
	Short: "Check manifest records against the ingestion rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebdavValidateConfig,
}

var webdavCheckStatusCmd = &cobra.Command{
	Use:   "check-status [path] [source]",
	Short: "Report which files the backend still wants",
	Args:  cobra.ExactArgs(2),
	RunE:  runWebdavCheckStatus,
}

var webdavRunCmd = &cobra.Command{
	Use:   "run [path] [source]",
	Short: "Ingest a manifest or collection into the backend",
	Args:  cobra.ExactArgs(2),
	RunE:  runWebdavRun,
}

// Flags for the webdav commands.
var (
	webdavOutput      string
	webdavDetail      bool
	webdavRoot        string
	webdavSkipInvalid bool
	webdavJSON        bool
)

func init() {
	webdavBuildConfigCmd.Flags().StringVarP(&webdavOutput, "output", "o", "inventory.json", "manifest file to write")
	webdavCheckStatusCmd.Flags().BoolVar(&webdavDetail, "detail", false, "list each pending file")
	webdavRunCmd.Flags().StringVar(&webdavRoot, "root", "", "collection path manifest records are relative to")
	webdavRunCmd.Flags().BoolVar(&webdavSkipInvalid, "skip-invalid", false, "drop records that fail validation instead of uploading them")
	webdavRunCmd.Flags().BoolVar(&webdavJSON, "json", false, "output the run summary as JSON")
	addWorkflowFlags(webdavRunCmd)

	webdavCmd.AddCommand(webdavBuildConfigCmd)
	webdavCmd.AddCommand(webdavValidateConfigCmd)
	webdavCmd.AddCommand(webdavCheckStatusCmd)
	webdavCmd.AddCommand(webdavRunCmd)
	rootCmd.AddCommand(webdavCmd)
}

// walkShare walks a collection with the configured extension allow
// list and converts the result to manifest records. Record paths come
// back relative to the collection.
func walkShare(ctx context.Context, collection string) ([]inventory.Record, error) {
	if providerFactory == nil {
		return nil, errors.New("provider factory not configured")
	}
	source := domain.Source{Kind: domain.SourceKindWebDAV, ID: "webdav-walk"}
	provider, err := providerFactory.Storage(source, collection)
	if err != nil {
		return nil, fmt.Errorf("webdav provider: %w", err)
	}
	items, err := provider.ListTree(ctx, "", agentSettings.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", collection, err)
	}
	return inventory.FromItems(items, ""), nil
}

// resolveShareRecords loads manifest records from path: an existing
// local file is read as a manifest, anything else is treated as a
// collection path and walked.
func resolveShareRecords(ctx context.Context, path string) ([]inventory.Record, error) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return inventory.Read(path)
	}
	return walkShare(ctx, path)
}

func runWebdavBuildConfig(cmd *cobra.Command, args []string) error {
	collection := args[0]

	records, err := walkShare(context.Background(), collection)
	if err != nil {
		return err
	}
	if err := inventory.Write(webdavOutput, records); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	cmd.Printf("Created %s with %d files.\n", webdavOutput, len(records))
	return nil
}

func runWebdavValidateConfig(cmd *cobra.Command, args []string) error {
	records, err := resolveShareRecords(context.Background(), args[0])
	if err != nil {
		return err
	}
	printValidations(cmd, args[0], inventory.Check(records))
	return nil
}

func runWebdavCheckStatus(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errNoBackend
	}
	path := args[0]
	source := domain.Source{Kind: domain.SourceKindWebDAV, ID: args[1]}
	ctx := context.Background()

	records, err := resolveShareRecords(ctx, path)
	if err != nil {
		return err
	}

	statuses, err := ingestor.CheckStatus(ctx, source, inventory.Items(records))
	if err != nil {
		return fmt.Errorf("failed to check status: %w", err)
	}

	cmd.Printf("Status for %s against %s\n", path, source.ID)
	printStatuses(cmd, statuses, webdavDetail)
	return nil
}

func runWebdavRun(cmd *cobra.Command, args []string) error {
	if manifestRunner == nil {
		return errNoBackend
	}
	path := args[0]
	source := domain.Source{Kind: domain.SourceKindWebDAV, ID: args[1]}
	ctx := context.Background()

	opts := runOptions()
	opts.SkipInvalid = webdavSkipInvalid

	var summary *domain.RunSummary
	var err error
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		logger.Info("Running manifest %s as %s", path, source.ID)
		summary, err = manifestRunner.RunManifest(ctx, source, path, webdavRoot, opts)
	} else {
		logger.Info("Running collection %s as %s", path, source.ID)
		summary, err = manifestRunner.RunTree(ctx, source, path, opts)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return outputSummary(cmd, summary, webdavJSON)
}
