package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ferry-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "Ingest documents from a local directory tree",
	Long: `Build, validate and ingest manifests for local directories.

A <path> argument accepts either an inventory manifest written by
build-config or a directory, which is scanned on the fly.`,
}

var fsBuildConfigCmd = &cobra.Command{
	Use:   "build-config [dir]",
	Short: "Scan a directory into an inventory manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runFSBuildConfig,
}

var fsValidateConfigCmd = &cobra.Command{
	Use:   "validate-config [path]",
	Short: "Check manifest records against the ingestion rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runFSValidateConfig,
}

var fsCheckStatusCmd = &cobra.Command{
	Use:   "check-status [path] [source]",
	Short: "Report which files the backend still wants",
	Args:  cobra.ExactArgs(2),
	RunE:  runFSCheckStatus,
}

var fsRunCmd = &cobra.Command{
	Use:   "run [path] [source]",
	Short: "Ingest a manifest or directory into the backend",
	Args:  cobra.ExactArgs(2),
	RunE:  runFSRun,
}

var fsWatchCmd = &cobra.Command{
	Use:   "watch [dir] [source]",
	Short: "Watch a directory and re-ingest on change",
	Long: `Watches the directory tree and runs an ingestion pass after each burst
of changes settles. An initial pass runs immediately.`,
	Args: cobra.ExactArgs(2),
	RunE: runFSWatch,
}

// Flags for the fs commands.
var (
	fsOutput      string
	fsDetail      bool
	fsRoot        string
	fsSkipInvalid bool
	fsJSON        bool
	fsInterval    time.Duration
)

func init() {
	fsBuildConfigCmd.Flags().StringVarP(&fsOutput, "output", "o", "", "manifest file to write (default <dir>/inventory.json)")
	fsCheckStatusCmd.Flags().BoolVar(&fsDetail, "detail", false, "list each pending file")
	fsRunCmd.Flags().StringVar(&fsRoot, "root", "", "directory manifest paths are relative to (default the manifest's directory)")
	fsRunCmd.Flags().BoolVar(&fsSkipInvalid, "skip-invalid", false, "drop records that fail validation instead of uploading them")
	fsRunCmd.Flags().BoolVar(&fsJSON, "json", false, "output the run summary as JSON")
	addWorkflowFlags(fsRunCmd)
	fsWatchCmd.Flags().DurationVar(&fsInterval, "interval", filesystem.DefaultDebounce, "debounce interval for change bursts")
	fsWatchCmd.Flags().BoolVar(&fsSkipInvalid, "skip-invalid", false, "drop records that fail validation instead of uploading them")

	fsCmd.AddCommand(fsBuildConfigCmd)
	fsCmd.AddCommand(fsValidateConfigCmd)
	fsCmd.AddCommand(fsCheckStatusCmd)
	fsCmd.AddCommand(fsRunCmd)
	fsCmd.AddCommand(fsWatchCmd)
	rootCmd.AddCommand(fsCmd)
}

// resolveLocalRecords loads manifest records from path: an existing
// file is read as a manifest, a directory is scanned with the default
// ignore list.
func resolveLocalRecords(ctx context.Context, path string) ([]inventory.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path %s does not exist", path)
	}
	if info.IsDir() {
		return inventory.Build(ctx, path, inventory.DefaultIgnore())
	}
	return inventory.Read(path)
}

func runFSBuildConfig(cmd *cobra.Command, args []string) error {
	dir := args[0]
	output := fsOutput
	if output == "" {
		output = filepath.Join(dir, "inventory.json")
	}

	records, err := inventory.Build(context.Background(), dir, inventory.DefaultIgnore())
	if err != nil {
		return fmt.Errorf("failed to build inventory: %w", err)
	}
	if err := inventory.Write(output, records); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	cmd.Printf("Created %s with %d files.\n", output, len(records))
	return nil
}

func runFSValidateConfig(cmd *cobra.Command, args []string) error {
	records, err := resolveLocalRecords(context.Background(), args[0])
	if err != nil {
		return err
	}
	printValidations(cmd, args[0], inventory.Check(records))
	return nil
}

func runFSCheckStatus(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errNoBackend
	}
	path := args[0]
	source := domain.Source{Kind: domain.SourceKindFilesystem, ID: args[1]}
	ctx := context.Background()

	records, err := resolveLocalRecords(ctx, path)
	if err != nil {
		return err
	}

	statuses, err := ingestor.CheckStatus(ctx, source, inventory.Items(records))
	if err != nil {
		return fmt.Errorf("failed to check status: %w", err)
	}

	cmd.Printf("Status for %s against %s\n", path, source.ID)
	printStatuses(cmd, statuses, fsDetail)
	return nil
}

func runFSRun(cmd *cobra.Command, args []string) error {
	if manifestRunner == nil {
		return errNoBackend
	}
	path := args[0]
	source := domain.Source{Kind: domain.SourceKindFilesystem, ID: args[1]}
	ctx := context.Background()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path %s does not exist", path)
	}

	opts := runOptions()
	opts.SkipInvalid = fsSkipInvalid

	var summary *domain.RunSummary
	if info.IsDir() {
		logger.Info("Running directory %s as %s", path, source.ID)
		summary, err = manifestRunner.RunTree(ctx, source, path, opts)
	} else {
		root := fsRoot
		if root == "" {
			root = filepath.Dir(path)
		}
		logger.Info("Running manifest %s as %s", path, source.ID)
		summary, err = manifestRunner.RunManifest(ctx, source, path, root, opts)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return outputSummary(cmd, summary, fsJSON)
}

func runFSWatch(cmd *cobra.Command, args []string) error {
	if manifestRunner == nil {
		return errNoBackend
	}
	dir := args[0]
	source := domain.Source{Kind: domain.SourceKindFilesystem, ID: args[1]}
	opts := domain.RunOptions{SkipInvalid: fsSkipInvalid}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := filesystem.NewWatcher(dir, fsInterval)
	defer watcher.Close()
	return watchTree(ctx, cmd, watcher, source, dir, opts)
}

// watchTree runs one ingestion pass, then answers every change pulse
// with another until the context ends. The watch starts before the
// first pass so changes made during it are not lost.
func watchTree(ctx context.Context, cmd *cobra.Command, watcher *filesystem.Watcher, source domain.Source, dir string, opts domain.RunOptions) error {
	pulses, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	logger.Info("Watching %s as %s", dir, source.ID)
	watchPass(ctx, cmd, source, dir, opts)
	for changes := range pulses {
		logger.Info("%d changes detected", len(changes))
		watchPass(ctx, cmd, source, dir, opts)
	}

	cmd.Println("Watch stopped.")
	return nil
}

// watchPass runs one tree ingestion and reports the outcome without
// ending the watch.
func watchPass(ctx context.Context, cmd *cobra.Command, source domain.Source, dir string, opts domain.RunOptions) {
	summary, err := manifestRunner.RunTree(ctx, source, dir, opts)
	if err != nil {
		logger.Error("Run failed: %v", err)
		return
	}
	if summary.UpToDate {
		cmd.Println("Up to date.")
		return
	}
	cmd.Printf("Ingested %d of %d files (%d errors).\n", len(summary.Ingested), summary.Enumerated, len(summary.Errors))
}
