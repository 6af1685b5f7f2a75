// =============================================================================
// SAP Partner Import - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts SAP partner
// extracts into JSON documents of upsert requests.
//
// COMMAND USAGE:
//   sap-import process [flags]
//
// FLAGS:
//   --dry-run  : Build the documents and print them without writing anything
//   --file     : Process only this file instead of scanning the input directory
//   --profile  : Use this profile instead of matching by file name
//
// PROCESSING PIPELINE:
//   1. Load the import profiles
//   2. Discover extract files in the input directory
//   3. Match each file to exactly one profile
//   4. Convert the files concurrently (bounded by max_concurrency)
//   5. Write the error log and the processing summary
//   6. Remove archives older than archive_retention
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/converter"
	"github.com/ginjaninja78/sap-partner-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun      bool
	filePath    string
	profileCode string
)

// errFilesFailed makes the command exit non-zero when any file failed.
var errFilesFailed = errors.New("one or more files failed")

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert SAP partner extracts into upsert request documents",
	Long: `The process command scans the input directory for SAP extracts (.csv, .txt,
.xlsx), matches each to its import profile and converts it into one JSON document
of business partner upsert requests.

Files are processed concurrently. A failing file does not stop the others.

On success:
  - The document is written to the output directory and copied to the output archive
  - The extract is moved to the input archive

On error:
  - The error is written to an error log in the output directory
  - The extract stays in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Print the generated documents without writing or archiving files")
	processCmd.Flags().StringVar(&filePath, "file", "",
		"Process only this file")
	processCmd.Flags().StringVar(&profileCode, "profile", "",
		"Use this import profile for every file instead of matching by name")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	files := newFileManager(mainConfig)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
	if err != nil {
		return fmt.Errorf("failed to load import profiles: %w", err)
	}
	logger.Info("Loaded import profiles", zap.Int("count", len(profiles)))

	paths, err := inputFiles(files)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Info("No extract files found", zap.String("inputDir", mainConfig.InputDir))
		return nil
	}
	logger.Info("Discovered extract files", zap.Int("count", len(paths)))

	results := convertFiles(ctx, paths, profiles, files, dryRun)

	// =========================================================================
	// REPORTING
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(results),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		summary.TotalRows += result.Stats.RowsRead
		summary.SkippedRows += result.Stats.RowsSkipped
		summary.ValidationErrors += result.Stats.ValidationErrors
		errorEntries = append(errorEntries, converter.ErrorLogEntries(result, time.Now())...)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: result.Error.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRequests += result.Stats.Requests
		summary.TotalItems += result.Stats.Items
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   name,
			OutputFile:  filepath.Base(result.OutputFile),
			ArchivePath: result.ArchivePath,
			Rows:        result.Stats.RowsRead,
			Requests:    result.Stats.Requests,
			Items:       result.Stats.Items,
			ProcessTime: result.Stats.ProcessingTime,
		})

		if dryRun {
			fmt.Fprintf(out, "  ✓ %s (%s, dry run)\n", name, result.ProfileCode)
			fmt.Fprintf(out, "%s", result.Document)
		} else {
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, filepath.Base(result.OutputFile))
		}
	}
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Failed:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Upsert requests: %d\n", summary.TotalRequests)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		writeRunLogs(files, summary, errorEntries)

		removed, err := files.CleanOldArchives(mainConfig.ArchiveRetention)
		if err != nil {
			logger.Warn("Archive cleanup failed", zap.Error(err))
		} else if removed > 0 {
			logger.Info("Removed old archives", zap.Int("count", removed))
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%w: %d of %d", errFilesFailed, summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func newFileManager(cfg *config.MainConfig) *utils.FileManager {
	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	fm.UseTimestampSubdirs = cfg.ArchiveDateSubdirs
	return fm
}

// inputFiles returns the --file argument or the discovered extracts.
func inputFiles(files *utils.FileManager) ([]string, error) {
	if filePath != "" {
		if !utils.IsSupportedExtract(filePath) {
			return nil, fmt.Errorf("%w: %s", converter.ErrUnsupportedFile, filePath)
		}
		return []string{filePath}, nil
	}

	found, err := files.DiscoverInputFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	return found, nil
}

// profileFor returns the --profile override or the single matching profile.
func profileFor(profiles map[string]*config.ImportProfile, path string) (*config.ImportProfile, error) {
	if profileCode == "" {
		return converter.SelectProfile(profiles, path)
	}
	profile, ok := profiles[profileCode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown profile %q", converter.ErrNoProfile, profileCode)
	}
	return profile, nil
}

// convertFiles runs one converter per file, at most max_concurrency at once.
// Results keep the order of paths.
func convertFiles(ctx context.Context, paths []string, profiles map[string]*config.ImportProfile,
	files *utils.FileManager, dry bool) []converter.Result {

	results := make([]converter.Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = convertFile(gctx, path, profiles, files, dry)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func convertFile(ctx context.Context, path string, profiles map[string]*config.ImportProfile,
	files *utils.FileManager, dry bool) converter.Result {

	profile, err := profileFor(profiles, path)
	if err != nil {
		logger.Error("File skipped", zap.String("file", filepath.Base(path)), zap.Error(err))
		return converter.Result{FilePath: path, Error: err}
	}

	conv, err := converter.New(path, profile, mainConfig, converter.Options{
		DryRun: dry,
		Logger: logger,
		Files:  files,
	})
	if err != nil {
		return converter.Result{FilePath: path, ProfileCode: profile.ProfileCode, Error: err}
	}
	return conv.Run(ctx)
}

func writeRunLogs(files *utils.FileManager, summary utils.ProcessingSummary, entries []utils.ErrorLogEntry) {
	if logPath, err := files.WriteErrorLog(entries); err != nil {
		logger.Error("Failed to write error log", zap.Error(err))
	} else if logPath != "" {
		logger.Info("Wrote error log", zap.String("path", logPath))
	}

	if summaryPath, err := files.WriteSummaryLog(summary); err != nil {
		logger.Error("Failed to write summary", zap.Error(err))
	} else {
		logger.Info("Wrote processing summary", zap.String("path", summaryPath))
	}
}
