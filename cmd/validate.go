// =============================================================================
// SAP Partner Import - Validate Command
// =============================================================================
//
// The 'validate' command runs the full pipeline in dry-run mode and prints
// every validation finding. Nothing is written, moved or archived.
//
// COMMAND USAGE:
//   sap-import validate [--file F] [--profile P]
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check import profiles and extracts without writing anything",
	Long: `The validate command loads every import profile, then reads, transforms and
validates each extract in the input directory and prints the findings. Profiles
with malformed import settings fail here before any file is touched.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
		if err != nil {
			return fmt.Errorf("failed to load import profiles: %w", err)
		}
		fmt.Fprintf(out, "Loaded %d import profile(s)\n", len(profiles))

		files := newFileManager(mainConfig)
		paths, err := inputFiles(files)
		if err != nil {
			return err
		}

		failed := 0
		for _, result := range convertFiles(cmd.Context(), paths, profiles, files, true) {
			fmt.Fprintf(out, "\n%s (profile %s)\n", filepath.Base(result.FilePath), result.ProfileCode)
			fmt.Fprintf(out, "  Rows: %d, requests: %d, items: %d\n",
				result.Stats.RowsRead, result.Stats.Requests, result.Stats.Items)
			fmt.Fprintln(out, validation.FormatErrors(result.Findings))
			if result.Error != nil {
				failed++
				fmt.Fprintf(out, "  Error: %v\n", result.Error)
			}
		}

		logger.Info("Validation finished", zap.Int("files", len(paths)), zap.Int("failed", failed))
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(paths))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&filePath, "file", "", "Validate only this file")
	validateCmd.Flags().StringVar(&profileCode, "profile", "",
		"Use this import profile for every file instead of matching by name")
}
