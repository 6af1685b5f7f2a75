// =============================================================================
// SAP Partner Import - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sap-import)
//   ├── processCmd     (sap-import process)
//   ├── validateCmd    (sap-import validate)
//   ├── contractLogCmd (sap-import contract-log)
//   └── versionCmd     (sap-import version)
//
// CONFIGURATION:
//   The root command loads the main configuration (viper, SAPIMPORT_* env
//   overrides) and builds the zap logger before any subcommand runs.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are set by the root command before a subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "sap-import",
	Short: "SAP Partner Import - Turn SAP partner extracts into upsert requests",
	Long: `SAP Partner Import reads business partner extracts exported from SAP
(CSV or XLSX), groups the rows into partners according to the profile's import
settings and writes one JSON document of partner upsert requests per file.

Key Features:
  - Profile-based column mapping and transformation rules
  - Pattern-driven partner grouping (single partner or section aggregates)
  - Row validation with detailed error logs
  - Concurrent processing of input files
  - Automatic archival of processed extracts and generated documents

Example Usage:
  sap-import process                     # Process all files in the input directory
  sap-import process --config ./my.yaml  # Use a custom configuration file
  sap-import validate                    # Check files without writing anything`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		return initRuntime()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main(). SIGINT and
// SIGTERM cancel the running conversions.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initRuntime loads the main configuration and builds the logger.
func initRuntime() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	log, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	mainConfig = cfg
	logger = log
	logger.Debug("Configuration loaded", zap.String("config", cfgFile))
	return nil
}
