// =============================================================================
// XLSX Report Engine - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reports)
//   ├── processCmd  (reports process [files...])
//   ├── combineCmd  (reports combine --invoice ... --cashbook ...)
//   ├── productsCmd (reports products FILE [--simple])
//   ├── ordersCmd   (reports orders FILE)
//   ├── payrollCmd  (reports payroll)
//   ├── guideCmd    (reports guide)
//   └── versionCmd  (reports version)
//
// The root command owns the global flags (--config, --env-file, --verbose).
// It loads the dotenv file and the configuration once, then builds the logger
// shared by the subcommands.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
	"github.com/ginjaninja78/xlsx-report-engine/internal/converter"
	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to the optional dotenv file carrying the template
// and payroll variables.
var envFile string

// verbose forces debug logging regardless of the configured level.
var verbose bool

// Loaded by the root command before any subcommand runs.
var (
	appConfig *config.MainConfig
	logger    *slog.Logger
	closeLog  = func() error { return nil }
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reports",
	Short: "XLSX Report Engine - Turn point-of-sale exports into store reports",
	Long: `XLSX Report Engine reads the spreadsheets exported by the point-of-sale
system and produces the store's daily reports.

Supported exports (recognized by name, or by header when renamed):
  danhsachhoadon_*.xlsx          invoice list      -> invoice report
  soquy_*.xlsx                   cashbook          -> combined cash report
  danhsachsanpham_*.xlsx         product list      -> stock by category
  danhsachchitietdathang_*.xlsx  purchase orders   -> orders by supplier

Example Usage:
  reports process                                  # Process the input directory
  reports process soquy_1.xlsx danhsachhoadon_1.xlsx
  reports combine --invoice a.xlsx --cashbook b.xlsx
  reports products danhsachsanpham_1.xlsx --simple`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Variables already set in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		l, closeFn, err := logging.New(level, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		appConfig, logger, closeLog = cfg, l, closeFn
		logger.Debug("configuration loaded", "path", cfgFile, "output_dir", cfg.OutputDir)
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
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
		"Path to the main configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a dotenv file; a missing file is ignored",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// newConverter builds a converter from the loaded configuration and makes
// sure the output directory exists.
func newConverter() (*converter.Converter, error) {
	if err := appConfig.EnsureDirectories(); err != nil {
		return nil, err
	}
	return converter.New(appConfig, logger), nil
}

// printResult writes the user-facing side of a result to stdout.
func printResult(cmd *cobra.Command, res converter.Result) error {
	out := cmd.OutOrStdout()
	if res.Error != nil {
		fmt.Fprintln(out, converter.UserMessage(res.Error))
		return res.Error
	}
	if res.OutputFile != "" {
		fmt.Fprintf(out, "✅ %s\n", res.OutputFile)
	}
	for _, m := range res.Messages {
		fmt.Fprintln(out, m)
	}
	for _, w := range res.Warnings() {
		fmt.Fprintf(out, "⚠️ %s\n", w)
	}
	return nil
}
