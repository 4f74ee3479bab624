// =============================================================================
// XLSX Report Engine - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch entry point. It feeds
// files through the same session flow as interactive uploads.
//
// COMMAND USAGE:
//   reports process [files...] [flags]
//
// FLAGS:
//   --no-summary  : Skip the processing summary file
//
// PROCESSING PIPELINE:
//   1. Take the named files, or discover spreadsheets in the input directory
//   2. Order them so each cashbook is followed by the invoice it pairs with
//   3. Upload each file to a session (combine, single report or text report)
//   4. Combine any cashbook still waiting for an invoice on its own
//   5. Save text reports and write the processing summary
//
// Files are processed one after another: pairing depends on upload order.
// A failing file never stops the batch.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-report-engine/internal/converter"
	"github.com/ginjaninja78/xlsx-report-engine/internal/session"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/pkg/utils"
)

// cliUser is the session key used for batch runs.
const cliUser = "cli"

// noSummary skips the processing summary file.
var noSummary bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process exports and write the reports",
	Long: `The process command runs every named file, or every spreadsheet in the
input directory, through the upload flow:

  - a cashbook waits for the next invoice list and both become one combined report
  - an invoice list without a cashbook becomes a single invoice report
  - product and purchase-order lists become text reports
  - a cashbook left without an invoice is combined on its own

Workbooks and text reports are written to the output directory together with
a processing summary.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&noSummary,
		"no-summary",
		false,
		"Do not write the processing summary file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, args []string) error {
	summary := utils.ProcessingSummary{StartTime: time.Now()}
	out := cmd.OutOrStdout()

	conv, err := newConverter()
	if err != nil {
		return err
	}
	files := utils.NewFileManager(appConfig.InputDir, appConfig.OutputDir, appConfig.TempDir)

	inputs := args
	if len(inputs) == 0 {
		if inputs, err = files.DiscoverInputFiles(); err != nil {
			return err
		}
	}
	if len(inputs) == 0 {
		fmt.Fprintln(out, "No spreadsheets found in the input directory.")
		return nil
	}
	inputs = pairOrder(inputs)
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputs))

	store := session.New(conv, files, session.Options{
		MaxBytes: appConfig.MaxFileSizeBytes(),
		Logger:   logger,
	})
	defer store.Close()

	record := func(input string, started time.Time, outcome session.Outcome) {
		name := filepath.Base(input)
		if outcome.Err != nil {
			fmt.Fprintf(out, "  ✗ %s: %s\n", name, strings.Join(outcome.Messages, " "))
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: outcome.Err.Error(),
			})
			return
		}

		info := utils.ProcessedFileInfo{
			InputFile:   name,
			Kind:        string(outcome.Kind),
			OutputFile:  outcome.Document,
			ProcessTime: time.Since(started),
		}
		switch {
		case outcome.Retained:
			fmt.Fprintf(out, "  … %s: waiting for an invoice list\n", name)
			return
		case outcome.Document != "":
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, outcome.Document)
			info.Warnings = outcome.Messages
		default:
			path, err := saveText(outcome.Kind, name, outcome.Messages)
			if err != nil {
				logger.Error("failed to save text report", "file", name, "error", err)
			}
			info.OutputFile = path
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, path)
			for _, m := range outcome.Messages {
				fmt.Fprintln(out, m)
			}
		}
		summary.ProcessedFiles = append(summary.ProcessedFiles, info)
	}

	for _, input := range inputs {
		started := time.Now()
		record(input, started, store.UploadFile(cliUser, input))
	}
	if outcome, ok := store.Flush(cliUser); ok {
		record("(pending cashbook)", time.Now(), outcome)
	}

	summary.EndTime = time.Now()
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Successful:      %d\n", len(summary.ProcessedFiles))
	fmt.Fprintf(out, "Errors:          %d\n", len(summary.FailedFilesList))
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !noSummary {
		path, err := utils.WriteSummaryLog(summary, appConfig.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary:         %s\n", path)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// pairOrder interleaves cashbooks and invoices so the n-th cashbook is
// consumed by the n-th invoice. Other files follow in their given order.
func pairOrder(inputs []string) []string {
	var cashbooks, invoices, rest []string
	for _, in := range inputs {
		switch converter.ClassifyName(in) {
		case types.KindCashbook:
			cashbooks = append(cashbooks, in)
		case types.KindInvoice:
			invoices = append(invoices, in)
		default:
			rest = append(rest, in)
		}
	}

	ordered := make([]string, 0, len(inputs))
	for i := 0; i < len(cashbooks) || i < len(invoices); i++ {
		if i < len(cashbooks) {
			ordered = append(ordered, cashbooks[i])
		}
		if i < len(invoices) {
			ordered = append(ordered, invoices[i])
		}
	}
	return append(ordered, rest...)
}

// saveText writes a text report to the output directory.
func saveText(kind types.FileKind, input string, messages []string) (string, error) {
	name := utils.GenerateOutputFileName(appConfig.OutputNameFormat, ".txt", map[string]string{
		"kind":     string(kind),
		"original": strings.TrimSuffix(input, filepath.Ext(input)),
	}, time.Now())
	path := filepath.Join(appConfig.OutputDir, name)

	if err := os.WriteFile(path, []byte(strings.Join(messages, "")), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
