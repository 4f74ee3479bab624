// =============================================================================
// XLSX Report Engine - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the engine, including:
//   - Input discovery for the process command
//   - Temporary workspaces, one per upload
//   - Output file naming
//   - The processing summary written after a batch
//
// WORKSPACE LIFECYCLE:
//   - A workspace is created before a file is processed
//   - It is removed on every exit path unless the session retains it
//   - Retained workspaces are removed when the pairing completes or on reset
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputExtensions are the spreadsheet formats picked up by discovery.
var InputExtensions = []string{".xlsx", ".xlsm", ".csv"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the engine.
type FileManager struct {
	// InputDir is scanned when no files are named on the command line.
	InputDir string

	// OutputDir receives the generated reports.
	OutputDir string

	// TempDir is the parent of every workspace.
	TempDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, tempDir string) *FileManager {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FileManager{
		InputDir:  inputDir,
		OutputDir: outputDir,
		TempDir:   tempDir,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.TempDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the spreadsheets directly inside the input
// directory, sorted by name. Office lock files ("~$report.xlsx") are skipped.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		if HasInputExtension(entry.Name()) {
			result = append(result, filepath.Join(fm.InputDir, entry.Name()))
		}
	}
	sort.Strings(result)
	return result, nil
}

// HasInputExtension reports whether name is a supported spreadsheet.
func HasInputExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// WORKSPACES
// =============================================================================

// Workspace is a private temporary directory.
type Workspace struct {
	// ID is a random UUID, also the directory name suffix.
	ID string

	// Dir is the absolute path of the directory.
	Dir string
}

// NewWorkspace creates a fresh workspace under TempDir.
//
// PARAMETERS:
//   - purpose: A short prefix for the directory name, e.g. "upload".
func (fm *FileManager) NewWorkspace(purpose string) (*Workspace, error) {
	if err := os.MkdirAll(fm.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	id := uuid.New().String()
	dir := filepath.Join(fm.TempDir, fmt.Sprintf("%s_%s", purpose, id))
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}

// Write stores r as name inside the workspace.
func (w *Workspace) Write(name string, r io.Reader) (string, error) {
	dst := w.Path(name)
	file, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return dst, file.Close()
}

// Remove deletes the workspace. Removing an already removed workspace is a
// no-op.
func (w *Workspace) Remove() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.Dir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - now as YYYYMMDD_HHMMSS
//               {date}      - now as YYYYMMDD
//               {time}      - now as HHMMSS
//               any key of params, e.g. {kind} or {original}
//   - ext: The extension forced onto the result (".txt").
//   - params: A map of placeholder values.
//   - now: The time used for the time placeholders.
//
// EXAMPLE:
//   format: "{kind}_{timestamp}"
//   params: {"kind": "product"}
//   output: "product_20251002_091500.txt"
func GenerateOutputFileName(format, ext string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.EqualFold(filepath.Ext(result), ext) {
		result += ext
	}
	return result
}

// SingleReportName is the name of the single invoice report for input.
func SingleReportName(input string) string {
	return "KetQua_" + filepath.Base(input)
}

// CombinedReportName is the name of a combined report created at now.
func CombinedReportName(now time.Time) string {
	return fmt.Sprintf("TongHop_%s.xlsx", now.Format("02012006_150405"))
}

// PayrollName is the name of the payroll workbook delivered at now.
func PayrollName(now time.Time) string {
	return fmt.Sprintf("BangLuong_%s.xlsx", now.Format("0201"))
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo describes one input that produced a result.
type ProcessedFileInfo struct {
	InputFile   string
	Kind        string
	OutputFile  string
	Warnings    []string
	ProcessTime time.Duration
}

// FailedFileInfo describes one input that failed.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	name := fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405"))
	path := filepath.Join(outputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "XLSX Report Engine run %s .. %s (%s)\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("15:04:05"),
		summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))
	fmt.Fprintf(w, "Reports written: %d, files failed: %d\n\n",
		len(summary.ProcessedFiles), len(summary.FailedFilesList))

	for _, pf := range summary.ProcessedFiles {
		output := pf.OutputFile
		if output == "" {
			output = "(text reply)"
		}
		fmt.Fprintf(w, "OK    %-15s %s -> %s [%s]\n", pf.Kind, pf.InputFile, output,
			pf.ProcessTime.Round(time.Millisecond))
		for _, warning := range pf.Warnings {
			fmt.Fprintf(w, "      ! %s\n", warning)
		}
	}
	for _, ff := range summary.FailedFilesList {
		fmt.Fprintf(w, "FAIL  %s: %s\n", ff.InputFile, ff.ErrorMessage)
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
