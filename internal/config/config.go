// =============================================================================
// XLSX Report Engine - Configuration Module
// =============================================================================
//
// This module is responsible for loading the main application configuration.
//
// CONFIGURATION FILE:
//   config.yaml: global settings for directories, logging, upload limits,
//   the combine template layout and CSV parsing.
//
// A missing configuration file is not an error: every option has a default,
// so the engine runs with an empty working directory.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxFileSizeMB is the upload limit applied when the configured
	// value is missing or above HardMaxFileSizeMB.
	DefaultMaxFileSizeMB = 50

	// HardMaxFileSizeMB is the largest accepted upload limit.
	HardMaxFileSizeMB = 100

	// DefaultMessageChunkSize is the largest text message, in characters.
	DefaultMessageChunkSize = 4000
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the process command when no files are given.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated workbooks and text reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// TempDir is the parent of per-upload temporary workspaces.
	// Default: the system temp directory.
	TempDir string `yaml:"temp_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat names the text reports (products, orders) saved next to
	// the workbooks. Workbooks keep their fixed names (KetQua_*, TongHop_*).
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {kind}      - Report kind (product, purchase_order)
	//   {original}  - Input file name without extension
	//
	// Default: "{original}_{timestamp}.txt"
	OutputNameFormat string `yaml:"output_name_format"`

	// MessageChunkSize is the maximum length of one text message.
	// Default: 4000
	MessageChunkSize int `yaml:"message_chunk_size"`

	// =========================================================================
	// UPLOAD SETTINGS
	// =========================================================================

	// MaxFileSizeMB rejects larger uploads before processing.
	// Values above 100 fall back to 50.
	// Default: 50
	MaxFileSizeMB int `yaml:"max_file_size_mb"`

	// =========================================================================
	// PRODUCT SETTINGS
	// =========================================================================

	// ExcludedCategories are dropped from the grouped product report.
	// Default: ["Nước rửa chén"]
	ExcludedCategories []string `yaml:"excluded_categories"`

	// =========================================================================
	// TEMPLATE SETTINGS
	// =========================================================================

	// TemplatePath is the combine template on disk. When empty the template is
	// read from the environment variable named by TemplateBase64Env.
	TemplatePath string `yaml:"template_path"`

	// TemplateBase64Env names the variable holding the base64 combine template.
	// Default: "EXCEL_TEMPLATE_BASE64"
	TemplateBase64Env string `yaml:"template_base64_env"`

	// PayrollBase64Env names the variable holding the base64 payroll workbook.
	// Default: "BANGLUONG"
	PayrollBase64Env string `yaml:"payroll_base64_env"`

	// Combine holds the row layout of the combine template.
	Combine CombineLayout `yaml:"combine"`

	// CSV contains settings for CSV exports uploaded instead of workbooks.
	CSV CSVSettings `yaml:"csv"`
}

// =============================================================================
// COMBINE LAYOUT STRUCTURE
// =============================================================================

// CombineLayout describes the fixed rows of the combine template.
type CombineLayout struct {
	// DetailStartRow is the first row cashbook transactions are written to.
	// Default: 11
	DetailStartRow int `yaml:"detail_start_row"`

	// CompactionEndRow bounds the blank-row scan when no anchor is found.
	// Default: 30
	CompactionEndRow int `yaml:"compaction_end_row"`

	// FallbackTotalRow is used when the "Tổng chi" label cannot be located.
	// Default: 31
	FallbackTotalRow int `yaml:"fallback_total_row"`

	// FallbackHandoverRow is used when the "Số tiền bàn giao" label cannot be
	// located.
	// Default: 33
	FallbackHandoverRow int `yaml:"fallback_handover_row"`

	// HandoverSearchWindow is how many rows below the anchor are scanned for
	// the handover label.
	// Default: 10
	HandoverSearchWindow int `yaml:"handover_search_window"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), ";" (semicolon), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the CSV file.
	// Common values: "UTF-8", "Windows-1258", "Windows-1252", "ISO-8859-1"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct. A missing file yields the defaults.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		config := Default()
		if err := validateMainConfig(config); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{original}_{timestamp}.txt"
	}
	if config.MessageChunkSize <= 0 {
		config.MessageChunkSize = DefaultMessageChunkSize
	}
	if config.MaxFileSizeMB <= 0 || config.MaxFileSizeMB > HardMaxFileSizeMB {
		config.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if config.ExcludedCategories == nil {
		config.ExcludedCategories = []string{"Nước rửa chén"}
	}
	if config.TemplateBase64Env == "" {
		config.TemplateBase64Env = "EXCEL_TEMPLATE_BASE64"
	}
	if config.PayrollBase64Env == "" {
		config.PayrollBase64Env = "BANGLUONG"
	}

	// Combine layout defaults.
	if config.Combine.DetailStartRow == 0 {
		config.Combine.DetailStartRow = 11
	}
	if config.Combine.CompactionEndRow == 0 {
		config.Combine.CompactionEndRow = 30
	}
	if config.Combine.FallbackTotalRow == 0 {
		config.Combine.FallbackTotalRow = 31
	}
	if config.Combine.FallbackHandoverRow == 0 {
		config.Combine.FallbackHandoverRow = 33
	}
	if config.Combine.HandoverSearchWindow == 0 {
		config.Combine.HandoverSearchWindow = 10
	}

	// CSV settings defaults.
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
	if config.CSV.Encoding == "" {
		config.CSV.Encoding = "UTF-8"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.LogLevel)
	}

	layout := config.Combine
	if layout.DetailStartRow < 1 {
		return fmt.Errorf("combine.detail_start_row must be positive")
	}
	if layout.CompactionEndRow < layout.DetailStartRow {
		return fmt.Errorf("combine.compaction_end_row (%d) is above detail_start_row (%d)",
			layout.CompactionEndRow, layout.DetailStartRow)
	}
	if layout.FallbackTotalRow <= layout.CompactionEndRow {
		return fmt.Errorf("combine.fallback_total_row must be below compaction_end_row")
	}
	if layout.HandoverSearchWindow < 1 {
		return fmt.Errorf("combine.handover_search_window must be positive")
	}

	return nil
}

// EnsureDirectories creates the input and output directories.
func (c *MainConfig) EnsureDirectories() error {
	for _, dir := range []string{c.InputDir, c.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// MaxFileSizeBytes is the upload limit in bytes.
func (c *MainConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
