package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMainConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxFileSizeMB)
	assert.Equal(t, 4000, cfg.MessageChunkSize)
	assert.Equal(t, []string{"Nước rửa chén"}, cfg.ExcludedCategories)
	assert.Equal(t, "EXCEL_TEMPLATE_BASE64", cfg.TemplateBase64Env)
	assert.Equal(t, "BANGLUONG", cfg.PayrollBase64Env)
	assert.Equal(t, CombineLayout{
		DetailStartRow:       11,
		CompactionEndRow:     30,
		FallbackTotalRow:     31,
		FallbackHandoverRow:  33,
		HandoverSearchWindow: 10,
	}, cfg.Combine)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
}

func TestLoadMainConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
log_level: debug
max_file_size_mb: 20
excluded_categories: []
combine:
  detail_start_row: 12
csv:
  delimiter: ";"
  encoding: Windows-1258
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.MaxFileSizeMB)
	assert.Equal(t, int64(20*1024*1024), cfg.MaxFileSizeBytes())
	assert.Empty(t, cfg.ExcludedCategories)
	assert.Equal(t, 12, cfg.Combine.DetailStartRow)
	assert.Equal(t, 31, cfg.Combine.FallbackTotalRow)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.Equal(t, "Windows-1258", cfg.CSV.Encoding)
}

func TestMaxFileSizeAboveCapFallsBack(t *testing.T) {
	cfg := &MainConfig{MaxFileSizeMB: 500}
	applyMainConfigDefaults(cfg)
	assert.Equal(t, DefaultMaxFileSizeMB, cfg.MaxFileSizeMB)

	cfg = &MainConfig{MaxFileSizeMB: 100}
	applyMainConfigDefaults(cfg)
	assert.Equal(t, 100, cfg.MaxFileSizeMB)
}

func TestValidateMainConfigRejectsBadLayout(t *testing.T) {
	cfg := Default()
	cfg.Combine.FallbackTotalRow = cfg.Combine.CompactionEndRow
	assert.Error(t, validateMainConfig(cfg))

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, validateMainConfig(cfg))
}

func TestLoadMainConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o644))

	_, err := LoadMainConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}
