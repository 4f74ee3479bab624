package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
	"github.com/ginjaninja78/xlsx-report-engine/internal/converter"
	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
)

func useConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	cfg := config.Default()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	cfg.TempDir = t.TempDir()

	prevCfg, prevLogger, prevSummary := appConfig, logger, noSummary
	appConfig, logger = cfg, logging.Nop()
	t.Cleanup(func() { appConfig, logger, noSummary = prevCfg, prevLogger, prevSummary })
	return cfg
}

func TestPairOrder(t *testing.T) {
	got := pairOrder([]string{
		"danhsachhoadon_1.xlsx",
		"danhsachsanpham_1.xlsx",
		"soquy_1.xlsx",
		"danhsachhoadon_2.xlsx",
		"soquy_2.xlsx",
		"soquy_3.xlsx",
	})
	assert.Equal(t, []string{
		"soquy_1.xlsx",
		"danhsachhoadon_1.xlsx",
		"soquy_2.xlsx",
		"danhsachhoadon_2.xlsx",
		"soquy_3.xlsx",
		"danhsachsanpham_1.xlsx",
	}, got)
}

func TestSaveText(t *testing.T) {
	cfg := useConfig(t)
	cfg.OutputNameFormat = "{kind}_{original}"

	path, err := saveText(types.KindProduct, "danhsachsanpham_1.xlsx", []string{"a\n", "b\n"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "product_danhsachsanpham_1.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)

	require.NoError(t, printResult(c, converter.Result{OutputFile: "out.xlsx", Messages: []string{"done"}}))
	assert.Equal(t, "✅ out.xlsx\ndone\n", buf.String())

	buf.Reset()
	err := printResult(c, converter.Result{Error: errors.New("boom")})
	require.Error(t, err)
	assert.Equal(t, "❌ Lỗi: boom\n", buf.String())
}

func TestRunProcessWritesTextReportAndSummary(t *testing.T) {
	cfg := useConfig(t)

	f := excelize.NewFile()
	for i, row := range [][]interface{}{
		{"Nhóm hàng(3 Cấp)", "Tên hàng", "Tồn kho"},
		{"Gia vị", "Muối", 3},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(cfg.InputDir, "danhsachsanpham_1.xlsx")))
	require.NoError(t, f.Close())

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	require.NoError(t, runProcess(c, nil))

	out := buf.String()
	assert.Contains(t, out, "Found 1 file(s) to process")
	assert.Contains(t, out, "- Muối: 3")
	assert.Contains(t, out, "Successful:      1")

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	var text, summary int
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "processing_summary_"):
			summary++
		case strings.HasPrefix(e.Name(), "danhsachsanpham_1_"):
			text++
		}
	}
	assert.Equal(t, 1, text)
	assert.Equal(t, 1, summary)

	// Uploads never outlive the run.
	left, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}
