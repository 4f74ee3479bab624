package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"soquy_1.xlsx", "danhsachhoadon_1.XLSX", "notes.txt", "~$soquy_1.xlsx", "export.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0755))

	fm := NewFileManager(dir, "", "")
	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"danhsachhoadon_1.XLSX", "export.csv", "soquy_1.xlsx"}, names)
}

func TestWorkspaceLifecycle(t *testing.T) {
	fm := NewFileManager("", "", t.TempDir())

	ws, err := fm.NewWorkspace("upload")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir), "upload_"+ws.ID))

	written, err := ws.Write("soquy_1.xlsx", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, ws.Path("soquy_1.xlsx"), written)

	escaped, err := ws.Write("../escape.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, ws.Dir, filepath.Dir(escaped))

	size, err := GetFileSize(written)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	require.NoError(t, ws.Remove())
	assert.NoDirExists(t, ws.Dir)
	require.NoError(t, ws.Remove())

	other, err := fm.NewWorkspace("upload")
	require.NoError(t, err)
	assert.NotEqual(t, ws.ID, other.ID)
	require.NoError(t, other.Remove())
}

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2025, time.October, 2, 9, 15, 0, 0, time.UTC)

	name := GenerateOutputFileName("{kind}_{timestamp}", ".txt", map[string]string{"kind": "product"}, now)
	assert.Equal(t, "product_20251002_091500.txt", name)

	name = GenerateOutputFileName("{original}_{date}.TXT", ".txt", map[string]string{"original": "soquy"}, now)
	assert.Equal(t, "soquy_20251002.TXT", name)

	name = GenerateOutputFileName("{uuid}", "", nil, now)
	assert.Len(t, name, 36)
}

func TestReportNames(t *testing.T) {
	now := time.Date(2025, time.October, 2, 9, 15, 7, 0, time.UTC)

	assert.Equal(t, "KetQua_danhsachhoadon_1.xlsx", SingleReportName("/tmp/x/danhsachhoadon_1.xlsx"))
	assert.Equal(t, "TongHop_02102025_091507.xlsx", CombinedReportName(now))
	assert.Equal(t, "BangLuong_0210.xlsx", PayrollName(now))
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, time.October, 2, 9, 0, 0, 0, time.UTC)

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		ProcessedFiles: []ProcessedFileInfo{
			{InputFile: "danhsachhoadon_1.xlsx", Kind: "invoice", OutputFile: "KetQua_danhsachhoadon_1.xlsx", Warnings: []string{"cashbook file is missing columns: Ghi chú"}},
		},
		FailedFilesList: []FailedFileInfo{{InputFile: "abc.xlsx", ErrorMessage: "unrecognized file"}},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, "processing_summary_20251002_090002.txt", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Reports written: 1, files failed: 1")
	assert.Contains(t, text, "OK    invoice         danhsachhoadon_1.xlsx -> KetQua_danhsachhoadon_1.xlsx [0s]")
	assert.Contains(t, text, "      ! cashbook file is missing columns: Ghi chú")
	assert.Contains(t, text, "FAIL  abc.xlsx: unrecognized file")
}
