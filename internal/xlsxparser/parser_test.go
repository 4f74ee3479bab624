package xlsxparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
)

func newInvoiceWorkbook(t *testing.T) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	rows := [][]interface{}{
		{"Khách hàng", "Khách cần trả", "Khách đã trả"},
		{"An", 100, 50.5},
		{"Bình", "200", nil},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	return f
}

func TestFromFileTypesCells(t *testing.T) {
	f := newInvoiceWorkbook(t)

	sheet, err := FromFile(f, "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Khách hàng", "Khách cần trả", "Khách đã trả"}, sheet.HeaderLabels())
	require.Len(t, sheet.Rows, 2)

	first := sheet.Rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, CellText, first.At(0).Kind)
	due, ok := first.At(1).Number()
	require.True(t, ok)
	assert.Equal(t, "100", due.String())
	assert.Equal(t, 50.5, first.At(2).Value())

	second := sheet.Rows[1]
	assert.Equal(t, CellText, second.At(1).Kind, "numeric-looking text stays text")
	_, ok = second.At(1).Number()
	assert.False(t, ok)
	assert.True(t, second.At(2).IsEmpty())
	assert.True(t, second.At(9).IsEmpty(), "out of range reads as empty")
}

func TestOpenXLSXUsesActiveSheet(t *testing.T) {
	f := newInvoiceWorkbook(t)
	idx, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Other", "A1", "Tên hàng"))
	f.SetActiveSheet(idx)

	path := filepath.Join(t.TempDir(), "DanhSachSanPham.xlsx")
	require.NoError(t, f.SaveAs(path))

	sheet, err := Open(path, config.CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, "Other", sheet.Name)
	assert.Equal(t, []string{"Tên hàng"}, sheet.HeaderLabels())
	assert.Empty(t, sheet.Rows)
	assert.Equal(t, path, sheet.Source)
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SoQuy.csv")
	require.NoError(t, os.WriteFile(path, []byte("Mã phiếu,Giá trị\nP1,-300\n,\n"), 0o644))

	sheet, err := Open(path, config.CSVSettings{})
	require.NoError(t, err)

	require.Len(t, sheet.Rows, 2)
	amount, ok := sheet.Rows[0].At(1).Number()
	require.True(t, ok)
	assert.Equal(t, "-300", amount.String())
	assert.True(t, sheet.Rows[1].IsEmpty())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"), config.CSVSettings{})
	assert.ErrorContains(t, err, "failed to open workbook")
}
