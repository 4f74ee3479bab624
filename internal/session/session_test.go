package session

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
	"github.com/ginjaninja78/xlsx-report-engine/internal/converter"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/pkg/utils"
)

type fixture struct {
	store  *Store
	temp   string
	output string
}

func newFixture(t *testing.T, maxBytes int64) *fixture {
	t.Helper()
	fx := &fixture{temp: t.TempDir(), output: t.TempDir()}

	conv := converter.New(config.Default(), nil)
	conv.Now = func() time.Time { return time.Date(2025, time.October, 2, 9, 15, 7, 0, time.Local) }
	conv.Templates.LookupEnv = func(string) (string, bool) { return "", false }

	fx.store = New(conv, utils.NewFileManager("", fx.output, fx.temp), Options{MaxBytes: maxBytes})
	t.Cleanup(fx.store.Close)
	return fx
}

func (fx *fixture) workspaces(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(fx.temp)
	require.NoError(t, err)
	return len(entries)
}

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func invoiceBook(t *testing.T) []byte {
	return workbook(t,
		[]interface{}{"Khách hàng", "Khách cần trả", "Khách đã trả"},
		[]interface{}{"An", 100, 50},
		[]interface{}{"Bình", 200, 0},
	)
}

func cashbookBook(t *testing.T) []byte {
	return workbook(t,
		[]interface{}{"Mã phiếu", "Loại thu chi", "Người nộp/nhận", "Giá trị"},
		[]interface{}{"PC1", "Chi", "NCC A", -100},
	)
}

func (fx *fixture) upload(user, name string, data []byte) Outcome {
	return fx.store.Upload(user, name, int64(len(data)), bytes.NewReader(data))
}

func TestCashbookThenInvoiceCombines(t *testing.T) {
	fx := newFixture(t, 0)

	out := fx.upload("u1", "soquy_0210.xlsx", cashbookBook(t))
	require.NoError(t, out.Err)
	assert.True(t, out.Retained)
	assert.Equal(t, []string{ReplyCashbookRetained}, out.Messages)
	assert.True(t, fx.store.HasPendingCashbook("u1"))
	assert.False(t, fx.store.HasPendingCashbook("u2"))
	assert.Equal(t, 1, fx.workspaces(t))

	out = fx.upload("u1", "danhsachhoadon_0210.xlsx", invoiceBook(t))
	require.NoError(t, out.Err)
	assert.True(t, out.Combined)
	assert.Equal(t, filepath.Join(fx.output, "TongHop_02102025_091507.xlsx"), out.Document)
	assert.FileExists(t, out.Document)
	require.Len(t, out.Messages, 1)
	assert.Contains(t, out.Messages[0], "Ghi chú")

	assert.False(t, fx.store.HasPendingCashbook("u1"))
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestInvoiceAloneProducesSingleReport(t *testing.T) {
	fx := newFixture(t, 0)

	out := fx.upload("u1", "danhsachhoadon_0210.xlsx", invoiceBook(t))
	require.NoError(t, out.Err)
	assert.False(t, out.Combined)
	assert.Equal(t, filepath.Join(fx.output, "KetQua_danhsachhoadon_0210.xlsx"), out.Document)
	assert.Contains(t, out.Caption, "danhsachhoadon_0210.xlsx")
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestNewerCashbookReplacesPending(t *testing.T) {
	fx := newFixture(t, 0)

	fx.upload("u1", "soquy_a.xlsx", cashbookBook(t))
	fx.upload("u1", "soquy_b.xlsx", cashbookBook(t))
	assert.Equal(t, 1, fx.workspaces(t))

	// Another user's cashbook is kept apart.
	fx.upload("u2", "soquy_c.xlsx", cashbookBook(t))
	assert.Equal(t, 2, fx.workspaces(t))

	assert.Equal(t, ReplyReset, fx.store.Reset("u1"))
	assert.False(t, fx.store.HasPendingCashbook("u1"))
	assert.True(t, fx.store.HasPendingCashbook("u2"))
	assert.Equal(t, 1, fx.workspaces(t))
}

func TestResetKeepsUserStateReachable(t *testing.T) {
	fx := newFixture(t, 0)

	fx.upload("u1", "soquy_a.xlsx", cashbookBook(t))
	held := fx.store.user("u1")

	fx.store.Reset("u1")
	assert.Equal(t, 0, fx.workspaces(t))

	// An upload that looked up the user before the reset retains into the
	// same state the store still tracks.
	assert.Same(t, held, fx.store.user("u1"))
	fx.upload("u1", "soquy_b.xlsx", cashbookBook(t))
	assert.True(t, fx.store.HasPendingCashbook("u1"))
	assert.Equal(t, 1, fx.workspaces(t))

	fx.store.Close()
	assert.False(t, fx.store.HasPendingCashbook("u1"))
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestFlushCombinesPendingCashbook(t *testing.T) {
	fx := newFixture(t, 0)

	_, ok := fx.store.Flush("u1")
	assert.False(t, ok)

	fx.upload("u1", "soquy_a.xlsx", cashbookBook(t))
	out, ok := fx.store.Flush("u1")
	require.True(t, ok)
	require.NoError(t, out.Err)
	assert.Equal(t, types.KindCashbook, out.Kind)
	assert.FileExists(t, out.Document)
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestTextReports(t *testing.T) {
	fx := newFixture(t, 0)

	out := fx.upload("u1", "danhsachsanpham_1.xlsx", workbook(t,
		[]interface{}{"Nhóm hàng(3 Cấp)", "Tên hàng", "Tồn kho"},
		[]interface{}{"Gia vị", "Muối", 3},
	))
	require.NoError(t, out.Err)
	require.Len(t, out.Messages, 1)
	assert.Contains(t, out.Messages[0], "- Muối: 3")

	out = fx.upload("u1", "danhsachchitietdathang_1.xlsx", workbook(t,
		[]interface{}{"Tên nhà cung cấp", "Tên hàng", "Số lượng"},
		[]interface{}{"Anh Tú", "Đường", 2},
	))
	require.NoError(t, out.Err)
	assert.Contains(t, strings.Join(out.Messages, ""), "• Đường: 2")
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestUnknownAndBrokenUploads(t *testing.T) {
	fx := newFixture(t, 0)

	out := fx.upload("u1", "random.xlsx", workbook(t, []interface{}{"foo"}))
	var unknown *converter.UnrecognizedFileError
	require.True(t, errors.As(out.Err, &unknown))
	assert.Contains(t, out.Messages[0], "random.xlsx")

	out = fx.upload("u1", "danhsachhoadon_x.xlsx", []byte("not a workbook"))
	require.Error(t, out.Err)
	assert.True(t, strings.HasPrefix(out.Messages[0], "❌ Đã xảy ra lỗi khi xử lý file 'danhsachhoadon_x.xlsx'."))
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestOversizeUploadsRejected(t *testing.T) {
	fx := newFixture(t, 10)

	out := fx.store.Upload("u1", "soquy_big.xlsx", 2*1024*1024, bytes.NewReader(nil))
	require.Error(t, out.Err)
	assert.Contains(t, out.Messages[0], "quá lớn (2.0MB)")
	assert.False(t, fx.store.HasPendingCashbook("u1"))

	out = fx.store.Upload("u1", "soquy_big.xlsx", -1, bytes.NewReader(cashbookBook(t)))
	require.Error(t, out.Err)
	assert.False(t, fx.store.HasPendingCashbook("u1"))
	assert.Equal(t, 0, fx.workspaces(t))
}

func TestUploadFile(t *testing.T) {
	fx := newFixture(t, 0)
	path := filepath.Join(t.TempDir(), "soquy_disk.xlsx")
	require.NoError(t, os.WriteFile(path, cashbookBook(t), 0644))

	out := fx.store.UploadFile("cli", path)
	require.NoError(t, out.Err)
	assert.True(t, out.Retained)
	assert.FileExists(t, path)

	out = fx.store.UploadFile("cli", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, out.Err)
}
