package report

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Labels the combine writer locates by text.
const (
	LabelTotalExpense = "Tổng chi"
	LabelHandover     = "Số tiền bàn giao"
)

// TemplateSource records where the combine template came from.
type TemplateSource string

const (
	SourcePath    TemplateSource = "path"
	SourceEnv     TemplateSource = "env"
	SourceBuiltin TemplateSource = "builtin"
)

// TemplateLoader resolves the combine template: a file on disk first, then a
// base64 environment variable, then the built-in layout.
type TemplateLoader struct {
	Path   string
	EnvVar string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load opens a fresh copy of the template.
func (l TemplateLoader) Load() (*excelize.File, TemplateSource, error) {
	if l.Path != "" {
		f, err := excelize.OpenFile(l.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open template %s: %w", l.Path, err)
		}
		return f, SourcePath, nil
	}

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if l.EnvVar != "" {
		if encoded, ok := lookup(l.EnvVar); ok && strings.TrimSpace(encoded) != "" {
			raw, err := DecodeAsset(encoded)
			if err != nil {
				return nil, "", fmt.Errorf("template %s: %w", l.EnvVar, err)
			}
			f, err := excelize.OpenReader(bytes.NewReader(raw))
			if err != nil {
				return nil, "", fmt.Errorf("template %s is not a workbook: %w", l.EnvVar, err)
			}
			return f, SourceEnv, nil
		}
	}

	f, err := NewDefaultCombineTemplate()
	if err != nil {
		return nil, "", err
	}
	return f, SourceBuiltin, nil
}

// DecodeAsset decodes a base64 workbook, gunzipping it when compressed.
func DecodeAsset(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode base64 failed: %w", err)
	}
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip failed: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip failed: %w", err)
	}
	return raw, nil
}

// NewDefaultCombineTemplate builds the store's cash report layout:
//
//	row 1      report title, day E1, month G1, year I1
//	rows 3-8   revenue, cash, transfer, expense voucher, fund balance (col C)
//	row 10     detail header (B, C, E, G, I)
//	rows 11-30 detail region
//	row 31     "Tổng chi:" label merged C:H, value in I
//	row 33     "Số tiền bàn giao:" label in B, value merged C:I
func NewDefaultCombineTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	cells := map[string]string{
		"A1":  "BÁO CÁO THU CHI",
		"D1":  "Ngày",
		"F1":  "Tháng",
		"H1":  "Năm",
		"B3":  "Doanh thu:",
		"B4":  "Tiền mặt:",
		"B5":  "Chuyển khoản:",
		"B7":  "Phiếu chi:",
		"B8":  "Tồn quỹ:",
		"B10": "Mã phiếu",
		"C10": "Nội dung",
		"E10": "Người nộp/nhận",
		"G10": "Ghi chú",
		"I10": "Số tiền",
		"C31": LabelTotalExpense + ":",
		"B33": LabelHandover + ":",
	}
	for cell, value := range cells {
		if err := f.SetCellStr(sheet, cell, value); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for _, r := range [][2]string{{"C31", "H31"}, {"C33", "I33"}} {
		if err := f.MergeCell(sheet, r[0], r[1]); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}
