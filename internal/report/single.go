// =============================================================================
// XLSX Report Engine - Template Report Writer
// =============================================================================
//
// This package builds the output workbooks:
//
//   1. Single invoice report (single.go): a fresh workbook, one row per
//      invoice, a SUM-formula total row, money formats and an auto-filter.
//   2. Combined report (combine.go): the store's binary template with the
//      date stamped, cashbook rows streamed from row 11, blank rows compacted
//      and the summary formulas and merges re-pointed at the moved anchors.
//   3. Text summaries (text.go) for product and purchase-order uploads.
//
// Formulas are written without the leading "=", as excelize expects.
//
// =============================================================================

package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-report-engine/internal/aggregate"
)

// InvoiceReportHeaders are the columns of the single invoice report.
var InvoiceReportHeaders = []string{"STT", "Tên Khách", "Tổng Tiền", "Tiền mặt", "Chuyển Khoản", "Ship Tuấn", "Ship"}

const (
	invoiceSheet     = "Sheet1"
	invoiceRowHeight = 30
	fontName         = "Calibri"
	fontSize         = 12

	// numFmtThousands is the built-in "#,##0" format.
	numFmtThousands = 3
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

type invoiceStyles struct {
	header      int
	dataCenter  int
	dataLeft    int
	dataMoney   int
	totalLeft   int
	totalCenter int
	totalMoney  int
}

func newInvoiceStyles(f *excelize.File) (*invoiceStyles, error) {
	build := func(bold bool, horizontal string, numFmt int) (int, error) {
		style := &excelize.Style{
			Font:   &excelize.Font{Family: fontName, Size: fontSize, Bold: bold},
			Border: thinBorder,
			NumFmt: numFmt,
		}
		if horizontal != "" {
			style.Alignment = &excelize.Alignment{Horizontal: horizontal, Vertical: "center"}
		}
		return f.NewStyle(style)
	}

	var s invoiceStyles
	var err error
	defs := []struct {
		dst        *int
		bold       bool
		horizontal string
		numFmt     int
	}{
		{&s.header, true, "center", 0},
		{&s.dataCenter, false, "center", 0},
		{&s.dataLeft, false, "", 0},
		{&s.dataMoney, false, "center", numFmtThousands},
		{&s.totalLeft, true, "", 0},
		{&s.totalCenter, true, "center", 0},
		{&s.totalMoney, true, "center", numFmtThousands},
	}
	for _, d := range defs {
		if *d.dst, err = build(d.bold, d.horizontal, d.numFmt); err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
	}
	return &s, nil
}

// BuildInvoiceReport lays out the single invoice report.
//
// Each line becomes {sequence, customer, amount due, cash, transfer, "", ""};
// the trailing row sums columns C..G with live formulas.
//
// RETURNS:
//   - The workbook; the caller saves and closes it.
func BuildInvoiceReport(lines []aggregate.InvoiceLine) (*excelize.File, error) {
	f := excelize.NewFile()
	fail := func(err error) (*excelize.File, error) {
		_ = f.Close()
		return nil, err
	}

	styles, err := newInvoiceStyles(f)
	if err != nil {
		return fail(err)
	}

	widths := make([]int, len(InvoiceReportHeaders))
	measure := func(col int, v string) {
		if n := utf8.RuneCountInString(v); n > widths[col] {
			widths[col] = n
		}
	}

	header := make([]interface{}, len(InvoiceReportHeaders))
	for i, h := range InvoiceReportHeaders {
		header[i] = h
		measure(i, h)
	}
	if err := f.SetSheetRow(invoiceSheet, "A1", &header); err != nil {
		return fail(err)
	}

	for i, line := range lines {
		row := i + 2
		values := []interface{}{
			i + 1,
			line.Customer.Value(),
			line.AmountDue.InexactFloat64(),
			line.Cash().InexactFloat64(),
			line.Transfer().InexactFloat64(),
			nil,
			nil,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(invoiceSheet, cell, &values); err != nil {
			return fail(err)
		}
		measure(0, fmt.Sprint(i+1))
		measure(1, line.Customer.Raw)
		measure(2, line.AmountDue.String())
		measure(3, line.Cash().String())
		measure(4, line.Transfer().String())
	}

	totalRow := len(lines) + 2
	if err := f.SetCellValue(invoiceSheet, fmt.Sprintf("A%d", totalRow), "Tổng"); err != nil {
		return fail(err)
	}
	for col := 3; col <= len(InvoiceReportHeaders); col++ {
		letter, _ := excelize.ColumnNumberToName(col)
		formula := fmt.Sprintf("SUM(%s2:%s%d)", letter, letter, totalRow-1)
		if err := f.SetCellFormula(invoiceSheet, fmt.Sprintf("%s%d", letter, totalRow), formula); err != nil {
			return fail(err)
		}
		measure(col-1, "="+formula)
	}

	// Styles: header, body (customer column left-aligned), total row.
	type styleStep struct {
		from, to string
		style    int
	}
	lastCol, _ := excelize.ColumnNumberToName(len(InvoiceReportHeaders))
	steps := []styleStep{{"A1", lastCol + "1", styles.header}}
	if len(lines) > 0 {
		last := totalRow - 1
		steps = append(steps,
			styleStep{"A2", fmt.Sprintf("A%d", last), styles.dataCenter},
			styleStep{"B2", fmt.Sprintf("B%d", last), styles.dataLeft},
			styleStep{"C2", fmt.Sprintf("%s%d", lastCol, last), styles.dataMoney},
		)
	}
	steps = append(steps,
		styleStep{fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), styles.totalLeft},
		styleStep{fmt.Sprintf("B%d", totalRow), fmt.Sprintf("B%d", totalRow), styles.totalCenter},
		styleStep{fmt.Sprintf("C%d", totalRow), fmt.Sprintf("%s%d", lastCol, totalRow), styles.totalMoney},
	)
	for _, step := range steps {
		if err := f.SetCellStyle(invoiceSheet, step.from, step.to, step.style); err != nil {
			return fail(fmt.Errorf("failed to style %s:%s: %w", step.from, step.to, err))
		}
	}

	for i, w := range widths {
		letter, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(invoiceSheet, letter, letter, float64(w+2)); err != nil {
			return fail(err)
		}
	}
	for row := 1; row <= totalRow; row++ {
		if err := f.SetRowHeight(invoiceSheet, row, invoiceRowHeight); err != nil {
			return fail(err)
		}
	}

	if err := f.AutoFilter(invoiceSheet, fmt.Sprintf("A1:%s%d", lastCol, totalRow), nil); err != nil {
		return fail(fmt.Errorf("failed to add auto filter: %w", err))
	}

	return f, nil
}

// WriteInvoiceReport builds the single invoice report and saves it to path.
func WriteInvoiceReport(lines []aggregate.InvoiceLine, path string) error {
	f, err := BuildInvoiceReport(lines)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save invoice report: %w", err)
	}
	return nil
}
