// =============================================================================
// XLSX Report Engine - Aggregators
// =============================================================================
//
// Each aggregator consumes one typed input sheet:
//
//   | File prefix              | Aggregator               | Output                 |
//   |--------------------------|--------------------------|------------------------|
//   | danhsachhoadon_          | invoice                  | totals / single report |
//   | soquy_                   | cashbook                 | detail rows + totals   |
//   | danhsachsanpham_         | product inventory        | grouped products       |
//   | danhsachchitietdathang_  | purchase order           | supplier order book    |
//
// Aggregators never abort a batch. Schema problems come back as diagnostics
// (lenient paths) or as errors for the single file (strict paths).
//
// =============================================================================

package aggregate

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/resolver"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/internal/validation"
	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
)

// Invoice header labels.
const (
	LabelCustomer   = "Khách hàng"
	LabelAmountDue  = "Khách cần trả"
	LabelAmountPaid = "Khách đã trả"
)

// InvoiceColumns is the logical schema of an invoice list.
var InvoiceColumns = []resolver.Column{
	resolver.Required(LabelCustomer),
	resolver.Required(LabelAmountDue),
	resolver.Required(LabelAmountPaid),
}

// =============================================================================
// INVOICE LINES
// =============================================================================

// InvoiceLine is one validated invoice row of the single-file report.
type InvoiceLine struct {
	Row        int
	Customer   xlsxparser.Cell
	AmountDue  decimal.Decimal
	AmountPaid decimal.Decimal
}

// Cash is the amount collected in cash; only a positive payment counts.
func (l InvoiceLine) Cash() decimal.Decimal {
	if l.AmountPaid.IsPositive() {
		return l.AmountPaid
	}
	return decimal.Zero
}

// Transfer is the amount paid by bank transfer. The store records a transfer
// only when no cash was taken, so a part-cash invoice reports zero here.
func (l InvoiceLine) Transfer() decimal.Decimal {
	cash := l.Cash()
	if cash.IsZero() {
		return l.AmountDue.Sub(cash)
	}
	return decimal.Zero
}

// ReadInvoices validates an invoice sheet for the single-file report.
//
// RETURNS:
//   - One line per non-empty data row.
//   - A *resolver.MissingColumnsError when a column is missing, or a
//     *validation.InvalidDataError on the first non-numeric amount.
func ReadInvoices(sheet *xlsxparser.Sheet) ([]InvoiceLine, error) {
	res := resolver.Resolve(sheet.HeaderLabels(), InvoiceColumns)
	if err := res.Err(sheet.Name); err != nil {
		return nil, err
	}
	customerIdx := res.Columns[LabelCustomer]
	dueIdx := res.Columns[LabelAmountDue]
	paidIdx := res.Columns[LabelAmountPaid]

	lines := make([]InvoiceLine, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row.IsEmpty() {
			continue
		}

		due, err := validation.Strict(row.At(dueIdx), row.Number, LabelAmountDue)
		if err != nil {
			return nil, err
		}
		paid, err := validation.Strict(row.At(paidIdx), row.Number, LabelAmountPaid)
		if err != nil {
			return nil, err
		}

		lines = append(lines, InvoiceLine{
			Row:        row.Number,
			Customer:   row.At(customerIdx),
			AmountDue:  due,
			AmountPaid: paid,
		})
	}

	return lines, nil
}

// =============================================================================
// COMBINE ACCUMULATION
// =============================================================================

// AccumulateInvoices adds the invoice amounts of sheet to totals. Non-numeric
// amounts count as zero. A missing column leaves totals untouched and is
// reported as a diagnostic.
func AccumulateInvoices(sheet *xlsxparser.Sheet, totals *types.RunningTotals, logger *slog.Logger) []types.Diagnostic {
	logger = logging.OrNop(logger)

	res := resolver.Resolve(sheet.HeaderLabels(), InvoiceColumns)
	if !res.OK() {
		err := res.Err(sheet.Name)
		logger.Warn("invoice sheet skipped", "sheet", sheet.Name, "error", err)
		return []types.Diagnostic{{Source: string(types.KindInvoice), Message: err.Error()}}
	}
	dueIdx := res.Columns[LabelAmountDue]
	paidIdx := res.Columns[LabelAmountPaid]

	rows := 0
	for _, row := range sheet.Rows {
		totals.AddInvoice(validation.Lenient(row.At(dueIdx)), validation.Lenient(row.At(paidIdx)))
		rows++
	}

	logger.Info("invoice sheet accumulated",
		"sheet", sheet.Name,
		"rows", rows,
		"amount_due", totals.AmountDue.String(),
		"amount_paid", totals.AmountPaid.String(),
	)
	return nil
}
