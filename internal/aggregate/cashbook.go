package aggregate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/resolver"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/internal/validation"
	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
)

// Cashbook header labels.
const (
	LabelVoucherID    = "Mã phiếu"
	LabelCategory     = "Loại thu chi"
	LabelCounterparty = "Người nộp/nhận"
	LabelAmount       = "Giá trị"
	LabelNote         = "Ghi chú"
)

// CashbookColumns is the logical schema of a cashbook export.
var CashbookColumns = []resolver.Column{
	resolver.Required(LabelVoucherID),
	resolver.Required(LabelCategory),
	resolver.Required(LabelCounterparty),
	resolver.Required(LabelAmount),
	resolver.Optional(LabelNote),
}

// DetailSink receives cashbook rows at explicit output rows.
type DetailSink interface {
	WriteDetail(row int, tx types.TransactionRow) error
}

// AccumulateCashbook streams every row with a voucher id into sink starting
// at cursor, and adds |amount| of every row carrying an amount to totals,
// with or without an id.
//
// RETURNS:
//   - The cursor after the last written row.
//   - Diagnostics for missing columns.
//   - An error only when sink fails.
func AccumulateCashbook(sheet *xlsxparser.Sheet, sink DetailSink, cursor int, totals *types.RunningTotals, logger *slog.Logger) (int, []types.Diagnostic, error) {
	logger = logging.OrNop(logger)

	res := resolver.Resolve(sheet.HeaderLabels(), CashbookColumns)
	if !res.OK() {
		err := res.Err(sheet.Name)
		logger.Warn("cashbook sheet skipped", "sheet", sheet.Name, "error", err)
		return cursor, []types.Diagnostic{{Source: string(types.KindCashbook), Message: err.Error()}}, nil
	}

	var diags []types.Diagnostic
	if len(res.MissingOptional) > 0 {
		diags = append(diags, types.Diagnostic{
			Source:  string(types.KindCashbook),
			Message: fmt.Sprintf("cashbook file is missing columns: %s", strings.Join(res.MissingOptional, ", ")),
		})
	}

	idIdx := res.Columns[LabelVoucherID]
	categoryIdx := res.Columns[LabelCategory]
	counterpartyIdx := res.Columns[LabelCounterparty]
	amountIdx := res.Columns[LabelAmount]
	noteIdx, hasNote := res.Columns.Index(LabelNote)

	written, silent := 0, 0
	for _, row := range sheet.Rows {
		id := row.At(idIdx)
		amount := row.At(amountIdx)

		if !id.IsEmpty() {
			// Missing notes are written as "" so template text never leaks.
			var note interface{} = ""
			if hasNote {
				note = row.At(noteIdx).Value()
			}
			tx := types.TransactionRow{
				ID:           id.Value(),
				Category:     row.At(categoryIdx).Value(),
				Counterparty: row.At(counterpartyIdx).Value(),
				Note:         note,
				Amount:       amount.Value(),
			}
			if err := sink.WriteDetail(cursor, tx); err != nil {
				return cursor, diags, fmt.Errorf("failed to write cashbook row %d: %w", row.Number, err)
			}
			cursor++
			written++
		}

		if amount.IsEmpty() {
			if id.IsEmpty() {
				silent++
				logger.Debug("cashbook row has neither id nor amount", "sheet", sheet.Name, "row", row.Number)
			}
			continue
		}
		v, ok := validation.Parse(amount)
		if !ok {
			logger.Warn("cashbook amount is not a number", "sheet", sheet.Name, "row", row.Number, "value", amount.Raw)
			continue
		}
		totals.AddTransaction(v)
	}

	logger.Info("cashbook sheet accumulated",
		"sheet", sheet.Name,
		"written", written,
		"silent_rows", silent,
		"transaction_value", totals.TransactionValue.String(),
	)
	return cursor, diags, nil
}
