package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-report-engine/internal/aggregate"
	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
)

// Template columns (1-based).
var (
	// detailColumns receive cashbook fields; D, F and H belong to the template.
	detailColumns = []int{2, 3, 5, 7, 9}

	// anchorColumns may hold the "Tổng chi" text depending on merges.
	anchorColumns = []int{3, 4, 5}

	// handoverColumns may hold the "Số tiền bàn giao" text.
	handoverColumns = []int{1, 2, 3, 4, 5}
)

// =============================================================================
// COMBINE SESSION
// =============================================================================

// CombineOptions configures a combine session.
type CombineOptions struct {
	Layout config.CombineLayout

	// Now is stamped into E1/G1/I1.
	Now time.Time

	Logger *slog.Logger
}

// CombineSession is one in-progress combined report. Invoices add to the
// running totals; cashbooks also stream rows into the detail region.
type CombineSession struct {
	f      *excelize.File
	sheet  string
	layout config.CombineLayout
	logger *slog.Logger

	totals types.RunningTotals
	cursor int
	anchor int
	diags  []types.Diagnostic
}

// NewCombineSession stamps the date into template and prepares streaming.
// The session owns template from here on.
func NewCombineSession(template *excelize.File, opts CombineOptions) (*CombineSession, error) {
	s := &CombineSession{
		f:      template,
		sheet:  xlsxparser.ActiveSheetName(template),
		layout: opts.Layout,
		logger: logging.OrNop(opts.Logger),
		cursor: opts.Layout.DetailStartRow,
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	for cell, v := range map[string]int{"E1": now.Day(), "G1": int(now.Month()), "I1": now.Year()} {
		if err := s.f.SetCellValue(s.sheet, cell, v); err != nil {
			return nil, fmt.Errorf("failed to stamp date: %w", err)
		}
	}

	anchor, err := findLabel(s.f, s.sheet, LabelTotalExpense, s.layout.DetailStartRow, 0, anchorColumns)
	if err != nil {
		return nil, err
	}
	s.anchor = anchor
	if anchor == 0 {
		s.anchor = AnchorAbsent
	}
	return s, nil
}

// File returns the underlying workbook.
func (s *CombineSession) File() *excelize.File { return s.f }

// Sheet is the name of the sheet being written.
func (s *CombineSession) Sheet() string { return s.sheet }

// Cursor is the next detail row.
func (s *CombineSession) Cursor() int { return s.cursor }

// Totals returns a copy of the running totals.
func (s *CombineSession) Totals() types.RunningTotals { return s.totals }

// Diagnostics collected so far.
func (s *CombineSession) Diagnostics() []types.Diagnostic { return s.diags }

// AddInvoice accumulates an invoice sheet.
func (s *CombineSession) AddInvoice(sheet *xlsxparser.Sheet) {
	s.diags = append(s.diags, aggregate.AccumulateInvoices(sheet, &s.totals, s.logger)...)
}

// AddCashbook accumulates a cashbook sheet and streams its rows.
func (s *CombineSession) AddCashbook(sheet *xlsxparser.Sheet) error {
	cursor, diags, err := aggregate.AccumulateCashbook(sheet, s, s.cursor, &s.totals, s.logger)
	s.diags = append(s.diags, diags...)
	if err != nil {
		return err
	}
	s.cursor = cursor
	return nil
}

// WriteDetail writes one transaction into the detail columns of row. Rows
// reaching the "Tổng chi" anchor push the footer down instead of
// overwriting it.
func (s *CombineSession) WriteDetail(row int, tx types.TransactionRow) error {
	if s.anchor > 0 && row >= s.anchor {
		if err := s.f.InsertRows(s.sheet, s.anchor, 1); err != nil {
			return fmt.Errorf("failed to insert detail row: %w", err)
		}
		s.logger.Debug("detail region extended", "row", s.anchor)
		s.anchor++
	}

	values := []interface{}{tx.ID, tx.Category, tx.Counterparty, tx.Note, tx.Amount}
	for i, col := range detailColumns {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := s.f.SetCellValue(s.sheet, cell, values[i]); err != nil {
			return fmt.Errorf("failed to write %s: %w", cell, err)
		}
	}
	return nil
}

// Finalize compacts the detail region and writes the summary cells.
func (s *CombineSession) Finalize() (Compaction, error) {
	// The anchor was located before any detail was written; searching again
	// could match a cashbook category such as "Tổng chi phí vận chuyển".
	c, err := Compact(s.f, s.sheet, s.layout, s.anchor, s.logger)
	if err != nil {
		return c, err
	}
	diags, err := WriteSummary(s.f, s.sheet, s.layout, s.totals, c, s.logger)
	s.diags = append(s.diags, diags...)
	return c, err
}

// SaveAs writes the workbook to path.
func (s *CombineSession) SaveAs(path string) error {
	if err := s.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save combined report: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (s *CombineSession) Close() error {
	return s.f.Close()
}

// =============================================================================
// COMPACTION
// =============================================================================

// Compaction is the outcome of one blank-row compaction pass.
type Compaction struct {
	Deleted int

	// AnchorBefore and AnchorAfter are the "Tổng chi" row before and after
	// deletion; both are 0 when the label was not found.
	AnchorBefore int
	AnchorAfter  int
}

// Found reports whether the anchor was located.
func (c Compaction) Found() bool { return c.AnchorBefore > 0 }

// Anchor hints for Compact.
const (
	// AnchorUnknown makes Compact search for the "Tổng chi" label.
	AnchorUnknown = 0

	// AnchorAbsent means the template is known to have no "Tổng chi" label.
	AnchorAbsent = -1
)

// Compact deletes the rows of the detail region whose detail columns are all
// blank. The region ends right above the "Tổng chi" anchor, or at
// layout.CompactionEndRow when there is no anchor. Rows are deleted
// bottom-up so pending row numbers stay valid.
//
// anchor is the known anchor row. AnchorUnknown scans for the label, which
// is only safe before detail rows are written.
func Compact(f *excelize.File, sheet string, layout config.CombineLayout, anchor int, logger *slog.Logger) (Compaction, error) {
	logger = logging.OrNop(logger)

	var c Compaction
	switch {
	case anchor == AnchorUnknown:
		found, err := findLabel(f, sheet, LabelTotalExpense, layout.DetailStartRow, 0, anchorColumns)
		if err != nil {
			return c, err
		}
		anchor = found
	case anchor < 0:
		anchor = 0
	}

	end := layout.CompactionEndRow
	if anchor > 0 {
		c.AnchorBefore = anchor
		end = anchor - 1
	}

	var blank []int
	for row := layout.DetailStartRow; row <= end; row++ {
		empty, err := rowBlank(f, sheet, row, detailColumns)
		if err != nil {
			return c, err
		}
		if empty {
			blank = append(blank, row)
		}
	}

	for i := len(blank) - 1; i >= 0; i-- {
		if err := f.RemoveRow(sheet, blank[i]); err != nil {
			return c, fmt.Errorf("failed to remove row %d: %w", blank[i], err)
		}
		c.Deleted++
	}

	if c.Found() {
		// Every deleted row lies strictly above the anchor.
		c.AnchorAfter = c.AnchorBefore - c.Deleted
	}

	logger.Info("detail region compacted",
		"deleted", c.Deleted,
		"anchor_before", c.AnchorBefore,
		"anchor_after", c.AnchorAfter,
	)
	return c, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// WriteSummary fills the summary cells:
//
//	C3 revenue, C4 cash, C5 transfer
//	I{anchor} = SUM(I{start}:I{anchor-1})*-1, merged label C{anchor}:H{anchor}
//	C7 = I{anchor}, C8 = C4-C7
//	C{handover} = C8, merged C{handover}:I{handover}
//
// Anchors that cannot be found fall back to the configured rows and are
// reported as degraded diagnostics.
func WriteSummary(f *excelize.File, sheet string, layout config.CombineLayout, totals types.RunningTotals, c Compaction, logger *slog.Logger) ([]types.Diagnostic, error) {
	logger = logging.OrNop(logger)
	var diags []types.Diagnostic

	values := map[string]float64{
		"C3": totals.AmountDue.InexactFloat64(),
		"C4": totals.AmountPaid.InexactFloat64(),
		"C5": totals.Transfer().InexactFloat64(),
	}
	for cell, v := range values {
		if err := f.SetCellFloat(sheet, cell, v, -1, 64); err != nil {
			return diags, fmt.Errorf("failed to write %s: %w", cell, err)
		}
	}

	formulas := map[string]string{}
	if c.Found() {
		total := c.AnchorAfter
		formulas[fmt.Sprintf("I%d", total)] = fmt.Sprintf("SUM(I%d:I%d)*-1", layout.DetailStartRow, total-1)
		formulas["C7"] = fmt.Sprintf("I%d", total)
	} else {
		total := layout.FallbackTotalRow
		formulas[fmt.Sprintf("I%d", total)] = fmt.Sprintf("SUM(I%d:I%d)*-1", layout.DetailStartRow, layout.CompactionEndRow)
		formulas["C7"] = fmt.Sprintf("I%d", total)
		logger.Warn("total expense label not found, using fallback row", "row", total)
		diags = append(diags, types.Diagnostic{
			Source:   "combine",
			Message:  fmt.Sprintf("'%s' label not found; total written to row %d", LabelTotalExpense, total),
			Degraded: true,
		})
	}
	formulas["C8"] = "C4-C7"

	for cell, formula := range formulas {
		if err := f.SetCellFormula(sheet, cell, formula); err != nil {
			return diags, fmt.Errorf("failed to write formula %s: %w", cell, err)
		}
	}

	if c.Found() {
		a := c.AnchorAfter
		if err := EnsureMerged(f, sheet, fmt.Sprintf("C%d", a), fmt.Sprintf("H%d", a)); err != nil {
			return diags, err
		}
	}

	handover, err := locateHandover(f, sheet, layout, c)
	if err != nil {
		return diags, err
	}
	if handover == 0 {
		handover = layout.FallbackHandoverRow
		if c.Found() {
			handover = c.AnchorAfter + 2
		}
		logger.Warn("handover label not found, using fallback row", "row", handover)
		diags = append(diags, types.Diagnostic{
			Source:   "combine",
			Message:  fmt.Sprintf("'%s' label not found; balance written to row %d", LabelHandover, handover),
			Degraded: true,
		})
	}

	if err := f.SetCellFormula(sheet, fmt.Sprintf("C%d", handover), "C8"); err != nil {
		return diags, fmt.Errorf("failed to write handover formula: %w", err)
	}
	if err := EnsureMerged(f, sheet, fmt.Sprintf("C%d", handover), fmt.Sprintf("I%d", handover)); err != nil {
		return diags, err
	}

	logger.Info("summary written", "total_row", formulas["C7"], "handover_row", handover)
	return diags, nil
}

func locateHandover(f *excelize.File, sheet string, layout config.CombineLayout, c Compaction) (int, error) {
	// Start below the detail region so cashbook text is never matched.
	start := layout.CompactionEndRow - c.Deleted + 1
	if c.Found() {
		start = c.AnchorAfter + 1
	}
	return findLabel(f, sheet, LabelHandover, start, start+layout.HandoverSearchWindow-1, handoverColumns)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// findLabel returns the first row in [from, to] with a cell in cols containing
// label, or 0. A zero to scans to the last used row.
func findLabel(f *excelize.File, sheet, label string, from, to int, cols []int) (int, error) {
	last, err := lastRow(f, sheet)
	if err != nil {
		return 0, err
	}
	if to == 0 || to > last {
		to = last
	}

	for row := from; row <= to; row++ {
		for _, col := range cols {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return 0, err
			}
			v, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return 0, fmt.Errorf("failed to read %s: %w", cell, err)
			}
			if strings.Contains(v, label) {
				return row, nil
			}
		}
	}
	return 0, nil
}

func rowBlank(f *excelize.File, sheet string, row int, cols []int) (bool, error) {
	for _, col := range cols {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return false, err
		}
		v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", cell, err)
		}
		if strings.TrimSpace(v) != "" {
			return false, nil
		}
	}
	return true, nil
}

func lastRow(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, fmt.Errorf("failed to read rows: %w", err)
	}
	return len(rows), nil
}
