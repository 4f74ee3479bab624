// =============================================================================
// XLSX Report Engine - Workbook Parser
// =============================================================================
//
// This module loads the active sheet of an uploaded workbook into a typed cell
// grid. Row 1 is the header row (the HeaderIndex); every following row is a
// data row. The aggregators never touch excelize directly when reading input;
// they only see Sheet, Row and Cell.
//
// CELL TYPING:
//   Aggregation rules depend on whether a value is a real number or merely
//   text that looks like one (strict invoice validation rejects the latter).
//   Each non-empty cell is therefore classified with excelize.GetCellType:
//
//   | excelize cell type           | Kind       |
//   |------------------------------|------------|
//   | shared / inline string, str  | CellText   |
//   | boolean                      | CellBool   |
//   | number, unset, date          | CellNumber | (only when the raw value parses)
//
// CSV INPUT:
//   Files ending in ".csv" are read through the csvparser package and typed
//   by content, since CSV carries no cell types.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
	"github.com/ginjaninja78/xlsx-report-engine/internal/csvparser"
)

// =============================================================================
// CELL
// =============================================================================

// CellKind is the semantic type of a cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellBool
)

// Cell is one input value. The zero Cell is an empty (null) cell.
type Cell struct {
	// Raw is the unformatted cell value as stored in the workbook.
	Raw string

	// Kind classifies Raw.
	Kind CellKind
}

// TextCell builds a text cell; useful for fixtures.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Raw: s, Kind: CellText}
}

// NumberCell builds a numeric cell from a float.
func NumberCell(v float64) Cell {
	return Cell{Raw: strconv.FormatFloat(v, 'f', -1, 64), Kind: CellNumber}
}

// IsEmpty reports a null cell.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// IsBlank reports a null cell or one holding only whitespace.
func (c Cell) IsBlank() bool {
	return c.Kind == CellEmpty || strings.TrimSpace(c.Raw) == ""
}

// Text returns the trimmed raw value.
func (c Cell) Text() string {
	return strings.TrimSpace(c.Raw)
}

// Number returns the value of a numeric cell. Text cells are not numbers even
// when their content parses; use validation.Lenient for that.
func (c Cell) Number() (decimal.Decimal, bool) {
	if c.Kind != CellNumber {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.Raw))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Value converts the cell to the Go value written back into an output sheet:
// nil, float64, bool or string.
func (c Cell) Value() interface{} {
	switch c.Kind {
	case CellEmpty:
		return nil
	case CellNumber:
		if d, ok := c.Number(); ok {
			return d.InexactFloat64()
		}
		return c.Raw
	case CellBool:
		return c.Raw == "1" || strings.EqualFold(c.Raw, "true")
	default:
		return c.Raw
	}
}

// =============================================================================
// SHEET
// =============================================================================

// Row is one data row with its 1-based sheet row number.
type Row struct {
	Number int
	Cells  []Cell
}

// At returns the cell at a zero-based column index, or an empty cell when the
// row is shorter.
func (r Row) At(index int) Cell {
	if index < 0 || index >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[index]
}

// IsEmpty reports a row whose cells are all blank.
func (r Row) IsEmpty() bool {
	return isRowEmpty(r.Cells)
}

// Sheet is the typed grid of one worksheet.
type Sheet struct {
	// Name is the worksheet name.
	Name string

	// Source is the path the sheet was read from, if any.
	Source string

	// Header is row 1; labels may be empty and are not unique.
	Header []Cell

	// Rows holds rows 2..n.
	Rows []Row
}

// HeaderLabels returns the header as strings; empty cells become "".
func (s *Sheet) HeaderLabels() []string {
	labels := make([]string, len(s.Header))
	for i, c := range s.Header {
		if !c.IsEmpty() {
			labels[i] = c.Raw
		}
	}
	return labels
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Open reads the active sheet of an .xlsx file, or a .csv export.
//
// PARAMETERS:
//   - path: The path to the uploaded file.
//   - csvSettings: Settings used only when path ends in ".csv".
//
// RETURNS:
//   - The typed sheet.
//   - An error if the file cannot be opened or read.
func Open(path string, csvSettings config.CSVSettings) (*Sheet, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		records, err := csvparser.Read(path, csvSettings)
		if err != nil {
			return nil, err
		}
		sheet := FromRecords(filepath.Base(path), records)
		sheet.Source = path
		return sheet, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := FromFile(f, ActiveSheetName(f))
	if err != nil {
		return nil, err
	}
	sheet.Source = path
	return sheet, nil
}

// ActiveSheetName returns the name of the workbook's active sheet, falling
// back to the first sheet.
func ActiveSheetName(f *excelize.File) string {
	if name := f.GetSheetName(f.GetActiveSheetIndex()); name != "" {
		return name
	}
	return f.GetSheetName(0)
}

// FromFile reads one worksheet of an already opened workbook.
func FromFile(f *excelize.File, sheetName string) (*Sheet, error) {
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	sheet := &Sheet{Name: sheetName}
	for i, raw := range rows {
		cells := make([]Cell, len(raw))
		for j, value := range raw {
			if value == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell type %s: %w", cellName, err)
			}
			cells[j] = Cell{Raw: value, Kind: kindOf(cellType, value)}
		}

		if i == 0 {
			sheet.Header = cells
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{Number: i + 1, Cells: cells})
	}

	return sheet, nil
}

// FromRecords builds a sheet from untyped string records; numeric-looking
// values become numbers.
func FromRecords(name string, records [][]string) *Sheet {
	sheet := &Sheet{Name: name}
	for i, rec := range records {
		cells := make([]Cell, len(rec))
		for j, value := range rec {
			cells[j] = inferCell(value)
		}
		if i == 0 {
			sheet.Header = cells
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{Number: i + 1, Cells: cells})
	}
	return sheet
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func kindOf(cellType excelize.CellType, raw string) CellKind {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return CellText
	case excelize.CellTypeBool:
		return CellBool
	default:
		if _, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			return CellNumber
		}
		return CellText
	}
}

func inferCell(value string) Cell {
	if value == "" {
		return Cell{}
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
		return Cell{Raw: value, Kind: CellNumber}
	}
	return Cell{Raw: value, Kind: CellText}
}

// isRowEmpty checks if a row contains only blank cells.
func isRowEmpty(row []Cell) bool {
	for _, cell := range row {
		if !cell.IsBlank() {
			return false
		}
	}
	return true
}
