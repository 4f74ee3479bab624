// =============================================================================
// XLSX Report Engine - Row Coercion
// =============================================================================
//
// This module turns raw cells into decimal amounts under one of three
// policies:
//
//   | Policy  | Missing / non-numeric value        | Used by                  |
//   |---------|------------------------------------|--------------------------|
//   | Strict  | InvalidDataError (row + column)    | single invoice report    |
//   | Lenient | zero                               | combine, product values  |
//   | Key     | row is skipped (also when <= 0)    | purchase-order quantity  |
//
// Strict accepts only real numeric cells; text that merely looks like a
// number is rejected. Lenient and Key also parse numeric text, so CSV exports
// and hand-typed values still aggregate.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// InvalidDataError reports a non-numeric value where a strict number is
// required.
type InvalidDataError struct {
	// Row is the 1-based sheet row.
	Row int

	// Column is the header label or logical name of the offending column.
	Column string

	// Value is the raw cell content.
	Value string
}

// Error implements the error interface.
func (e *InvalidDataError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid data at row %d, column '%s': value is empty", e.Row, e.Column)
	}
	return fmt.Sprintf("invalid data at row %d, column '%s': not a number (value: '%s')",
		e.Row, e.Column, e.Value)
}

// =============================================================================
// COERCION FUNCTIONS
// =============================================================================

// Strict returns the numeric value of cell or an InvalidDataError.
//
// PARAMETERS:
//   - cell: The raw cell.
//   - row: The 1-based sheet row, for the error.
//   - column: The column label, for the error.
func Strict(cell xlsxparser.Cell, row int, column string) (decimal.Decimal, error) {
	if v, ok := cell.Number(); ok {
		return v, nil
	}
	return decimal.Zero, &InvalidDataError{Row: row, Column: column, Value: cell.Raw}
}

// Lenient returns the numeric value of cell, or zero.
func Lenient(cell xlsxparser.Cell) decimal.Decimal {
	v, _ := Parse(cell)
	return v
}

// Key returns a strictly positive value; ok is false when the row must be
// skipped.
func Key(cell xlsxparser.Cell) (decimal.Decimal, bool) {
	v, ok := Parse(cell)
	if !ok || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

// Parse reads a numeric cell, or a text cell holding a plain number.
func Parse(cell xlsxparser.Cell) (decimal.Decimal, bool) {
	switch cell.Kind {
	case xlsxparser.CellNumber:
		return cell.Number()
	case xlsxparser.CellText:
		v, err := decimal.NewFromString(strings.TrimSpace(cell.Raw))
		if err != nil {
			return decimal.Zero, false
		}
		return v, true
	default:
		return decimal.Zero, false
	}
}
