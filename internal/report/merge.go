package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// cellRange is an inclusive rectangle of 1-based coordinates.
type cellRange struct {
	startCol, startRow, endCol, endRow int
}

func parseRange(topLeft, bottomRight string) (cellRange, error) {
	c1, r1, err := excelize.CellNameToCoordinates(topLeft)
	if err != nil {
		return cellRange{}, err
	}
	c2, r2, err := excelize.CellNameToCoordinates(bottomRight)
	if err != nil {
		return cellRange{}, err
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return cellRange{c1, r1, c2, r2}, nil
}

func (a cellRange) overlaps(b cellRange) bool {
	return a.startCol <= b.endCol && b.startCol <= a.endCol &&
		a.startRow <= b.endRow && b.startRow <= a.endRow
}

// EnsureMerged makes topLeft:bottomRight a single merged region. Existing
// merges overlapping the target are removed first; a target that is not
// merged yet is the normal case, not an error.
func EnsureMerged(f *excelize.File, sheet, topLeft, bottomRight string) error {
	target, err := parseRange(topLeft, bottomRight)
	if err != nil {
		return fmt.Errorf("invalid merge range %s:%s: %w", topLeft, bottomRight, err)
	}

	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("failed to read merged cells: %w", err)
	}
	for _, m := range merged {
		existing, err := parseRange(m.GetStartAxis(), m.GetEndAxis())
		if err != nil {
			return fmt.Errorf("invalid merged region %s:%s: %w", m.GetStartAxis(), m.GetEndAxis(), err)
		}
		if !existing.overlaps(target) {
			continue
		}
		if err := f.UnmergeCell(sheet, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return fmt.Errorf("failed to unmerge %s:%s: %w", m.GetStartAxis(), m.GetEndAxis(), err)
		}
	}

	if err := f.MergeCell(sheet, topLeft, bottomRight); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", topLeft, bottomRight, err)
	}
	return nil
}
