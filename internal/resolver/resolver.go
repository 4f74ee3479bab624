// =============================================================================
// XLSX Report Engine - Column Resolver
// =============================================================================
//
// This module maps logical column names ("customer", "amount_due") to column
// indices of a loosely structured header row. Exports from the point-of-sale
// system reorder columns, drop optional ones and vary case or diacritics
// between versions, so every lookup walks an explicit priority list.
//
// RESOLUTION TIERS (highest priority first):
//   1. TierExact      - label equals a variant
//   2. TierFold       - label equals a variant, ignoring case
//   3. TierContains   - label contains a variant, ignoring case
//   4. TierDiacritics - as 3, with diacritics removed from both sides
//
// Within a tier the lowest column index wins. An index claimed by an earlier
// logical name is never handed out again, so distinct names never share a
// column.
//
// =============================================================================

package resolver

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// COLUMN DEFINITIONS
// =============================================================================

// Tier identifies which matching rule resolved a column.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierFold
	TierContains
	TierDiacritics
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierFold:
		return "case-insensitive"
	case TierContains:
		return "substring"
	case TierDiacritics:
		return "diacritic-folded"
	default:
		return "none"
	}
}

// Column is one logical column with its accepted label variants.
type Column struct {
	Name     string
	Variants []string
	Optional bool
}

// Required declares a column that must resolve for the sheet to be usable.
// With no variants the logical name itself is the label.
func Required(name string, variants ...string) Column {
	if len(variants) == 0 {
		variants = []string{name}
	}
	return Column{Name: name, Variants: variants}
}

// Optional declares a column whose absence only produces a diagnostic.
func Optional(name string, variants ...string) Column {
	c := Required(name, variants...)
	c.Optional = true
	return c
}

// =============================================================================
// RESOLUTION
// =============================================================================

// ColumnMap maps logical names to zero-based column indices.
type ColumnMap map[string]int

// Index returns the column index of name.
func (m ColumnMap) Index(name string) (int, bool) {
	idx, ok := m[name]
	return idx, ok
}

// Has reports whether name resolved.
func (m ColumnMap) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Resolution is the outcome of resolving a column set against one header.
type Resolution struct {
	Columns ColumnMap

	// Tiers records the rule that resolved each column.
	Tiers map[string]Tier

	// MissingRequired and MissingOptional keep declaration order.
	MissingRequired []string
	MissingOptional []string

	header []string
}

// OK reports whether every required column resolved.
func (r *Resolution) OK() bool {
	return len(r.MissingRequired) == 0
}

// Err returns a MissingColumnsError when a required column is missing.
func (r *Resolution) Err(sheet string) error {
	if r.OK() {
		return nil
	}
	return NewMissingColumnsError(sheet, r.MissingRequired, r.header)
}

// Resolve maps each column of the set onto header.
//
// PARAMETERS:
//   - header: The header row; empty strings stand for null cells.
//   - columns: The logical columns, resolved in declaration order.
//
// RETURNS:
//   - The resolution; it never fails, missing names are reported in it.
func Resolve(header []string, columns []Column) *Resolution {
	res := &Resolution{
		Columns: make(ColumnMap, len(columns)),
		Tiers:   make(map[string]Tier, len(columns)),
		header:  header,
	}
	claimed := make(map[int]bool, len(columns))

	for _, col := range columns {
		idx, tier := find(header, col.Variants, claimed)
		if tier == TierNone {
			if col.Optional {
				res.MissingOptional = append(res.MissingOptional, col.Name)
			} else {
				res.MissingRequired = append(res.MissingRequired, col.Name)
			}
			continue
		}
		claimed[idx] = true
		res.Columns[col.Name] = idx
		res.Tiers[col.Name] = tier
	}

	return res
}

// Find resolves a single set of variants against header.
func Find(header []string, variants ...string) (int, bool) {
	idx, tier := find(header, variants, nil)
	return idx, tier != TierNone
}

func find(header []string, variants []string, claimed map[int]bool) (int, Tier) {
	matchers := []struct {
		tier  Tier
		match func(label, variant string) bool
	}{
		{TierExact, func(l, v string) bool { return l == v }},
		{TierFold, func(l, v string) bool { return strings.EqualFold(l, v) }},
		{TierContains, func(l, v string) bool {
			return strings.Contains(strings.ToLower(l), strings.ToLower(v))
		}},
		{TierDiacritics, func(l, v string) bool {
			return strings.Contains(Fold(l), Fold(v))
		}},
	}

	for _, m := range matchers {
		for idx, label := range header {
			if label == "" || claimed[idx] {
				continue
			}
			for _, variant := range variants {
				if variant != "" && m.match(label, variant) {
					return idx, m.tier
				}
			}
		}
	}
	return -1, TierNone
}

// Fold lower-cases s and strips diacritics ("Giá vốn" -> "gia von").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, s)
	result = strings.NewReplacer("đ", "d", "Đ", "d").Replace(result)
	return strings.ToLower(strings.TrimSpace(result))
}

// =============================================================================
// ERRORS
// =============================================================================

// MissingColumnsError reports required columns that could not be resolved.
type MissingColumnsError struct {
	Sheet string
	Names []string

	// Suggestions maps a missing name to the closest header label.
	Suggestions map[string]string
}

// NewMissingColumnsError builds the error and looks up the closest header
// label for each missing name.
func NewMissingColumnsError(sheet string, names []string, header []string) *MissingColumnsError {
	err := &MissingColumnsError{Sheet: sheet, Names: names, Suggestions: map[string]string{}}

	labels := make([]string, 0, len(header))
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			labels = append(labels, h)
		}
	}
	if len(labels) == 0 {
		return err
	}

	cm := closestmatch.New(labels, []int{2, 3})
	for _, name := range names {
		if match := cm.Closest(name); match != "" {
			err.Suggestions[name] = match
		}
	}
	return err
}

func (e *MissingColumnsError) Error() string {
	msg := fmt.Sprintf("missing columns: %s", strings.Join(e.Names, ", "))
	if e.Sheet != "" {
		msg = fmt.Sprintf("%s: %s", e.Sheet, msg)
	}
	if len(e.Suggestions) == 0 {
		return msg
	}

	hints := make([]string, 0, len(e.Suggestions))
	for _, name := range e.Names {
		if s, ok := e.Suggestions[name]; ok {
			hints = append(hints, fmt.Sprintf("%s ~ %q", name, s))
		}
	}
	sort.Strings(hints)
	return fmt.Sprintf("%s (closest: %s)", msg, strings.Join(hints, "; "))
}
