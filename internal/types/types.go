// =============================================================================
// XLSX Report Engine - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the aggregators, the report
// writer and the session layer. Keeping them here avoids import cycles between:
//   - aggregate
//   - report
//   - converter
//   - session
//
// =============================================================================

package types

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FILE KINDS
// =============================================================================

// FileKind identifies which aggregator an uploaded sheet is routed to.
type FileKind string

const (
	KindUnknown       FileKind = "unknown"
	KindInvoice       FileKind = "invoice"
	KindCashbook      FileKind = "cashbook"
	KindProduct       FileKind = "product"
	KindPurchaseOrder FileKind = "purchase_order"
)

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Diagnostic is a non-fatal, human-readable warning emitted next to a primary
// result, e.g. "cashbook file is missing columns: Ghi chú".
type Diagnostic struct {
	// Source names the producer (file kind or writer stage).
	Source string

	// Message is the text surfaced to the user.
	Message string

	// Degraded is set when the producer fell back to a hardcoded layout
	// position instead of a located anchor.
	Degraded bool
}

func (d Diagnostic) String() string {
	if d.Degraded {
		return fmt.Sprintf("[degraded] %s", d.Message)
	}
	return d.Message
}

// Messages flattens diagnostics into their display strings.
func Messages(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.String())
	}
	return out
}

// =============================================================================
// RUNNING TOTALS
// =============================================================================

// RunningTotals is the accumulator shared by every aggregator invoked during
// one combine operation. Fields only ever grow through the Add methods.
type RunningTotals struct {
	AmountDue        decimal.Decimal
	AmountPaid       decimal.Decimal
	TransactionValue decimal.Decimal
}

// AddInvoice accumulates one invoice row.
func (t *RunningTotals) AddInvoice(due, paid decimal.Decimal) {
	t.AmountDue = t.AmountDue.Add(due)
	t.AmountPaid = t.AmountPaid.Add(paid)
}

// AddTransaction accumulates the absolute value of one cashbook amount.
func (t *RunningTotals) AddTransaction(amount decimal.Decimal) {
	t.TransactionValue = t.TransactionValue.Add(amount.Abs())
}

// Transfer is the revenue not collected in cash.
func (t *RunningTotals) Transfer() decimal.Decimal {
	return t.AmountDue.Sub(t.AmountPaid)
}

// =============================================================================
// CASHBOOK
// =============================================================================

// TransactionRow is a single cashbook record on its way from the source sheet
// to the output sheet. Values keep the source cell typing (number or text).
type TransactionRow struct {
	ID           interface{}
	Category     interface{}
	Counterparty interface{}
	Note         interface{}
	Amount       interface{}
}

// =============================================================================
// PRODUCT INVENTORY
// =============================================================================

// ProductRecord is one non-zero-stock product row.
type ProductRecord struct {
	Name string

	// Category is the raw group label. Uncategorized marks the null group.
	Category      string
	Uncategorized bool

	// Stock is signed and never zero; negative stock tracks over-sold items.
	Stock decimal.Decimal

	// StockText holds the raw stock cell when it is not a number. Only the
	// simple listing keeps such rows; Stock is zero for them.
	StockText string

	// UnitCost is nil when the cost column is absent or the cell is not numeric.
	UnitCost *decimal.Decimal

	// Valuation is UnitCost × Stock, or zero.
	Valuation decimal.Decimal
}

// StockLabel is the stock as shown in text reports.
func (p ProductRecord) StockLabel() string {
	if p.StockText != "" {
		return p.StockText
	}
	return p.Stock.String()
}

// ProductGroup holds the products of one category in display order.
type ProductGroup struct {
	Category      string
	Uncategorized bool
	Products      []ProductRecord
}

// ProductInventory is the extracted product sheet.
type ProductInventory struct {
	// All is the flat, sorted list including excluded categories.
	All []ProductRecord

	// Groups excludes the configured category exclusion set.
	Groups []ProductGroup

	// CostResolved reports whether a unit-cost column was found.
	CostResolved bool

	TotalValuation decimal.Decimal
	Diagnostics    []Diagnostic
}

// =============================================================================
// PURCHASE ORDERS
// =============================================================================

// OrderLine is the accumulated quantity and cost of one product.
type OrderLine struct {
	Product   string
	Quantity  decimal.Decimal
	TotalCost decimal.Decimal
}

// SupplierOrders is one supplier with its products in display order.
type SupplierOrders struct {
	Supplier string
	Lines    []OrderLine
}

// Total sums the cost of every line.
func (s SupplierOrders) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.TotalCost)
	}
	return total
}

// SupplierOrderBook accumulates quantity and cost per (supplier, product).
// Summation makes the final totals independent of row order.
type SupplierOrderBook struct {
	entries map[string]map[string]*OrderLine
}

// NewSupplierOrderBook returns an empty book.
func NewSupplierOrderBook() *SupplierOrderBook {
	return &SupplierOrderBook{entries: make(map[string]map[string]*OrderLine)}
}

// Add accumulates one purchase-order row.
func (b *SupplierOrderBook) Add(supplier, product string, quantity, cost decimal.Decimal) {
	products, ok := b.entries[supplier]
	if !ok {
		products = make(map[string]*OrderLine)
		b.entries[supplier] = products
	}
	line, ok := products[product]
	if !ok {
		products[product] = &OrderLine{Product: product, Quantity: quantity, TotalCost: cost}
		return
	}
	line.Quantity = line.Quantity.Add(quantity)
	line.TotalCost = line.TotalCost.Add(cost)
}

// Line returns the accumulated line for a supplier/product pair.
func (b *SupplierOrderBook) Line(supplier, product string) (OrderLine, bool) {
	line, ok := b.entries[supplier][product]
	if !ok {
		return OrderLine{}, false
	}
	return *line, true
}

// Len is the number of suppliers.
func (b *SupplierOrderBook) Len() int {
	return len(b.entries)
}

// Sorted returns suppliers, and products within each supplier, ordered by less.
func (b *SupplierOrderBook) Sorted(less func(a, b string) bool) []SupplierOrders {
	suppliers := make([]string, 0, len(b.entries))
	for s := range b.entries {
		suppliers = append(suppliers, s)
	}
	sort.SliceStable(suppliers, func(i, j int) bool { return less(suppliers[i], suppliers[j]) })

	out := make([]SupplierOrders, 0, len(suppliers))
	for _, s := range suppliers {
		lines := make([]OrderLine, 0, len(b.entries[s]))
		for _, l := range b.entries[s] {
			lines = append(lines, *l)
		}
		sort.SliceStable(lines, func(i, j int) bool { return less(lines[i].Product, lines[j].Product) })
		out = append(out, SupplierOrders{Supplier: s, Lines: lines})
	}
	return out
}
