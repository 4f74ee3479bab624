package aggregate

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/resolver"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/internal/validation"
	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
)

// Purchase-order detail header labels.
const (
	LabelSupplier  = "Tên nhà cung cấp"
	LabelQuantity  = "Số lượng"
	LabelUnitPrice = "Giá nhập"
)

// PurchaseOrderColumns is the logical schema of a purchase-order detail export.
var PurchaseOrderColumns = []resolver.Column{
	resolver.Required(LabelSupplier),
	resolver.Required(LabelProductName),
	resolver.Required(LabelQuantity),
	resolver.Optional(LabelUnitPrice),
}

// PurchaseOrders is the aggregated purchase-order sheet.
type PurchaseOrders struct {
	Book *types.SupplierOrderBook

	// PriceResolved reports whether a unit-price column was found.
	PriceResolved bool

	// Skipped counts rows without supplier, product or a positive quantity.
	Skipped int
}

// AggregatePurchaseOrders groups purchase-order rows by supplier and product.
// A missing required column fails the file with a descriptive error.
func AggregatePurchaseOrders(sheet *xlsxparser.Sheet, logger *slog.Logger) (*PurchaseOrders, error) {
	logger = logging.OrNop(logger)

	header := sheet.HeaderLabels()
	res := resolver.Resolve(header, PurchaseOrderColumns)
	for name, tier := range res.Tiers {
		logger.Debug("purchase-order column resolved", "column", name, "index", res.Columns[name], "tier", tier.String())
	}
	if !res.OK() {
		return nil, fmt.Errorf("purchase-order file is missing required columns; need '%s', '%s', '%s'",
			LabelSupplier, LabelProductName, LabelQuantity)
	}

	supplierIdx := res.Columns[LabelSupplier]
	productIdx := res.Columns[LabelProductName]
	quantityIdx := res.Columns[LabelQuantity]
	priceIdx, hasPrice := res.Columns.Index(LabelUnitPrice)
	if !hasPrice {
		logger.Warn("unit price column not found, order values skipped", "sheet", sheet.Name)
	}

	out := &PurchaseOrders{Book: types.NewSupplierOrderBook(), PriceResolved: hasPrice}

	for _, row := range sheet.Rows {
		supplier := row.At(supplierIdx).Text()
		product := row.At(productIdx).Text()
		if supplier == "" || product == "" || row.At(quantityIdx).IsEmpty() {
			out.Skipped++
			continue
		}

		quantity, ok := validation.Key(row.At(quantityIdx))
		if !ok {
			logger.Warn("purchase-order row skipped, quantity is not positive", "row", row.Number, "value", row.At(quantityIdx).Raw)
			out.Skipped++
			continue
		}

		cost := decimal.Zero
		if hasPrice && !row.At(priceIdx).IsEmpty() {
			if price, ok := validation.Parse(row.At(priceIdx)); ok {
				cost = price.Mul(quantity)
			} else {
				logger.Warn("unit price is not a number", "row", row.Number, "value", row.At(priceIdx).Raw)
			}
		}

		out.Book.Add(supplier, product, quantity, cost)
	}

	logger.Info("purchase-order sheet aggregated",
		"sheet", sheet.Name,
		"suppliers", out.Book.Len(),
		"skipped", out.Skipped,
	)
	return out, nil
}
