package aggregate

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ginjaninja78/xlsx-report-engine/internal/collation"
	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/resolver"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/internal/validation"
	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
)

// Product list header labels.
const (
	LabelProductCategory = "Nhóm hàng(3 Cấp)"
	LabelProductName     = "Tên hàng"
	LabelStock           = "Tồn kho"
	LabelUnitCost        = "Giá vốn"
)

// StockMissing is listed for a product whose stock cell is empty.
const StockMissing = "(trống)"

// ProductOptions controls product extraction.
type ProductOptions struct {
	// Simple disables exclusions and valuation.
	Simple bool

	// Excluded categories are dropped from Groups but kept in All.
	Excluded []string

	// Compare orders categories and product names. Nil means Vietnamese.
	Compare collation.Comparator

	Logger *slog.Logger
}

// ExtractProducts reads a product list into an inventory of non-zero stock.
//
// A missing required column fails the whole file with a descriptive error;
// the product report has no partial form worth sending.
func ExtractProducts(sheet *xlsxparser.Sheet, opts ProductOptions) (*types.ProductInventory, error) {
	logger := logging.OrNop(opts.Logger)
	compare := opts.Compare
	if compare == nil {
		compare = collation.Vietnamese()
	}

	header := sheet.HeaderLabels()
	columns := []resolver.Column{
		resolver.Required(LabelProductCategory),
		resolver.Required(LabelProductName),
		resolver.Required(LabelStock),
	}
	if !opts.Simple {
		columns = append(columns, resolver.Optional(LabelUnitCost))
	}
	res := resolver.Resolve(header, columns)
	if !res.OK() {
		return nil, fmt.Errorf("product file is missing required column '%s'", res.MissingRequired[0])
	}
	categoryIdx := res.Columns[LabelProductCategory]
	nameIdx := res.Columns[LabelProductName]
	stockIdx := res.Columns[LabelStock]

	inv := &types.ProductInventory{}

	costIdx := -1
	if !opts.Simple {
		if i, ok := res.Columns.Index(LabelUnitCost); ok {
			costIdx = i
			inv.CostResolved = true
			logger.Info("unit cost column resolved", "index", i, "label", header[i], "tier", res.Tiers[LabelUnitCost].String())
		} else {
			logger.Warn("unit cost column not found, valuation skipped", "sheet", sheet.Name)
			inv.Diagnostics = append(inv.Diagnostics, types.Diagnostic{
				Source:  string(types.KindProduct),
				Message: fmt.Sprintf("product file is missing columns: %s", LabelUnitCost),
			})
		}
	}

	excluded := make(map[string]bool, len(opts.Excluded))
	if !opts.Simple {
		for _, c := range opts.Excluded {
			excluded[c] = true
		}
	}

	groups := make(map[string]*types.ProductGroup)
	var uncategorized *types.ProductGroup
	unreadable := 0

	for _, row := range sheet.Rows {
		if row.IsEmpty() {
			continue
		}

		// The simple listing shows every row whose stock is not exactly zero,
		// including unreadable or missing stock. The valued report cannot
		// price such rows and skips them.
		stockCell := row.At(stockIdx)
		stock, ok := validation.Parse(stockCell)
		stockText := ""
		if !ok {
			if !opts.Simple {
				unreadable++
				logger.Warn("product row skipped, stock is not a number", "row", row.Number, "value", stockCell.Raw)
				continue
			}
			stockText = stockCell.Text()
			if stockText == "" {
				stockText = StockMissing
			}
		} else if stock.IsZero() {
			continue
		}

		categoryCell := row.At(categoryIdx)
		rec := types.ProductRecord{
			Name:          row.At(nameIdx).Text(),
			Category:      categoryCell.Text(),
			Uncategorized: categoryCell.IsBlank(),
			Stock:         stock,
			StockText:     stockText,
		}

		if costIdx >= 0 {
			if cost, ok := validation.Parse(row.At(costIdx)); ok {
				rec.UnitCost = &cost
				rec.Valuation = cost.Mul(stock)
			} else if !row.At(costIdx).IsEmpty() {
				logger.Warn("unit cost is not a number", "product", rec.Name, "value", row.At(costIdx).Raw)
			}
		}

		inv.All = append(inv.All, rec)
		inv.TotalValuation = inv.TotalValuation.Add(rec.Valuation)

		switch {
		case rec.Uncategorized:
			if uncategorized == nil {
				uncategorized = &types.ProductGroup{Uncategorized: true}
			}
			uncategorized.Products = append(uncategorized.Products, rec)
		case excluded[rec.Category]:
		default:
			g, ok := groups[rec.Category]
			if !ok {
				g = &types.ProductGroup{Category: rec.Category}
				groups[rec.Category] = g
			}
			g.Products = append(g.Products, rec)
		}
	}

	if unreadable > 0 {
		inv.Diagnostics = append(inv.Diagnostics, types.Diagnostic{
			Source:  string(types.KindProduct),
			Message: fmt.Sprintf("%d product rows skipped, '%s' is not a number", unreadable, LabelStock),
		})
	}

	sortProducts(inv.All, compare)
	for _, g := range groups {
		sortProducts(g.Products, compare)
		inv.Groups = append(inv.Groups, *g)
	}
	sort.SliceStable(inv.Groups, func(i, j int) bool {
		return compare.Less(inv.Groups[i].Category, inv.Groups[j].Category)
	})
	if uncategorized != nil {
		sortProducts(uncategorized.Products, compare)
		inv.Groups = append(inv.Groups, *uncategorized)
	}

	logger.Info("product sheet extracted",
		"sheet", sheet.Name,
		"products", len(inv.All),
		"groups", len(inv.Groups),
		"excluded", strings.Join(opts.Excluded, ", "),
		"valuation", inv.TotalValuation.String(),
	)
	return inv, nil
}

func sortProducts(products []types.ProductRecord, compare collation.Comparator) {
	sort.SliceStable(products, func(i, j int) bool {
		return compare.Less(products[i].Name, products[j].Name)
	})
}
