package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount rounded to whole đồng with thousands
// separators: 1234567.4 -> "1,234,567đ".
func FormatMoney(d decimal.Decimal) string {
	return moneyPrinter.Sprintf("%d", d.Round(0).IntPart()) + "đ"
}

// FormatProducts renders the product inventory message.
func FormatProducts(inv *types.ProductInventory, simple bool) string {
	var b strings.Builder
	if simple {
		b.WriteString("Danh sách sản phẩm có hàng tồn khác 0 (bao gồm cả tồn kho âm) :\n\n")
	} else {
		b.WriteString("📦 Danh sách sản phẩm tồn kho ≠ 0\n\n")
	}

	for _, g := range inv.Groups {
		if len(g.Products) == 0 {
			continue
		}
		category := g.Category
		if g.Uncategorized {
			category = "(chưa phân nhóm)"
		}
		fmt.Fprintf(&b, "Nhóm: %s\n", category)
		for _, p := range g.Products {
			fmt.Fprintf(&b, "- %s: %s\n", p.Name, p.StockLabel())
		}
		b.WriteString("\n")
	}

	if inv.CostResolved {
		fmt.Fprintf(&b, "💰 Tổng tiền tồn kho: %s\n", FormatMoney(inv.TotalValuation))
	}

	if len(inv.Diagnostics) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Cảnh báo:\n%s\n", strings.Join(types.Messages(inv.Diagnostics), ", "))
	}
	return b.String()
}

// FormatPurchaseOrders renders the supplier order message.
func FormatPurchaseOrders(suppliers []types.SupplierOrders) string {
	var b strings.Builder
	b.WriteString("🛒 Chi Tiết Đơn Đặt Hàng Theo Nhà Cung Cấp\n\n")

	for _, s := range suppliers {
		fmt.Fprintf(&b, "%s:\n", s.Supplier)
		for _, l := range s.Lines {
			if l.TotalCost.IsPositive() {
				fmt.Fprintf(&b, "• %s: %s (Tổng: %s)\n", l.Product, l.Quantity.String(), FormatMoney(l.TotalCost))
			} else {
				fmt.Fprintf(&b, "• %s: %s\n", l.Product, l.Quantity.String())
			}
		}
		if total := s.Total(); total.IsPositive() {
			fmt.Fprintf(&b, "Tổng: %s\n\n", FormatMoney(total))
		} else {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Chunk splits text into pieces of at most size characters. Text that fits
// is returned as a single chunk.
func Chunk(text string, size int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
