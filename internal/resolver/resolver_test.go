package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invoiceColumns = []Column{
	Required("customer", "Khách hàng"),
	Required("amount_due", "Khách cần trả"),
	Required("amount_paid", "Khách đã trả"),
}

func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}
	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}

func TestResolveAnyPermutation(t *testing.T) {
	labels := []string{"Khách hàng", "Khách cần trả", "Khách đã trả", "Ghi chú", ""}

	for _, header := range permutations(labels) {
		res := Resolve(header, invoiceColumns)
		require.True(t, res.OK(), "header %v", header)

		for _, col := range invoiceColumns {
			idx, ok := res.Columns.Index(col.Name)
			require.True(t, ok)
			assert.Equal(t, col.Variants[0], header[idx], "header %v", header)
		}
	}
}

func TestResolveTierPriority(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		wantIdx int
		tier    Tier
	}{
		{"exact beats case-insensitive", []string{"tên hàng", "Tên hàng"}, 1, TierExact},
		{"case-insensitive beats substring", []string{"Tên hàng hóa", "TÊN HÀNG"}, 1, TierFold},
		{"substring lowest index", []string{"Mã", "Tên hàng (VN)", "Tên hàng cũ"}, 1, TierContains},
		{"diacritics folded last", []string{"Mã", "Ten hang"}, 1, TierDiacritics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.header, []Column{Required("product", "Tên hàng")})
			require.True(t, res.OK())
			assert.Equal(t, tt.wantIdx, res.Columns["product"])
			assert.Equal(t, tt.tier, res.Tiers["product"])
		})
	}
}

func TestResolveNeverSharesAnIndex(t *testing.T) {
	header := []string{"Tên hàng", "Nhóm hàng(3 Cấp)"}
	res := Resolve(header, []Column{
		Required("name", "Tên hàng"),
		Required("alias", "hàng"),
	})

	require.True(t, res.OK())
	assert.Equal(t, 0, res.Columns["name"])
	assert.Equal(t, 1, res.Columns["alias"])
}

func TestResolvePartitionsMissing(t *testing.T) {
	header := []string{"Mã phiếu", "Giá trị"}
	res := Resolve(header, []Column{
		Required("id", "Mã phiếu"),
		Required("category", "Loại thu chi"),
		Required("amount", "Giá trị"),
		Optional("note", "Ghi chú"),
	})

	assert.False(t, res.OK())
	assert.Equal(t, []string{"category"}, res.MissingRequired)
	assert.Equal(t, []string{"note"}, res.MissingOptional)

	err := res.Err("SoQuy.xlsx")
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"category"}, missing.Names)
	assert.Contains(t, err.Error(), "SoQuy.xlsx: missing columns: category")
}

func TestMissingColumnsErrorSuggestsClosestLabel(t *testing.T) {
	err := NewMissingColumnsError("", []string{"Tồn kho"}, []string{"Tên hàng", "Tôn kho", ""})
	assert.Equal(t, "Tôn kho", err.Suggestions["Tồn kho"])
	assert.Contains(t, err.Error(), `closest: Tồn kho ~ "Tôn kho"`)
}

func TestFind(t *testing.T) {
	idx, ok := Find([]string{"", "GIÁ VỐN"}, "Giá vốn")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = Find([]string{"a", "b"}, "Giá vốn")
	assert.False(t, ok)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "so tien ban giao", Fold("Số tiền bàn giao"))
	assert.Equal(t, "dau an", Fold(" Dầu Ăn "))
	assert.Equal(t, "dong", Fold("Đồng"))
}
