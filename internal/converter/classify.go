package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/xlsx-report-engine/internal/aggregate"
	"github.com/ginjaninja78/xlsx-report-engine/internal/resolver"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
)

// =============================================================================
// FILE CLASSIFICATION
// =============================================================================

// Prefixes maps point-of-sale export name prefixes to file kinds.
var Prefixes = []struct {
	Prefix string
	Kind   types.FileKind
}{
	{"danhsachhoadon_", types.KindInvoice},
	{"soquy_", types.KindCashbook},
	{"danhsachsanpham_", types.KindProduct},
	{"danhsachchitietdathang_", types.KindPurchaseOrder},
}

// sniffers identify a renamed export by the columns its header must carry.
var sniffers = []struct {
	kind    types.FileKind
	columns []resolver.Column
}{
	{types.KindInvoice, []resolver.Column{
		resolver.Required(aggregate.LabelCustomer),
		resolver.Required(aggregate.LabelAmountDue),
		resolver.Required(aggregate.LabelAmountPaid),
	}},
	{types.KindCashbook, []resolver.Column{
		resolver.Required(aggregate.LabelVoucherID),
		resolver.Required(aggregate.LabelCategory),
		resolver.Required(aggregate.LabelAmount),
	}},
	{types.KindProduct, []resolver.Column{
		resolver.Required(aggregate.LabelProductCategory),
		resolver.Required(aggregate.LabelProductName),
		resolver.Required(aggregate.LabelStock),
	}},
	{types.KindPurchaseOrder, []resolver.Column{
		resolver.Required(aggregate.LabelSupplier),
		resolver.Required(aggregate.LabelProductName),
		resolver.Required(aggregate.LabelQuantity),
	}},
}

// ClassifyName returns the kind implied by the file name prefix, ignoring
// case, or KindUnknown.
func ClassifyName(path string) types.FileKind {
	name := strings.ToLower(filepath.Base(path))
	for _, p := range Prefixes {
		if strings.HasPrefix(name, p.Prefix) {
			return p.Kind
		}
	}
	return types.KindUnknown
}

// Sniff classifies a header row. The first kind whose columns all resolve
// wins; KindUnknown when none does.
func Sniff(header []string) types.FileKind {
	for _, s := range sniffers {
		if resolver.Resolve(header, s.columns).OK() {
			return s.kind
		}
	}
	return types.KindUnknown
}

// =============================================================================
// USER MESSAGES
// =============================================================================

// maxDetail is how much of an underlying error reaches the user.
const maxDetail = 100

// UnrecognizedFileError is returned for uploads no aggregator accepts.
type UnrecognizedFileError struct {
	Name string
}

func (e *UnrecognizedFileError) Error() string {
	return fmt.Sprintf("file '%s' is not recognized", e.Name)
}

// UnrecognizedMessage is the reply sent for an unknown upload.
func UnrecognizedMessage(name string) string {
	return fmt.Sprintf("❌ File '%s' không được nhận diện.\n\n"+
		"Vui lòng đặt tên file theo định dạng:\n"+
		"• danhsachhoadon_*.xlsx\n"+
		"• soquy_*.xlsx\n"+
		"• danhsachsanpham_*.xlsx\n"+
		"• danhsachchitietdathang_*.xlsx", name)
}

// UserMessage renders err for the user, keeping only the first 100
// characters of its detail.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return "❌ Lỗi: " + Truncate(err.Error(), maxDetail)
}

// Truncate keeps the first n characters of s.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// HelpText lists the supported uploads and their required columns.
const HelpText = "📚 Hướng Dẫn Sử Dụng\n\n" +
	"1️⃣ File Danh Sách Hóa Đơn:\n" +
	"• Tên file: danhsachhoadon_*.xlsx\n" +
	"• Cần có cột: Khách hàng, Khách cần trả, Khách đã trả\n" +
	"• Kết quả: File Excel với tổng tiền, tiền mặt, chuyển khoản\n\n" +
	"2️⃣ File Sổ Quỹ:\n" +
	"• Tên file: soquy_*.xlsx\n" +
	"• Cần có cột: Mã phiếu, Loại thu chi, Người nộp/nhận, Giá trị\n" +
	"• Kết quả: Gộp với file hóa đơn thành báo cáo tổng hợp\n\n" +
	"3️⃣ File Danh Sách Sản Phẩm:\n" +
	"• Tên file: danhsachsanpham_*.xlsx\n" +
	"• Cần có cột: Nhóm hàng(3 Cấp), Tên hàng, Tồn kho\n" +
	"• Kết quả: Danh sách sản phẩm nhóm theo danh mục\n\n" +
	"4️⃣ File Chi Tiết Đơn Đặt Hàng:\n" +
	"• Tên file: danhsachchitietdathang_*.xlsx\n" +
	"• Cần có cột: Tên nhà cung cấp, Tên hàng, Số lượng\n" +
	"• Kết quả: Danh sách nhóm theo nhà cung cấp\n\n" +
	"🔄 Gộp File:\n" +
	"Gửi 1 file soquy rồi 1 file danhsachhoadon để tạo báo cáo tổng hợp!"
