// =============================================================================
// XLSX Report Engine - Session Store
// =============================================================================
//
// This module pairs uploads per user. A cashbook is retained until the same
// user sends an invoice list; the two are then combined into one report.
//
// UPLOAD FLOW:
//   | Upload              | Pending cashbook | Action                        |
//   |---------------------|------------------|-------------------------------|
//   | cashbook            | any              | retain (replaces the old one) |
//   | invoice             | yes              | combine, release both         |
//   | invoice             | no               | single report                 |
//   | product / orders    | any              | text report                   |
//   | unknown             | any              | help reply                    |
//
// Every upload lives in its own temporary workspace. Workspaces are removed
// on every exit path except a retained cashbook, which is released by the
// combine that consumes it, by a newer cashbook or by Reset.
//
// =============================================================================

package session

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ginjaninja78/xlsx-report-engine/internal/converter"
	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/pkg/utils"
)

// Replies sent alongside outcomes.
const (
	ReplyCashbookRetained = "💡 Đã lưu file sổ quỹ.\nHãy gửi file danhsachhoadon_*.xlsx để tạo báo cáo tổng hợp!"
	ReplyCombined         = "✅ Báo cáo tổng hợp đã sẵn sàng!"
	ReplyReset            = "✅ Đã xóa tất cả dữ liệu tạm!"
)

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is what one upload produced for the user.
type Outcome struct {
	Kind types.FileKind

	// Document is a generated workbook to deliver, with its caption.
	Document string
	Caption  string

	// Messages are text replies in delivery order.
	Messages []string

	// Retained is set when the upload is kept for a later pairing.
	Retained bool

	// Combined is set when the upload completed a pairing.
	Combined bool

	// Err is the processing failure; Messages already carries its user text.
	Err error
}

// =============================================================================
// STORE
// =============================================================================

type pending struct {
	path      string
	workspace *utils.Workspace
}

type userState struct {
	// mu serializes the uploads of one user.
	mu       sync.Mutex
	cashbook *pending
}

// Store holds the pairing state of every user.
type Store struct {
	conv   *converter.Converter
	files  *utils.FileManager
	logger *slog.Logger

	// maxBytes rejects larger uploads; zero disables the check.
	maxBytes int64

	mu    sync.Mutex
	users map[string]*userState
}

// Options configures a Store.
type Options struct {
	// MaxBytes is the upload size limit.
	MaxBytes int64

	Logger *slog.Logger
}

// New creates a store processing with conv and keeping workspaces in files.
func New(conv *converter.Converter, files *utils.FileManager, opts Options) *Store {
	return &Store{
		conv:     conv,
		files:    files,
		logger:   logging.OrNop(opts.Logger),
		maxBytes: opts.MaxBytes,
		users:    make(map[string]*userState),
	}
}

func (s *Store) user(id string) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &userState{}
		s.users[id] = u
	}
	return u
}

// HasPendingCashbook reports whether user has a cashbook awaiting an invoice.
func (s *Store) HasPendingCashbook(user string) bool {
	u := s.user(user)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cashbook != nil
}

// =============================================================================
// UPLOADS
// =============================================================================

// Upload processes one uploaded file for user.
//
// PARAMETERS:
//   - user: The session key.
//   - name: The original file name; it drives classification.
//   - size: The announced size in bytes, or a negative value when unknown.
//   - r: The file content.
//
// RETURNS:
//   - The outcome. Failures are reported in Outcome.Err, never as a panic or
//     a leaked workspace.
func (s *Store) Upload(user, name string, size int64, r io.Reader) Outcome {
	name = filepath.Base(name)
	if s.maxBytes > 0 && size > s.maxBytes {
		return s.tooLarge(name, size)
	}

	u := s.user(user)
	u.mu.Lock()
	defer u.mu.Unlock()

	ws, err := s.files.NewWorkspace("upload")
	if err != nil {
		return failed(types.KindUnknown, name, err)
	}
	retain := false
	defer func() {
		if retain {
			return
		}
		if err := ws.Remove(); err != nil {
			s.logger.Error("workspace cleanup failed", "dir", ws.Dir, "error", err)
		}
	}()

	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}
	path, err := ws.Write(name, r)
	if err != nil {
		return failed(types.KindUnknown, name, err)
	}
	if written, err := utils.GetFileSize(path); err == nil && s.maxBytes > 0 && written > s.maxBytes {
		return s.tooLarge(name, written)
	}
	s.logger.Info("upload received", "user", user, "file", name, "dir", ws.Dir)

	kind, _, err := s.conv.Classify(path)
	if err != nil {
		return failed(kind, name, err)
	}

	switch kind {
	case types.KindCashbook:
		s.releaseCashbook(u)
		u.cashbook = &pending{path: path, workspace: ws}
		retain = true
		return Outcome{Kind: kind, Retained: true, Messages: []string{ReplyCashbookRetained}}

	case types.KindInvoice:
		if u.cashbook != nil {
			return s.combine(u, path)
		}
		return s.single(path, name)

	case types.KindProduct:
		return textOutcome(kind, name, s.conv.Products(path, false))

	case types.KindPurchaseOrder:
		return textOutcome(kind, name, s.conv.PurchaseOrders(path))

	default:
		return Outcome{
			Kind:     types.KindUnknown,
			Messages: []string{converter.UnrecognizedMessage(name)},
			Err:      &converter.UnrecognizedFileError{Name: name},
		}
	}
}

// UploadFile is Upload for a file already on disk.
func (s *Store) UploadFile(user, path string) Outcome {
	file, err := os.Open(path)
	if err != nil {
		return failed(types.KindUnknown, filepath.Base(path), err)
	}
	defer file.Close()

	size := int64(-1)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	return s.Upload(user, path, size, file)
}

func (s *Store) single(path, name string) Outcome {
	res := s.conv.InvoiceReport(path, s.files.OutputDir)
	if res.Error != nil {
		return failed(types.KindInvoice, name, res.Error)
	}
	return Outcome{
		Kind:     types.KindInvoice,
		Document: res.OutputFile,
		Caption:  fmt.Sprintf("✅ Đã xử lý file: %s", name),
	}
}

// combine consumes the pending cashbook together with invoice. The cashbook
// is released whatever the outcome.
func (s *Store) combine(u *userState, invoice string) Outcome {
	cashbook := u.cashbook
	defer s.releaseCashbook(u)

	res := s.conv.Combine([]string{invoice}, []string{cashbook.path}, s.files.OutputDir)
	if res.Error != nil {
		return failed(types.KindInvoice, filepath.Base(invoice), res.Error)
	}

	out := Outcome{
		Kind:     types.KindInvoice,
		Document: res.OutputFile,
		Caption:  ReplyCombined,
		Combined: true,
	}
	if warnings := res.Warnings(); len(warnings) > 0 {
		out.Messages = append(out.Messages, "⚠️ Cảnh báo:\n"+strings.Join(warnings, "\n"))
	}
	return out
}

// Flush combines a cashbook still waiting for an invoice on its own.
// It returns false when nothing is pending.
func (s *Store) Flush(user string) (Outcome, bool) {
	u := s.user(user)
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cashbook == nil {
		return Outcome{}, false
	}
	cashbook := u.cashbook
	defer s.releaseCashbook(u)

	res := s.conv.Combine(nil, []string{cashbook.path}, s.files.OutputDir)
	if res.Error != nil {
		return failed(types.KindCashbook, filepath.Base(cashbook.path), res.Error), true
	}
	out := Outcome{Kind: types.KindCashbook, Document: res.OutputFile, Caption: ReplyCombined, Combined: true}
	if warnings := res.Warnings(); len(warnings) > 0 {
		out.Messages = append(out.Messages, "⚠️ Cảnh báo:\n"+strings.Join(warnings, "\n"))
	}
	return out, true
}

// =============================================================================
// RESET
// =============================================================================

// Reset drops the pairing state of user and removes retained workspaces.
// The user entry itself stays in the store so an upload already holding it
// still retains into state that Flush, Reset and Close can reach.
func (s *Store) Reset(user string) string {
	u := s.user(user)
	u.mu.Lock()
	defer u.mu.Unlock()
	s.releaseCashbook(u)
	return ReplyReset
}

// Close resets every user.
func (s *Store) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Reset(id)
	}
}

func (s *Store) releaseCashbook(u *userState) {
	if u.cashbook == nil {
		return
	}
	if err := u.cashbook.workspace.Remove(); err != nil {
		s.logger.Error("workspace cleanup failed", "dir", u.cashbook.workspace.Dir, "error", err)
	}
	u.cashbook = nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *Store) tooLarge(name string, size int64) Outcome {
	limitMB := s.maxBytes / (1024 * 1024)
	msg := fmt.Sprintf("❌ File '%s' quá lớn (%.1fMB). Giới hạn: %dMB. Vui lòng nén hoặc chia nhỏ file.",
		name, float64(size)/(1024*1024), limitMB)
	return Outcome{
		Kind:     types.KindUnknown,
		Messages: []string{msg},
		Err:      fmt.Errorf("file %s exceeds %d bytes", name, s.maxBytes),
	}
}

func textOutcome(kind types.FileKind, name string, res converter.Result) Outcome {
	if res.Error != nil {
		return failed(kind, name, res.Error)
	}
	return Outcome{Kind: kind, Messages: res.Messages}
}

func failed(kind types.FileKind, name string, err error) Outcome {
	return Outcome{
		Kind:     kind,
		Messages: []string{fmt.Sprintf("❌ Đã xảy ra lỗi khi xử lý file '%s'.\n%s", name, converter.UserMessage(err))},
		Err:      err,
	}
}
