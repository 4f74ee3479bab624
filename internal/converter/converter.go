// =============================================================================
// XLSX Report Engine - Converter Module
// =============================================================================
//
// This module contains the per-file processing pipeline. It takes one or two
// materialized local files and produces either a workbook or text messages.
//
// PROCESSING PIPELINE:
//   1. Classify the file (name prefix, then header sniffing)
//   2. Load the active sheet into a typed grid
//   3. Run the aggregator for the kind
//   4. Write the workbook, or render and chunk the text report
//   5. Return a Result carrying the output and any diagnostics
//
// Nothing here raises past a Result: a failing file is reported in
// Result.Error and never aborts its siblings.
//
// =============================================================================

package converter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/xlsx-report-engine/internal/aggregate"
	"github.com/ginjaninja78/xlsx-report-engine/internal/collation"
	"github.com/ginjaninja78/xlsx-report-engine/internal/config"
	"github.com/ginjaninja78/xlsx-report-engine/internal/logging"
	"github.com/ginjaninja78/xlsx-report-engine/internal/report"
	"github.com/ginjaninja78/xlsx-report-engine/internal/types"
	"github.com/ginjaninja78/xlsx-report-engine/internal/xlsxparser"
	"github.com/ginjaninja78/xlsx-report-engine/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing one file or one combine run.
type Result struct {
	// FilePath is the input file, or the first input of a combine run.
	FilePath string

	// Kind is the classified kind of FilePath.
	Kind types.FileKind

	// OutputFile is the generated workbook; empty for text reports.
	OutputFile string

	// Messages are the text report chunks, each within the chunk size.
	Messages []string

	// Diagnostics are non-fatal warnings produced next to the output.
	Diagnostics []types.Diagnostic

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of non-empty data rows read.
	RowsRead int

	// DetailRows is the number of cashbook rows streamed into a combined report.
	DetailRows int

	// RowsCompacted is the number of blank template rows removed.
	RowsCompacted int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// Warnings flattens the diagnostics for display.
func (r Result) Warnings() []string {
	return types.Messages(r.Diagnostics)
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the processing pipeline with one configuration.
type Converter struct {
	cfg    *config.MainConfig
	logger *slog.Logger

	// Compare orders product, category and supplier names.
	Compare collation.Comparator

	// Templates provides a fresh combine template per run.
	Templates report.TemplateLoader

	// Now stamps combined reports and names outputs.
	Now func() time.Time

	// LookupEnv reads the payroll asset; defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// New creates a Converter for cfg. A nil logger discards output.
func New(cfg *config.MainConfig, logger *slog.Logger) *Converter {
	return &Converter{
		cfg:     cfg,
		logger:  logging.OrNop(logger),
		Compare: collation.Vietnamese(),
		Templates: report.TemplateLoader{
			Path:   cfg.TemplatePath,
			EnvVar: cfg.TemplateBase64Env,
		},
		Now:       time.Now,
		LookupEnv: os.LookupEnv,
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify determines the kind of path. Names without a known prefix are
// opened and identified by their header; the loaded sheet is returned so it
// is not read twice.
func (c *Converter) Classify(path string) (types.FileKind, *xlsxparser.Sheet, error) {
	if kind := ClassifyName(path); kind != types.KindUnknown {
		return kind, nil, nil
	}

	sheet, err := c.load(path)
	if err != nil {
		return types.KindUnknown, nil, err
	}
	kind := Sniff(sheet.HeaderLabels())
	c.logger.Debug("file classified by header", "file", filepath.Base(path), "kind", kind)
	return kind, sheet, nil
}

func (c *Converter) load(path string) (*xlsxparser.Sheet, error) {
	sheet, err := xlsxparser.Open(path, c.cfg.CSV)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return sheet, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Process classifies path and runs the matching pipeline. A cashbook on its
// own is combined without invoices.
//
// PARAMETERS:
//   - path: The input file.
//   - outputDir: Where workbooks are written.
//
// RETURNS:
//   - A Result; Result.Error holds an *UnrecognizedFileError for unknown files.
func (c *Converter) Process(path, outputDir string) Result {
	kind, sheet, err := c.Classify(path)
	if err != nil {
		return Result{FilePath: path, Kind: kind, Error: err}
	}

	switch kind {
	case types.KindInvoice:
		return c.invoiceReport(path, sheet, outputDir)
	case types.KindCashbook:
		return c.Combine(nil, []string{path}, outputDir)
	case types.KindProduct:
		return c.products(path, sheet, false)
	case types.KindPurchaseOrder:
		return c.purchaseOrders(path, sheet)
	default:
		return Result{FilePath: path, Kind: kind, Error: &UnrecognizedFileError{Name: filepath.Base(path)}}
	}
}

// InvoiceReport builds the single invoice report for path in outputDir.
// Invoice values are read strictly: a non-numeric amount fails the file.
func (c *Converter) InvoiceReport(path, outputDir string) Result {
	return c.invoiceReport(path, nil, outputDir)
}

func (c *Converter) invoiceReport(path string, sheet *xlsxparser.Sheet, outputDir string) Result {
	start := time.Now()
	result := Result{FilePath: path, Kind: types.KindInvoice}
	c.logger.Info("processing file", "file", filepath.Base(path), "kind", result.Kind)

	if sheet == nil {
		var err error
		if sheet, err = c.load(path); err != nil {
			result.Error = err
			return result
		}
	}

	lines, err := aggregate.ReadInvoices(sheet)
	if err != nil {
		result.Error = fmt.Errorf("failed to read invoices: %w", err)
		return result
	}
	result.Stats.RowsRead = len(lines)

	f, err := report.BuildInvoiceReport(lines)
	if err != nil {
		result.Error = fmt.Errorf("failed to build invoice report: %w", err)
		return result
	}
	defer f.Close()

	output := filepath.Join(outputDir, utils.SingleReportName(path))
	if err := f.SaveAs(output); err != nil {
		result.Error = fmt.Errorf("failed to save invoice report: %w", err)
		return result
	}

	result.OutputFile = output
	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	c.logger.Info("wrote output", "file", output, "rows", len(lines))
	return result
}

// Combine merges invoice totals and cashbook detail into one report built
// from the combine template. A file that cannot be read becomes a
// diagnostic; the remaining files are still combined.
func (c *Converter) Combine(invoices, cashbooks []string, outputDir string) Result {
	start := time.Now()
	result := Result{Kind: types.KindCashbook}
	if len(invoices) > 0 {
		result.FilePath = invoices[0]
		result.Kind = types.KindInvoice
	} else if len(cashbooks) > 0 {
		result.FilePath = cashbooks[0]
	}

	template, source, err := c.Templates.Load()
	if err != nil {
		result.Error = fmt.Errorf("failed to load template: %w", err)
		return result
	}
	c.logger.Debug("combine template loaded", "source", source)

	now := c.Now()
	session, err := report.NewCombineSession(template, report.CombineOptions{
		Layout: c.cfg.Combine,
		Now:    now,
		Logger: c.logger,
	})
	if err != nil {
		_ = template.Close()
		result.Error = fmt.Errorf("failed to prepare combined report: %w", err)
		return result
	}
	defer session.Close()

	var loadDiags []types.Diagnostic
	sheets := func(paths []string, kind types.FileKind) []*xlsxparser.Sheet {
		var out []*xlsxparser.Sheet
		for _, path := range paths {
			sheet, err := c.load(path)
			if err != nil {
				c.logger.Warn("file skipped", "file", filepath.Base(path), "error", err)
				loadDiags = append(loadDiags, types.Diagnostic{Source: string(kind), Message: err.Error()})
				continue
			}
			result.Stats.RowsRead += len(sheet.Rows)
			out = append(out, sheet)
		}
		return out
	}

	for _, sheet := range sheets(invoices, types.KindInvoice) {
		session.AddInvoice(sheet)
	}
	for _, sheet := range sheets(cashbooks, types.KindCashbook) {
		if err := session.AddCashbook(sheet); err != nil {
			result.Error = err
			return result
		}
	}
	result.Stats.DetailRows = session.Cursor() - c.cfg.Combine.DetailStartRow

	compaction, err := session.Finalize()
	result.Diagnostics = append(loadDiags, session.Diagnostics()...)
	if err != nil {
		result.Error = fmt.Errorf("failed to finalize combined report: %w", err)
		return result
	}
	result.Stats.RowsCompacted = compaction.Deleted

	output := filepath.Join(outputDir, utils.CombinedReportName(now))
	if err := session.SaveAs(output); err != nil {
		result.Error = err
		return result
	}

	result.OutputFile = output
	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	c.logger.Info("wrote output", "file", output,
		"invoices", len(invoices), "cashbooks", len(cashbooks), "detail_rows", result.Stats.DetailRows)
	return result
}

// Products renders the product inventory of path as text messages.
func (c *Converter) Products(path string, simple bool) Result {
	return c.products(path, nil, simple)
}

func (c *Converter) products(path string, sheet *xlsxparser.Sheet, simple bool) Result {
	start := time.Now()
	result := Result{FilePath: path, Kind: types.KindProduct}
	c.logger.Info("processing file", "file", filepath.Base(path), "kind", result.Kind, "simple", simple)

	if sheet == nil {
		var err error
		if sheet, err = c.load(path); err != nil {
			result.Error = err
			return result
		}
	}
	result.Stats.RowsRead = len(sheet.Rows)

	inv, err := aggregate.ExtractProducts(sheet, aggregate.ProductOptions{
		Simple:   simple,
		Excluded: c.cfg.ExcludedCategories,
		Compare:  c.Compare,
		Logger:   c.logger,
	})
	if err != nil {
		result.Error = err
		return result
	}

	result.Messages = report.Chunk(report.FormatProducts(inv, simple), c.cfg.MessageChunkSize)
	result.Diagnostics = inv.Diagnostics
	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	return result
}

// PurchaseOrders renders the supplier order book of path as text messages.
func (c *Converter) PurchaseOrders(path string) Result {
	return c.purchaseOrders(path, nil)
}

func (c *Converter) purchaseOrders(path string, sheet *xlsxparser.Sheet) Result {
	start := time.Now()
	result := Result{FilePath: path, Kind: types.KindPurchaseOrder}
	c.logger.Info("processing file", "file", filepath.Base(path), "kind", result.Kind)

	if sheet == nil {
		var err error
		if sheet, err = c.load(path); err != nil {
			result.Error = err
			return result
		}
	}
	result.Stats.RowsRead = len(sheet.Rows)

	orders, err := aggregate.AggregatePurchaseOrders(sheet, c.logger)
	if err != nil {
		result.Error = err
		return result
	}

	text := report.FormatPurchaseOrders(orders.Book.Sorted(c.Compare.Less))
	result.Messages = report.Chunk(text, c.cfg.MessageChunkSize)
	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	return result
}

// Payroll writes the payroll workbook held base64-encoded in the variable
// named by PayrollBase64Env to outputDir as BangLuong_ddmm.xlsx.
func (c *Converter) Payroll(outputDir string) Result {
	result := Result{}
	name := c.cfg.PayrollBase64Env

	encoded, ok := c.LookupEnv(name)
	if !ok || encoded == "" {
		result.Error = fmt.Errorf("payroll data not found in %s", name)
		return result
	}
	raw, err := report.DecodeAsset(encoded)
	if err != nil {
		result.Error = fmt.Errorf("payroll data in %s is corrupt: %w", name, err)
		return result
	}

	output := filepath.Join(outputDir, utils.PayrollName(c.Now()))
	if err := os.WriteFile(output, raw, 0644); err != nil {
		result.Error = fmt.Errorf("failed to write payroll: %w", err)
		return result
	}

	result.OutputFile = output
	result.Success = true
	c.logger.Info("wrote payroll", "file", output, "bytes", len(raw))
	return result
}
